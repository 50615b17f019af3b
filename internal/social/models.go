package social

import "time"

// Account is the compact user shape returned in follower listings.
type Account struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// FollowStatus reports the state of the edge after a follow/unfollow call,
// plus the counts Django-style clients expect in the envelope.
type FollowStatus struct {
	Following        bool `json:"following"`
	AlreadyFollowing bool `json:"already_following,omitempty"`
	FollowersCount   int  `json:"followers_count"`
	FollowingCount   int  `json:"following_count"`
}

// FeedItem is a published post from a followed author.
type FeedItem struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	LikesCount     int       `json:"likes_count"`
	CommentsCount  int       `json:"comments_count"`
	CreatedAt      time.Time `json:"created_at"`
}
