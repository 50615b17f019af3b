package social

import (
	"context"
	"log"

	"backend-pulsefeed/internal/apperr"
	"backend-pulsefeed/internal/db"
	"backend-pulsefeed/internal/notification"
	"backend-pulsefeed/internal/shared/page"
)

const maxPageSize = 100

type Service struct {
	db           db.Querier
	notifier     *notification.Service
	feedPageSize int
}

func NewService(db db.Querier, notifier *notification.Service, feedPageSize int) *Service {
	if feedPageSize <= 0 {
		feedPageSize = 10
	}
	return &Service{db: db, notifier: notifier, feedPageSize: feedPageSize}
}

// Follow inserts the actor→target edge. Following an account twice reports
// already_following instead of creating a second edge; the unique constraint
// backs the same guarantee under concurrent requests.
func (s *Service) Follow(ctx context.Context, actorID, targetID string) (FollowStatus, error) {
	if actorID == targetID {
		return FollowStatus{}, apperr.ErrSelfFollow
	}

	var actorUsername *string
	var targetExists, already bool
	row := s.db.QueryRow(ctx, `
		SELECT
			(SELECT username FROM users WHERE id = $1),
			EXISTS (SELECT 1 FROM users WHERE id = $2),
			EXISTS (SELECT 1 FROM user_follows WHERE follower_id = $1 AND following_id = $2)
	`, actorID, targetID)
	if err := row.Scan(&actorUsername, &targetExists, &already); err != nil {
		return FollowStatus{}, err
	}
	if actorUsername == nil || !targetExists {
		return FollowStatus{}, apperr.ErrNotFound
	}

	if already {
		status, err := s.edgeCounts(ctx, actorID, targetID)
		if err != nil {
			return FollowStatus{}, err
		}
		status.Following = true
		status.AlreadyFollowing = true
		return status, nil
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO user_follows (follower_id, following_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, actorID, targetID); err != nil {
		return FollowStatus{}, err
	}

	// The edge is already committed; a notification failure must not turn
	// a successful follow into an error the caller would retry.
	if _, err := s.notifier.Emit(ctx, notification.Event{
		RecipientID:   targetID,
		ActorID:       actorID,
		ActorUsername: *actorUsername,
		Verb:          notification.VerbFollow,
	}); err != nil {
		log.Printf("follow notification error: %v", err)
	}

	status, err := s.edgeCounts(ctx, actorID, targetID)
	if err != nil {
		return FollowStatus{}, err
	}
	status.Following = true
	return status, nil
}

// Unfollow removes the edge. No notification is emitted.
func (s *Service) Unfollow(ctx context.Context, actorID, targetID string) (FollowStatus, error) {
	if actorID == targetID {
		return FollowStatus{}, apperr.ErrSelfFollow
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM user_follows WHERE follower_id = $1 AND following_id = $2
	`, actorID, targetID)
	if err != nil {
		return FollowStatus{}, err
	}
	if tag.RowsAffected() == 0 {
		return FollowStatus{}, apperr.ErrNotFollowing
	}

	return s.edgeCounts(ctx, actorID, targetID)
}

func (s *Service) edgeCounts(ctx context.Context, actorID, targetID string) (FollowStatus, error) {
	var status FollowStatus
	row := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM user_follows WHERE following_id = $2),
			(SELECT COUNT(*) FROM user_follows WHERE follower_id = $1)
	`, actorID, targetID)
	if err := row.Scan(&status.FollowersCount, &status.FollowingCount); err != nil {
		return FollowStatus{}, err
	}
	return status, nil
}

func (s *Service) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var following bool
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_follows WHERE follower_id = $1 AND following_id = $2)
	`, followerID, followingID)
	if err := row.Scan(&following); err != nil {
		return false, err
	}
	return following, nil
}

// Followers lists accounts following userID, ordered by edge insertion.
func (s *Service) Followers(ctx context.Context, userID string, pg page.Params) ([]Account, error) {
	return s.edgeAccounts(ctx, `
		SELECT u.id, u.username, u.full_name, u.avatar_url
		FROM user_follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.following_id = $1
		ORDER BY f.created_at
		LIMIT $2 OFFSET $3
	`, userID, pg)
}

// Following lists accounts userID follows, ordered by edge insertion.
func (s *Service) Following(ctx context.Context, userID string, pg page.Params) ([]Account, error) {
	return s.edgeAccounts(ctx, `
		SELECT u.id, u.username, u.full_name, u.avatar_url
		FROM user_follows f
		JOIN users u ON u.id = f.following_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at
		LIMIT $2 OFFSET $3
	`, userID, pg)
}

func (s *Service) edgeAccounts(ctx context.Context, query, userID string, pg page.Params) ([]Account, error) {
	rows, err := s.db.Query(ctx, query, userID, pg.Limit, pg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Username, &a.FullName, &a.AvatarURL); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// Feed returns published posts authored by accounts the user follows,
// newest first. An empty following set yields an empty page. The feed is
// recomputed on every request; there is no cache to invalidate.
func (s *Service) Feed(ctx context.Context, userID string, pageNum, pageSize int) ([]FeedItem, page.Params, error) {
	pg := page.Resolve(pageNum, pageSize, s.feedPageSize, maxPageSize)

	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.author_id, u.username, p.title, p.content, p.created_at,
		       (SELECT COUNT(*) FROM post_likes WHERE post_id = p.id),
		       (SELECT COUNT(*) FROM comments WHERE post_id = p.id)
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.is_published
		  AND p.author_id IN (SELECT following_id FROM user_follows WHERE follower_id = $1)
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, pg.Limit, pg.Offset)
	if err != nil {
		return nil, pg, err
	}
	defer rows.Close()

	var items []FeedItem
	for rows.Next() {
		var it FeedItem
		if err := rows.Scan(&it.ID, &it.AuthorID, &it.AuthorUsername, &it.Title, &it.Content, &it.CreatedAt, &it.LikesCount, &it.CommentsCount); err != nil {
			return nil, pg, err
		}
		items = append(items, it)
	}
	return items, pg, nil
}
