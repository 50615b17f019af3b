package notification

import "time"

// Verbs accepted by the emitter. Anything else is rejected.
const (
	VerbFollow  = "follow"
	VerbLike    = "like"
	VerbComment = "comment"
	VerbMention = "mention"
	VerbSystem  = "system"
)

type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	ActorID     string    `json:"actor_id"`
	Verb        string    `json:"verb"`
	TargetType  string    `json:"target_type,omitempty"`
	TargetID    string    `json:"target_id,omitempty"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// Event describes a mutation that may produce a notification. Message is
// optional; when empty the emitter templates one from the actor username,
// the verb and an excerpt of the target content.
type Event struct {
	RecipientID   string
	ActorID       string
	ActorUsername string
	Verb          string
	TargetType    string
	TargetID      string
	TargetExcerpt string
	Message       string
}

// Settings holds per-verb delivery flags, default on.
type Settings struct {
	UserID    string    `json:"user_id"`
	OnFollow  bool      `json:"on_follow"`
	OnLike    bool      `json:"on_like"`
	OnComment bool      `json:"on_comment"`
	OnMention bool      `json:"on_mention"`
	OnSystem  bool      `json:"on_system"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Counts struct {
	Unread int64 `json:"unread_count"`
	Total  int64 `json:"total_count"`
}
