package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"backend-pulsefeed/internal/apperr"
	"backend-pulsefeed/internal/db"
	"backend-pulsefeed/internal/shared/page"
	"backend-pulsefeed/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

type Service struct {
	db    db.Querier
	redis *redis.Client
	hub   *stream.Hub
}

func NewService(db db.Querier, redisClient *redis.Client, hub *stream.Hub) *Service {
	return &Service{db: db, redis: redisClient, hub: hub}
}

// EnsureSettings creates the default-on preference row for a user. Safe to
// call repeatedly; also used as the post-registration hook.
func (s *Service) EnsureSettings(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO notification_settings (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

// Emit records a notification for the event's recipient. It returns nil
// without error when the recipient disabled the verb or is the actor;
// suppression is an outcome, not a failure.
func (s *Service) Emit(ctx context.Context, ev Event) (*Notification, error) {
	switch ev.Verb {
	case VerbFollow, VerbLike, VerbComment, VerbMention, VerbSystem:
	default:
		return nil, fmt.Errorf("unknown notification verb %q", ev.Verb)
	}
	if ev.RecipientID == "" || ev.RecipientID == ev.ActorID {
		return nil, nil
	}

	allowed, err := s.verbAllowed(ctx, ev.RecipientID, ev.Verb)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, nil
	}

	n := Notification{
		ID:          uuid.NewString(),
		RecipientID: ev.RecipientID,
		ActorID:     ev.ActorID,
		Verb:        ev.Verb,
		TargetType:  ev.TargetType,
		TargetID:    ev.TargetID,
		Message:     ev.Message,
	}
	if n.Message == "" {
		n.Message = defaultMessage(ev)
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, recipient_id, actor_id, verb, target_type, target_id, message)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, n.ID, n.RecipientID, n.ActorID, n.Verb, n.TargetType, n.TargetID, n.Message)
	if err := row.Scan(&n.CreatedAt); err != nil {
		return nil, err
	}

	s.adjustUnread(ctx, n.RecipientID, 1)
	if s.hub != nil {
		payload, _ := json.Marshal(n)
		s.hub.Broadcast(n.RecipientID, payload)
	}
	return &n, nil
}

// adjustUnread moves an existing cached counter by delta. A missing key is
// left missing so the next Counts call rebuilds it from the database; a
// blind INCR/DECR would mint a counter unrelated to the real unread total.
func (s *Service) adjustUnread(ctx context.Context, userID string, delta int64) {
	if s.redis == nil {
		return
	}
	key := unreadKey(userID)
	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}
	if err := s.redis.IncrBy(ctx, key, delta).Err(); err != nil {
		log.Printf("unread counter adjust error: %v", err)
	}
}

func (s *Service) verbAllowed(ctx context.Context, userID, verb string) (bool, error) {
	var allowed bool
	row := s.db.QueryRow(ctx, `
		SELECT CASE $2
			WHEN 'follow' THEN on_follow
			WHEN 'like' THEN on_like
			WHEN 'comment' THEN on_comment
			WHEN 'mention' THEN on_mention
			ELSE on_system
		END
		FROM notification_settings WHERE user_id = $1
	`, userID, verb)
	if err := row.Scan(&allowed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No row yet means the user never touched preferences: default on.
			return true, s.EnsureSettings(ctx, userID)
		}
		return false, err
	}
	return allowed, nil
}

func defaultMessage(ev Event) string {
	switch ev.Verb {
	case VerbFollow:
		return fmt.Sprintf("%s started following you", ev.ActorUsername)
	case VerbLike:
		noun := "post"
		if ev.TargetType == "comment" {
			noun = "comment"
		}
		if ev.TargetExcerpt != "" {
			return fmt.Sprintf("%s liked your %s: %s", ev.ActorUsername, noun, ev.TargetExcerpt)
		}
		return fmt.Sprintf("%s liked your %s", ev.ActorUsername, noun)
	case VerbComment:
		return fmt.Sprintf("%s commented on your post", ev.ActorUsername)
	case VerbMention:
		return fmt.Sprintf("%s mentioned you in a post", ev.ActorUsername)
	}
	return "system notification"
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, pg page.Params) ([]Notification, error) {
	query := `
		SELECT id, recipient_id, actor_id, verb, COALESCE(target_type,''), COALESCE(target_id,''), message, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(ctx, query, userID, pg.Limit, pg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.ActorID, &n.Verb, &n.TargetType, &n.TargetID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, nil
}

// Counts reads the unread count from redis when available, falling back to
// the database, and always counts totals in the database.
func (s *Service) Counts(ctx context.Context, userID string) (Counts, error) {
	var c Counts

	unreadFromRedis := false
	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, unreadKey(userID)).Result(); err == nil {
			if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
				c.Unread = v
				unreadFromRedis = true
			}
		}
	}
	if !unreadFromRedis {
		row := s.db.QueryRow(ctx, `
			SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE
		`, userID)
		if err := row.Scan(&c.Unread); err != nil {
			return Counts{}, err
		}
		if s.redis != nil {
			if err := s.redis.Set(ctx, unreadKey(userID), c.Unread, 0).Err(); err != nil {
				log.Printf("unread counter set error: %v", err)
			}
		}
	}

	row := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1`, userID)
	if err := row.Scan(&c.Total); err != nil {
		return Counts{}, err
	}
	return c, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND recipient_id = $2 AND is_read = FALSE
	`, notificationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	s.adjustUnread(ctx, userID, -1)
	return nil
}

func (s *Service) MarkUnread(ctx context.Context, userID, notificationID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = FALSE
		WHERE id = $1 AND recipient_id = $2 AND is_read = TRUE
	`, notificationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	s.adjustUnread(ctx, userID, 1)
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE recipient_id = $1 AND is_read = FALSE
	`, userID)
	if err != nil {
		return 0, err
	}
	if s.redis != nil {
		if err := s.redis.Set(ctx, unreadKey(userID), 0, 0).Err(); err != nil {
			log.Printf("unread counter reset error: %v", err)
		}
	}
	return tag.RowsAffected(), nil
}

func (s *Service) Settings(ctx context.Context, userID string) (Settings, error) {
	if err := s.EnsureSettings(ctx, userID); err != nil {
		return Settings{}, err
	}
	row := s.db.QueryRow(ctx, `
		SELECT user_id, on_follow, on_like, on_comment, on_mention, on_system, updated_at
		FROM notification_settings WHERE user_id = $1
	`, userID)

	var st Settings
	if err := row.Scan(&st.UserID, &st.OnFollow, &st.OnLike, &st.OnComment, &st.OnMention, &st.OnSystem, &st.UpdatedAt); err != nil {
		return Settings{}, err
	}
	return st, nil
}

func (s *Service) UpdateSettings(ctx context.Context, userID string, st Settings) (Settings, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO notification_settings (user_id, on_follow, on_like, on_comment, on_mention, on_system)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id) DO UPDATE SET
			on_follow = EXCLUDED.on_follow,
			on_like = EXCLUDED.on_like,
			on_comment = EXCLUDED.on_comment,
			on_mention = EXCLUDED.on_mention,
			on_system = EXCLUDED.on_system,
			updated_at = NOW()
		RETURNING user_id, on_follow, on_like, on_comment, on_mention, on_system, updated_at
	`, userID, st.OnFollow, st.OnLike, st.OnComment, st.OnMention, st.OnSystem)

	var out Settings
	if err := row.Scan(&out.UserID, &out.OnFollow, &out.OnLike, &out.OnComment, &out.OnMention, &out.OnSystem, &out.UpdatedAt); err != nil {
		return Settings{}, err
	}
	return out, nil
}

func unreadKey(userID string) string {
	return "notify:unread:" + userID
}
