package account

import (
	"context"

	"backend-pulsefeed/internal/apperr"
	"backend-pulsefeed/internal/db"
	"backend-pulsefeed/internal/shared/page"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT u.id, u.username, u.full_name, u.bio, u.avatar_url, u.website, u.location, u.created_at,
		       (SELECT COUNT(*) FROM user_follows WHERE following_id = u.id),
		       (SELECT COUNT(*) FROM user_follows WHERE follower_id = u.id)
		FROM users u WHERE u.id = $1
	`, userID)

	var p Profile
	if err := row.Scan(&p.ID, &p.Username, &p.FullName, &p.Bio, &p.AvatarURL, &p.Website, &p.Location, &p.CreatedAt, &p.FollowersCount, &p.FollowingCount); err != nil {
		return Profile{}, apperr.ErrNotFound
	}
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (Profile, error) {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET
			full_name  = COALESCE($2, full_name),
			bio        = COALESCE($3, bio),
			avatar_url = COALESCE($4, avatar_url),
			website    = COALESCE($5, website),
			location   = COALESCE($6, location),
			updated_at = NOW()
		WHERE id = $1
	`, userID, upd.FullName, upd.Bio, upd.AvatarURL, upd.Website, upd.Location)
	if err != nil {
		return Profile{}, err
	}
	return s.Profile(ctx, userID)
}

func (s *Service) Search(ctx context.Context, query string, pg page.Params) ([]Summary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, username, full_name, avatar_url
		FROM users
		WHERE username ILIKE '%' || $1 || '%'
		ORDER BY username
		LIMIT $2 OFFSET $3
	`, query, pg.Limit, pg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []Summary
	for rows.Next() {
		var u Summary
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.AvatarURL); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// ResolveUsernames maps usernames to user IDs, silently skipping unknown
// names. Used by mention scanning.
func (s *Service) ResolveUsernames(ctx context.Context, usernames []string) (map[string]string, error) {
	ids := map[string]string{}
	if len(usernames) == 0 {
		return ids, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, username FROM users WHERE username = ANY($1)
	`, usernames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, nil
}
