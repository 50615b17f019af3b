package post

import (
	"context"
	"log"

	"backend-pulsefeed/internal/account"
	"backend-pulsefeed/internal/apperr"
	"backend-pulsefeed/internal/db"
	"backend-pulsefeed/internal/notification"
	"backend-pulsefeed/internal/shared/page"
	"backend-pulsefeed/internal/shared/text"

	"github.com/google/uuid"
)

const excerptLen = 50

type Service struct {
	db       db.Querier
	notifier *notification.Service
	accounts *account.Service
}

func NewService(db db.Querier, notifier *notification.Service, accounts *account.Service) *Service {
	return &Service{db: db, notifier: notifier, accounts: accounts}
}

func (s *Service) CreatePost(ctx context.Context, input Post) (Post, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, author_id, title, content, is_published)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at
	`, input.ID, input.AuthorID, input.Title, input.Content, input.IsPublished)
	if err := row.Scan(&input.CreatedAt, &input.UpdatedAt); err != nil {
		return Post{}, err
	}

	s.emitMentions(ctx, input.AuthorID, input.Content, "post", input.ID)
	return input, nil
}

// GetPost returns a post when it is published or owned by the viewer.
func (s *Service) GetPost(ctx context.Context, id, viewerID string) (Post, error) {
	row := s.db.QueryRow(ctx, `
		SELECT p.id, p.author_id, u.username, p.title, p.content, p.is_published, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM post_likes WHERE post_id = p.id),
		       (SELECT COUNT(*) FROM comments WHERE post_id = p.id)
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1 AND (p.is_published OR p.author_id = $2)
	`, id, viewerID)

	var p Post
	if err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &p.Title, &p.Content, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt, &p.LikesCount, &p.CommentsCount); err != nil {
		return Post{}, apperr.ErrNotFound
	}
	return p, nil
}

// ListPosts returns published posts, optionally narrowed by a title/content
// search and an author username, ordered newest first by the chosen column.
func (s *Service) ListPosts(ctx context.Context, f Filter, pg page.Params) ([]Post, error) {
	orderBy := "p.created_at"
	if f.OrderBy == "updated_at" {
		orderBy = "p.updated_at"
	}

	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.author_id, u.username, p.title, p.content, p.is_published, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM post_likes WHERE post_id = p.id),
		       (SELECT COUNT(*) FROM comments WHERE post_id = p.id)
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.is_published
		  AND ($1 = '' OR p.title ILIKE '%' || $1 || '%' OR p.content ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR u.username = $2)
		ORDER BY `+orderBy+` DESC
		LIMIT $3 OFFSET $4
	`, f.Search, f.AuthorUsername, pg.Limit, pg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &p.Title, &p.Content, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt, &p.LikesCount, &p.CommentsCount); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Service) UpdatePost(ctx context.Context, id, actorID string, upd PostUpdate) (Post, error) {
	if err := s.requireOwner(ctx, id, actorID); err != nil {
		return Post{}, err
	}

	if _, err := s.db.Exec(ctx, `
		UPDATE posts SET
			title = COALESCE($2, title),
			content = COALESCE($3, content),
			is_published = COALESCE($4, is_published),
			updated_at = NOW()
		WHERE id = $1
	`, id, upd.Title, upd.Content, upd.IsPublished); err != nil {
		return Post{}, err
	}
	return s.GetPost(ctx, id, actorID)
}

// DeletePost hard-deletes the post; likes and comments go with it via
// ON DELETE CASCADE.
func (s *Service) DeletePost(ctx context.Context, id, actorID string) error {
	if err := s.requireOwner(ctx, id, actorID); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return err
}

// requireOwner is the authorization predicate for post mutations: the post
// must exist and the actor must be its author.
func (s *Service) requireOwner(ctx context.Context, postID, actorID string) error {
	var authorID string
	row := s.db.QueryRow(ctx, `SELECT author_id FROM posts WHERE id = $1`, postID)
	if err := row.Scan(&authorID); err != nil {
		return apperr.ErrNotFound
	}
	if authorID != actorID {
		return apperr.ErrForbidden
	}
	return nil
}

// Like records a (user, post) like. A second like of the same post by the
// same user is rejected, never double-counted.
func (s *Service) Like(ctx context.Context, userID, postID string) (int, error) {
	var authorID, title string
	var actorUsername *string
	var already bool
	row := s.db.QueryRow(ctx, `
		SELECT p.author_id, p.title,
		       (SELECT username FROM users WHERE id = $2),
		       EXISTS (SELECT 1 FROM post_likes WHERE user_id = $2 AND post_id = $1)
		FROM posts p WHERE p.id = $1 AND p.is_published
	`, postID, userID)
	if err := row.Scan(&authorID, &title, &actorUsername, &already); err != nil {
		return 0, apperr.ErrNotFound
	}
	if already {
		return 0, apperr.ErrAlreadyLiked
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO post_likes (user_id, post_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, userID, postID); err != nil {
		return 0, err
	}

	username := ""
	if actorUsername != nil {
		username = *actorUsername
	}
	// The like row is already committed; a notification failure must not
	// surface as a failed like.
	if _, err := s.notifier.Emit(ctx, notification.Event{
		RecipientID:   authorID,
		ActorID:       userID,
		ActorUsername: username,
		Verb:          notification.VerbLike,
		TargetType:    "post",
		TargetID:      postID,
		TargetExcerpt: text.Excerpt(title, excerptLen),
	}); err != nil {
		log.Printf("like notification error: %v", err)
	}

	return s.likesCount(ctx, postID)
}

func (s *Service) Unlike(ctx context.Context, userID, postID string) (int, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM post_likes WHERE user_id = $1 AND post_id = $2
	`, userID, postID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, apperr.ErrNotLiked
	}
	return s.likesCount(ctx, postID)
}

func (s *Service) likesCount(ctx context.Context, postID string) (int, error) {
	var count int
	row := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// LikeComment records a (user, comment) like with the same duplicate
// semantics as post likes.
func (s *Service) LikeComment(ctx context.Context, userID, commentID string) (int, error) {
	var authorID, content string
	var actorUsername *string
	var already bool
	row := s.db.QueryRow(ctx, `
		SELECT c.author_id, c.content,
		       (SELECT username FROM users WHERE id = $2),
		       EXISTS (SELECT 1 FROM comment_likes WHERE user_id = $2 AND comment_id = $1)
		FROM comments c WHERE c.id = $1
	`, commentID, userID)
	if err := row.Scan(&authorID, &content, &actorUsername, &already); err != nil {
		return 0, apperr.ErrNotFound
	}
	if already {
		return 0, apperr.ErrAlreadyLiked
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO comment_likes (user_id, comment_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, userID, commentID); err != nil {
		return 0, err
	}

	username := ""
	if actorUsername != nil {
		username = *actorUsername
	}
	if _, err := s.notifier.Emit(ctx, notification.Event{
		RecipientID:   authorID,
		ActorID:       userID,
		ActorUsername: username,
		Verb:          notification.VerbLike,
		TargetType:    "comment",
		TargetID:      commentID,
		TargetExcerpt: text.Excerpt(content, excerptLen),
	}); err != nil {
		log.Printf("comment like notification error: %v", err)
	}

	return s.commentLikesCount(ctx, commentID)
}

func (s *Service) UnlikeComment(ctx context.Context, userID, commentID string) (int, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM comment_likes WHERE user_id = $1 AND comment_id = $2
	`, userID, commentID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, apperr.ErrNotLiked
	}
	return s.commentLikesCount(ctx, commentID)
}

func (s *Service) commentLikesCount(ctx context.Context, commentID string) (int, error) {
	var count int
	row := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM comment_likes WHERE comment_id = $1`, commentID)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Service) Likers(ctx context.Context, postID string, pg page.Params) ([]Liker, error) {
	rows, err := s.db.Query(ctx, `
		SELECT u.id, u.username, u.avatar_url, l.created_at
		FROM post_likes l
		JOIN users u ON u.id = l.user_id
		WHERE l.post_id = $1
		ORDER BY l.created_at DESC
		LIMIT $2 OFFSET $3
	`, postID, pg.Limit, pg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var likers []Liker
	for rows.Next() {
		var l Liker
		if err := rows.Scan(&l.ID, &l.Username, &l.AvatarURL, &l.LikedAt); err != nil {
			return nil, err
		}
		likers = append(likers, l)
	}
	return likers, nil
}

// CreateComment attaches a comment (optionally a reply) to a published post
// and notifies the post author.
func (s *Service) CreateComment(ctx context.Context, input Comment) (Comment, error) {
	var authorID string
	var actorUsername *string
	row := s.db.QueryRow(ctx, `
		SELECT p.author_id, (SELECT username FROM users WHERE id = $2)
		FROM posts p WHERE p.id = $1 AND p.is_published
	`, input.PostID, input.AuthorID)
	if err := row.Scan(&authorID, &actorUsername); err != nil {
		return Comment{}, apperr.ErrNotFound
	}

	// Threading is one level deep: a reply's parent must be a top-level
	// comment on the same post.
	if input.ParentID != nil {
		var parentPostID string
		var parentParentID *string
		parent := s.db.QueryRow(ctx, `
			SELECT post_id, parent_id FROM comments WHERE id = $1
		`, *input.ParentID)
		if err := parent.Scan(&parentPostID, &parentParentID); err != nil {
			return Comment{}, apperr.ErrNotFound
		}
		if parentPostID != input.PostID || parentParentID != nil {
			return Comment{}, apperr.ErrInvalid
		}
	}

	input.ID = uuid.NewString()
	insert := s.db.QueryRow(ctx, `
		INSERT INTO comments (id, post_id, author_id, parent_id, content)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, input.ID, input.PostID, input.AuthorID, input.ParentID, input.Content)
	if err := insert.Scan(&input.CreatedAt); err != nil {
		return Comment{}, err
	}

	username := ""
	if actorUsername != nil {
		username = *actorUsername
	}
	input.AuthorUsername = username
	if _, err := s.notifier.Emit(ctx, notification.Event{
		RecipientID:   authorID,
		ActorID:       input.AuthorID,
		ActorUsername: username,
		Verb:          notification.VerbComment,
		TargetType:    "comment",
		TargetID:      input.ID,
	}); err != nil {
		log.Printf("comment notification error: %v", err)
	}

	s.emitMentions(ctx, input.AuthorID, input.Content, "comment", input.ID)
	return input, nil
}

func (s *Service) Comments(ctx context.Context, postID string, pg page.Params) ([]Comment, error) {
	return s.commentList(ctx, `
		SELECT c.id, c.post_id, c.author_id, u.username, c.parent_id, c.content, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at
		LIMIT $2 OFFSET $3
	`, postID, pg)
}

func (s *Service) Replies(ctx context.Context, commentID string, pg page.Params) ([]Comment, error) {
	return s.commentList(ctx, `
		SELECT c.id, c.post_id, c.author_id, u.username, c.parent_id, c.content, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.parent_id = $1
		ORDER BY c.created_at
		LIMIT $2 OFFSET $3
	`, commentID, pg)
}

func (s *Service) commentList(ctx context.Context, query, id string, pg page.Params) ([]Comment, error) {
	rows, err := s.db.Query(ctx, query, id, pg.Limit, pg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var cm Comment
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.AuthorID, &cm.AuthorUsername, &cm.ParentID, &cm.Content, &cm.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, cm)
	}
	return comments, nil
}

// emitMentions is best-effort: mention notifications never fail the write
// that produced them.
func (s *Service) emitMentions(ctx context.Context, actorID, content, targetType, targetID string) {
	names := text.Mentions(content)
	if len(names) == 0 {
		return
	}

	ids, err := s.accounts.ResolveUsernames(ctx, names)
	if err != nil {
		log.Printf("mention lookup error: %v", err)
		return
	}
	actorName := ""
	for name, id := range ids {
		if id == actorID {
			actorName = name
		}
	}
	if actorName == "" {
		var username *string
		row := s.db.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, actorID)
		if err := row.Scan(&username); err == nil && username != nil {
			actorName = *username
		}
	}

	for _, name := range names {
		recipient, ok := ids[name]
		if !ok {
			continue
		}
		if _, err := s.notifier.Emit(ctx, notification.Event{
			RecipientID:   recipient,
			ActorID:       actorID,
			ActorUsername: actorName,
			Verb:          notification.VerbMention,
			TargetType:    targetType,
			TargetID:      targetID,
		}); err != nil {
			log.Printf("mention notification error: %v", err)
		}
	}
}
