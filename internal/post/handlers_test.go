package post

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func asUser(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	}
}

func anonymous(c *fiber.Ctx) error {
	return c.Next()
}

func newPostApp(mock pgxmock.PgxPoolIface) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, newPostService(mock), asUser("user-1"), anonymous)
	return app
}

func TestCreatePostHandler(t *testing.T) {
	mock := newMockPool(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Hello", "first post", true).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	app := newPostApp(mock)

	payload := []byte(`{"title":"Hello","content":"first post"}`)
	req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %v %d", err, resp.StatusCode)
	}

	var body struct {
		Post Post `json:"post"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Post.Title != "Hello" || !body.Post.IsPublished {
		t.Fatalf("unexpected post: %+v", body.Post)
	}
}

func TestCreatePostHandlerDraft(t *testing.T) {
	mock := newMockPool(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Draft", "not ready", false).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	app := newPostApp(mock)

	payload := []byte(`{"title":"Draft","content":"not ready","is_published":false}`)
	req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %v %d", err, resp.StatusCode)
	}
}

func TestCreatePostHandlerMissingTitle(t *testing.T) {
	app := newPostApp(nil)

	payload := []byte(`{"content":"no title"}`)
	req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestGetPostHandlerNotFound(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`FROM posts p`).
		WithArgs("post-404", "").
		WillReturnError(errors.New("no rows in result set"))

	app := newPostApp(mock)

	req := httptest.NewRequest(http.MethodGet, "/posts/post-404", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
}

func TestGetPostHandlerAuthorSeesOwnDraft(t *testing.T) {
	mock := newMockPool(t)

	now := time.Now()
	mock.ExpectQuery(`FROM posts p`).
		WithArgs("post-1", "author-1").
		WillReturnRows(pgxmock.NewRows(postColumns()).
			AddRow("post-1", "author-1", "alice", "Draft", "not ready", false, now, now, 0, 0))

	app := fiber.New()
	RegisterRoutes(app, newPostService(mock), asUser("author-1"), asUser("author-1"))

	req := httptest.NewRequest(http.MethodGet, "/posts/post-1", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok for own draft, got %v %d", err, resp.StatusCode)
	}

	var body Post
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.IsPublished || body.AuthorID != "author-1" {
		t.Fatalf("unexpected post: %+v", body)
	}
}

func TestListPostsHandler(t *testing.T) {
	mock := newMockPool(t)

	now := time.Now()
	mock.ExpectQuery(`WHERE p.is_published`).
		WithArgs("", "", 10, 0).
		WillReturnRows(pgxmock.NewRows(postColumns()).
			AddRow("post-1", "user-1", "alice", "Hello", "content", true, now, now, 0, 0))

	app := newPostApp(mock)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}

	var body struct {
		Results []Post `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 1 || body.Results[0].AuthorUsername != "alice" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestLikeHandlerDuplicate(t *testing.T) {
	mock := newMockPool(t)

	expectLikePrecheck(mock, "user-2", "Hello", "alice", true)

	app := newPostApp(mock)

	req := httptest.NewRequest(http.MethodPost, "/posts/post-1/like", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
}

func TestUnlikeHandlerNotLiked(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectExec(`DELETE FROM post_likes`).
		WithArgs("user-1", "post-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	app := newPostApp(mock)

	req := httptest.NewRequest(http.MethodPost, "/posts/post-1/unlike", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
}

func TestDeletePostHandlerForbidden(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`SELECT author_id FROM posts`).
		WithArgs("post-1").
		WillReturnRows(pgxmock.NewRows([]string{"author_id"}).AddRow("user-2"))

	app := newPostApp(mock)

	req := httptest.NewRequest(http.MethodDelete, "/posts/post-1", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", resp.StatusCode)
	}
}

func TestCreateCommentHandlerMissingContent(t *testing.T) {
	app := newPostApp(nil)

	req := httptest.NewRequest(http.MethodPost, "/posts/post-1/comments", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestLikeCommentHandler(t *testing.T) {
	mock := newMockPool(t)

	username := "alice"
	mock.ExpectQuery(`FROM comments c WHERE c.id`).
		WithArgs("c-1", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"author_id", "content", "username", "already"}).
			AddRow("user-2", "nice post", &username, false))
	mock.ExpectExec(`INSERT INTO comment_likes`).
		WithArgs("user-1", "c-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`FROM notification_settings`).
		WithArgs("user-2", "like").
		WillReturnRows(pgxmock.NewRows([]string{"allowed"}).AddRow(true))
	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(pgxmock.AnyArg(), "user-2", "user-1", "like", "comment", "c-1", "alice liked your comment: nice post").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM comment_likes`).
		WithArgs("c-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	app := newPostApp(mock)

	req := httptest.NewRequest(http.MethodPost, "/comments/c-1/like", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("like comment status: %v %d", err, resp.StatusCode)
	}

	var body struct {
		LikesCount int `json:"likes_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.LikesCount != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestUnlikeCommentHandlerNotLiked(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectExec(`DELETE FROM comment_likes`).
		WithArgs("user-1", "c-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	app := newPostApp(mock)

	req := httptest.NewRequest(http.MethodPost, "/comments/c-1/unlike", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
}

func TestRepliesHandler(t *testing.T) {
	mock := newMockPool(t)

	parent := "c-1"
	mock.ExpectQuery(`WHERE c.parent_id`).
		WithArgs("c-1", 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_id", "author_id", "username", "parent_id", "content", "created_at"}).
			AddRow("c-2", "post-1", "user-2", "bob", &parent, "reply", time.Now()))

	app := newPostApp(mock)

	req := httptest.NewRequest(http.MethodGet, "/comments/c-1/replies", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("replies status: %v", err)
	}

	var body struct {
		Results []Comment `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 1 || body.Results[0].Content != "reply" {
		t.Fatalf("unexpected body: %+v", body)
	}
}
