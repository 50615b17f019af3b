package account

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

func newAccountApp(mock pgxmock.PgxPoolIface) *fiber.App {
	app := fiber.New()
	asUser := func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	}
	RegisterRoutes(app.Group("/users"), NewService(mock), asUser)
	return app
}

func TestSearchHandler(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`username ILIKE`).
		WithArgs("bob", 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "full_name", "avatar_url"}).
			AddRow("user-2", "bob", "Bob", ""))

	app := newAccountApp(mock)

	req := httptest.NewRequest(http.MethodGet, "/users/?search=bob", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("search status: %v", err)
	}

	var body struct {
		Results []Summary `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 1 || body.Results[0].Username != "bob" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestSearchHandlerMissingQuery(t *testing.T) {
	app := newAccountApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/users/", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestMeHandler(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`FROM users u WHERE u.id`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(profileColumns()).
			AddRow("user-1", "alice", "Alice", "", "", "", "", time.Now(), 1, 2))

	app := newAccountApp(mock)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("me status: %v", err)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ID != "user-1" || p.FollowingCount != 2 {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestUpdateMeHandler(t *testing.T) {
	mock := newMockPool(t)

	bio := "hello"
	mock.ExpectExec(`UPDATE users SET`).
		WithArgs("user-1", (*string)(nil), &bio, (*string)(nil), (*string)(nil), (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`FROM users u WHERE u.id`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(profileColumns()).
			AddRow("user-1", "alice", "Alice", "hello", "", "", "", time.Now(), 0, 0))

	app := newAccountApp(mock)

	payload := []byte(`{"bio":"hello"}`)
	req := httptest.NewRequest(http.MethodPut, "/users/me", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("update status: %v", err)
	}
}

func TestProfileByIDHandlerNotFound(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`FROM users u WHERE u.id`).
		WithArgs("user-404").
		WillReturnError(errors.New("no rows in result set"))

	app := newAccountApp(mock)

	req := httptest.NewRequest(http.MethodGet, "/users/user-404", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
}
