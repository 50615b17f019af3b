package notification

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func newNotificationApp(svc *Service) *fiber.App {
	app := fiber.New()
	asUser := func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	}
	RegisterRoutes(app.Group("/notifications"), svc, asUser)
	return app
}

func TestListHandler(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`FROM notifications`).
		WithArgs("user-1", 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "recipient_id", "actor_id", "verb", "target_type", "target_id", "message", "is_read", "created_at"}).
			AddRow("n-1", "user-1", "user-2", VerbFollow, "", "", "bob started following you", false, time.Now()).
			AddRow("n-2", "user-1", "user-3", VerbLike, "post", "post-1", "carol liked your post", true, time.Now().Add(-time.Hour)))

	app := newNotificationApp(NewService(mock, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/notifications/", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}

	var body struct {
		Page    int            `json:"page"`
		Results []Notification `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 2 || body.Results[0].ID != "n-1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestUnreadHandler(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`AND is_read = FALSE`).
		WithArgs("user-1", 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "recipient_id", "actor_id", "verb", "target_type", "target_id", "message", "is_read", "created_at"}).
			AddRow("n-1", "user-1", "user-2", VerbFollow, "", "", "bob started following you", false, time.Now()))

	app := newNotificationApp(NewService(mock, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/notifications/unread", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("unread status: %v", err)
	}
}

func TestCountHandler(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`is_read = FALSE`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications WHERE recipient_id`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(9)))

	app := newNotificationApp(NewService(mock, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/notifications/count", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("count status: %v", err)
	}

	var counts Counts
	if err := json.NewDecoder(resp.Body).Decode(&counts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if counts.Unread != 2 || counts.Total != 9 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestMarkReadHandlerNotFound(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE`).
		WithArgs("n-404", "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	app := newNotificationApp(NewService(mock, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/notifications/n-404/read", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
}

func TestMarkAllReadHandler(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	app := newNotificationApp(NewService(mock, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/notifications/mark-all-read", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("mark-all-read status: %v", err)
	}

	var body struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 3 {
		t.Fatalf("expected count 3, got %d", body.Count)
	}
}

func TestUpdateSettingsHandler(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`INSERT INTO notification_settings`).
		WithArgs("user-1", false, true, true, true, true).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "on_follow", "on_like", "on_comment", "on_mention", "on_system", "updated_at"}).
			AddRow("user-1", false, true, true, true, true, time.Now()))

	app := newNotificationApp(NewService(mock, nil, nil))

	payload, _ := json.Marshal(Settings{OnFollow: false, OnLike: true, OnComment: true, OnMention: true, OnSystem: true})
	req := httptest.NewRequest(http.MethodPut, "/notifications/settings", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("settings status: %v", err)
	}

	var body struct {
		Settings Settings `json:"settings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Settings.OnFollow {
		t.Fatalf("expected on_follow off: %+v", body.Settings)
	}
}
