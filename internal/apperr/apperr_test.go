package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotFound, fiber.StatusNotFound},
		{ErrForbidden, fiber.StatusForbidden},
		{ErrUnauthorized, fiber.StatusUnauthorized},
		{ErrSelfFollow, fiber.StatusBadRequest},
		{ErrNotFollowing, fiber.StatusBadRequest},
		{ErrAlreadyLiked, fiber.StatusBadRequest},
		{ErrNotLiked, fiber.StatusBadRequest},
		{ErrInvalid, fiber.StatusBadRequest},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Fatalf("%v: got %d want %d", tc.err, got, tc.want)
		}
	}
}

func TestStatusWrapped(t *testing.T) {
	err := fmt.Errorf("like post: %w", ErrAlreadyLiked)
	if got := Status(err); got != fiber.StatusBadRequest {
		t.Fatalf("wrapped: got %d", got)
	}
}

func TestFiber(t *testing.T) {
	fe := Fiber(ErrNotFound)
	if fe.Code != fiber.StatusNotFound || fe.Message != ErrNotFound.Error() {
		t.Fatalf("unexpected fiber error: %+v", fe)
	}
}
