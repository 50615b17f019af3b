package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors returned by the feature services. Handlers translate them
// to HTTP statuses with Status or Fiber.
var (
	ErrSelfFollow   = errors.New("you cannot follow yourself")
	ErrNotFollowing = errors.New("you are not following this user")
	ErrAlreadyLiked = errors.New("post already liked")
	ErrNotLiked     = errors.New("post not liked")
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("you do not own this resource")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrInvalid      = errors.New("invalid input")
)

func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrSelfFollow),
		errors.Is(err, ErrNotFollowing),
		errors.Is(err, ErrAlreadyLiked),
		errors.Is(err, ErrNotLiked),
		errors.Is(err, ErrInvalid):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// Fiber wraps a service error in a fiber error so the default error handler
// renders the right status and message.
func Fiber(err error) *fiber.Error {
	return fiber.NewError(Status(err), err.Error())
}
