package notification

import (
	"fmt"

	"backend-pulsefeed/internal/apperr"
	"backend-pulsefeed/internal/shared/page"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		pg := page.Resolve(c.QueryInt("page", 1), c.QueryInt("page_size", 0), 20, 50)
		list, err := svc.List(c.Context(), userID, false, pg)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"page": pg.Page, "results": list})
	})

	r.Get("/unread", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		pg := page.Resolve(c.QueryInt("page", 1), c.QueryInt("page_size", 0), 20, 50)
		list, err := svc.List(c.Context(), userID, true, pg)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"page": pg.Page, "results": list})
	})

	r.Get("/count", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		counts, err := svc.Counts(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(counts)
	})

	r.Post("/mark-all-read", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		count, err := svc.MarkAllRead(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("marked %d notifications as read", count),
			"count":   count,
		})
	})

	r.Post("/:id/read", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.MarkRead(c.Context(), userID, c.Params("id")); err != nil {
			return apperr.Fiber(err)
		}
		return c.JSON(fiber.Map{"message": "notification marked as read", "notification_id": c.Params("id")})
	})

	r.Post("/:id/unread", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.MarkUnread(c.Context(), userID, c.Params("id")); err != nil {
			return apperr.Fiber(err)
		}
		return c.JSON(fiber.Map{"message": "notification marked as unread", "notification_id": c.Params("id")})
	})

	r.Get("/settings", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		st, err := svc.Settings(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(st)
	})

	r.Put("/settings", authMiddleware, func(c *fiber.Ctx) error {
		var st Settings
		if err := c.BodyParser(&st); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		userID, _ := c.Locals("user_id").(string)
		out, err := svc.UpdateSettings(c.Context(), userID, st)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"message": "settings updated", "settings": out})
	})
}
