package account

import (
	"backend-pulsefeed/internal/apperr"
	"backend-pulsefeed/internal/shared/page"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		query := c.Query("search")
		if query == "" {
			return fiber.NewError(fiber.StatusBadRequest, "search query required")
		}
		pg := page.Resolve(c.QueryInt("page", 1), c.QueryInt("page_size", 0), 10, 100)
		users, err := svc.Search(c.Context(), query, pg)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"page": pg.Page, "results": users})
	})

	r.Put("/me", authMiddleware, func(c *fiber.Ctx) error {
		var upd ProfileUpdate
		if err := c.BodyParser(&upd); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		userID, _ := c.Locals("user_id").(string)
		profile, err := svc.UpdateProfile(c.Context(), userID, upd)
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.JSON(fiber.Map{"message": "profile updated", "profile": profile})
	})

	r.Get("/me", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		profile, err := svc.Profile(c.Context(), userID)
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.JSON(profile)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		profile, err := svc.Profile(c.Context(), c.Params("id"))
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.JSON(profile)
	})
}
