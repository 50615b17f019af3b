package social

import (
	"backend-pulsefeed/internal/apperr"
	"backend-pulsefeed/internal/shared/page"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/follow/:id", authMiddleware, func(c *fiber.Ctx) error {
		actorID, _ := c.Locals("user_id").(string)
		status, err := svc.Follow(c.Context(), actorID, c.Params("id"))
		if err != nil {
			return apperr.Fiber(err)
		}
		msg := "now following user"
		if status.AlreadyFollowing {
			msg = "already following user"
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg, "status": status})
	})

	r.Post("/unfollow/:id", authMiddleware, func(c *fiber.Ctx) error {
		actorID, _ := c.Locals("user_id").(string)
		status, err := svc.Unfollow(c.Context(), actorID, c.Params("id"))
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.JSON(fiber.Map{"message": "unfollowed user", "status": status})
	})

	r.Get("/following/:id", func(c *fiber.Ctx) error {
		actorID := c.Query("follower_id")
		if actorID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "follower_id required")
		}
		following, err := svc.IsFollowing(c.Context(), actorID, c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"following": following})
	})

	r.Get("/users/:id/followers", func(c *fiber.Ctx) error {
		pg := page.Resolve(c.QueryInt("page", 1), c.QueryInt("page_size", 0), 10, 100)
		accounts, err := svc.Followers(c.Context(), c.Params("id"), pg)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"page": pg.Page, "results": accounts})
	})

	r.Get("/users/:id/following", func(c *fiber.Ctx) error {
		pg := page.Resolve(c.QueryInt("page", 1), c.QueryInt("page_size", 0), 10, 100)
		accounts, err := svc.Following(c.Context(), c.Params("id"), pg)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"page": pg.Page, "results": accounts})
	})

	r.Get("/feed", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		items, pg, err := svc.Feed(c.Context(), userID, c.QueryInt("page", 1), c.QueryInt("page_size", 0))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"page": pg.Page, "page_size": pg.Size, "results": items})
	})
}
