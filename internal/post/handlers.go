package post

import (
	"backend-pulsefeed/internal/apperr"
	"backend-pulsefeed/internal/shared/page"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers both the /posts and /comments surfaces; comments
// live in this package because they are operations on posts. optionalAuth
// resolves the viewer on public routes where authors see their own drafts.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, optionalAuth fiber.Handler) {
	r.Post("/posts", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Title       string `json:"title"`
			Content     string `json:"content"`
			IsPublished *bool  `json:"is_published"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if req.Title == "" || req.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title and content required")
		}
		published := true
		if req.IsPublished != nil {
			published = *req.IsPublished
		}
		authorID, _ := c.Locals("user_id").(string)
		created, err := svc.CreatePost(c.Context(), Post{
			AuthorID:    authorID,
			Title:       req.Title,
			Content:     req.Content,
			IsPublished: published,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "post created", "post": created})
	})

	r.Get("/posts", func(c *fiber.Ctx) error {
		pg := page.Resolve(c.QueryInt("page", 1), c.QueryInt("page_size", 0), 10, 100)
		posts, err := svc.ListPosts(c.Context(), Filter{
			Search:         c.Query("search"),
			AuthorUsername: c.Query("author"),
			OrderBy:        c.Query("ordering"),
		}, pg)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"page": pg.Page, "results": posts})
	})

	r.Get("/posts/:id", optionalAuth, func(c *fiber.Ctx) error {
		viewerID, _ := c.Locals("user_id").(string)
		p, err := svc.GetPost(c.Context(), c.Params("id"), viewerID)
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.JSON(p)
	})

	r.Put("/posts/:id", authMiddleware, func(c *fiber.Ctx) error {
		var upd PostUpdate
		if err := c.BodyParser(&upd); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		actorID, _ := c.Locals("user_id").(string)
		p, err := svc.UpdatePost(c.Context(), c.Params("id"), actorID, upd)
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.JSON(fiber.Map{"message": "post updated", "post": p})
	})

	r.Delete("/posts/:id", authMiddleware, func(c *fiber.Ctx) error {
		actorID, _ := c.Locals("user_id").(string)
		if err := svc.DeletePost(c.Context(), c.Params("id"), actorID); err != nil {
			return apperr.Fiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/posts/:id/like", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		count, err := svc.Like(c.Context(), userID, c.Params("id"))
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "post liked", "likes_count": count})
	})

	r.Post("/posts/:id/unlike", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		count, err := svc.Unlike(c.Context(), userID, c.Params("id"))
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.JSON(fiber.Map{"message": "post unliked", "likes_count": count})
	})

	r.Get("/posts/:id/likes", func(c *fiber.Ctx) error {
		pg := page.Resolve(c.QueryInt("page", 1), c.QueryInt("page_size", 0), 10, 100)
		likers, err := svc.Likers(c.Context(), c.Params("id"), pg)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"page": pg.Page, "results": likers})
	})

	r.Post("/posts/:id/comments", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Content  string  `json:"content"`
			ParentID *string `json:"parent_id"`
		}
		if err := c.BodyParser(&req); err != nil || req.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "content required")
		}
		authorID, _ := c.Locals("user_id").(string)
		comment, err := svc.CreateComment(c.Context(), Comment{
			PostID:   c.Params("id"),
			AuthorID: authorID,
			ParentID: req.ParentID,
			Content:  req.Content,
		})
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "comment created", "comment": comment})
	})

	r.Get("/posts/:id/comments", func(c *fiber.Ctx) error {
		pg := page.Resolve(c.QueryInt("page", 1), c.QueryInt("page_size", 0), 10, 100)
		comments, err := svc.Comments(c.Context(), c.Params("id"), pg)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"page": pg.Page, "results": comments})
	})

	r.Post("/comments/:id/like", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		count, err := svc.LikeComment(c.Context(), userID, c.Params("id"))
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "comment liked", "likes_count": count})
	})

	r.Post("/comments/:id/unlike", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		count, err := svc.UnlikeComment(c.Context(), userID, c.Params("id"))
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.JSON(fiber.Map{"message": "comment unliked", "likes_count": count})
	})

	r.Get("/comments/:id/replies", func(c *fiber.Ctx) error {
		pg := page.Resolve(c.QueryInt("page", 1), c.QueryInt("page_size", 0), 10, 100)
		replies, err := svc.Replies(c.Context(), c.Params("id"), pg)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"page": pg.Page, "results": replies})
	})
}
