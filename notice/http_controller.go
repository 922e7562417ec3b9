package notice

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	"github.com/inu-notice/notice-server/auth"
)

type HTTPController struct {
	store Store
}

func NewHTTPController(store Store) *HTTPController {
	return &HTTPController{store: store}
}

// RegisterRoutes mounts the notice endpoints. Listing is public; bookmark
// routes sit behind the request authenticator.
func (ctl *HTTPController) RegisterRoutes(app fiber.Router, requireAuth fiber.Handler) {
	app.Get("/api/notices", ctl.List)
	app.Get("/api/notices/:id", ctl.ByID)
	app.Get("/api/categories", ctl.Categories)

	app.Post("/api/notices/:id/bookmark", requireAuth, ctl.AddBookmark)
	app.Delete("/api/notices/:id/bookmark", requireAuth, ctl.RemoveBookmark)
	app.Get("/api/users/me/bookmarks", requireAuth, ctl.MyBookmarks)
}

func (ctl *HTTPController) List(c *fiber.Ctx) error {
	notices, err := ctl.store.List(
		c.UserContext(),
		c.Query("category"),
		c.QueryInt("limit", 20),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(notices)
}

func (ctl *HTTPController) ByID(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid notice id")
	}

	ntc, err := ctl.store.ByID(c.UserContext(), id)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(ntc)
}

func (ctl *HTTPController) Categories(c *fiber.Ctx) error {
	categories, err := ctl.store.Categories(c.UserContext())
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(categories)
}

func (ctl *HTTPController) AddBookmark(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid notice id")
	}

	if err := ctl.store.AddBookmark(c.UserContext(), identity.UserID, id); err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"bookmarked": true})
}

func (ctl *HTTPController) RemoveBookmark(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid notice id")
	}

	if err := ctl.store.RemoveBookmark(c.UserContext(), identity.UserID, id); err != nil {
		return renderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (ctl *HTTPController) MyBookmarks(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	bookmarks, err := ctl.store.BookmarksByUser(c.UserContext(), identity.UserID)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(bookmarks)
}

func renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}

	switch richErr.Category {
	case goerrors.CategoryNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": richErr.Message,
			"code":  richErr.TextCode,
		})
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": richErr.Message,
			"code":  richErr.TextCode,
		})
	}
	return fiber.NewError(fiber.StatusInternalServerError, "internal error")
}
