package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/news-portal/internal/api/dto"
	"github.com/spec-kit/news-portal/internal/auth"
	"github.com/spec-kit/news-portal/internal/service"
	apperrors "github.com/spec-kit/news-portal/pkg/util/errorutil"
)

// NewsHandler serves the catalog.
type NewsHandler struct {
	newsService *service.NewsService
	binder      *Binder
}

// NewNewsHandler constructs handler.
func NewNewsHandler(newsService *service.NewsService, binder *Binder) *NewsHandler {
	return &NewsHandler{newsService: newsService, binder: binder}
}

// ListNews GET /news?page=&size=&group=.
func (h *NewsHandler) ListNews(c *fiber.Ctx) error {
	page, err := h.newsService.GetPage(c.UserContext(), auth.PrincipalFromContext(c), service.PageRequest{
		Page:    c.QueryInt("page", 0),
		Size:    c.QueryInt("size", 0),
		GroupID: c.Query("group"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewNewsPageResponse(page)})
}

// GetNews GET /news/:id.
func (h *NewsHandler) GetNews(c *fiber.Ctx) error {
	news, err := h.newsService.GetByID(c.UserContext(), auth.PrincipalFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	if news == nil {
		return apperrors.NewNotFound("news", nil)
	}
	return c.JSON(fiber.Map{"data": dto.NewNewsResponse(news)})
}

// CreateNews POST /news.
func (h *NewsHandler) CreateNews(c *fiber.Ctx) error {
	return h.save(c, "", fiber.StatusCreated)
}

// UpdateNews PUT /news/:id.
func (h *NewsHandler) UpdateNews(c *fiber.Ctx) error {
	return h.save(c, c.Params("id"), fiber.StatusOK)
}

func (h *NewsHandler) save(c *fiber.Ctx, id string, status int) error {
	var req dto.NewsRequest
	if err := h.binder.Bind(c, &req); err != nil {
		return err
	}

	news, err := h.newsService.Save(c.UserContext(), auth.PrincipalFromContext(c), service.NewsInput{
		ID:        id,
		Title:     req.Title,
		Body:      req.Body,
		GroupID:   req.GroupID,
		AuthorIDs: req.AuthorIDs,
		Published: req.Published,
	})
	if err != nil {
		return err
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.NewNewsResponse(news)})
}

// DeleteNews DELETE /news/:id.
func (h *NewsHandler) DeleteNews(c *fiber.Ctx) error {
	deleted, err := h.newsService.Delete(c.UserContext(), auth.PrincipalFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewNotFound("news", nil)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListGroups GET /news-groups.
func (h *NewsHandler) ListGroups(c *fiber.Ctx) error {
	groups, err := h.newsService.ListGroups(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.GroupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, dto.NewGroupResponse(g))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetGroup GET /news-groups/:id.
func (h *NewsHandler) GetGroup(c *fiber.Ctx) error {
	group, err := h.newsService.GetGroupByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if group == nil {
		return apperrors.NewNotFound("news group", nil)
	}
	return c.JSON(fiber.Map{"data": dto.NewGroupResponse(*group)})
}
