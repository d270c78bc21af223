package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/news-portal/internal/api/dto"
	"github.com/spec-kit/news-portal/internal/auth"
	"github.com/spec-kit/news-portal/internal/service"
	apperrors "github.com/spec-kit/news-portal/pkg/util/errorutil"
)

// CommentHandler serves comment threads.
type CommentHandler struct {
	commentService *service.CommentService
	binder         *Binder
}

// NewCommentHandler constructs handler.
func NewCommentHandler(commentService *service.CommentService, binder *Binder) *CommentHandler {
	return &CommentHandler{commentService: commentService, binder: binder}
}

// ListComments GET /news/:id/comments.
func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	comments, err := h.commentService.ListForNews(c.UserContext(), auth.PrincipalFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentList(comments)})
}

// AddComment POST /news/:id/comments.
func (h *CommentHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CommentRequest
	if err := h.binder.Bind(c, &req); err != nil {
		return err
	}

	comment, err := h.commentService.Add(c.UserContext(), auth.PrincipalFromContext(c), c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	if comment == nil {
		return apperrors.NewNotFound("news", nil)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// EditComment PUT /comments/:id.
func (h *CommentHandler) EditComment(c *fiber.Ctx) error {
	var req dto.CommentRequest
	if err := h.binder.Bind(c, &req); err != nil {
		return err
	}

	comment, applied, err := h.commentService.Edit(c.UserContext(), auth.PrincipalFromContext(c), c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	if comment == nil {
		return apperrors.NewNotFound("comment", nil)
	}
	resp := dto.CommentEditResponse{Applied: applied}
	if applied {
		view := dto.NewCommentResponse(comment)
		resp.Comment = &view
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ToggleComment POST /comments/:id/toggle.
func (h *CommentHandler) ToggleComment(c *fiber.Ctx) error {
	comment, err := h.commentService.ToggleActive(c.UserContext(), auth.PrincipalFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	if comment == nil {
		return apperrors.NewNotFound("comment", nil)
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// DeleteComment DELETE /comments/:id.
func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	deleted, err := h.commentService.Delete(c.UserContext(), auth.PrincipalFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewNotFound("comment", nil)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
