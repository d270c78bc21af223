package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/news-portal/internal/api/dto"
	"github.com/spec-kit/news-portal/internal/auth"
	"github.com/spec-kit/news-portal/internal/service"
)

// AccountHandler serves profile and account administration routes.
type AccountHandler struct {
	accountService *service.AccountService
	binder         *Binder
}

// NewAccountHandler constructs handler.
func NewAccountHandler(accountService *service.AccountService, binder *Binder) *AccountHandler {
	return &AccountHandler{accountService: accountService, binder: binder}
}

// Me GET /me.
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(auth.PrincipalFromContext(c))})
}

// UpdateProfile PUT /me.
func (h *AccountHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.ProfileRequest
	if err := h.binder.Bind(c, &req); err != nil {
		return err
	}

	user, err := h.accountService.UpdateProfile(c.UserContext(), auth.PrincipalFromContext(c), service.ProfileInput{
		Name:        req.Name,
		Surname:     req.Surname,
		DateOfBirth: req.ParsedDateOfBirth(),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ListAuthors GET /users/authors.
func (h *AccountHandler) ListAuthors(c *fiber.Ctx) error {
	authors, err := h.accountService.ListAuthors(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuthorList(authors)})
}

// ListUsers GET /admin/users.
func (h *AccountHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.accountService.ListUsers(c.UserContext(), auth.PrincipalFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserList(users)})
}

// UpdateAdminFields PATCH /admin/users/:id.
func (h *AccountHandler) UpdateAdminFields(c *fiber.Ctx) error {
	var req dto.AdminFieldsRequest
	if err := h.binder.Bind(c, &req); err != nil {
		return err
	}

	user, err := h.accountService.UpdateAdminFields(c.UserContext(), auth.PrincipalFromContext(c), c.Params("id"), req.Active, req.Author)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// DeleteUser DELETE /admin/users/:id.
func (h *AccountHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.accountService.DeleteByAdmin(c.UserContext(), auth.PrincipalFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
