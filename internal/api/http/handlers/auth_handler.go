package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/news-portal/internal/api/dto"
	"github.com/spec-kit/news-portal/internal/service"
)

// AuthHandler exposes registration and login.
type AuthHandler struct {
	authService *service.AuthService
	binder      *Binder
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, binder *Binder) *AuthHandler {
	return &AuthHandler{authService: authService, binder: binder}
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := h.binder.Bind(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Register(c.UserContext(), service.RegistrationInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": newAuthResponse(session)})
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := h.binder.Bind(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": newAuthResponse(session)})
}

func newAuthResponse(s *service.Session) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      dto.NewUserResponse(s.User),
	}
}
