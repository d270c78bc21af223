package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/news-portal/internal/domain"
	apperrors "github.com/spec-kit/news-portal/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// PrincipalResolver maps a token subject to an account. Absence is (nil, nil).
type PrincipalResolver interface {
	LookupByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	resolver PrincipalResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, resolver PrincipalResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, resolver: resolver}
}

// Handle attaches the caller to the request when a bearer token is present.
// Requests without one continue anonymously; route gates decide whether
// that is acceptable.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.resolver.LookupByEmail(c.UserContext(), claims.Subject)
	if err != nil {
		return apperrors.MapError(err)
	}
	if user != nil && user.Active {
		c.Locals(principalKey, user)
	}
	return c.Next()
}

// PrincipalFromContext returns the authenticated account, or nil.
func PrincipalFromContext(c *fiber.Ctx) *domain.User {
	user, _ := c.Locals(principalKey).(*domain.User)
	return user
}
