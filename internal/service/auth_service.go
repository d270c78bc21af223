package service

import (
	"context"
	"time"

	"github.com/spec-kit/news-portal/internal/auth"
	"github.com/spec-kit/news-portal/internal/domain"
	apperrors "github.com/spec-kit/news-portal/pkg/util/errorutil"
)

// Session is an issued access token for an account.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration and login flows on top of the
// account directory.
type AuthService struct {
	accounts *AccountService
	tokenMgr *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(accounts *AccountService, tokens *auth.TokenManager) *AuthService {
	return &AuthService{accounts: accounts, tokenMgr: tokens}
}

// Register creates an account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, input RegistrationInput) (*Session, error) {
	user, err := s.accounts.Register(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login verifies credentials. Unknown emails and wrong passwords produce the
// same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.accounts.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
