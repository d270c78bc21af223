package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/news-portal/internal/auth"
	"github.com/spec-kit/news-portal/internal/domain"
	"github.com/spec-kit/news-portal/internal/events"
	"github.com/spec-kit/news-portal/internal/repository"
	apperrors "github.com/spec-kit/news-portal/pkg/util/errorutil"
)

const minPasswordLength = 6

// AccountService is the account directory: lookups, registration,
// credential checks and administrator-driven lifecycle changes.
type AccountService struct {
	uow        repository.UnitOfWork
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AccountDependencies bundles collaborators for the account service.
type AccountDependencies struct {
	UnitOfWork repository.UnitOfWork
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// RegistrationInput is a self-service sign-up.
type RegistrationInput struct {
	Email    string
	Password string
	Name     string
}

// ProfileInput holds the fields an account owner may change.
type ProfileInput struct {
	Name        string
	Surname     string
	DateOfBirth *time.Time
}

// NewAccountService constructs the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = 12
	}
	return &AccountService{
		uow:        deps.UnitOfWork,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		bcryptCost: cost,
		now:        time.Now,
	}
}

// FindByEmail is the authentication lookup: an unknown email is a NOT_FOUND error.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.LookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"email": normalizeEmail(email)})
	}
	return user, nil
}

// LookupByEmail resolves an acting user. An unknown email yields nil, nil.
func (s *AccountService) LookupByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	user, err := s.uow.Repos().Users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID returns the account or nil.
func (s *AccountService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, nil
	}
	user, err := s.uow.Repos().Users.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates an active USER account without the author flag.
func (s *AccountService) Register(ctx context.Context, input RegistrationInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperrors.NewValidationError("a valid email is required", map[string]any{"field": "email"})
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password is too short", map[string]any{"field": "password", "min": minPasswordLength})
	}
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Active:       true,
		Author:       false,
		Name:         name,
		RegisteredAt: dateOnly(s.now()),
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("email", user.Email))
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventUserRegistered, user.ID, nil, userPayload(user)))
	return user, nil
}

func (s *AccountService) create(ctx context.Context, user *domain.User) error {
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		exists, err := repos.Users.ExistsByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrDuplicateEmail
		}
		return repos.Users.Create(ctx, user)
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return apperrors.NewConflict("email is already in use", map[string]any{"email": user.Email})
	}
	return err
}

// VerifyCredentials returns the account when the password matches and nil
// otherwise. Unknown emails cost one bcrypt comparison as well.
func (s *AccountService) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.LookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = auth.ComparePassword(s.dummy(), password)
		return nil, nil
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil
	}
	if !user.Active {
		return nil, nil
	}
	return user, nil
}

func (s *AccountService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash = auth.DummyHash(s.bcryptCost)
	})
	return s.dummyHash
}

// UpdateAdminFields sets the active and author flags of an account.
// Administrators cannot deactivate themselves.
func (s *AccountService) UpdateAdminFields(ctx context.Context, actor *domain.User, targetID string, active, author bool) (*domain.User, error) {
	if err := auth.Authorize(actor, auth.ActionUpdateAccountFlags, auth.Target{}); err != nil {
		return nil, err
	}
	if !validID(targetID) {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": targetID})
	}

	var updated *domain.User
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		target, err := repos.Users.GetByID(ctx, targetID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": targetID})
		}
		if err != nil {
			return err
		}
		if err := auth.Authorize(actor, auth.ActionUpdateAccountFlags, auth.Target{OwnerID: target.ID, Deactivate: !active}); err != nil {
			return err
		}
		target.Active = active
		target.Author = author
		if err := repos.Users.Update(ctx, target); err != nil {
			return err
		}
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account flags updated",
		zap.String("user_id", updated.ID),
		zap.String("admin_id", actor.ID),
		zap.Bool("active", updated.Active),
		zap.Bool("author", updated.Author))
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventUserUpdated, updated.ID, actorID(actor), userPayload(updated)))
	return updated, nil
}

// DeleteByAdmin removes an account. The actor must be an administrator, the
// target must exist, must not be the actor and must not be an author.
func (s *AccountService) DeleteByAdmin(ctx context.Context, actor *domain.User, targetID string) error {
	if err := auth.Authorize(actor, auth.ActionDeleteAccount, auth.Target{}); err != nil {
		return err
	}
	if !validID(targetID) {
		return apperrors.NewNotFound("user", map[string]any{"id": targetID})
	}

	var deleted *domain.User
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		target, err := repos.Users.GetByID(ctx, targetID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": targetID})
		}
		if err != nil {
			return err
		}
		if err := auth.Authorize(actor, auth.ActionDeleteAccount, auth.Target{OwnerID: target.ID, Author: target.Author}); err != nil {
			return err
		}
		if err := repos.Users.Delete(ctx, target.ID); err != nil {
			return err
		}
		deleted = target
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", zap.String("user_id", deleted.ID), zap.String("admin_id", actor.ID))
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventUserDeleted, deleted.ID, actorID(actor), userPayload(deleted)))
	return nil
}

// UpdateProfile changes the actor's own profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, actor *domain.User, input ProfileInput) (*domain.User, error) {
	var ownerID string
	if actor != nil {
		ownerID = actor.ID
	}
	if err := auth.Authorize(actor, auth.ActionUpdateProfile, auth.Target{OwnerID: ownerID}); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if input.DateOfBirth != nil && input.DateOfBirth.After(s.now()) {
		return nil, apperrors.NewValidationError("date of birth is in the future", map[string]any{"field": "date_of_birth"})
	}

	var updated *domain.User
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Users.GetByID(ctx, actor.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": actor.ID})
		}
		if err != nil {
			return err
		}
		current.Name = name
		current.Surname = strings.TrimSpace(input.Surname)
		if input.DateOfBirth != nil {
			dob := dateOnly(*input.DateOfBirth)
			current.DateOfBirth = &dob
		} else {
			current.DateOfBirth = nil
		}
		if err := repos.Users.Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventUserUpdated, updated.ID, actorID(actor), userPayload(updated)))
	return updated, nil
}

// ListAuthors returns accounts that may be credited on news.
func (s *AccountService) ListAuthors(ctx context.Context) ([]domain.User, error) {
	users, err := s.uow.Repos().Users.List(ctx, repository.UserFilter{AuthorsOnly: true})
	if err != nil {
		return nil, err
	}
	return redact(users), nil
}

// ListUsers returns every account. Administrators only.
func (s *AccountService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := auth.Authorize(actor, auth.ActionListAccounts, auth.Target{}); err != nil {
		return nil, err
	}
	users, err := s.uow.Repos().Users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, err
	}
	return redact(users), nil
}

// EnsureAdmin creates the bootstrap administrator when no account with that
// email exists. An existing account is left untouched.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil
	}
	existing, err := s.LookupByEmail(ctx, email)
	if err != nil || existing != nil {
		return existing, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	admin := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Active:       true,
		Name:         strings.TrimSpace(name),
		RegisteredAt: dateOnly(s.now()),
	}
	if err := s.create(ctx, admin); err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			return s.LookupByEmail(ctx, email)
		}
		return nil, err
	}
	s.logger.Info("bootstrap administrator created", zap.String("email", email))
	return admin, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func redact(users []domain.User) []domain.User {
	out := make([]domain.User, len(users))
	for i, u := range users {
		u.PasswordHash = ""
		out[i] = u
	}
	return out
}

func userPayload(u *domain.User) events.UserPayload {
	return events.UserPayload{Email: u.Email, Active: u.Active, Author: u.Author}
}
