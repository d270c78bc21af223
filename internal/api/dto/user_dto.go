package dto

import (
	"time"

	"github.com/spec-kit/news-portal/internal/domain"
)

const dateLayout = "2006-01-02"

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileRequest payload for PUT /me.
type ProfileRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Surname     string `json:"surname" validate:"max=100"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

// ParsedDateOfBirth returns the date, or nil when empty. The string has
// already passed validation.
func (r ProfileRequest) ParsedDateOfBirth() *time.Time {
	if r.DateOfBirth == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, r.DateOfBirth)
	if err != nil {
		return nil
	}
	return &t
}

// AdminFieldsRequest payload for PATCH /admin/users/:id. Omitted flags are false.
type AdminFieldsRequest struct {
	Active bool `json:"active"`
	Author bool `json:"author"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Surname      string      `json:"surname,omitempty"`
	Role         domain.Role `json:"role"`
	Active       bool        `json:"active"`
	Author       bool        `json:"author"`
	DateOfBirth  *string     `json:"date_of_birth,omitempty"`
	RegisteredAt string      `json:"registered_at"`
}

// AuthorResponse is the short account view embedded in news and comments.
type AuthorResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Surname     string `json:"surname,omitempty"`
	DisplayName string `json:"display_name"`
}

// NewUserResponse converts a domain account.
func NewUserResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Surname:      u.Surname,
		Role:         u.Role,
		Active:       u.Active,
		Author:       u.Author,
		RegisteredAt: u.RegisteredAt.Format(dateLayout),
	}
	if u.DateOfBirth != nil {
		dob := u.DateOfBirth.Format(dateLayout)
		resp.DateOfBirth = &dob
	}
	return resp
}

// NewUserList converts a slice of accounts.
func NewUserList(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

func newAuthorResponse(u domain.User) AuthorResponse {
	return AuthorResponse{ID: u.ID, Name: u.Name, Surname: u.Surname, DisplayName: u.FullName()}
}

// NewAuthorList converts accounts to their short views.
func NewAuthorList(users []domain.User) []AuthorResponse {
	out := make([]AuthorResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newAuthorResponse(u))
	}
	return out
}
