package domain

import "time"

// Role is the authorization tier of an account. The author capability is a separate flag.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the domain model for portal accounts.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	Author       bool
	Name         string
	Surname      string
	DateOfBirth  *time.Time
	RegisteredAt time.Time
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// FullName joins name and surname.
func (u *User) FullName() string {
	if u.Surname == "" {
		return u.Name
	}
	return u.Name + " " + u.Surname
}
