package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/medroute/medroute/internal/platform/auth"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("admin access only")
	ErrInvalidRole        = errors.New("invalid role")
)

const (
	RoleUser  = auth.RoleUser
	RoleAdmin = auth.RoleAdmin
)

// MinPasswordLength applies to new accounts only.
const MinPasswordLength = 6

// User is a stored account. PasswordHash is a bcrypt hash and never leaves
// the service.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Credentials is the signup and login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) normalized() Credentials {
	return Credentials{Username: strings.TrimSpace(c.Username), Password: c.Password}
}

// FieldError names a missing or malformed credential field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + " " + e.Reason }

func validRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
