package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/medroute/medroute/internal/platform/auth"
)

// TokenIssuer mints session tokens for authenticated users.
type TokenIssuer interface {
	Issue(username, role string) (*auth.Token, error)
}

type Service struct {
	users      UserRepository
	tokens     TokenIssuer
	bcryptCost int
}

func NewService(users UserRepository, tokens TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost lowers or raises the hashing cost; tests use bcrypt.MinCost.
func (s *Service) WithBcryptCost(cost int) *Service {
	s.bcryptCost = cost
	return s
}

// Signup registers a regular user account.
func (s *Service) Signup(ctx context.Context, cred Credentials) (*User, error) {
	return s.CreateUser(ctx, cred, RoleUser)
}

// CreateUser registers an account with an explicit role. Admin accounts are
// only created through this path, never through the public signup route.
func (s *Service) CreateUser(ctx context.Context, cred Credentials, role string) (*User, error) {
	cred = cred.normalized()
	if cred.Username == "" {
		return nil, &FieldError{Field: "username", Reason: "is required"}
	}
	if len(cred.Password) < MinPasswordLength {
		return nil, &FieldError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	if !validRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{Username: cred.Username, PasswordHash: string(hash), Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("username", u.Username).Str("role", role).Msg("user created")
	return u, nil
}

// Login verifies credentials and issues a token carrying the user's role.
func (s *Service) Login(ctx context.Context, cred Credentials) (*auth.Token, error) {
	u, err := s.authenticate(ctx, cred)
	if err != nil {
		return nil, err
	}
	return s.tokens.Issue(u.Username, u.Role)
}

// AdminLogin is Login restricted to admin accounts. The password is checked
// before the role so the response does not reveal which usernames are admins.
func (s *Service) AdminLogin(ctx context.Context, cred Credentials) (*auth.Token, error) {
	u, err := s.authenticate(ctx, cred)
	if err != nil {
		return nil, err
	}
	if u.Role != RoleAdmin {
		zerolog.Ctx(ctx).Warn().Str("username", u.Username).Msg("non-admin attempted admin login")
		return nil, ErrNotAdmin
	}
	return s.tokens.Issue(u.Username, RoleAdmin)
}

func (s *Service) authenticate(ctx context.Context, cred Credentials) (*User, error) {
	cred = cred.normalized()
	if cred.Username == "" || cred.Password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(ctx, cred.Username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(cred.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
