package identity

import (
	"context"
	"sync"
	"time"
)

type UserRepository interface {
	// Create returns ErrUserExists when the username is taken.
	Create(ctx context.Context, u *User) error
	// GetByUsername returns ErrUserNotFound for unknown usernames.
	GetByUsername(ctx context.Context, username string) (*User, error)
}

type memoryUserRepo struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]*User
}

// NewMemoryUserRepo returns a process-local repository.
func NewMemoryUserRepo() UserRepository {
	return &memoryUserRepo{users: make(map[string]*User)}
}

func (r *memoryUserRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Username]; ok {
		return ErrUserExists
	}
	r.nextID++
	u.ID = r.nextID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	r.users[u.Username] = &cp
	return nil
}

func (r *memoryUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
