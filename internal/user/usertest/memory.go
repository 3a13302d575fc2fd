// AngelaMos | 2026
// memory.go

// Package usertest provides an in-memory user repository for tests of the
// packages built on top of user.
package usertest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
	"github.com/carterperez-dev/templates/accounts-api/internal/resource"
	"github.com/carterperez-dev/templates/accounts-api/internal/user"
)

type MemoryRepository struct {
	mu    sync.Mutex
	users map[string]*user.User

	// FailResetUpdates makes UpdatePasswordReset fail, for exercising
	// rollback paths.
	FailResetUpdates bool
	ResetUpdates     int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: map[string]*user.User{}}
}

func clone(u *user.User) *user.User {
	c := *u
	return &c
}

// Put stores u as-is, bypassing every rule the service enforces.
func (m *MemoryRepository) Put(u *user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = clone(u)
}

// Find returns the stored row regardless of its active flag.
func (m *MemoryRepository) Find(id string) (*user.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, false
	}
	return clone(u), true
}

func (m *MemoryRepository) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}

	now := time.Now()
	u.Active = true
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users[u.ID] = clone(u)
	return nil
}

func (m *MemoryRepository) active(id string) (*user.User, error) {
	u, ok := m.users[id]
	if !ok || !u.Active {
		return nil, core.ErrNotFound
	}
	return u, nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, err := m.active(id)
	if err != nil {
		return nil, err
	}
	return clone(u), nil
}

func (m *MemoryRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email && u.Active {
			return clone(u), nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *MemoryRepository) GetByResetToken(
	_ context.Context,
	tokenHash string,
	now time.Time,
) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if !u.Active || u.PasswordResetToken == nil || u.PasswordResetExpiresAt == nil {
			continue
		}
		if *u.PasswordResetToken == tokenHash && u.PasswordResetExpiresAt.After(now) {
			return clone(u), nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *MemoryRepository) Update(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.active(u.ID)
	if err != nil {
		return err
	}

	for id, other := range m.users {
		if id != u.ID && other.Email == u.Email {
			return core.ErrDuplicateKey
		}
	}

	stored.Name = u.Name
	stored.Email = u.Email
	stored.Photo = u.Photo
	stored.Role = u.Role
	stored.UpdatedAt = time.Now()
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MemoryRepository) UpdateCredentials(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.active(u.ID)
	if err != nil {
		return err
	}

	stored.PasswordHash = u.PasswordHash
	stored.PasswordChangedAt = u.PasswordChangedAt
	stored.PasswordResetToken = u.PasswordResetToken
	stored.PasswordResetExpiresAt = u.PasswordResetExpiresAt
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) UpdatePasswordReset(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ResetUpdates++
	if m.FailResetUpdates {
		return fmt.Errorf("update password reset: injected failure")
	}

	stored, err := m.active(u.ID)
	if err != nil {
		return err
	}

	stored.PasswordResetToken = u.PasswordResetToken
	stored.PasswordResetExpiresAt = u.PasswordResetExpiresAt
	return nil
}

func (m *MemoryRepository) Deactivate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.active(id)
	if err != nil {
		return err
	}
	stored.Active = false
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.active(id); err != nil {
		return err
	}
	delete(m.users, id)
	return nil
}

// List honours the active default and pagination; other filters and sort
// orders are left to the SQL repository.
func (m *MemoryRepository) List(_ context.Context, q resource.Query) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]user.User, 0, len(m.users))
	for _, u := range m.users {
		if !q.HasFilter("active") && !u.Active {
			continue
		}
		out = append(out, *u)
	}

	slices.SortFunc(out, func(a, b user.User) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	start := min(q.Offset(), len(out))
	end := min(start+q.Limit, len(out))
	return out[start:end], nil
}

func (m *MemoryRepository) Stats(_ context.Context) (*user.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &user.Stats{ByRole: map[core.Role]int{}}
	for _, u := range m.users {
		stats.Total++
		if u.Active {
			stats.Active++
			stats.ByRole[u.Role]++
		}
	}
	return stats, nil
}

var _ user.Repository = (*MemoryRepository)(nil)
