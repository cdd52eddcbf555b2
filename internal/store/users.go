package store

import (
	"context"
	"sort"

	"github.com/bookhaven/bookhaven-server/internal/domain"
)

// User registry operations, built on the generic entity layer with a
// unique case-insensitive email index.

// CreateUser persists a new user.
// Returns ErrAlreadyExists if the ID or email is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	user.InitTimestamps()
	return s.Users.Create(ctx, user.ID, user)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.Users.Get(ctx, id)
}

// GetUserByEmail resolves a user through the email index. Lookup is
// case-insensitive.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.Users.GetByIndex(ctx, "email", email)
}

// UpdateUser replaces a user record, preserving its creation time.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	current, err := s.Users.Get(ctx, user.ID)
	if err != nil {
		return err
	}
	user.CreatedAt = current.CreatedAt
	user.Touch()
	return s.Users.Update(ctx, user.ID, user)
}

// ListUsers returns all registered users, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	for user, err := range s.Users.List(ctx) {
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}
