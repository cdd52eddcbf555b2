package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	apperrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/id"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

// UserService maintains the customer registry. Customers are identified by
// email; there are no credentials, the registry exists so checkout and
// history can share contact details.
type UserService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store *store.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// Ensure returns the user for the given email, creating a registry entry
// on first contact. Name and phone fill gaps in an existing record but
// never overwrite values the customer already set.
func (s *UserService) Ensure(ctx context.Context, name, email, phone string) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		changed := false
		if user.Name == "" && name != "" {
			user.Name = name
			changed = true
		}
		if user.Phone == "" && phone != "" {
			user.Phone = phone
			changed = true
		}
		if changed {
			if err := s.store.UpdateUser(ctx, user); err != nil {
				return nil, fmt.Errorf("update user: %w", err)
			}
		}
		return user, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	user = &domain.User{
		Meta:  domain.Meta{ID: userID},
		Name:  name,
		Email: email,
		Phone: phone,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("registered new customer", "user_id", user.ID)
	return user, nil
}

// GetByEmail returns the registered user for an email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

// List returns all registered customers, oldest first.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.store.ListUsers(ctx)
}
