package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-server/internal/domain"
)

func newTestUser(id, email string) *domain.User {
	return &domain.User{
		Meta:  domain.Meta{ID: id},
		Name:  "Test User",
		Email: email,
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s := setupTestStore(t)

	user := newTestUser("usr-1", "alice@example.com")
	require.NoError(t, s.CreateUser(t.Context(), user))

	got, err := s.GetUser(t.Context(), "usr-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetUserByEmailCaseInsensitive(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.CreateUser(t.Context(), newTestUser("usr-1", "Alice@Example.com")))

	got, err := s.GetUserByEmail(t.Context(), "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", got.ID)

	_, err = s.GetUserByEmail(t.Context(), "bob@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.CreateUser(t.Context(), newTestUser("usr-1", "alice@example.com")))

	// Same email, different casing, different ID.
	err := s.CreateUser(t.Context(), newTestUser("usr-2", "ALICE@example.com"))
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateUser(t *testing.T) {
	s := setupTestStore(t)

	user := newTestUser("usr-1", "alice@example.com")
	require.NoError(t, s.CreateUser(t.Context(), user))

	user.Name = "Alice Renamed"
	user.Phone = "+7 900 000-00-00"
	require.NoError(t, s.UpdateUser(t.Context(), user))

	got, err := s.GetUser(t.Context(), "usr-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice Renamed", got.Name)
	assert.Equal(t, "+7 900 000-00-00", got.Phone)
}

func TestListUsersOldestFirst(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.CreateUser(t.Context(), newTestUser("usr-1", "a@example.com")))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, s.CreateUser(t.Context(), newTestUser("usr-2", "b@example.com")))

	users, err := s.ListUsers(t.Context())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "usr-1", users[0].ID)
	assert.Equal(t, "usr-2", users[1].ID)
}
