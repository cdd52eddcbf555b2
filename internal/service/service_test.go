package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/notify"
	"github.com/bookhaven/bookhaven-server/internal/store"
	"github.com/bookhaven/bookhaven-server/internal/validation"
)

// testEnv wires the service layer over a throwaway store.
type testEnv struct {
	store   *store.Store
	catalog *CatalogService
	carts   *CartService
	orders  *OrderService
	history *HistoryService
	users   *UserService
	sender  *captureSender
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	v := validation.New()
	sender := &captureSender{}
	users := NewUserService(st, logger)

	return &testEnv{
		store:   st,
		catalog: NewCatalogService(st, v, logger),
		carts:   NewCartService(st, logger),
		orders:  NewOrderService(st, users, v, sender, 14*24*time.Hour, logger),
		history: NewHistoryService(st, logger),
		users:   users,
		sender:  sender,
	}
}

// captureSender records notifications instead of delivering them.
type captureSender struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (c *captureSender) Send(_ context.Context, msg notify.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

// waitForMessages blocks until n notifications arrived or the deadline
// passes. Notifications are sent from goroutines, so tests must wait.
func (c *captureSender) waitForMessages(t *testing.T, n int) []notify.Message {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.sent) >= n {
			msgs := append([]notify.Message(nil), c.sent...)
			c.mu.Unlock()
			return msgs
		}
		c.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d notifications", n)
	return nil
}

func (e *testEnv) seedBook(t *testing.T, id string, price int64, stock int) *domain.Book {
	t.Helper()

	book := &domain.Book{
		Meta:   domain.Meta{ID: id},
		Title:  "Title " + id,
		Author: "Author " + id,
		Genre:  "Fiction",
		Price:  price,
		Stock:  stock,
	}
	require.NoError(t, e.store.CreateBook(t.Context(), book))
	return book
}
