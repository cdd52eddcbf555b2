package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/notify"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

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

func (c *captureSender) messages() []notify.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Message(nil), c.sent...)
}

func setupSweeper(t *testing.T) (*OverdueSweeper, *store.Store, *captureSender) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	sender := &captureSender{}
	return NewOverdueSweeper(st, sender, logger), st, sender
}

func seedBorrow(t *testing.T, st *store.Store, id, email string, loanPeriod time.Duration) *domain.Transaction {
	t.Helper()

	book := &domain.Book{Title: "1984", Author: "George Orwell", Price: 580, Stock: 5}
	book.ID = "book-" + id
	require.NoError(t, st.CreateBook(t.Context(), book))

	txn := &domain.Transaction{
		UserEmail: email,
		Customer:  domain.Customer{Name: "Reader", Email: email},
		Items:     []domain.TransactionItem{{Book: book.Snapshot(), Quantity: 1}},
	}
	txn.ID = "txn-" + id
	_, err := st.CreateBorrow(t.Context(), []*domain.Transaction{txn}, loanPeriod)
	require.NoError(t, err)
	return txn
}

func TestRunFlagsOverdueBorrows(t *testing.T) {
	sweeper, st, sender := setupSweeper(t)

	late := seedBorrow(t, st, "late", "late@example.com", -time.Hour)
	seedBorrow(t, st, "ok", "ok@example.com", 14*24*time.Hour)

	flagged, err := sweeper.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	got, err := st.GetTransaction(t.Context(), late.ID)
	require.NoError(t, err)
	assert.True(t, got.Overdue)

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "late@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Body, "1984")
}

func TestRunNotifiesOnlyOnce(t *testing.T) {
	sweeper, st, sender := setupSweeper(t)
	seedBorrow(t, st, "late", "late@example.com", -time.Hour)

	flagged, err := sweeper.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	// The second night finds the flag already set.
	flagged, err = sweeper.Run(t.Context())
	require.NoError(t, err)
	assert.Zero(t, flagged)
	assert.Len(t, sender.messages(), 1)
}

func TestRunSkipsReturnedBorrows(t *testing.T) {
	sweeper, st, sender := setupSweeper(t)

	late := seedBorrow(t, st, "late", "late@example.com", -time.Hour)
	_, err := st.SetTransactionStatus(t.Context(), late.ID, domain.StatusReturned)
	require.NoError(t, err)

	flagged, err := sweeper.Run(t.Context())
	require.NoError(t, err)
	assert.Zero(t, flagged)
	assert.Empty(t, sender.messages())
}

func TestRunUsesInjectedClock(t *testing.T) {
	sweeper, st, _ := setupSweeper(t)

	// Due in 14 days, but the clock says it's next month.
	seedBorrow(t, st, "soon", "soon@example.com", 14*24*time.Hour)
	sweeper.now = func() time.Time { return time.Now().Add(30 * 24 * time.Hour) }

	flagged, err := sweeper.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	sweeper, _, _ := setupSweeper(t)
	assert.Error(t, sweeper.Start("not a schedule"))
}
