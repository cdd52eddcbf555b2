package api

import (
	"bytes"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-server/internal/config"
	"github.com/bookhaven/bookhaven-server/internal/notify"
	"github.com/bookhaven/bookhaven-server/internal/search"
	"github.com/bookhaven/bookhaven-server/internal/service"
	"github.com/bookhaven/bookhaven-server/internal/store"
	"github.com/bookhaven/bookhaven-server/internal/validation"
)

const (
	testAdminKey = "test-admin-key"
	testEmail    = "reader@example.com"
)

// testServer wires a full server over a throwaway store and index.
type testServer struct {
	server *Server
	store  *store.Store
	sender *captureSender
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithConfig(t, testConfig())
}

func setupTestServerWithConfig(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	idx, err := search.NewIndex(search.Options{DataPath: t.TempDir(), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, idx.Close())
	})

	v := validation.New()
	sender := &captureSender{}
	users := service.NewUserService(st, logger)

	srv := NewServer(Options{
		Config:  cfg,
		Logger:  logger,
		Store:   st,
		Catalog: service.NewCatalogService(st, v, logger),
		Carts:   service.NewCartService(st, logger),
		Orders:  service.NewOrderService(st, users, v, sender, 14*24*time.Hour, logger),
		History: service.NewHistoryService(st, logger),
		Users:   users,
		Search:  service.NewSearchService(st, idx, logger),
		Sender:  sender,
	})
	t.Cleanup(srv.Close)

	return &testServer{server: srv, store: st, sender: sender}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Admin.Key = testAdminKey
	cfg.Store.CheckoutRPS = 100
	cfg.Store.CheckoutBurst = 100
	return cfg
}

// do performs a request against the server. Headers come in pairs.
func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	require.Zero(t, len(headers)%2, "headers must come in pairs")
	for i := 0; i < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

// doRaw performs a request with a raw string body.
func (ts *testServer) doRaw(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) asUser(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, method, path, body, "X-User-Email", testEmail)
}

func (ts *testServer) asAdmin(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, method, path, body, "X-Admin-Key", testAdminKey)
}

// envelope mirrors the response envelope with raw data for re-decoding.
type envelope struct {
	Data    jsontext.Value    `json:"data"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
	Success bool              `json:"success"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	env := decodeEnvelope(t, rec)
	require.True(t, env.Success, "expected success envelope, got: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

// seedBook creates a catalog book through the admin surface.
func (ts *testServer) seedBook(t *testing.T, title, author, genre string, price int64, stock int) string {
	t.Helper()

	rec := ts.asAdmin(t, http.MethodPost, "/api/v1/admin/books", map[string]any{
		"title":  title,
		"author": author,
		"genre":  genre,
		"price":  price,
		"stock":  stock,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var book struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &book)
	require.NotEmpty(t, book.ID)
	return book.ID
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

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	decodeData(t, rec, &health)

	// Empty search index reads as degraded, never unhealthy.
	require.Equal(t, "degraded", health.Status)
	require.Equal(t, "healthy", health.Components["database"].Status)
	require.Equal(t, "degraded", health.Components["search"].Status)
}
