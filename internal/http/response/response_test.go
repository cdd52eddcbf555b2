package response

import (
	"encoding/json/v2"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bookhaven/bookhaven-server/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var result Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestJSONSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"message": "test"}, discardLogger())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	result := decode(t, w)
	assert.True(t, result.Success)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Error)
}

func TestJSONSuccessFlagFollowsStatus(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusNotFound, nil, discardLogger())
	assert.False(t, decode(t, w).Success, "success should be false for status >= 400")

	w = httptest.NewRecorder()
	JSON(w, http.StatusCreated, nil, nil) // nil logger must not panic
	assert.True(t, decode(t, w).Success)
}

func TestCreated(t *testing.T) {
	w := httptest.NewRecorder()
	Created(w, map[string]string{"id": "book-1"}, discardLogger())

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "msg", nil) }, http.StatusBadRequest},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "msg", nil) }, http.StatusUnauthorized},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "msg", nil) }, http.StatusForbidden},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "msg", nil) }, http.StatusNotFound},
		{"conflict", func(w http.ResponseWriter) { Conflict(w, "msg", nil) }, http.StatusConflict},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "msg", nil) }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			result := decode(t, w)
			assert.False(t, result.Success)
			assert.Equal(t, "msg", result.Error)
			assert.Nil(t, result.Data)
		})
	}
}

func TestHandleErrorDomainError(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, apperrors.InsufficientStock("book-3"), discardLogger())

	assert.Equal(t, http.StatusConflict, w.Code)
	result := decode(t, w)
	assert.False(t, result.Success)
	assert.Equal(t, "INSUFFICIENT_STOCK", result.Code)

	details, ok := result.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "book-3", details["book_id"])
}

func TestHandleErrorWrappedDomainError(t *testing.T) {
	w := httptest.NewRecorder()

	wrapped := apperrors.NotFound("book book-9 not found").WithCause(errors.New("db says no"))
	HandleError(w, wrapped, discardLogger())

	assert.Equal(t, http.StatusNotFound, w.Code)
	result := decode(t, w)
	assert.Equal(t, "NOT_FOUND", result.Code)
	// The cause stays server-side.
	assert.NotContains(t, result.Error, "db says no")
}

func TestHandleErrorUnknown(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, errors.New("disk on fire"), discardLogger())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	result := decode(t, w)
	assert.Equal(t, "internal server error", result.Error, "internal details must not leak")
	assert.Empty(t, result.Code)
}

func TestEnvelopeOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Envelope{Success: true, Data: "test"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\"error\":")
	assert.NotContains(t, string(data), "\"code\":")
	assert.NotContains(t, string(data), "\"details\":")
}

func TestEmptyListStaysInEnvelope(t *testing.T) {
	// An endpoint with no results must answer "data":[], not drop the
	// field the way a nil payload does.
	w := httptest.NewRecorder()
	Success(w, []string{}, discardLogger())
	assert.Contains(t, w.Body.String(), `"data":[]`)

	w = httptest.NewRecorder()
	var none []string
	Success(w, none, discardLogger())
	assert.Contains(t, w.Body.String(), `"data":[]`)

	w = httptest.NewRecorder()
	Success(w, nil, discardLogger())
	assert.NotContains(t, w.Body.String(), `"data"`)
}
