package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/validation"
)

type checkoutRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,min=5"`
}

func TestValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(checkoutRequest{
		Name:  "Alice",
		Email: "alice@example.com",
		Phone: "+7 900 000-00-00",
	})
	assert.NoError(t, err)
}

func TestValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       checkoutRequest
		wantField string
	}{
		{
			name:      "missing name",
			req:       checkoutRequest{Email: "alice@example.com"},
			wantField: "name",
		},
		{
			name:      "invalid email",
			req:       checkoutRequest{Name: "Alice", Email: "not-an-email"},
			wantField: "email",
		},
		{
			name:      "phone too short",
			req:       checkoutRequest{Name: "Alice", Email: "alice@example.com", Phone: "123"},
			wantField: "phone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *apperrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, apperrors.CodeValidation, domainErr.Code)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidateUsesJSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(checkoutRequest{Name: "Alice"})
	require.Error(t, err)

	var domainErr *apperrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)

	// JSON tag name "email", not struct field name "Email".
	assert.Contains(t, details, "email")
	assert.NotContains(t, details, "Email")
}
