package api

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/bookhaven/bookhaven-server/internal/http/response"
)

// RegisterUserRequest creates or updates the profile for an email identity.
type RegisterUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// handleRegisterUser registers an identity. Registration is idempotent:
// an existing profile only gains fields it was missing.
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterUserRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		response.BadRequest(w, "A valid email is required", s.logger)
		return
	}

	user, err := s.users.Ensure(ctx, req.Name, email, req.Phone)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, user, s.logger)
}

// handleGetProfile returns the profile for the caller's identity.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.users.GetByEmail(ctx, getEmail(ctx))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, user, s.logger)
}
