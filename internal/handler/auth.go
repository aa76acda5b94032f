package handler

import (
	"net/http"
	"strings"

	"github.com/pkordes/tripplanner/internal/middleware"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// SignIn handles POST /auth/sign-in. The returned access token authenticates
// every other route. The user's trips are loaded on their first trip request.
func (s *Server) SignIn(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := decodeJSON(r, &body); err != nil {
		decodeError(w, err)
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		badRequest(w, "email and password are required")
		return
	}

	sess, err := s.auth.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeDomainError(w, r, err, "", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// SignUp handles POST /auth/sign-up.
func (s *Server) SignUp(w http.ResponseWriter, r *http.Request) {
	var body signUpRequest
	if err := decodeJSON(r, &body); err != nil {
		decodeError(w, err)
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		badRequest(w, "email and password are required")
		return
	}

	user, err := s.auth.SignUp(r.Context(), body.Email, body.Password, strings.TrimSpace(body.FullName))
	if err != nil {
		s.writeDomainError(w, r, err, "", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// ResetPassword handles POST /auth/reset-password.
// It answers 202 whether or not the address has an account.
func (s *Server) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body emailRequest
	if err := decodeJSON(r, &body); err != nil {
		decodeError(w, err)
		return
	}
	if strings.TrimSpace(body.Email) == "" {
		badRequest(w, "email is required")
		return
	}

	if err := s.auth.ResetPassword(r.Context(), body.Email); err != nil {
		s.writeDomainError(w, r, err, "", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// SignOut handles POST /auth/sign-out. The user's itinerary is dropped after
// its queued syncs finish, then the token is revoked.
func (s *Server) SignOut(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "sign in required")
		return
	}

	if err := s.sessions.Drop(r.Context(), user.ID); err != nil {
		s.log.WarnContext(r.Context(), "session drop incomplete", "user_id", user.ID, "error", err)
	}
	if err := s.auth.SignOut(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
		s.writeDomainError(w, r, err, "", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMe handles GET /me.
func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "sign in required")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
