package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/identity"
)

// errorDetail and errorResponse are the body of every non-2xx response:
// {"error":{"code":"not_found","message":"trip not found"}}.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// notFound writes a 404. The caller supplies the human-readable message
// (e.g. "trip not found") because the handler is the layer that knows what
// was being looked up.
func notFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, "not_found", message)
}

// badRequest writes a 422 for a request rejected before reaching the
// itinerary (e.g. missing or malformed body).
func badRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, "validation_error", message)
}

// writeDomainError maps a sentinel error to its status and code. Errors that
// match no sentinel get fallback, which callers set to 502 when the failure
// came from the remote store.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string, fallback int) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		notFound(w, notFoundMsg)
	case errors.Is(err, domain.ErrNoOpenTrip):
		writeError(w, http.StatusConflict, "no_open_trip", "no trip is open")
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", unwrapMessage(err))
	case errors.Is(err, identity.ErrProvider):
		s.log.ErrorContext(r.Context(), "identity provider error", "error", err)
		writeError(w, http.StatusBadGateway, "upstream_error", "identity provider unavailable")
	default:
		s.log.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		if fallback == http.StatusBadGateway {
			writeError(w, fallback, "upstream_error", "trip store unavailable, please retry")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "itinerary.Manager.CreateTrip: validation error: title is required" → "title is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrValidation, domain.ErrUnauthenticated} {
		if _, after, ok := strings.Cut(msg, sentinel.Error()+": "); ok {
			return after
		}
	}
	return msg
}

// errBodyTooLarge means the body ran past the limit set by the body size middleware.
var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads the request body into v. Unknown fields are rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return errors.New("request body must be valid JSON")
	}
	return nil
}

// decodeError writes the response for a decodeJSON failure: 413 for an
// oversized body, 422 for anything else.
func decodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
		return
	}
	badRequest(w, err.Error())
}
