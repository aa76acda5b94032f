package handler

import (
	"net/http"
	"strings"

	"github.com/pkordes/tripplanner/internal/assistant"
	"github.com/pkordes/tripplanner/internal/itinerary"
)

type assistantRequest struct {
	Message     string              `json:"message"`
	History     []assistant.Message `json:"history"`
	SelectedDay string              `json:"selected_day"`
}

// PostAssistantMessage handles POST /assistant/messages. The reply is about
// the open trip; the conversation so far is kept by the client and sent back
// as history. Suggested activities are not added to the trip.
func (s *Server) PostAssistantMessage(w http.ResponseWriter, r *http.Request) {
	var body assistantRequest
	if err := decodeJSON(r, &body); err != nil {
		decodeError(w, err)
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		badRequest(w, "message is required")
		return
	}
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}
	cur, ok := it.Current()
	if !ok {
		writeError(w, http.StatusConflict, "no_open_trip", "no trip is open")
		return
	}

	reply := s.assistant.Reply(r.Context(), body.Message, body.History, assistant.ContextFromTrip(cur, body.SelectedDay))
	writeJSON(w, http.StatusOK, reply)
}

type pendingResponse struct {
	Data    []itinerary.Mutation `json:"data"`
	Loading bool                 `json:"loading"`
}

// ListPending handles GET /sync/pending: the local changes the store has not
// confirmed yet, oldest first.
func (s *Server) ListPending(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pendingResponse{Data: it.Pending(), Loading: it.Loading()})
}
