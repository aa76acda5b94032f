package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/middleware"
)

// itineraryFor returns the signed-in user's itinerary, writing the error
// response itself when there is none.
func (s *Server) itineraryFor(w http.ResponseWriter, r *http.Request) (Itinerary, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "sign in required")
		return nil, false
	}
	it, err := s.sessions.Itinerary(r.Context(), user.ID)
	if err != nil {
		s.writeDomainError(w, r, err, "", http.StatusBadGateway)
		return nil, false
	}
	return it, true
}

// CreateTrip handles POST /trips. The trip is returned at once under a
// temporary id and becomes the open trip; the store insert completes in the
// background.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body createTripRequest
	if err := decodeJSON(r, &body); err != nil {
		decodeError(w, err)
		return
	}
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}

	created, err := it.CreateTrip(body.toDomain())
	if err != nil {
		s.writeDomainError(w, r, err, "", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}

	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))
	trips := it.Trips()
	page := domain.Paginate(trips, params)

	resp := tripListResponse{
		Data: make([]tripResponse, len(page)),
		Pagination: pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: len(trips),
		},
		Loading: it.Loading(),
	}
	for i, t := range page {
		resp.Data[i] = tripToResponse(t)
	}
	if cur, ok := it.Current(); ok {
		resp.CurrentTripID = cur.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReloadTrips handles POST /trips/reload: it refetches every trip from the
// store and returns the first page.
func (s *Server) ReloadTrips(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}
	if err := it.LoadTrips(r.Context()); err != nil {
		s.writeDomainError(w, r, err, "", http.StatusBadGateway)
		return
	}
	s.ListTrips(w, r)
}

// GetCurrentTrip handles GET /trips/current.
func (s *Server) GetCurrentTrip(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}
	cur, ok := it.Current()
	if !ok {
		writeError(w, http.StatusConflict, "no_open_trip", "no trip is open")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(cur))
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}
	trip, err := it.Trip(chi.URLParam(r, "tripID"))
	if err != nil {
		s.writeDomainError(w, r, err, "trip not found", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// OpenTrip handles POST /trips/{tripID}/open.
func (s *Server) OpenTrip(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}
	trip, err := it.OpenTrip(chi.URLParam(r, "tripID"))
	if err != nil {
		s.writeDomainError(w, r, err, "trip not found", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// DeleteTrip handles DELETE /trips/{tripID}. The store delete happens before
// the response; on failure the trip is kept and 502 asks the client to retry.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}
	if err := it.DeleteTrip(r.Context(), chi.URLParam(r, "tripID")); err != nil {
		s.writeDomainError(w, r, err, "trip not found", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- request/response types -------------------------------------------------

type createTripRequest struct {
	Title       string             `json:"title"`
	Destination string             `json:"destination"`
	StartDate   openapi_types.Date `json:"start_date"`
	EndDate     openapi_types.Date `json:"end_date"`
	Budget      decimal.Decimal    `json:"budget"`
}

func (b createTripRequest) toDomain() domain.NewTrip {
	return domain.NewTrip{
		Title:       b.Title,
		Destination: b.Destination,
		StartDate:   b.StartDate.Time,
		EndDate:     b.EndDate.Time,
		Budget:      b.Budget,
	}
}

type tripResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Destination string             `json:"destination"`
	StartDate   openapi_types.Date `json:"start_date"`
	EndDate     openapi_types.Date `json:"end_date"`
	Budget      decimal.Decimal    `json:"budget"`
	SpentAmount decimal.Decimal    `json:"spent_amount"`
	Remaining   decimal.Decimal    `json:"remaining"`
	Days        []dayResponse      `json:"days"`
	Preferences domain.Preferences `json:"preferences"`
}

type dayResponse struct {
	ID         string             `json:"id"`
	Date       openapi_types.Date `json:"date"`
	Number     int                `json:"number"`
	Cost       decimal.Decimal    `json:"cost"`
	Notes      string             `json:"notes,omitempty"`
	Activities []domain.Activity  `json:"activities"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type tripListResponse struct {
	Data          []tripResponse `json:"data"`
	Pagination    pagination     `json:"pagination"`
	CurrentTripID string         `json:"current_trip_id,omitempty"`
	Loading       bool           `json:"loading"`
}

// tripToResponse converts a domain.Trip into its JSON shape, with dates as
// plain calendar dates.
func tripToResponse(t domain.Trip) tripResponse {
	resp := tripResponse{
		ID:          t.ID,
		Title:       t.Title,
		Destination: t.Destination,
		StartDate:   openapi_types.Date{Time: t.StartDate},
		EndDate:     openapi_types.Date{Time: t.EndDate},
		Budget:      t.Budget,
		SpentAmount: t.SpentAmount,
		Remaining:   t.Remaining(),
		Days:        make([]dayResponse, len(t.Days)),
		Preferences: t.Preferences,
	}
	for i, d := range t.Days {
		acts := d.Activities
		if acts == nil {
			acts = []domain.Activity{}
		}
		resp.Days[i] = dayResponse{
			ID:         d.ID,
			Date:       openapi_types.Date{Time: d.Date},
			Number:     domain.DayNumber(t.StartDate, d.Date),
			Cost:       d.Cost(),
			Notes:      d.Notes,
			Activities: acts,
		}
	}
	return resp
}

// queryInt returns the named query parameter as an int, or nil when it is
// absent or not a number.
func queryInt(r *http.Request, name string) *int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return nil
	}
	return &v
}
