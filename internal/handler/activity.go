package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pkordes/tripplanner/internal/domain"
)

// activityRequest is the body of both add and edit. Edits replace the whole
// activity, so every field is sent each time.
type activityRequest struct {
	Name             string              `json:"name"`
	Type             domain.ActivityType `json:"type"`
	Description      string              `json:"description"`
	Location         string              `json:"location"`
	StartTime        string              `json:"start_time"`
	Duration         int                 `json:"duration"`
	Cost             decimal.Decimal     `json:"cost"`
	Notes            string              `json:"notes"`
	IsRecommendation bool                `json:"is_recommendation"`
}

func (b activityRequest) toDomain() domain.Activity {
	return domain.Activity{
		Name:             b.Name,
		Type:             b.Type,
		Description:      b.Description,
		Location:         b.Location,
		StartTime:        b.StartTime,
		Duration:         b.Duration,
		Cost:             b.Cost,
		Notes:            b.Notes,
		IsRecommendation: b.IsRecommendation,
	}
}

// AddActivity handles POST /trips/current/days/{dayID}/activities.
func (s *Server) AddActivity(w http.ResponseWriter, r *http.Request) {
	var body activityRequest
	if err := decodeJSON(r, &body); err != nil {
		decodeError(w, err)
		return
	}
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}

	created, err := it.AddActivity(chi.URLParam(r, "dayID"), body.toDomain())
	if err != nil {
		s.writeDomainError(w, r, err, "day not found", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// EditActivity handles PUT /trips/current/days/{dayID}/activities/{activityID}
// and returns the updated open trip.
func (s *Server) EditActivity(w http.ResponseWriter, r *http.Request) {
	var body activityRequest
	if err := decodeJSON(r, &body); err != nil {
		decodeError(w, err)
		return
	}
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}

	err := it.EditActivity(chi.URLParam(r, "dayID"), chi.URLParam(r, "activityID"), body.toDomain())
	if err != nil {
		s.writeDomainError(w, r, err, "activity not found", http.StatusInternalServerError)
		return
	}
	s.GetCurrentTrip(w, r)
}

// RemoveActivity handles DELETE /trips/current/days/{dayID}/activities/{activityID}.
// Removing an activity that does not exist succeeds.
func (s *Server) RemoveActivity(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}
	if err := it.RemoveActivity(chi.URLParam(r, "dayID"), chi.URLParam(r, "activityID")); err != nil {
		s.writeDomainError(w, r, err, "activity not found", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePreferences handles PATCH /trips/current/preferences.
// Fields left out of the body are unchanged.
func (s *Server) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var patch domain.PreferencesPatch
	if err := decodeJSON(r, &patch); err != nil {
		decodeError(w, err)
		return
	}
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}

	prefs, err := it.UpdatePreferences(patch)
	if err != nil {
		s.writeDomainError(w, r, err, "", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
