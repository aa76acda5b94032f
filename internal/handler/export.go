package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripplanner/internal/calendar"
	"github.com/pkordes/tripplanner/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_title", "destination", "trip_start_date", "trip_end_date",
	"day_number", "day_date", "activity_name", "activity_type", "location",
	"start_time", "duration_minutes", "cost", "notes",
}

// exportRow is the JSON shape of one domain.ExportRow.
type exportRow struct {
	TripID        string `json:"trip_id"`
	TripTitle     string `json:"trip_title"`
	Destination   string `json:"destination"`
	TripStartDate string `json:"trip_start_date"`
	TripEndDate   string `json:"trip_end_date"`
	DayNumber     int    `json:"day_number,omitempty"`
	DayDate       string `json:"day_date,omitempty"`
	ActivityName  string `json:"activity_name,omitempty"`
	ActivityType  string `json:"activity_type,omitempty"`
	Location      string `json:"location,omitempty"`
	StartTime     string `json:"start_time,omitempty"`
	Duration      int    `json:"duration_minutes,omitempty"`
	Cost          string `json:"cost,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// ExportTrip handles GET /trips/{tripID}/export.
// ?format=csv returns CSV, ?format=ics an iCalendar feed; default is JSON.
func (s *Server) ExportTrip(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itineraryFor(w, r)
	if !ok {
		return
	}
	trip, err := it.Trip(chi.URLParam(r, "tripID"))
	if err != nil {
		s.writeDomainError(w, r, err, "trip not found", http.StatusInternalServerError)
		return
	}

	switch format := strings.ToLower(r.URL.Query().Get("format")); format {
	case "", "json":
		rows := domain.ExportRows(trip)
		out := make([]exportRow, len(rows))
		for i, row := range rows {
			out[i] = exportRow(row)
		}
		writeJSON(w, http.StatusOK, out)
	case "csv":
		writeAttachment(w, "text/csv", filename(trip, "csv"), buildCSV(domain.ExportRows(trip)))
	case "ics":
		feed, err := calendar.Export(trip, s.now())
		if err != nil {
			s.writeDomainError(w, r, err, "", http.StatusInternalServerError)
			return
		}
		writeAttachment(w, "text/calendar", filename(trip, "ics"), []byte(feed))
	default:
		badRequest(w, fmt.Sprintf("unsupported format %q (want json, csv, or ics)", format))
	}
}

// buildCSV encodes rows as CSV with a header line.
func buildCSV(rows []domain.ExportRow) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		w.Write(rowToCSVRecord(r))
	}
	w.Flush()
	return buf.Bytes()
}

// rowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// A zero day number (trip without activities) is written as an empty cell.
func rowToCSVRecord(r domain.ExportRow) []string {
	day, duration := "", ""
	if r.DayNumber > 0 {
		day = strconv.Itoa(r.DayNumber)
		duration = strconv.Itoa(r.Duration)
	}
	return []string{
		r.TripID,
		r.TripTitle,
		r.Destination,
		r.TripStartDate,
		r.TripEndDate,
		day,
		r.DayDate,
		r.ActivityName,
		r.ActivityType,
		r.Location,
		r.StartTime,
		duration,
		r.Cost,
		r.Notes,
	}
}

func writeAttachment(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// filename derives a download name such as "tokyo-week-2024-06-01.csv".
func filename(t domain.Trip, ext string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, strings.TrimSpace(t.Title))
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "trip"
	}
	return fmt.Sprintf("%s-%s.%s", slug, t.StartDate.Format(domain.DateLayout), ext)
}
