// Package handler implements the HTTP handlers for the trip planner API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, etc.) but share the same Server struct so they
// can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripplanner/internal/assistant"
	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/identity"
	"github.com/pkordes/tripplanner/internal/itinerary"
)

// Itinerary is the per-user trip state the trip, activity, and assistant
// handlers work on. *itinerary.Manager satisfies it. Defining the interface
// here (in the consumer package) lets handler tests inject a mock.
type Itinerary interface {
	Trips() []domain.Trip
	Trip(id string) (domain.Trip, error)
	Current() (domain.Trip, bool)
	OpenTrip(id string) (domain.Trip, error)
	Loading() bool
	Pending() []itinerary.Mutation

	CreateTrip(in domain.NewTrip) (domain.Trip, error)
	DeleteTrip(ctx context.Context, id string) error
	LoadTrips(ctx context.Context) error
	UpdatePreferences(patch domain.PreferencesPatch) (domain.Preferences, error)

	AddActivity(dayID string, a domain.Activity) (domain.Activity, error)
	EditActivity(dayID, activityID string, a domain.Activity) error
	RemoveActivity(dayID, activityID string) error
}

// Sessions hands out the Itinerary of a signed-in user.
type Sessions interface {
	// Itinerary returns the user's itinerary, loading it on first use.
	Itinerary(ctx context.Context, userID string) (Itinerary, error)
	// Drop forgets the user's itinerary after its queued syncs finish.
	Drop(ctx context.Context, userID string) error
}

// Authenticator is the identity provider as seen by the auth handlers.
// *identity.Client satisfies it.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (identity.Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (identity.User, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPassword(ctx context.Context, email string) error
}

// Assistant answers travel questions. *assistant.Service satisfies it.
type Assistant interface {
	Reply(ctx context.Context, msg string, history []assistant.Message, tc assistant.TravelContext) assistant.Reply
}

// Server holds the dependencies of every handler.
type Server struct {
	sessions  Sessions
	auth      Authenticator
	assistant Assistant
	log       *slog.Logger
	now       func() time.Time
}

// NewServer constructs the Server with all its dependencies.
func NewServer(sessions Sessions, auth Authenticator, assistant Assistant, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		sessions:  sessions,
		auth:      auth,
		assistant: assistant,
		log:       log,
		now:       time.Now,
	}
}

// Routes returns the API router. requireAuth guards every route that acts
// for a signed-in user.
func (s *Server) Routes(requireAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign-in", s.SignIn)
		r.Post("/sign-up", s.SignUp)
		r.Post("/reset-password", s.ResetPassword)
		r.With(requireAuth).Post("/sign-out", s.SignOut)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/me", s.GetMe)
		r.Get("/sync/pending", s.ListPending)
		r.Post("/assistant/messages", s.PostAssistantMessage)

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.CreateTrip)
			r.Post("/reload", s.ReloadTrips)

			r.Route("/current", func(r chi.Router) {
				r.Get("/", s.GetCurrentTrip)
				r.Patch("/preferences", s.UpdatePreferences)
				r.Post("/days/{dayID}/activities", s.AddActivity)
				r.Put("/days/{dayID}/activities/{activityID}", s.EditActivity)
				r.Delete("/days/{dayID}/activities/{activityID}", s.RemoveActivity)
			})

			r.Get("/{tripID}", s.GetTrip)
			r.Delete("/{tripID}", s.DeleteTrip)
			r.Post("/{tripID}/open", s.OpenTrip)
			r.Get("/{tripID}/export", s.ExportTrip)
		})
	})

	return r
}
