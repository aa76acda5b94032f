package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripplanner/internal/assistant"
	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/handler"
	"github.com/pkordes/tripplanner/internal/identity"
	"github.com/pkordes/tripplanner/internal/itinerary"
	"github.com/pkordes/tripplanner/internal/middleware"
)

// mockItinerary is a test double for handler.Itinerary.
// Set only the method fields your test needs.
type mockItinerary struct {
	trips             func() []domain.Trip
	trip              func(id string) (domain.Trip, error)
	current           func() (domain.Trip, bool)
	openTrip          func(id string) (domain.Trip, error)
	loading           func() bool
	pending           func() []itinerary.Mutation
	createTrip        func(in domain.NewTrip) (domain.Trip, error)
	deleteTrip        func(ctx context.Context, id string) error
	loadTrips         func(ctx context.Context) error
	updatePreferences func(patch domain.PreferencesPatch) (domain.Preferences, error)
	addActivity       func(dayID string, a domain.Activity) (domain.Activity, error)
	editActivity      func(dayID, activityID string, a domain.Activity) error
	removeActivity    func(dayID, activityID string) error
}

func (m *mockItinerary) Trips() []domain.Trip                      { return m.trips() }
func (m *mockItinerary) Trip(id string) (domain.Trip, error)       { return m.trip(id) }
func (m *mockItinerary) Current() (domain.Trip, bool)              { return m.current() }
func (m *mockItinerary) OpenTrip(id string) (domain.Trip, error)   { return m.openTrip(id) }
func (m *mockItinerary) Pending() []itinerary.Mutation             { return m.pending() }
func (m *mockItinerary) CreateTrip(in domain.NewTrip) (domain.Trip, error) {
	return m.createTrip(in)
}
func (m *mockItinerary) DeleteTrip(ctx context.Context, id string) error {
	return m.deleteTrip(ctx, id)
}
func (m *mockItinerary) LoadTrips(ctx context.Context) error { return m.loadTrips(ctx) }
func (m *mockItinerary) UpdatePreferences(p domain.PreferencesPatch) (domain.Preferences, error) {
	return m.updatePreferences(p)
}
func (m *mockItinerary) AddActivity(dayID string, a domain.Activity) (domain.Activity, error) {
	return m.addActivity(dayID, a)
}
func (m *mockItinerary) EditActivity(dayID, activityID string, a domain.Activity) error {
	return m.editActivity(dayID, activityID, a)
}
func (m *mockItinerary) RemoveActivity(dayID, activityID string) error {
	return m.removeActivity(dayID, activityID)
}

// Loading defaults to false so list tests need not set it.
func (m *mockItinerary) Loading() bool {
	if m.loading == nil {
		return false
	}
	return m.loading()
}

// compile-time check: mockItinerary must satisfy handler.Itinerary.
var _ handler.Itinerary = (*mockItinerary)(nil)

type mockSessions struct {
	itinerary func(ctx context.Context, userID string) (handler.Itinerary, error)
	drop      func(ctx context.Context, userID string) error
}

func (m *mockSessions) Itinerary(ctx context.Context, userID string) (handler.Itinerary, error) {
	return m.itinerary(ctx, userID)
}
func (m *mockSessions) Drop(ctx context.Context, userID string) error { return m.drop(ctx, userID) }

var _ handler.Sessions = (*mockSessions)(nil)

type mockAuth struct {
	signIn        func(ctx context.Context, email, password string) (identity.Session, error)
	signUp        func(ctx context.Context, email, password, fullName string) (identity.User, error)
	signOut       func(ctx context.Context, accessToken string) error
	resetPassword func(ctx context.Context, email string) error
}

func (m *mockAuth) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	return m.signIn(ctx, email, password)
}
func (m *mockAuth) SignUp(ctx context.Context, email, password, fullName string) (identity.User, error) {
	return m.signUp(ctx, email, password, fullName)
}
func (m *mockAuth) SignOut(ctx context.Context, accessToken string) error {
	return m.signOut(ctx, accessToken)
}
func (m *mockAuth) ResetPassword(ctx context.Context, email string) error {
	return m.resetPassword(ctx, email)
}

var _ handler.Authenticator = (*mockAuth)(nil)

type mockAssistant struct {
	reply func(ctx context.Context, msg string, history []assistant.Message, tc assistant.TravelContext) assistant.Reply
}

func (m *mockAssistant) Reply(ctx context.Context, msg string, history []assistant.Message, tc assistant.TravelContext) assistant.Reply {
	return m.reply(ctx, msg, history, tc)
}

var _ handler.Assistant = (*mockAssistant)(nil)

// ---- helpers ---------------------------------------------------------------

const testToken = "token-1"

var testUser = identity.User{ID: "user-1", Email: "ana@example.com"}

// fakeAuth accepts exactly testToken as the bearer token and signs in testUser.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), testUser, testToken)))
	})
}

// deps groups the doubles behind one Server. Nil fields are left nil on the
// Server so an unexpected call panics the test.
type deps struct {
	it   *mockItinerary
	auth *mockAuth
	ai   *mockAssistant
}

func newHTTPHandler(d deps) http.Handler {
	sessions := &mockSessions{
		itinerary: func(_ context.Context, userID string) (handler.Itinerary, error) {
			if userID != testUser.ID {
				return nil, domain.ErrUnauthenticated
			}
			return d.it, nil
		},
		drop: func(context.Context, string) error { return nil },
	}
	srv := handler.NewServer(sessions, d.auth, d.ai, discardLogger())
	return srv.Routes(fakeAuth)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// do sends an authenticated request with an optional JSON body.
func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, rec, &body)
	return body.Error.Code
}

// tripFixture returns a three-day Tokyo trip with one activity on day one.
func tripFixture() domain.Trip {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	trip := domain.Trip{
		ID:          "8c7a4f9e-3b1d-4a56-9e0f-2d6b1c3a7e55",
		Title:       "Tokyo Week",
		Destination: "Tokyo",
		StartDate:   start,
		EndDate:     end,
		Budget:      decimal.NewFromInt(1000),
		Days:        domain.BuildDays(start, end),
		Preferences: domain.DefaultPreferences(),
	}
	trip.Days[0].Activities = []domain.Activity{{
		ID:        "a1",
		Name:      "Senso-ji",
		Type:      domain.ActivityCultural,
		Location:  "Asakusa",
		StartTime: "09:30",
		Duration:  90,
		Cost:      decimal.NewFromInt(50),
	}}
	trip.Recalculate()
	return trip
}
