package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/handler"
	"github.com/pkordes/tripplanner/internal/identity"
)

func TestSignIn(t *testing.T) {
	auth := &mockAuth{
		signIn: func(_ context.Context, email, password string) (identity.Session, error) {
			if password != "hunter22" {
				return identity.Session{}, fmt.Errorf("identity.Client.SignIn: %w: invalid login credentials", domain.ErrUnauthenticated)
			}
			return identity.Session{AccessToken: "jwt", TokenType: "bearer", User: identity.User{ID: "user-1", Email: email}}, nil
		},
	}
	h := newHTTPHandler(deps{auth: auth})

	t.Run("200 with the session", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/auth/sign-in", map[string]any{"email": "ana@example.com", "password": "hunter22"})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp identity.Session
		decodeBody(t, rec, &resp)
		assert.Equal(t, "jwt", resp.AccessToken)
		assert.Equal(t, "user-1", resp.User.ID)
	})

	t.Run("401 on bad credentials", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/auth/sign-in", map[string]any{"email": "ana@example.com", "password": "nope"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthenticated", errorCode(t, rec))
	})

	t.Run("422 when fields are missing", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/auth/sign-in", map[string]any{"email": "ana@example.com"})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestSignUp_201(t *testing.T) {
	var gotName string
	auth := &mockAuth{
		signUp: func(_ context.Context, email, _, fullName string) (identity.User, error) {
			gotName = fullName
			return identity.User{ID: "user-2", Email: email, FullName: fullName}, nil
		},
	}

	rec := do(t, newHTTPHandler(deps{auth: auth}), http.MethodPost, "/auth/sign-up",
		map[string]any{"email": "bo@example.com", "password": "hunter22", "full_name": "  Bo Lee "})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Bo Lee", gotName)
}

func TestSignUp_502_WhenProviderDown(t *testing.T) {
	auth := &mockAuth{
		signUp: func(context.Context, string, string, string) (identity.User, error) {
			return identity.User{}, fmt.Errorf("identity.Client.SignUp: %w: status 503", identity.ErrProvider)
		},
	}

	rec := do(t, newHTTPHandler(deps{auth: auth}), http.MethodPost, "/auth/sign-up",
		map[string]any{"email": "bo@example.com", "password": "hunter22"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream_error", errorCode(t, rec))
}

func TestResetPassword_202(t *testing.T) {
	var got string
	auth := &mockAuth{
		resetPassword: func(_ context.Context, email string) error { got = email; return nil },
	}

	rec := do(t, newHTTPHandler(deps{auth: auth}), http.MethodPost, "/auth/reset-password",
		map[string]any{"email": "ana@example.com"})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "ana@example.com", got)
}

func TestSignOut_DropsSessionThenRevokesToken(t *testing.T) {
	var calls []string
	sessions := &mockSessions{
		drop: func(_ context.Context, userID string) error {
			calls = append(calls, "drop "+userID)
			return nil
		},
	}
	auth := &mockAuth{
		signOut: func(_ context.Context, token string) error {
			calls = append(calls, "sign-out "+token)
			return nil
		},
	}
	h := handler.NewServer(sessions, auth, nil, discardLogger()).Routes(fakeAuth)

	rec := do(t, h, http.MethodPost, "/auth/sign-out", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"drop user-1", "sign-out " + testToken}, calls)
}

func TestSignOut_401_WithoutToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-out", strings.NewReader(""))
	rec := httptest.NewRecorder()

	newHTTPHandler(deps{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetMe(t *testing.T) {
	rec := do(t, newHTTPHandler(deps{}), http.MethodGet, "/me", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp identity.User
	decodeBody(t, rec, &resp)
	assert.Equal(t, testUser.ID, resp.ID)
	assert.Equal(t, testUser.Email, resp.Email)
}
