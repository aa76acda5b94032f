package identity_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/identity"
)

const secret = "super-secret-jwt-token-with-at-least-32-characters"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func TestVerifier_Verify(t *testing.T) {
	v := identity.NewVerifier(secret)
	tok := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"sub":           "6f1c2a4e-5b7d-4c8e-9f10-2a3b4c5d6e7f",
		"email":         "ana@example.com",
		"exp":           time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]any{"full_name": "Ana"},
	})

	u, err := v.Verify(tok)

	require.NoError(t, err)
	assert.Equal(t, "6f1c2a4e-5b7d-4c8e-9f10-2a3b4c5d6e7f", u.ID)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "Ana", u.FullName)
}

func TestVerifier_Verify_Rejects(t *testing.T) {
	v := identity.NewVerifier(secret)
	future := time.Now().Add(time.Hour).Unix()

	cases := map[string]string{
		"expired": sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
			"sub": "u-1", "exp": time.Now().Add(-time.Minute).Unix(),
		}),
		"no expiry": sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u-1"}),
		"wrong secret": sign(t, jwt.SigningMethodHS256, []byte("another-secret"), jwt.MapClaims{
			"sub": "u-1", "exp": future,
		}),
		"wrong method": sign(t, jwt.SigningMethodHS512, []byte(secret), jwt.MapClaims{
			"sub": "u-1", "exp": future,
		}),
		"no subject": sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"exp": future}),
		"garbage":    "not-a-token",
	}

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tok)
			require.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}
