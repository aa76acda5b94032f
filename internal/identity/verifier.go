package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pkordes/tripplanner/internal/domain"
)

// Verifier validates access tokens signed with the provider's HS256 secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier returns a Verifier for tokens signed with secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

type claims struct {
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Verify checks the token's signature and expiry and returns its user.
// Any failure is reported as domain.ErrUnauthenticated.
func (v *Verifier) Verify(token string) (User, error) {
	var c claims
	_, err := v.parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return User{}, fmt.Errorf("identity.Verifier.Verify: %w: %v", domain.ErrUnauthenticated, err)
	}
	if c.Subject == "" {
		return User{}, fmt.Errorf("identity.Verifier.Verify: %w: token has no subject", domain.ErrUnauthenticated)
	}
	return User{ID: c.Subject, Email: c.Email, FullName: c.UserMetadata.FullName}, nil
}
