// Package identity talks to the hosted identity provider and verifies the
// access tokens it issues.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	auth "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"

	"github.com/pkordes/tripplanner/internal/domain"
)

// User is the signed-in account. ID scopes every trip query.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// Session is the result of a successful sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// ErrProvider wraps failures of the identity provider itself (5xx, bad
// responses, unreachable host). Handlers should map it to 502.
var ErrProvider = errors.New("identity provider error")

// Client wraps the provider's auth API and maps its failures onto the
// domain errors the handlers understand.
type Client struct {
	api auth.Client
}

// NewClient returns a Client for the provider at baseURL, authenticating
// requests with the project's public apiKey.
func NewClient(baseURL, apiKey string) *Client {
	api := auth.New("", apiKey).WithCustomAuthURL(strings.TrimRight(baseURL, "/") + "/auth/v1")
	return &Client{api: api}
}

func toUser(u types.User) User {
	name, _ := u.UserMetadata["full_name"].(string)
	return User{ID: u.ID.String(), Email: u.Email, FullName: name}
}

// SignIn exchanges email and password for a session.
// Returns domain.ErrUnauthenticated if the credentials are rejected.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	resp, err := await(ctx, func() (*types.TokenResponse, error) {
		return c.api.SignInWithEmailPassword(email, password)
	})
	if err != nil {
		err = classify(err)
		if errors.Is(err, domain.ErrValidation) {
			// The provider reports bad credentials as 400.
			err = fmt.Errorf("%w: %s", domain.ErrUnauthenticated, strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": "))
		}
		return Session{}, fmt.Errorf("identity.Client.SignIn: %w", err)
	}
	return Session{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		RefreshToken: resp.RefreshToken,
		User:         toUser(resp.User),
	}, nil
}

// SignUp registers a new account. The provider usually requires the email to
// be confirmed before SignIn succeeds.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (User, error) {
	resp, err := await(ctx, func() (*types.SignupResponse, error) {
		return c.api.Signup(types.SignupRequest{
			Email:    email,
			Password: password,
			Data:     map[string]interface{}{"full_name": fullName},
		})
	})
	if err != nil {
		return User{}, fmt.Errorf("identity.Client.SignUp: %w", classify(err))
	}
	// Without email confirmation the provider answers with a full session.
	if resp.User.ID == uuid.Nil {
		return toUser(resp.Session.User), nil
	}
	return toUser(resp.User), nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := await(ctx, func() (struct{}, error) {
		return struct{}{}, c.api.WithToken(accessToken).Logout()
	})
	if err != nil {
		return fmt.Errorf("identity.Client.SignOut: %w", classify(err))
	}
	return nil
}

// ResetPassword asks the provider to email a password reset link.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	_, err := await(ctx, func() (struct{}, error) {
		return struct{}{}, c.api.Recover(types.RecoverRequest{Email: email})
	})
	if err != nil {
		return fmt.Errorf("identity.Client.ResetPassword: %w", classify(err))
	}
	return nil
}

// CurrentUser returns the account behind accessToken.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (User, error) {
	resp, err := await(ctx, func() (*types.UserResponse, error) {
		return c.api.WithToken(accessToken).GetUser()
	})
	if err != nil {
		return User{}, fmt.Errorf("identity.Client.CurrentUser: %w", classify(err))
	}
	return toUser(resp.User), nil
}

// await runs fn, which cannot be cancelled, and stops waiting once ctx is done.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// statusPattern finds the HTTP status and body the auth client puts in its
// errors, e.g. "response status code 400: {...}".
var statusPattern = regexp.MustCompile(`(?s)status code (\d{3})(?::\s*(.*))?`)

// providerError is the error body shape; the provider has used several
// field names over time.
type providerError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
}

func (e providerError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription} {
		if s != "" {
			return s
		}
	}
	return "no details"
}

// classify maps an auth client error onto the domain errors: 401 and 403
// become domain.ErrUnauthenticated, other 4xx domain.ErrValidation, and
// everything else ErrProvider.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	status, _ := strconv.Atoi(m[1])
	var pe providerError
	_ = json.Unmarshal([]byte(strings.TrimSpace(m[2])), &pe)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthenticated, pe.text())
	case status < 500:
		return fmt.Errorf("%w: %s", domain.ErrValidation, pe.text())
	default:
		return fmt.Errorf("%w: status %d: %s", ErrProvider, status, pe.text())
	}
}
