package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nhle/evaltracker/internal/model"
)

var _ Authenticator = (*Client)(nil)

// tokenResponse is the session payload returned by the auth endpoints.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`

	// Sign-up without a session (email confirmation pending) returns the
	// user fields at the top level.
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (t tokenResponse) session(now time.Time) *model.Session {
	s := &model.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		UserID:       t.User.ID,
		Email:        t.User.Email,
	}
	if s.UserID == "" {
		s.UserID = t.ID
		s.Email = t.Email
	}
	if t.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return s
}

// SignIn exchanges an email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	var tok tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token?grant_type=password",
		body:   map[string]string{"email": email, "password": password},
	}, &tok)
	if err != nil {
		return nil, fmt.Errorf("signing in: %w", err)
	}
	return tok.session(time.Now()), nil
}

// SignUp registers a new account. The returned session has no access
// token when the backend requires email confirmation first.
func (c *Client) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	var tok tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   map[string]string{"email": email, "password": password},
	}, &tok)
	if err != nil {
		return nil, fmt.Errorf("signing up: %w", err)
	}
	return tok.session(time.Now()), nil
}

// Refresh trades a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	var tok tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token?grant_type=refresh_token",
		body:   map[string]string{"refresh_token": refreshToken},
	}, &tok)
	if err != nil {
		return nil, fmt.Errorf("refreshing session: %w", err)
	}
	return tok.session(time.Now()), nil
}
