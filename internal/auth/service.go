// Package auth signs sessions in and out against the backend auth
// endpoint. Token issuance itself is the backend's business; this side
// only carries the returned pair.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/provistock/provistock/internal/api"
	"github.com/provistock/provistock/internal/session"
)

// Gateway abstracts the API call issued on login.
type Gateway interface {
	Do(ctx context.Context, sess *session.Session, method, route, id string, query url.Values, body, out any) error
}

// Service performs login/logout and hands sessions to the manager.
type Service struct {
	apiClient Gateway
	sessions  *session.Manager
	validate  *validator.Validate
}

// NewService constructs an auth Service.
func NewService(apiClient Gateway, sessions *session.Manager) *Service {
	return &Service{apiClient: apiClient, sessions: sessions, validate: validator.New()}
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the auth endpoint response shape.
type LoginResult struct {
	User   session.User   `json:"user"`
	Tokens session.Tokens `json:"tokens"`
}

// Login authenticates and stores the resulting session.
func (s *Service) Login(ctx context.Context, email, password string) (*session.Session, error) {
	creds := credentials{Email: email, Password: password}
	if err := s.validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("validate credentials: %w", err)
	}
	var result LoginResult
	if err := s.apiClient.Do(ctx, nil, http.MethodPost, api.RouteAuth, "", nil, creds, &result); err != nil {
		return nil, api.WithFallback(err, "failed to sign in")
	}
	return s.sessions.Login(ctx, result.User, result.Tokens)
}

// Logout clears the active session. Tokens are client-held; the backend
// sees no call.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Logout(ctx)
}
