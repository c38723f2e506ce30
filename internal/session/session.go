// Package session holds the authenticated user context threaded through
// every controller call. There are no package-level globals; callers own a
// Manager and pass the Session explicitly.
package session

import (
	"context"
	"errors"
	"time"
)

// Role classifies what a signed-in account may do.
type Role string

const (
	// RoleAdmin manages users, provinces and stock requests globally.
	RoleAdmin Role = "admin"
	// RoleUser is province staff scoped to exactly one province.
	RoleUser Role = "user"
	// RoleCustomer owns stock and creates sale orders.
	RoleCustomer Role = "customer"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleCustomer:
		return true
	}
	return false
}

// User is the account snapshot returned by the auth endpoint.
type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	ProvinceID int64  `json:"province_id,omitempty"`
}

// Token is a single bearer token with its expiry.
type Token struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Tokens groups the access/refresh pair issued on login.
type Tokens struct {
	Access  Token `json:"access"`
	Refresh Token `json:"refresh,omitempty"`
}

// Session is the per-user context passed to every API call.
type Session struct {
	ID     string `json:"id"`
	User   User   `json:"user"`
	Tokens Tokens `json:"tokens"`
}

// AccessToken returns the current bearer token, empty for guests.
func (s *Session) AccessToken() string {
	if s == nil {
		return ""
	}
	return s.Tokens.Access.Token
}

// Role returns the session role; nil or empty sessions are guests.
func (s *Session) Role() Role {
	if s == nil || s.AccessToken() == "" {
		return ""
	}
	return s.User.Role
}

// ErrNoSession indicates the store holds no session for the given id.
var ErrNoSession = errors.New("session: not found")

// Store persists sessions between runs.
type Store interface {
	Save(ctx context.Context, sess *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
