package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/provistock/provistock/internal/api"
	"github.com/provistock/provistock/internal/session"
	"github.com/provistock/provistock/internal/store"
)

// Gateway abstracts the API calls the user service issues.
type Gateway interface {
	Do(ctx context.Context, sess *session.Session, method, route, id string, query url.Values, body, out any) error
	GetList(ctx context.Context, sess *session.Session, route string, query url.Values, out any) error
}

// Service manages the user directory (admin screens) and feeds receiver
// validation for transfer orders.
type Service struct {
	apiClient Gateway
	validate  *validator.Validate
	store     *store.Store[User]
}

// NewService constructs a user Service.
func NewService(apiClient Gateway) *Service {
	return &Service{
		apiClient: apiClient,
		validate:  validator.New(),
		store:     store.New(func(u User) int64 { return u.ID }),
	}
}

// Store exposes the cached directory snapshot.
func (s *Service) Store() *store.Store[User] {
	return s.store
}

// Fetch loads users, optionally filtered by role, replacing the snapshot.
func (s *Service) Fetch(ctx context.Context, sess *session.Session, role session.Role) ([]User, error) {
	query := url.Values{}
	if role != "" {
		query.Set("role", string(role))
	}
	var list []User
	if err := s.apiClient.GetList(ctx, sess, api.RouteUsers, query, &list); err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	s.store.ReplaceAll(list)
	return list, nil
}

// CreateInput is the payload for a new account.
type CreateInput struct {
	Name       string       `json:"name" validate:"required"`
	Email      string       `json:"email" validate:"required,email"`
	Password   string       `json:"password" validate:"required,min=8"`
	Role       session.Role `json:"role" validate:"required"`
	ProvinceID int64        `json:"province_id,omitempty"`
}

// Create adds a user. Province staff must be tied to a province.
func (s *Service) Create(ctx context.Context, sess *session.Session, in CreateInput) (User, error) {
	if err := s.validate.Struct(in); err != nil {
		return User{}, fmt.Errorf("validate user: %w", err)
	}
	if !in.Role.Valid() {
		return User{}, fmt.Errorf("unknown role %q", in.Role)
	}
	if in.Role == session.RoleUser && in.ProvinceID <= 0 {
		return User{}, errors.New("province staff requires a province")
	}
	var created User
	if err := s.apiClient.Do(ctx, sess, http.MethodPost, api.RouteUsers, "", nil, in, &created); err != nil {
		return User{}, api.WithFallback(err, "failed to create user")
	}
	s.store.Upsert(created)
	return created, nil
}

// UpdateInput carries partial account changes.
type UpdateInput struct {
	Name       string       `json:"name,omitempty"`
	Email      string       `json:"email,omitempty" validate:"omitempty,email"`
	Role       session.Role `json:"role,omitempty"`
	ProvinceID int64        `json:"province_id,omitempty"`
}

// Update patches a user and mirrors the returned record.
func (s *Service) Update(ctx context.Context, sess *session.Session, id int64, in UpdateInput) (User, error) {
	if err := s.validate.Struct(in); err != nil {
		return User{}, fmt.Errorf("validate user: %w", err)
	}
	var updated User
	if err := s.apiClient.Do(ctx, sess, http.MethodPatch, api.RouteUsers, strconv.FormatInt(id, 10), nil, in, &updated); err != nil {
		return User{}, api.WithFallback(err, "failed to update user")
	}
	s.store.Upsert(updated)
	return updated, nil
}

// Delete removes a user and drops it from the snapshot.
func (s *Service) Delete(ctx context.Context, sess *session.Session, id int64) error {
	if err := s.apiClient.Do(ctx, sess, http.MethodDelete, api.RouteUsers, strconv.FormatInt(id, 10), nil, nil, nil); err != nil {
		return api.WithFallback(err, "failed to delete user")
	}
	s.store.RemoveByID(id)
	return nil
}
