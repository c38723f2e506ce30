package provinces

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/provistock/provistock/internal/api"
	"github.com/provistock/provistock/internal/session"
	"github.com/provistock/provistock/internal/store"
)

// Gateway abstracts the API calls the province service issues.
type Gateway interface {
	Do(ctx context.Context, sess *session.Session, method, route, id string, query url.Values, body, out any) error
	GetList(ctx context.Context, sess *session.Session, route string, query url.Values, out any) error
}

// Service manages provinces (admin screens).
type Service struct {
	apiClient Gateway
	validate  *validator.Validate
	store     *store.Store[Province]
}

// NewService constructs a province Service.
func NewService(apiClient Gateway) *Service {
	return &Service{
		apiClient: apiClient,
		validate:  validator.New(),
		store:     store.New(func(p Province) int64 { return p.ID }),
	}
}

// Store exposes the cached province snapshot.
func (s *Service) Store() *store.Store[Province] {
	return s.store
}

// Fetch reloads the province list.
func (s *Service) Fetch(ctx context.Context, sess *session.Session) ([]Province, error) {
	var list []Province
	if err := s.apiClient.GetList(ctx, sess, api.RouteProvinces, nil, &list); err != nil {
		return nil, fmt.Errorf("fetch provinces: %w", err)
	}
	s.store.ReplaceAll(list)
	return list, nil
}

// Input is the create/update payload.
type Input struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required,uppercase"`
}

// Create adds a province.
func (s *Service) Create(ctx context.Context, sess *session.Session, in Input) (Province, error) {
	if err := s.validate.Struct(in); err != nil {
		return Province{}, fmt.Errorf("validate province: %w", err)
	}
	var created Province
	if err := s.apiClient.Do(ctx, sess, http.MethodPost, api.RouteProvinces, "", nil, in, &created); err != nil {
		return Province{}, api.WithFallback(err, "failed to create province")
	}
	s.store.Upsert(created)
	return created, nil
}

// Update patches a province and mirrors the returned record.
func (s *Service) Update(ctx context.Context, sess *session.Session, id int64, in Input) (Province, error) {
	if err := s.validate.Struct(in); err != nil {
		return Province{}, fmt.Errorf("validate province: %w", err)
	}
	var updated Province
	if err := s.apiClient.Do(ctx, sess, http.MethodPatch, api.RouteProvinces, strconv.FormatInt(id, 10), nil, in, &updated); err != nil {
		return Province{}, api.WithFallback(err, "failed to update province")
	}
	s.store.Upsert(updated)
	return updated, nil
}

// Delete removes a province and drops it from the snapshot.
func (s *Service) Delete(ctx context.Context, sess *session.Session, id int64) error {
	if err := s.apiClient.Do(ctx, sess, http.MethodDelete, api.RouteProvinces, strconv.FormatInt(id, 10), nil, nil, nil); err != nil {
		return api.WithFallback(err, "failed to delete province")
	}
	s.store.RemoveByID(id)
	return nil
}
