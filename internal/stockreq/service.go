package stockreq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/provistock/provistock/internal/api"
	"github.com/provistock/provistock/internal/session"
	"github.com/provistock/provistock/internal/stock"
	"github.com/provistock/provistock/internal/store"
)

var (
	// ErrInvalidTransition indicates the request is no longer pending.
	ErrInvalidTransition = errors.New("request already settled")
	// ErrUnknownRequest indicates the request id is not loaded locally.
	ErrUnknownRequest = errors.New("stock request not found")
	// ErrInsufficientStock indicates a remove request exceeds the cached
	// stock quantity. Caught before any network call.
	ErrInsufficientStock = errors.New("cannot remove more than available stock")
)

// Gateway abstracts the API calls the request controller issues.
type Gateway interface {
	Do(ctx context.Context, sess *session.Session, method, route, id string, query url.Values, body, out any) error
	GetList(ctx context.Context, sess *session.Session, route string, query url.Values, out any) error
}

// StockSource exposes the cached stock snapshot for remove validation.
type StockSource interface {
	List() []stock.Stock
}

// RefreshFunc re-fetches dependent stock after a settled request.
type RefreshFunc func(ctx context.Context, sess *session.Session) error

// Service drives stock request creation and approval. Quantity adjustments
// happen server-side; this controller validates, submits and mirrors.
type Service struct {
	apiClient Gateway
	validate  *validator.Validate
	stocks    StockSource
	logger    *slog.Logger
	store     *store.Store[Request]
	group     singleflight.Group

	refreshStocks RefreshFunc
}

// NewService constructs the stock request controller.
func NewService(apiClient Gateway, stockSource StockSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		apiClient: apiClient,
		validate:  validator.New(),
		stocks:    stockSource,
		logger:    logger,
		store:     store.New(func(r Request) int64 { return r.ID }),
	}
}

// SetStockRefresh installs the reload hook run after an approval.
func (s *Service) SetStockRefresh(fn RefreshFunc) {
	s.refreshStocks = fn
}

// Store exposes the cached request snapshot.
func (s *Service) Store() *store.Store[Request] {
	return s.store
}

// CreateInput is the payload for a new request. StockID points at the
// cached row a remove request draws from.
type CreateInput struct {
	CustomerID int64  `json:"customer_id" validate:"required,gt=0"`
	ProvinceID int64  `json:"province_id" validate:"required,gt=0"`
	Type       Type   `json:"request_type" validate:"required,oneof=add remove"`
	Item       string `json:"item" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	Unit       string `json:"unit,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Create submits a request. Remove requests are checked against the cached
// stock snapshot first; the server re-validates against live quantities.
func (s *Service) Create(ctx context.Context, sess *session.Session, in CreateInput) (Request, error) {
	if err := s.validate.Struct(in); err != nil {
		return Request{}, fmt.Errorf("validate stock request: %w", err)
	}
	if in.Type == TypeRemove {
		avail := stock.Check(s.stocks.List(), in.Item, in.ProvinceID, in.Quantity)
		if !avail.OK {
			return Request{}, fmt.Errorf("%w: available %d", ErrInsufficientStock, avail.Available)
		}
	}
	var created Request
	if err := s.apiClient.Do(ctx, sess, http.MethodPost, api.RouteStockRequests, "", nil, in, &created); err != nil {
		return Request{}, api.WithFallback(err, "failed to submit request")
	}
	s.store.Upsert(created)
	return created, nil
}

// Fetch loads a province's requests. filter defaults to pending so staff
// only sees actionable rows; StatusFilterAll drops the narrowing.
func (s *Service) Fetch(ctx context.Context, sess *session.Session, provinceID int64, filter string) ([]Request, error) {
	query := url.Values{}
	query.Set("provinceId", strconv.FormatInt(provinceID, 10))
	if filter == "" {
		filter = string(StatusPending)
	}
	if filter != StatusFilterAll {
		query.Set("status", filter)
	}
	var list []Request
	if err := s.apiClient.GetList(ctx, sess, api.RouteStockRequests, query, &list); err != nil {
		return nil, fmt.Errorf("fetch stock requests: %w", err)
	}
	s.store.ReplaceAll(list)
	return list, nil
}

// Approve settles a pending request in the customer's favour. The backend
// performs the quantity adjustment; stock is reloaded afterwards.
func (s *Service) Approve(ctx context.Context, sess *session.Session, requestID int64) (Request, error) {
	return s.settle(ctx, sess, requestID, StatusApproved)
}

// Reject settles a pending request without touching stock.
func (s *Service) Reject(ctx context.Context, sess *session.Session, requestID int64) (Request, error) {
	return s.settle(ctx, sess, requestID, StatusRejected)
}

func (s *Service) settle(ctx context.Context, sess *session.Session, requestID int64, status Status) (Request, error) {
	current, ok := s.store.Get(requestID)
	if !ok {
		return Request{}, ErrUnknownRequest
	}
	if current.Status != StatusPending {
		return Request{}, fmt.Errorf("%w: status is %q", ErrInvalidTransition, current.Status)
	}

	key := fmt.Sprintf("%s:%d", status, requestID)
	result, err, _ := s.group.Do(key, func() (any, error) {
		var updated Request
		body := map[string]Status{"status": status}
		if err := s.apiClient.Do(ctx, sess, http.MethodPatch, api.RouteStockRequests, strconv.FormatInt(requestID, 10), nil, body, &updated); err != nil {
			action := "approve"
			if status == StatusRejected {
				action = "reject"
			}
			return Request{}, api.WithFallback(err, "failed to "+action+" request")
		}
		return updated, nil
	})
	if err != nil {
		return Request{}, err
	}
	updated := result.(Request)

	// Only the settled entry changes; neighbours stay untouched.
	s.store.Update(updated)

	if status == StatusApproved && s.refreshStocks != nil {
		if err := s.refreshStocks(ctx, sess); err != nil {
			s.logger.Warn("refresh stocks after approval", slog.Any("error", err))
		}
	}
	return updated, nil
}
