package orders

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
	"github.com/provistock/provistock/internal/users"
)

var (
	// ErrInvalidReceiver indicates the chosen receiver is not province
	// staff of the receiver province. Caught before any network call.
	ErrInvalidReceiver = errors.New("receiver must be province staff of the receiver province")
	// ErrInvalidTransition indicates the order is not in the source state
	// the action requires.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrUnknownOrder indicates the order id is not in any local collection.
	ErrUnknownOrder = errors.New("order not found")
	// ErrInsufficientStock is the base error for failed availability checks.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError reports how much was actually available in the
// selected province. It matches ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock in selected province, available: %d", e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Gateway abstracts the API calls the order controller issues.
type Gateway interface {
	Do(ctx context.Context, sess *session.Session, method, route, id string, query url.Values, body, out any) error
	GetList(ctx context.Context, sess *session.Session, route string, query url.Values, out any) error
}

// UserSource exposes the cached user directory for receiver validation.
type UserSource interface {
	List() []users.User
}

// StockSource exposes the cached stock snapshot for availability checks.
type StockSource interface {
	List() []stock.Stock
}

// RefreshFunc re-fetches a dependent collection after a successful
// mutation, so stale rows are never shown as actionable.
type RefreshFunc func(ctx context.Context, sess *session.Session) error

// Service drives order creation and status transitions. It validates
// locally, calls the backend, and mirrors the returned state into the
// order collections; it never adjusts stock quantities itself.
type Service struct {
	apiClient Gateway
	validate  *validator.Validate
	users     UserSource
	stocks    StockSource
	logger    *slog.Logger

	all      *store.Store[Order]
	sent     *store.Store[Order]
	received *store.Store[Order]

	// group collapses rapid duplicate submissions of the same action so a
	// double-click issues a single backend call.
	group singleflight.Group

	refreshStocks RefreshFunc
}

// NewService constructs the order controller.
func NewService(apiClient Gateway, userSource UserSource, stockSource StockSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	orderID := func(o Order) int64 { return o.ID }
	return &Service{
		apiClient: apiClient,
		validate:  validator.New(),
		users:     userSource,
		stocks:    stockSource,
		logger:    logger,
		all:       store.New(orderID),
		sent:      store.New(orderID),
		received:  store.New(orderID),
	}
}

// SetStockRefresh installs the reload hook run after a completed sale.
func (s *Service) SetStockRefresh(fn RefreshFunc) {
	s.refreshStocks = fn
}

// All exposes the full order collection.
func (s *Service) All() *store.Store[Order] { return s.all }

// Sent exposes the sent-orders collection.
func (s *Service) Sent() *store.Store[Order] { return s.sent }

// Received exposes the received-orders collection.
func (s *Service) Received() *store.Store[Order] { return s.received }

// CreateTransferInput is the payload for a transfer order.
type CreateTransferInput struct {
	CustomerID         int64  `json:"customer_id" validate:"required,gt=0"`
	ReceiverProvinceID int64  `json:"receiver_province_id" validate:"required,gt=0"`
	ReceiverUserID     int64  `json:"receiver_user_id" validate:"required,gt=0"`
	Item               string `json:"item" validate:"required"`
	Quantity           int    `json:"quantity" validate:"required,gt=0"`
}

// CreateSaleInput is the payload for a sale order. ReceiverProvinceID is
// the province where the stock physically sits.
type CreateSaleInput struct {
	CustomerID         int64   `json:"customer_id" validate:"required,gt=0"`
	ReceiverProvinceID int64   `json:"receiver_province_id" validate:"required,gt=0"`
	Item               string  `json:"item" validate:"required"`
	Quantity           int     `json:"quantity" validate:"required,gt=0"`
	Price              float64 `json:"price" validate:"required,gt=0"`
	BuyerInfo          string  `json:"buyer_info,omitempty"`
}

type createOrderPayload struct {
	CustomerID         int64   `json:"customer_id"`
	ReceiverProvinceID int64   `json:"receiver_province_id"`
	ReceiverUserID     int64   `json:"receiver_user_id,omitempty"`
	Item               string  `json:"item"`
	Quantity           int     `json:"quantity"`
	Price              float64 `json:"price,omitempty"`
	BuyerInfo          string  `json:"buyer_info,omitempty"`
	OrderType          Type    `json:"order_type"`
}

// CreateTransfer submits a transfer order. The receiver must resolve to a
// province-staff user in the receiver province before the API is called.
func (s *Service) CreateTransfer(ctx context.Context, sess *session.Session, in CreateTransferInput) (Order, error) {
	if err := s.validate.Struct(in); err != nil {
		return Order{}, fmt.Errorf("validate transfer order: %w", err)
	}
	if !s.receiverExists(in.ReceiverUserID, in.ReceiverProvinceID) {
		return Order{}, ErrInvalidReceiver
	}
	payload := createOrderPayload{
		CustomerID:         in.CustomerID,
		ReceiverProvinceID: in.ReceiverProvinceID,
		ReceiverUserID:     in.ReceiverUserID,
		Item:               in.Item,
		Quantity:           in.Quantity,
		OrderType:          TypeTransfer,
	}
	return s.create(ctx, sess, payload)
}

// CreateSale submits a sale order after checking the customer's cached
// stock in the selected province covers the quantity.
func (s *Service) CreateSale(ctx context.Context, sess *session.Session, in CreateSaleInput) (Order, error) {
	if err := s.validate.Struct(in); err != nil {
		return Order{}, fmt.Errorf("validate sale order: %w", err)
	}
	avail := stock.Check(s.stocks.List(), in.Item, in.ReceiverProvinceID, in.Quantity)
	if !avail.OK {
		return Order{}, &InsufficientStockError{Available: avail.Available}
	}
	payload := createOrderPayload{
		CustomerID:         in.CustomerID,
		ReceiverProvinceID: in.ReceiverProvinceID,
		Item:               in.Item,
		Quantity:           in.Quantity,
		Price:              in.Price,
		BuyerInfo:          in.BuyerInfo,
		OrderType:          TypeSale,
	}
	order, err := s.create(ctx, sess, payload)
	if err != nil {
		return Order{}, err
	}
	if s.refreshStocks != nil {
		if err := s.refreshStocks(ctx, sess); err != nil {
			s.logger.Warn("refresh stocks after sale order", slog.Any("error", err))
		}
	}
	return order, nil
}

func (s *Service) create(ctx context.Context, sess *session.Session, payload createOrderPayload) (Order, error) {
	var created Order
	err := s.apiClient.Do(ctx, sess, http.MethodPost, api.RouteOrders, "", nil, payload, &created)
	if err != nil {
		return Order{}, api.WithFallback(err, "failed to create order")
	}
	s.all.Upsert(created)
	s.sent.Upsert(created)
	if err := s.FetchSent(ctx, sess); err != nil {
		s.logger.Warn("refresh sent orders after create", slog.Any("error", err))
	}
	return created, nil
}

// Accept moves a pending order to accepted.
func (s *Service) Accept(ctx context.Context, sess *session.Session, orderID int64) (Order, error) {
	return s.transition(ctx, sess, orderID, "accept")
}

// Reject moves a pending order to rejected.
func (s *Service) Reject(ctx context.Context, sess *session.Session, orderID int64) (Order, error) {
	return s.transition(ctx, sess, orderID, "reject")
}

// Complete finalises an accepted sale order. The backend performs the
// stock decrement; the returned order and a stock reload reflect it here.
func (s *Service) Complete(ctx context.Context, sess *session.Session, orderID int64) (Order, error) {
	return s.transition(ctx, sess, orderID, "complete")
}

func (s *Service) transition(ctx context.Context, sess *session.Session, orderID int64, action string) (Order, error) {
	current, ok := s.lookup(orderID)
	if !ok {
		return Order{}, ErrUnknownOrder
	}
	if err := guardTransition(current, action); err != nil {
		return Order{}, err
	}

	key := fmt.Sprintf("%s:%d", action, orderID)
	result, err, _ := s.group.Do(key, func() (any, error) {
		var updated Order
		id := strconv.FormatInt(orderID, 10) + "/" + action
		if err := s.apiClient.Do(ctx, sess, http.MethodPatch, api.RouteOrders, id, nil, nil, &updated); err != nil {
			return Order{}, api.WithFallback(err, "failed to "+action+" order")
		}
		return updated, nil
	})
	if err != nil {
		return Order{}, err
	}
	updated := result.(Order)

	// Mirror the server state into every collection holding this order.
	s.all.Update(updated)
	s.sent.Update(updated)
	s.received.Update(updated)

	if err := s.FetchReceived(ctx, sess); err != nil {
		s.logger.Warn("refresh received orders after "+action, slog.Any("error", err))
	}
	if action == "complete" && s.refreshStocks != nil {
		if err := s.refreshStocks(ctx, sess); err != nil {
			s.logger.Warn("refresh stocks after complete", slog.Any("error", err))
		}
	}
	return updated, nil
}

func guardTransition(o Order, action string) error {
	switch action {
	case "accept", "reject":
		if o.Status != StatusPending {
			return fmt.Errorf("%w: cannot %s an order in status %q", ErrInvalidTransition, action, o.Status)
		}
	case "complete":
		if o.Type != TypeSale {
			return fmt.Errorf("%w: only sale orders can be completed", ErrInvalidTransition)
		}
		if o.Status != StatusAccepted {
			return fmt.Errorf("%w: cannot complete an order in status %q", ErrInvalidTransition, o.Status)
		}
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}
	return nil
}

func (s *Service) lookup(orderID int64) (Order, bool) {
	if o, ok := s.all.Get(orderID); ok {
		return o, true
	}
	if o, ok := s.sent.Get(orderID); ok {
		return o, true
	}
	if o, ok := s.received.Get(orderID); ok {
		return o, true
	}
	return Order{}, false
}

func (s *Service) receiverExists(userID, provinceID int64) bool {
	for _, u := range s.users.List() {
		if u.ID == userID && u.Role == session.RoleUser && u.ProvinceID == provinceID {
			return true
		}
	}
	return false
}

// ListFilter narrows the full order listing.
type ListFilter struct {
	Status Status
	Type   Type
}

// FetchAll loads orders visible to the session, optionally filtered.
func (s *Service) FetchAll(ctx context.Context, sess *session.Session, filter ListFilter) ([]Order, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Type != "" {
		query.Set("order_type", string(filter.Type))
	}
	var list []Order
	if err := s.apiClient.GetList(ctx, sess, api.RouteOrders, query, &list); err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	s.all.ReplaceAll(list)
	return list, nil
}

// FetchSent reloads orders dispatched by the session's side.
func (s *Service) FetchSent(ctx context.Context, sess *session.Session) error {
	var list []Order
	if err := s.apiClient.GetList(ctx, sess, api.RouteOrders+"/sent", nil, &list); err != nil {
		return fmt.Errorf("fetch sent orders: %w", err)
	}
	s.sent.ReplaceAll(list)
	return nil
}

// FetchReceived reloads orders awaiting the session's province.
func (s *Service) FetchReceived(ctx context.Context, sess *session.Session) error {
	var list []Order
	if err := s.apiClient.GetList(ctx, sess, api.RouteOrders+"/received", nil, &list); err != nil {
		return fmt.Errorf("fetch received orders: %w", err)
	}
	s.received.ReplaceAll(list)
	return nil
}
