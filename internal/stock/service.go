package stock

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/provistock/provistock/internal/session"
	"github.com/provistock/provistock/internal/store"
)

// Gateway abstracts the API calls the stock service issues.
type Gateway interface {
	GetList(ctx context.Context, sess *session.Session, route string, query url.Values, out any) error
}

// Service loads stock snapshots into the local store.
type Service struct {
	api   Gateway
	route string
	store *store.Store[Stock]
}

// NewService constructs a stock Service.
func NewService(api Gateway, route string) *Service {
	return &Service{
		api:   api,
		route: route,
		store: store.New(func(s Stock) int64 { return s.ID }),
	}
}

// Store exposes the backing snapshot collection.
func (s *Service) Store() *store.Store[Stock] {
	return s.store
}

// FetchCustomerStocks loads a customer's stock, optionally narrowed to one
// province, replacing the local snapshot.
func (s *Service) FetchCustomerStocks(ctx context.Context, sess *session.Session, customerID, provinceID int64) ([]Stock, error) {
	query := url.Values{}
	if customerID > 0 {
		query.Set("customer_id", strconv.FormatInt(customerID, 10))
	}
	if provinceID > 0 {
		query.Set("province_id", strconv.FormatInt(provinceID, 10))
	}
	return s.fetch(ctx, sess, query)
}

// FetchProvinceStocks loads every customer's stock held in one province.
func (s *Service) FetchProvinceStocks(ctx context.Context, sess *session.Session, provinceID int64) ([]Stock, error) {
	query := url.Values{}
	query.Set("province_id", strconv.FormatInt(provinceID, 10))
	return s.fetch(ctx, sess, query)
}

func (s *Service) fetch(ctx context.Context, sess *session.Session, query url.Values) ([]Stock, error) {
	var stocks []Stock
	if err := s.api.GetList(ctx, sess, s.route, query, &stocks); err != nil {
		return nil, fmt.Errorf("fetch stocks: %w", err)
	}
	s.store.ReplaceAll(stocks)
	return stocks, nil
}
