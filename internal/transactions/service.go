package transactions

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/provistock/provistock/internal/api"
	"github.com/provistock/provistock/internal/session"
	"github.com/provistock/provistock/internal/store"
)

// Gateway abstracts the API calls the transaction service issues.
type Gateway interface {
	GetList(ctx context.Context, sess *session.Session, route string, query url.Values, out any) error
}

// Service loads the customer ledger for the balance screen.
type Service struct {
	apiClient Gateway
	store     *store.Store[Transaction]
	printer   *message.Printer
}

// NewService constructs a transaction Service.
func NewService(apiClient Gateway) *Service {
	return &Service{
		apiClient: apiClient,
		store:     store.New(func(t Transaction) int64 { return t.ID }),
		printer:   message.NewPrinter(language.English),
	}
}

// Store exposes the cached ledger snapshot.
func (s *Service) Store() *store.Store[Transaction] {
	return s.store
}

// Fetch reloads the session's transaction history.
func (s *Service) Fetch(ctx context.Context, sess *session.Session) ([]Transaction, error) {
	var list []Transaction
	if err := s.apiClient.GetList(ctx, sess, api.RouteTransactions, nil, &list); err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	s.store.ReplaceAll(list)
	return list, nil
}

// FormatAmount renders a server-computed amount with grouping separators
// for display. No balance arithmetic happens client-side.
func (s *Service) FormatAmount(amount float64) string {
	return s.printer.Sprintf("%.2f", amount)
}
