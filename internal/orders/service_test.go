package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provistock/provistock/internal/api"
	"github.com/provistock/provistock/internal/session"
	"github.com/provistock/provistock/internal/stock"
	"github.com/provistock/provistock/internal/users"
)

type userList []users.User

func (u userList) List() []users.User { return u }

type stockList []stock.Stock

func (s stockList) List() []stock.Stock { return s }

// mockGateway records calls and plays back programmed responses.
type mockGateway struct {
	mu       sync.Mutex
	doCalls  []string
	getCalls []string

	doFunc   func(method, route, id string, body, out any) error
	listFunc func(route string, out any) error
}

func (m *mockGateway) Do(_ context.Context, _ *session.Session, method, route, id string, _ url.Values, body, out any) error {
	m.mu.Lock()
	m.doCalls = append(m.doCalls, method+" "+route+"/"+id)
	m.mu.Unlock()
	if m.doFunc != nil {
		return m.doFunc(method, route, id, body, out)
	}
	return nil
}

func (m *mockGateway) GetList(_ context.Context, _ *session.Session, route string, _ url.Values, out any) error {
	m.mu.Lock()
	m.getCalls = append(m.getCalls, route)
	m.mu.Unlock()
	if m.listFunc != nil {
		return m.listFunc(route, out)
	}
	return nil
}

func (m *mockGateway) doCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.doCalls)
}

// playback copies a prepared value into the response target.
func playback(out, value any) {
	payload, _ := json.Marshal(value)
	_ = json.Unmarshal(payload, out)
}

func custSession() *session.Session {
	return &session.Session{
		User:   session.User{ID: 7, Role: session.RoleCustomer},
		Tokens: session.Tokens{Access: session.Token{Token: "t", Expires: time.Now().Add(time.Hour)}},
	}
}

func TestCreateSaleRejectsInsufficientStockLocally(t *testing.T) {
	gw := &mockGateway{}
	svc := NewService(gw, userList{}, stockList{
		{ID: 1, CustomerID: 7, ItemType: "rice", Quantity: 50, ProvinceID: 1},
	}, nil)

	_, err := svc.CreateSale(context.Background(), custSession(), CreateSaleInput{
		CustomerID:         7,
		ReceiverProvinceID: 1,
		Item:               "rice",
		Quantity:           60,
		Price:              1000,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 50, insufficient.Available)

	// Caught before any network call.
	assert.Zero(t, gw.doCount())
}

func TestCreateSaleRejectsWhenNoStockInProvince(t *testing.T) {
	gw := &mockGateway{}
	svc := NewService(gw, userList{}, stockList{
		{ID: 1, CustomerID: 7, ItemType: "rice", Quantity: 50, ProvinceID: 2},
	}, nil)

	_, err := svc.CreateSale(context.Background(), custSession(), CreateSaleInput{
		CustomerID:         7,
		ReceiverProvinceID: 1,
		Item:               "rice",
		Quantity:           10,
		Price:              500,
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Zero(t, gw.doCount())
}

func TestCreateSaleSubmitsAndRefreshes(t *testing.T) {
	gw := &mockGateway{
		doFunc: func(_, _, _ string, _, out any) error {
			playback(out, Order{ID: 9, CustomerID: 7, Item: "rice", Quantity: 20, Type: TypeSale, Status: StatusPending, ReceiverProvinceID: 1, Price: 900})
			return nil
		},
	}
	svc := NewService(gw, userList{}, stockList{
		{ID: 1, CustomerID: 7, ItemType: "rice", Quantity: 50, ProvinceID: 1},
	}, nil)

	refreshed := false
	svc.SetStockRefresh(func(context.Context, *session.Session) error {
		refreshed = true
		return nil
	})

	created, err := svc.CreateSale(context.Background(), custSession(), CreateSaleInput{
		CustomerID:         7,
		ReceiverProvinceID: 1,
		Item:               "rice",
		Quantity:           20,
		Price:              900,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
	assert.True(t, refreshed)

	_, ok := svc.Sent().Get(9)
	assert.True(t, ok)
}

func TestCreateTransferRejectsInvalidReceiver(t *testing.T) {
	gw := &mockGateway{}
	svc := NewService(gw, userList{
		{ID: 3, Role: session.RoleUser, ProvinceID: 1},     // wrong province
		{ID: 4, Role: session.RoleCustomer, ProvinceID: 2}, // wrong role
	}, stockList{}, nil)

	_, err := svc.CreateTransfer(context.Background(), custSession(), CreateTransferInput{
		CustomerID:         7,
		ReceiverProvinceID: 2,
		ReceiverUserID:     3,
		Item:               "rice",
		Quantity:           5,
	})
	assert.ErrorIs(t, err, ErrInvalidReceiver)
	assert.Zero(t, gw.doCount())

	_, err = svc.CreateTransfer(context.Background(), custSession(), CreateTransferInput{
		CustomerID:         7,
		ReceiverProvinceID: 2,
		ReceiverUserID:     4,
		Item:               "rice",
		Quantity:           5,
	})
	assert.ErrorIs(t, err, ErrInvalidReceiver)
	assert.Zero(t, gw.doCount())
}

func TestCreateTransferSubmits(t *testing.T) {
	gw := &mockGateway{
		doFunc: func(method, route, _ string, _, out any) error {
			require.Equal(t, http.MethodPost, method)
			require.Equal(t, api.RouteOrders, route)
			playback(out, Order{ID: 11, CustomerID: 7, Item: "rice", Quantity: 5, Type: TypeTransfer, Status: StatusPending, ReceiverProvinceID: 2, ReceiverUserID: 3})
			return nil
		},
	}
	svc := NewService(gw, userList{
		{ID: 3, Role: session.RoleUser, ProvinceID: 2},
	}, stockList{}, nil)

	created, err := svc.CreateTransfer(context.Background(), custSession(), CreateTransferInput{
		CustomerID:         7,
		ReceiverProvinceID: 2,
		ReceiverUserID:     3,
		Item:               "rice",
		Quantity:           5,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)

	_, ok := svc.All().Get(11)
	assert.True(t, ok)
}

func seedOrder(svc *Service, o Order) {
	svc.All().Upsert(o)
	svc.Sent().Upsert(o)
	svc.Received().Upsert(o)
}

func TestAcceptUpdatesEveryCollection(t *testing.T) {
	gw := &mockGateway{
		doFunc: func(method, route, id string, _, out any) error {
			require.Equal(t, http.MethodPatch, method)
			require.Equal(t, "5/accept", id)
			playback(out, Order{ID: 5, Type: TypeTransfer, Status: StatusAccepted})
			return nil
		},
		listFunc: func(route string, out any) error {
			playback(out, []Order{{ID: 5, Type: TypeTransfer, Status: StatusAccepted}})
			return nil
		},
	}
	svc := NewService(gw, userList{}, stockList{}, nil)
	seedOrder(svc, Order{ID: 5, Type: TypeTransfer, Status: StatusPending})

	updated, err := svc.Accept(context.Background(), custSession(), 5)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, updated.Status)

	for _, col := range []interface{ Get(int64) (Order, bool) }{svc.All(), svc.Sent(), svc.Received()} {
		got, ok := col.Get(5)
		require.True(t, ok)
		assert.Equal(t, StatusAccepted, got.Status)
	}
}

func TestTransitionGuards(t *testing.T) {
	tests := []struct {
		name   string
		order  Order
		action func(*Service) error
	}{
		{
			"accept non-pending",
			Order{ID: 1, Type: TypeTransfer, Status: StatusAccepted},
			func(s *Service) error { _, err := s.Accept(context.Background(), custSession(), 1); return err },
		},
		{
			"reject completed",
			Order{ID: 1, Type: TypeSale, Status: StatusCompleted},
			func(s *Service) error { _, err := s.Reject(context.Background(), custSession(), 1); return err },
		},
		{
			"complete pending sale",
			Order{ID: 1, Type: TypeSale, Status: StatusPending},
			func(s *Service) error { _, err := s.Complete(context.Background(), custSession(), 1); return err },
		},
		{
			"complete accepted transfer",
			Order{ID: 1, Type: TypeTransfer, Status: StatusAccepted},
			func(s *Service) error { _, err := s.Complete(context.Background(), custSession(), 1); return err },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := &mockGateway{}
			svc := NewService(gw, userList{}, stockList{}, nil)
			seedOrder(svc, tc.order)

			err := tc.action(svc)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Zero(t, gw.doCount())
		})
	}
}

func TestTransitionUnknownOrder(t *testing.T) {
	gw := &mockGateway{}
	svc := NewService(gw, userList{}, stockList{}, nil)

	_, err := svc.Accept(context.Background(), custSession(), 99)
	assert.ErrorIs(t, err, ErrUnknownOrder)
	assert.Zero(t, gw.doCount())
}

func TestTransitionSurfacesServerMessage(t *testing.T) {
	gw := &mockGateway{
		doFunc: func(_, _, _ string, _, _ any) error {
			return &api.Error{Status: http.StatusConflict, Message: "order is not pending"}
		},
	}
	svc := NewService(gw, userList{}, stockList{}, nil)
	seedOrder(svc, Order{ID: 5, Type: TypeSale, Status: StatusPending})

	_, err := svc.Accept(context.Background(), custSession(), 5)
	require.Error(t, err)
	assert.Equal(t, "order is not pending", err.Error())

	// Local snapshot is untouched by the failure.
	got, ok := svc.All().Get(5)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)
}

func TestDuplicateAcceptIssuesOneCall(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	gw := &mockGateway{
		doFunc: func(_, _, _ string, _, out any) error {
			calls.Add(1)
			<-release
			playback(out, Order{ID: 5, Type: TypeTransfer, Status: StatusAccepted})
			return nil
		},
	}
	svc := NewService(gw, userList{}, stockList{}, nil)
	seedOrder(svc, Order{ID: 5, Type: TypeTransfer, Status: StatusPending})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Accept(context.Background(), custSession(), 5)
			assert.NoError(t, err)
		}()
	}

	// Let both submissions land on the in-flight group before releasing.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteRefreshesStocks(t *testing.T) {
	gw := &mockGateway{
		doFunc: func(_, _, id string, _, out any) error {
			require.Equal(t, "5/complete", id)
			playback(out, Order{ID: 5, Type: TypeSale, Status: StatusCompleted})
			return nil
		},
	}
	svc := NewService(gw, userList{}, stockList{}, nil)
	seedOrder(svc, Order{ID: 5, Type: TypeSale, Status: StatusAccepted})

	refreshed := false
	svc.SetStockRefresh(func(context.Context, *session.Session) error {
		refreshed = true
		return nil
	})

	updated, err := svc.Complete(context.Background(), custSession(), 5)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.True(t, refreshed)
}
