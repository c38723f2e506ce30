package stockreq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provistock/provistock/internal/api"
	"github.com/provistock/provistock/internal/session"
	"github.com/provistock/provistock/internal/stock"
)

type stockList []stock.Stock

func (s stockList) List() []stock.Stock { return s }

type mockGateway struct {
	mu        sync.Mutex
	doCalls   int
	lastQuery url.Values

	doFunc   func(method, route, id string, body, out any) error
	listFunc func(route string, query url.Values, out any) error
}

func (m *mockGateway) Do(_ context.Context, _ *session.Session, method, route, id string, _ url.Values, body, out any) error {
	m.mu.Lock()
	m.doCalls++
	m.mu.Unlock()
	if m.doFunc != nil {
		return m.doFunc(method, route, id, body, out)
	}
	return nil
}

func (m *mockGateway) GetList(_ context.Context, _ *session.Session, route string, query url.Values, out any) error {
	m.mu.Lock()
	m.lastQuery = query
	m.mu.Unlock()
	if m.listFunc != nil {
		return m.listFunc(route, query, out)
	}
	return nil
}

func playback(out, value any) {
	payload, _ := json.Marshal(value)
	_ = json.Unmarshal(payload, out)
}

func staffSession() *session.Session {
	return &session.Session{
		User:   session.User{ID: 2, Role: session.RoleUser, ProvinceID: 1},
		Tokens: session.Tokens{Access: session.Token{Token: "t", Expires: time.Now().Add(time.Hour)}},
	}
}

func TestCreateRemoveRejectsBeyondCachedStock(t *testing.T) {
	gw := &mockGateway{}
	svc := NewService(gw, stockList{
		{ID: 1, CustomerID: 7, ItemType: "rice", Quantity: 5, ProvinceID: 1},
	}, nil)

	_, err := svc.Create(context.Background(), staffSession(), CreateInput{
		CustomerID: 7,
		ProvinceID: 1,
		Type:       TypeRemove,
		Item:       "rice",
		Quantity:   10,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Zero(t, gw.doCalls)
}

func TestCreateAddSkipsAvailabilityCheck(t *testing.T) {
	gw := &mockGateway{
		doFunc: func(method, route, _ string, _, out any) error {
			require.Equal(t, http.MethodPost, method)
			require.Equal(t, api.RouteStockRequests, route)
			playback(out, Request{ID: 3, CustomerID: 7, ProvinceID: 1, Type: TypeAdd, Item: "rice", Quantity: 100, Status: StatusPending})
			return nil
		},
	}
	// Empty cache: an add request needs no existing stock.
	svc := NewService(gw, stockList{}, nil)

	created, err := svc.Create(context.Background(), staffSession(), CreateInput{
		CustomerID: 7,
		ProvinceID: 1,
		Type:       TypeAdd,
		Item:       "rice",
		Quantity:   100,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)

	_, ok := svc.Store().Get(3)
	assert.True(t, ok)
}

func TestFetchDefaultsToPending(t *testing.T) {
	gw := &mockGateway{}
	svc := NewService(gw, stockList{}, nil)

	_, err := svc.Fetch(context.Background(), staffSession(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, "1", gw.lastQuery.Get("provinceId"))
	assert.Equal(t, string(StatusPending), gw.lastQuery.Get("status"))
}

func TestFetchAllDropsStatusFilter(t *testing.T) {
	gw := &mockGateway{}
	svc := NewService(gw, stockList{}, nil)

	_, err := svc.Fetch(context.Background(), staffSession(), 1, StatusFilterAll)
	require.NoError(t, err)
	assert.False(t, gw.lastQuery.Has("status"))
}

func TestApproveUpdatesOnlyThatEntry(t *testing.T) {
	gw := &mockGateway{
		doFunc: func(method, _, id string, body, out any) error {
			require.Equal(t, http.MethodPatch, method)
			require.Equal(t, "4", id)
			require.Equal(t, map[string]Status{"status": StatusApproved}, body)
			playback(out, Request{ID: 4, Status: StatusApproved})
			return nil
		},
	}
	svc := NewService(gw, stockList{}, nil)
	svc.Store().ReplaceAll([]Request{
		{ID: 4, Status: StatusPending},
		{ID: 5, Status: StatusPending},
	})

	refreshed := false
	svc.SetStockRefresh(func(context.Context, *session.Session) error {
		refreshed = true
		return nil
	})

	updated, err := svc.Approve(context.Background(), staffSession(), 4)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)
	assert.True(t, refreshed)

	neighbour, ok := svc.Store().Get(5)
	require.True(t, ok)
	assert.Equal(t, StatusPending, neighbour.Status)
}

func TestRejectSkipsStockRefresh(t *testing.T) {
	gw := &mockGateway{
		doFunc: func(_, _, _ string, _, out any) error {
			playback(out, Request{ID: 4, Status: StatusRejected})
			return nil
		},
	}
	svc := NewService(gw, stockList{}, nil)
	svc.Store().ReplaceAll([]Request{{ID: 4, Status: StatusPending}})

	svc.SetStockRefresh(func(context.Context, *session.Session) error {
		t.Fatal("reject must not reload stock")
		return nil
	})

	updated, err := svc.Reject(context.Background(), staffSession(), 4)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, updated.Status)
}

func TestSettleGuards(t *testing.T) {
	gw := &mockGateway{}
	svc := NewService(gw, stockList{}, nil)
	svc.Store().ReplaceAll([]Request{{ID: 4, Status: StatusApproved}})

	_, err := svc.Approve(context.Background(), staffSession(), 4)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Reject(context.Background(), staffSession(), 99)
	assert.ErrorIs(t, err, ErrUnknownRequest)

	assert.Zero(t, gw.doCalls)
}
