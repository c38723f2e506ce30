package stub

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/provistock/provistock/internal/orders"
	"github.com/provistock/provistock/internal/provinces"
	"github.com/provistock/provistock/internal/session"
	"github.com/provistock/provistock/internal/stockreq"
	"github.com/provistock/provistock/internal/users"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &creds); err != nil {
		s.message(w, http.StatusBadRequest, "malformed request body")
		return
	}
	user, tokens, err := s.state.authenticate(creds.Email, creds.Password)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.json(w, http.StatusOK, map[string]any{"user": user, "tokens": tokens})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	role := session.Role(r.URL.Query().Get("role"))
	s.results(w, s.state.listUsers(role))
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in users.CreateInput
	if err := decodeBody(r, &in); err != nil {
		s.message(w, http.StatusBadRequest, "malformed request body")
		return
	}
	created, err := s.state.createUser(in)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.json(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in users.UpdateInput
	if err := decodeBody(r, &in); err != nil {
		s.message(w, http.StatusBadRequest, "malformed request body")
		return
	}
	updated, err := s.state.updateUser(pathID(r), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.json(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.state.deleteUser(pathID(r)); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Provinces respond as a bare array; the rest of the API envelopes. The
// client is required to cope with both shapes.
func (s *Server) handleListProvinces(w http.ResponseWriter, _ *http.Request) {
	s.json(w, http.StatusOK, s.state.listProvinces())
}

func (s *Server) handleCreateProvince(w http.ResponseWriter, r *http.Request) {
	var in provinces.Input
	if err := decodeBody(r, &in); err != nil {
		s.message(w, http.StatusBadRequest, "malformed request body")
		return
	}
	created, err := s.state.createProvince(in)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.json(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateProvince(w http.ResponseWriter, r *http.Request) {
	var in provinces.Input
	if err := decodeBody(r, &in); err != nil {
		s.message(w, http.StatusBadRequest, "malformed request body")
		return
	}
	updated, err := s.state.updateProvince(pathID(r), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.json(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProvince(w http.ResponseWriter, r *http.Request) {
	if err := s.state.deleteProvince(pathID(r)); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListStocks(w http.ResponseWriter, r *http.Request) {
	customerID := queryID(r, "customer_id")
	provinceID := queryID(r, "province_id")
	s.results(w, s.state.listStocks(customerID, provinceID))
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	provinceID := queryID(r, "provinceId")
	status := r.URL.Query().Get("status")
	s.results(w, s.state.listRequests(provinceID, status))
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var in stockreq.CreateInput
	if err := decodeBody(r, &in); err != nil {
		s.message(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if in.Quantity <= 0 {
		s.message(w, http.StatusBadRequest, "quantity must be positive")
		return
	}
	created, err := s.state.createRequest(in)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.json(w, http.StatusCreated, created)
}

func (s *Server) handleSettleRequest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status stockreq.Status `json:"status"`
	}
	if err := decodeBody(r, &in); err != nil {
		s.message(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if in.Status != stockreq.StatusApproved && in.Status != stockreq.StatusRejected {
		s.message(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}
	updated, err := s.state.settleRequest(pathID(r), in.Status)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.json(w, http.StatusOK, updated)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	status := orders.Status(r.URL.Query().Get("status"))
	orderType := orders.Type(r.URL.Query().Get("order_type"))
	list := s.state.listOrders(func(o orders.Order, _ orderMeta) bool {
		if status != "" && o.Status != status {
			return false
		}
		if orderType != "" && o.Type != orderType {
			return false
		}
		return true
	})
	s.results(w, list)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in createOrderInput
	if err := decodeBody(r, &in); err != nil {
		s.message(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if in.Quantity <= 0 {
		s.message(w, http.StatusBadRequest, "quantity must be positive")
		return
	}
	created, err := s.state.createOrder(currentUser(r), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.json(w, http.StatusCreated, created)
}

func (s *Server) handleSentOrders(w http.ResponseWriter, r *http.Request) {
	actor := currentUser(r)
	list := s.state.listOrders(func(o orders.Order, m orderMeta) bool {
		if actor.Role == session.RoleUser {
			return o.SenderProvinceID == actor.ProvinceID
		}
		if actor.Role == session.RoleCustomer {
			return o.CustomerID == actor.ID
		}
		return m.senderUserID == actor.ID
	})
	s.results(w, list)
}

func (s *Server) handleReceivedOrders(w http.ResponseWriter, r *http.Request) {
	actor := currentUser(r)
	list := s.state.listOrders(func(o orders.Order, _ orderMeta) bool {
		if actor.Role == session.RoleUser {
			return o.ReceiverProvinceID == actor.ProvinceID
		}
		return o.ReceiverUserID == actor.ID
	})
	s.results(w, list)
}

func (s *Server) orderTransition(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updated, err := s.state.transitionOrder(pathID(r), action)
		if err != nil {
			s.fail(w, err)
			return
		}
		s.json(w, http.StatusOK, updated)
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	s.results(w, s.state.listTransactions(currentUser(r).ID))
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

func queryID(r *http.Request, key string) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return id
}
