package stub

import (
	"sort"

	"github.com/provistock/provistock/internal/orders"
	"github.com/provistock/provistock/internal/session"
	"github.com/provistock/provistock/internal/stockreq"
	"github.com/provistock/provistock/internal/transactions"
	"github.com/provistock/provistock/internal/users"
)

type createOrderInput struct {
	CustomerID         int64       `json:"customer_id"`
	ReceiverProvinceID int64       `json:"receiver_province_id"`
	ReceiverUserID     int64       `json:"receiver_user_id"`
	Item               string      `json:"item"`
	Quantity           int         `json:"quantity"`
	Price              float64     `json:"price"`
	BuyerInfo          string      `json:"buyer_info"`
	OrderType          orders.Type `json:"order_type"`
}

func (st *State) createOrder(actor users.User, in createOrderInput) (orders.Order, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	switch in.OrderType {
	case orders.TypeTransfer:
		receiver, ok := st.accounts[in.ReceiverUserID]
		if !ok || receiver.Role != session.RoleUser || receiver.ProvinceID != in.ReceiverProvinceID {
			return orders.Order{}, errBadReceiver
		}
	case orders.TypeSale:
		// The receiver province is where the stock physically sits.
		row, ok := st.findStock(in.CustomerID, in.Item, in.ReceiverProvinceID)
		if !ok || row.Quantity < in.Quantity {
			return orders.Order{}, errInsufficientStock
		}
	default:
		return orders.Order{}, errNotFound
	}

	o := orders.Order{
		ID:                 st.nextID("order"),
		CustomerID:         in.CustomerID,
		Item:               in.Item,
		Quantity:           in.Quantity,
		Type:               in.OrderType,
		Status:             orders.StatusPending,
		ReceiverProvinceID: in.ReceiverProvinceID,
		ReceiverUserID:     in.ReceiverUserID,
		Price:              in.Price,
		BuyerInfo:          in.BuyerInfo,
		CreatedAt:          st.now(),
	}
	if actor.Role == session.RoleUser {
		o.SenderProvinceID = actor.ProvinceID
	}
	st.orders[o.ID] = o
	st.meta[o.ID] = orderMeta{senderUserID: actor.ID}
	return o, nil
}

func (st *State) listOrders(filter func(orders.Order, orderMeta) bool) []orders.Order {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]orders.Order, 0, len(st.orders))
	for id, o := range st.orders {
		if filter == nil || filter(o, st.meta[id]) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *State) transitionOrder(id int64, action string) (orders.Order, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	o, ok := st.orders[id]
	if !ok {
		return orders.Order{}, errNotFound
	}

	switch action {
	case "accept":
		if o.Status != orders.StatusPending {
			return orders.Order{}, errOrderNotPending
		}
		if o.Type == orders.TypeTransfer {
			// The receiving province takes over the customer's stock.
			row, ok := st.findStock(o.CustomerID, o.Item, o.SenderProvinceID)
			if !ok || row.Quantity < o.Quantity {
				return orders.Order{}, errInsufficientStock
			}
			if err := st.adjustStock(o.CustomerID, o.Item, row.Unit, o.SenderProvinceID, -o.Quantity); err != nil {
				return orders.Order{}, err
			}
			if err := st.adjustStock(o.CustomerID, o.Item, row.Unit, o.ReceiverProvinceID, o.Quantity); err != nil {
				return orders.Order{}, err
			}
		}
		o.Status = orders.StatusAccepted
	case "reject":
		if o.Status != orders.StatusPending {
			return orders.Order{}, errOrderNotPending
		}
		o.Status = orders.StatusRejected
	case "complete":
		if o.Type != orders.TypeSale {
			return orders.Order{}, errOrderNotSale
		}
		if o.Status != orders.StatusAccepted {
			return orders.Order{}, errOrderNotAccepted
		}
		if err := st.adjustStock(o.CustomerID, o.Item, "", o.ReceiverProvinceID, -o.Quantity); err != nil {
			return orders.Order{}, err
		}
		st.ledger[o.CustomerID] = append(st.ledger[o.CustomerID], transactions.Transaction{
			ID:          st.nextID("transaction"),
			Type:        "sale",
			Amount:      o.Price,
			Status:      transactions.StatusCompleted,
			Description: "sale of " + o.Item,
			CreatedAt:   st.now(),
		})
		o.Status = orders.StatusCompleted
	default:
		return orders.Order{}, errNotFound
	}

	st.orders[o.ID] = o
	return o, nil
}

func (st *State) createRequest(in stockreq.CreateInput) (stockreq.Request, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if in.Type == stockreq.TypeRemove {
		row, ok := st.findStock(in.CustomerID, in.Item, in.ProvinceID)
		if !ok || row.Quantity < in.Quantity {
			return stockreq.Request{}, errInsufficientStock
		}
	}
	r := stockreq.Request{
		ID:         st.nextID("request"),
		CustomerID: in.CustomerID,
		ProvinceID: in.ProvinceID,
		Type:       in.Type,
		Item:       in.Item,
		Quantity:   in.Quantity,
		Unit:       in.Unit,
		Status:     stockreq.StatusPending,
		Notes:      in.Notes,
		CreatedAt:  st.now(),
	}
	st.requests[r.ID] = r
	return r, nil
}

func (st *State) listRequests(provinceID int64, status string) []stockreq.Request {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]stockreq.Request, 0, len(st.requests))
	for _, r := range st.requests {
		if provinceID > 0 && r.ProvinceID != provinceID {
			continue
		}
		if status != "" && string(r.Status) != status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *State) settleRequest(id int64, status stockreq.Status) (stockreq.Request, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	r, ok := st.requests[id]
	if !ok {
		return stockreq.Request{}, errNotFound
	}
	if r.Status != stockreq.StatusPending {
		return stockreq.Request{}, errRequestSettled
	}
	if status == stockreq.StatusApproved {
		delta := r.Quantity
		if r.Type == stockreq.TypeRemove {
			delta = -r.Quantity
		}
		if err := st.adjustStock(r.CustomerID, r.Item, r.Unit, r.ProvinceID, delta); err != nil {
			return stockreq.Request{}, err
		}
	}
	r.Status = status
	st.requests[id] = r
	return r, nil
}

func (st *State) listTransactions(customerID int64) []transactions.Transaction {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]transactions.Transaction, len(st.ledger[customerID]))
	copy(out, st.ledger[customerID])
	return out
}
