package orders

import "time"

// Type distinguishes the two order flavours.
type Type string

const (
	// TypeTransfer moves customer stock between provinces.
	TypeTransfer Type = "transfer"
	// TypeSale converts customer stock into a completed sale.
	TypeSale Type = "sale"
)

// Status is the order lifecycle state. pending may move to accepted or
// rejected; accepted sale orders may complete. rejected and completed are
// terminal, as is accepted for transfers once the receiving province holds
// the stock.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusInTransit Status = "in_transit"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// Order is a sale or transfer request against a customer's stock.
type Order struct {
	ID                 int64     `json:"id"`
	CustomerID         int64     `json:"customer_id"`
	Item               string    `json:"item"`
	Quantity           int       `json:"quantity"`
	Type               Type      `json:"order_type"`
	Status             Status    `json:"status"`
	SenderProvinceID   int64     `json:"sender_province_id,omitempty"`
	ReceiverProvinceID int64     `json:"receiver_province_id"`
	ReceiverUserID     int64     `json:"receiver_user_id,omitempty"`
	Price              float64   `json:"price,omitempty"`
	BuyerInfo          string    `json:"buyer_info,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
}
