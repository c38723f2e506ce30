package stockreq

import "time"

// Type distinguishes add from remove requests.
type Type string

const (
	// TypeAdd asks province staff to register new stock.
	TypeAdd Type = "add"
	// TypeRemove asks province staff to release existing stock.
	TypeRemove Type = "remove"
)

// Status is the request lifecycle state: pending moves to approved or
// rejected, both terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// StatusFilterAll loads every request regardless of status.
const StatusFilterAll = "all"

// Request is a customer-initiated ask to adjust stock quantity, settled by
// province staff. Approving add increases the matching stock, approving
// remove decreases it; both adjustments happen server-side.
type Request struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	ProvinceID int64     `json:"province_id"`
	Type       Type      `json:"request_type"`
	Item       string    `json:"item"`
	Quantity   int       `json:"quantity"`
	Unit       string    `json:"unit,omitempty"`
	Status     Status    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
