package transactions

import "time"

// Status is the ledger entry state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Transaction is one entry in a customer's financial ledger. The balance
// is derived server-side; the client only formats it for display.
type Transaction struct {
	ID          int64     `json:"id"`
	Type        string    `json:"transaction_type"`
	Amount      float64   `json:"amount"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}
