package ledger

import "time"

// TxStatus is a transaction's lifecycle state. Pending transactions await
// manual verification; Successful and Failed are terminal.
type TxStatus string

const (
	TxPending    TxStatus = "Pending"
	TxSuccessful TxStatus = "Successful"
	TxFailed     TxStatus = "Failed"
)

// Transaction is one payment event. EnrollmentID may be empty for
// legacy/aggregate transactions not tied to a single enrollment.
type Transaction struct {
	ID           string `json:"id"`
	PayerID      string `json:"payer_id"`
	EnrollmentID string `json:"enrollment_id,omitempty"`
	SchoolID     string `json:"school_id,omitempty"`

	// display names, denormalized at creation; not authoritative
	ChildName  string `json:"child_name,omitempty"`
	SchoolName string `json:"school_name,omitempty"`

	Amount     float64   `json:"amount"`
	Status     TxStatus  `json:"status"`
	ReceiptURL string    `json:"receipt_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

func (t Transaction) IsResolved() bool { return t.Status != TxPending }
