package notification

import "time"

// Categories
const (
	CategoryPayment      = "payment"
	CategoryAlert        = "alert"
	CategoryAnnouncement = "announcement"
)

// Severities
const (
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
	SeverityInfo    = "info"
)

// Notification is an in-app message for one account, or a broadcast to all
// when AccountID is empty.
type Notification struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id,omitempty"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (n Notification) IsBroadcast() bool { return n.AccountID == "" }
