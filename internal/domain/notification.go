package domain

import "time"

// Notification severity tags.
const (
	NotificationInfo    = "info"
	NotificationCredit  = "credit"
	NotificationDebit   = "debit"
	NotificationWarning = "warning"
)

// Notification is a best-effort event pushed to an owner's connected
// clients after a ledger commit. Subscribers that are not connected at
// publish time receive nothing; there is no replay.
type Notification struct {
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}
