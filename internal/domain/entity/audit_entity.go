package entity

import "time"

// AuditRecord is a best-effort trace of an auth-relevant action.
// OperatorID and Email are optional; failed logins for unknown
// addresses carry only the email.
type AuditRecord struct {
	ID         int64
	OperatorID *int64
	Email      string
	Action     string
	IP         string
	UserAgent  string
	Metadata   map[string]any
	CreatedAt  time.Time
}
