package entity

import (
	"time"
)

// PlaceholderName is the display name every invited operator carries
// until it completes initialization.
const PlaceholderName = "New Operator"

// GenesisID is the reserved id of the first operator, created by the
// seed command rather than through the invite flow.
const GenesisID int64 = 1

// Operator is the aggregate root for the principal domain.
// A nil PasswordHash means the operator was invited but never
// initialized and therefore cannot authenticate.
type Operator struct {
	ID           int64
	Email        string
	DisplayName  string
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Initialized reports whether the operator has completed the invite
// flow and owns credentials.
func (o *Operator) Initialized() bool { return o.PasswordHash != nil }
