package internal

import "github.com/google/uuid"

// NewAttemptID returns the correlation ID stamped on one reconciliation
// attempt and every audit event it emits.
func NewAttemptID() string {
	return uuid.NewString()
}
