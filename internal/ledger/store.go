// Package ledger persists one intake record per applicant email. The ledger
// is both the audit trail and the duplicate-submission index: any entry for
// an email, whatever its status, marks that email as used.
package ledger

import (
	"context"

	"intake-agent/internal/domain"
)

// Extra carries the optional fields merged into an entry on outcome updates.
// Empty fields are left untouched.
type Extra struct {
	NotifiedAdmins string
	Error          string
}

// Store is the intake ledger.
type Store interface {
	// IsEmailUsed reports whether any entry exists for email. A ledger that
	// has not been created yet reads as empty, not as an error.
	IsEmailUsed(ctx context.Context, email string) (bool, error)

	// RecordAttempt appends a new entry with a first-write timestamp if the
	// email is unseen. Seen emails are left untouched.
	RecordAttempt(ctx context.Context, email string, status domain.Status) error

	// UpdateOutcome merges fileName, status and extra into the entry for
	// email. If no entry exists one is appended, so an outcome is never
	// dropped even when the attempt record is missing.
	UpdateOutcome(ctx context.Context, email, fileName string, status domain.Status, extra Extra) error
}
