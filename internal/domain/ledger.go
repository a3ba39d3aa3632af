package domain

// Status is the lifecycle of one intake attempt as recorded in the ledger.
type Status string

const (
	StatusInProgress Status = "InProgress"
	StatusSuccess    Status = "Success"
	StatusError      Status = "Error"
)

// LedgerEntry is the durable audit record, at most one per applicant email.
// The presence of any entry for an email, regardless of status, marks that
// email as used for duplicate rejection.
type LedgerEntry struct {
	Email          string `json:"email"`
	Timestamp      string `json:"timestamp"`
	FileName       string `json:"fileName,omitempty"`
	Status         Status `json:"status"`
	NotifiedAdmins string `json:"notifiedAdmins,omitempty"`
	Error          string `json:"error,omitempty"`
}
