package domain

// State identifies where a conversation is in the intake flow.
type State string

const (
	StateAwaitingEmail  State = "awaiting_email"
	StateAwaitingResume State = "awaiting_resume"
)

// Session is the transient per-conversation state. It exists from the start
// signal until the resume is forwarded (or the attempt fails terminally).
type Session struct {
	ConversationID string
	State          State
	Email          string
}
