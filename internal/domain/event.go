package domain

// EventKind discriminates inbound chat events.
type EventKind string

const (
	EventStart EventKind = "start"
	EventText  EventKind = "text"
	EventFile  EventKind = "file"
)

// FileMeta describes an uploaded document as reported by the chat transport.
// SizeBytes is the transport-declared size, checked before any download.
type FileMeta struct {
	FileID    string
	FileName  string
	MimeType  string
	SizeBytes int64
}

// Event is one inbound chat event routed to the conversation engine.
// File is set only when Kind is EventFile.
type Event struct {
	ConversationID string
	Kind           EventKind
	Text           string
	File           *FileMeta
}
