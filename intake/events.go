package intake

// EventKind classifies one inbound message from the transport.
type EventKind int

const (
	// EventStart begins (or restarts) an intake session.
	EventStart EventKind = iota
	// EventText is a free-text message.
	EventText
	// EventDocument carries an attachment reference with its declared
	// media type.
	EventDocument
	// EventCancel aborts the session and discards everything collected.
	EventCancel
)

// Document is an opaque attachment reference plus the media type the
// transport declared for it. The bot never downloads file bytes; the
// reference alone is forwarded to the reviewer.
type Document struct {
	FileID   string
	MimeType string
}

// Event is one inbound message, tagged with the chat it belongs to. The
// transport serializes events per chat, so the engine sees at most one
// in-flight event per session.
type Event struct {
	ChatID   int64
	Kind     EventKind
	Text     string
	Document *Document
}
