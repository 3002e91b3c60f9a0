package suggest

// StatusKind classifies a status message for display.
type StatusKind int

const (
	StatusReady StatusKind = iota
	StatusBusy
	StatusFailed
	StatusInfo
)

// String returns the string representation of the status kind.
func (k StatusKind) String() string {
	switch k {
	case StatusReady:
		return "ready"
	case StatusBusy:
		return "busy"
	case StatusFailed:
		return "failed"
	case StatusInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Status is the one-line description of what the session is doing.
type Status struct {
	Kind    StatusKind
	Message string
}

// Status messages.
const (
	MessageStart           = "Ready - Start writing with a title"
	MessageNeedTitle       = "Enter a title to enable AI suggestions"
	MessageStartWriting    = "Ready - Start writing"
	MessageReady           = "Ready"
	MessageGenerating      = "Generating suggestion..."
	MessageSuggestionReady = "AI suggestion ready"
	MessageNoSuggestions   = "No suggestions available"
	MessageFailed          = "Failed to get suggestions"
	MessageDenied          = "Subscription required"
	MessageApplied         = "Suggestion applied"
	MessageRetrying        = "Getting new suggestion..."
	MessageDismissed       = "Suggestion dismissed"
)
