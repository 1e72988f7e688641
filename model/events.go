package model

// EventKind identifies a streaming event delivered by a provider client.
type EventKind int

const (
	// EventTextDelta carries an incremental chunk of assistant text.
	EventTextDelta EventKind = iota
	// EventReasoningDelta carries an incremental chunk from the optional
	// reasoning channel some providers expose alongside content.
	EventReasoningDelta
	// EventToolCall carries one fully assembled tool call. Calls are
	// delivered in the order the model emitted them.
	EventToolCall
	// EventUsage carries token accounting for the request.
	EventUsage
	// EventCompleted is terminal: the stream finished normally.
	EventCompleted
	// EventFailed is terminal: the request failed after retry policy ran.
	EventFailed
	// EventCancelled is terminal: the caller stopped the request. Partial
	// text already delivered stands as-is; no synthetic message follows.
	EventCancelled
)

// StreamEvent is one entry on the ordered event channel between the
// network worker and the consuming loop. Exactly one terminal event
// (Completed, Failed, or Cancelled) closes every stream.
type StreamEvent struct {
	Kind  EventKind
	Text  string     // EventTextDelta, EventReasoningDelta
	Call  *ToolCall  // EventToolCall
	Usage *TokenUsage // EventUsage
	Err   error      // EventFailed
}

// Terminal reports whether the event closes the stream.
func (e StreamEvent) Terminal() bool {
	switch e.Kind {
	case EventCompleted, EventFailed, EventCancelled:
		return true
	}
	return false
}
