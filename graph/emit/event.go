package emit

import "time"

// Event messages emitted by the graph engine.
const (
	MsgSessionStarted = "session_started"
	MsgSessionResumed = "session_resumed"
	MsgSessionPaused  = "session_paused"
	MsgSessionEnded   = "session_ended"
	MsgNodeStart      = "node_start"
	MsgNodeEnd        = "node_end"
	MsgNodeRetry      = "node_retry"
	MsgNodeError      = "node_error"
	MsgStepMerged     = "step_merged"
	MsgRouting        = "routing_decision"
	MsgStepFailed     = "step_failed"
)

// Event is an observability record produced while a session executes.
//
// Events describe what happened; they never carry session state, which may
// hold user content.
type Event struct {
	// SessionID identifies the session that emitted the event.
	SessionID string

	// Step is the step number the event belongs to (1-indexed). Zero for
	// session-level events emitted before the first step.
	Step int

	// NodeID identifies the node, empty for session-level events.
	NodeID string

	// Msg is the event kind, one of the Msg* constants.
	Msg string

	// Time is when the event was produced.
	Time time.Time

	// Meta holds event-specific fields. Common keys:
	//   - "duration_ms": node execution time
	//   - "error": error text
	//   - "attempt": retry attempt number
	//   - "router", "label", "targets": routing decisions
	//   - "status": session status on pause/end
	Meta map[string]interface{}
}
