// Package graph provides a generic execution engine for stateful graphs of
// nodes that exchange typed patches, with routers, per-key reducers,
// concurrent fan-out and durable pause/resume.
package graph

import (
	"errors"
	"fmt"
)

// ErrMaxStepsExceeded indicates that the session reached the configured
// step limit without pausing or ending.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// ErrSessionNotFound is returned by Resume, Snapshot and Delete when no
// checkpoint exists for the session.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned by Run when a checkpoint already exists for
// the session id.
var ErrSessionExists = errors.New("session already exists")

// ErrSessionEnded is returned by Resume when input is supplied to a session
// that has already reached END.
var ErrSessionEnded = errors.New("session has ended")

// Configuration error codes.
const (
	CodeEmptyNodeID     = "EMPTY_NODE_ID"
	CodeNilNode         = "NIL_NODE"
	CodeDuplicateNode   = "DUPLICATE_NODE"
	CodeUnknownNode     = "UNKNOWN_NODE"
	CodeNoEntry         = "NO_ENTRY"
	CodeDuplicateRouter = "DUPLICATE_ROUTER"
	CodeEmptyRoutes     = "EMPTY_ROUTES"
	CodeMixedRouting    = "MIXED_ROUTING"
	CodeNoRouting       = "NO_ROUTING"
	CodeUndeclaredLabel = "UNDECLARED_LABEL"
	CodeNotCompiled     = "NOT_COMPILED"
	CodeFrozen          = "GRAPH_FROZEN"
	CodeDuplicateKey    = "DUPLICATE_REDUCER"
	CodeInvalidOption   = "INVALID_OPTION"
	CodeInvalidPolicy   = "INVALID_POLICY"
)

// Node error codes.
const (
	CodeNodeFailed  = "NODE_FAILED"
	CodeNodePanic   = "NODE_PANIC"
	CodeNodeTimeout = "NODE_TIMEOUT"
)

// ConfigError reports a graph that is wired incorrectly. It is returned while
// building or compiling the graph, and from Run/Resume when a router yields a
// label outside its declared set. A session never continues past one.
type ConfigError struct {
	Code    string
	Message string

	// Subject names the node, router, key or token the error is about.
	Subject string
}

func (e *ConfigError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("configuration error %s (%s): %s", e.Code, e.Subject, e.Message)
	}
	return fmt.Sprintf("configuration error %s: %s", e.Code, e.Message)
}

// ValidationError reports a patch that would leave the state in an invalid
// shape. The whole step that produced the patch is discarded.
type ValidationError struct {
	// Key is the reducer key that rejected the patch.
	Key string

	// NodeID is the node whose patch was rejected, empty for resume input.
	NodeID string

	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	switch {
	case e.NodeID != "" && e.Key != "":
		return fmt.Sprintf("invalid state from node %s at %s: %s", e.NodeID, e.Key, msg)
	case e.Key != "":
		return fmt.Sprintf("invalid state at %s: %s", e.Key, msg)
	default:
		return "invalid state: " + msg
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Invalid builds a ValidationError. Reducers return it to reject a patch.
func Invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// EngineError represents an infrastructure failure inside the engine, such as
// a checkpoint store or lock error.
type EngineError struct {
	Message string
	Code    string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}
