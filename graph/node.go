package graph

import (
	"context"
	"fmt"
)

// Node is a named processing step in the graph. It receives a private
// snapshot of the state and returns a patch; it must not mutate the state it
// was given.
//
// Type parameter S is the state type, P the patch type folded into S by the
// engine's reducer.
type Node[S, P any] interface {
	Run(ctx context.Context, state S) NodeResult[P]
}

// NodeResult is the output of one node execution.
type NodeResult[P any] struct {
	// Delta is the partial update merged into the state by the reducer.
	// A zero Delta leaves the state untouched.
	Delta P

	// Err fails the whole step the node ran in.
	Err error
}

// NodeFunc adapts a plain function to the Node interface.
//
// Example:
//
//	greet := graph.NodeFunc[State, Patch](func(ctx context.Context, s State) graph.NodeResult[Patch] {
//	    return graph.NodeResult[Patch]{Delta: Patch{Greeting: graph.Put("hello " + s.Name)}}
//	})
type NodeFunc[S, P any] func(ctx context.Context, state S) NodeResult[P]

// Run implements Node.
func (f NodeFunc[S, P]) Run(ctx context.Context, state S) NodeResult[P] {
	return f(ctx, state)
}

// Fail is shorthand for a NodeResult carrying only an error.
func Fail[P any](err error) NodeResult[P] {
	return NodeResult[P]{Err: err}
}

// NodeError represents a failed node execution. The step it happened in is
// discarded and the checkpoint is left at the previous successful step, so
// the caller may retry by resuming the session.
type NodeError struct {
	Message   string
	Code      string
	SessionID string
	NodeID    string
	Step      int
	Cause     error
}

func (e *NodeError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("session %s step %d node %s: %s", e.SessionID, e.Step, e.NodeID, e.Message)
	}
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

func (e *NodeError) Unwrap() error {
	return e.Cause
}
