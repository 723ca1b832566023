package graph

import (
	"fmt"
	"sort"
)

// Pseudo-targets usable in Connect and Route.
const (
	// END terminates the branch that routes to it.
	END = "__end__"

	// PAUSE suspends the session before the router's source node is left.
	// On resume the same router is evaluated again against the updated
	// state; the source node is not re-executed.
	PAUSE = "__pause__"
)

// Edge is an unconditional transition. Several edges leaving the same node
// form a fan-out; several edges entering the same node form a join.
type Edge struct {
	From string
	To   string
}

// RouterFunc picks the next label from the merged state. It must be pure:
// no side effects and no collaborator calls.
type RouterFunc[S any] func(state S) string

// Router is a named decision function bound to one source node. Its labels
// form a closed set, each mapped to a node id, PAUSE or END.
type Router[S any] struct {
	Name   string
	From   string
	Fn     RouterFunc[S]
	Routes map[string]string
}

// Labels returns the router's declared labels in sorted order.
func (r *Router[S]) Labels() []string {
	return sortedKeys(r.Routes)
}

// resolve evaluates the router and maps its label to a target.
func (r *Router[S]) resolve(state S) (label, target string, err error) {
	label = r.Fn(state)
	target, ok := r.Routes[label]
	if !ok {
		return label, "", &ConfigError{
			Code:    CodeUndeclaredLabel,
			Subject: r.Name,
			Message: fmt.Sprintf("router returned undeclared label %q", label),
		}
	}
	return label, target, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
