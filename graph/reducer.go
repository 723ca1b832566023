package graph

import (
	"errors"
	"fmt"
	"reflect"
)

// Reducer folds a patch into the previous state and returns the new state.
// It must not modify prev. A non-nil error rejects the whole patch.
type Reducer[S, P any] func(prev S, patch P) (S, error)

// KeyReducer applies the part of a patch that concerns one state key. It
// works on a private copy of the state and may modify it in place.
type KeyReducer[S, P any] func(state *S, patch P) error

// ReducerRegistry is an ordered set of per-key reducers. Reduce applies them
// one key at a time in registration order; an error from any key discards
// the whole patch.
type ReducerRegistry[S, P any] struct {
	keys     []string
	reducers map[string]KeyReducer[S, P]
}

// NewReducerRegistry creates an empty registry.
func NewReducerRegistry[S, P any]() *ReducerRegistry[S, P] {
	return &ReducerRegistry[S, P]{reducers: make(map[string]KeyReducer[S, P])}
}

// Register adds the reducer for key. Registering a key twice is a
// configuration error.
func (r *ReducerRegistry[S, P]) Register(key string, fn KeyReducer[S, P]) error {
	if key == "" {
		return &ConfigError{Code: CodeDuplicateKey, Message: "reducer key cannot be empty"}
	}
	if fn == nil {
		return &ConfigError{Code: CodeDuplicateKey, Subject: key, Message: "reducer cannot be nil"}
	}
	if _, ok := r.reducers[key]; ok {
		return &ConfigError{Code: CodeDuplicateKey, Subject: key, Message: "reducer already registered"}
	}
	r.keys = append(r.keys, key)
	r.reducers[key] = fn
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func (r *ReducerRegistry[S, P]) MustRegister(key string, fn KeyReducer[S, P]) *ReducerRegistry[S, P] {
	if err := r.Register(key, fn); err != nil {
		panic(err)
	}
	return r
}

// Keys returns the registered keys in application order.
func (r *ReducerRegistry[S, P]) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Reduce implements Reducer.
func (r *ReducerRegistry[S, P]) Reduce(prev S, patch P) (S, error) {
	next, err := deepCopy(prev)
	if err != nil {
		return prev, &EngineError{Message: "failed to copy state", Code: "STATE_COPY", Cause: err}
	}
	for _, key := range r.keys {
		if err := r.reducers[key](&next, patch); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				if verr.Key == "" {
					verr.Key = key
				}
				return prev, verr
			}
			return prev, &ValidationError{Key: key, Message: err.Error(), Cause: err}
		}
	}
	return next, nil
}

// isEmptyPatch reports whether p carries no updates at all.
func isEmptyPatch[P any](p P) bool {
	v := reflect.ValueOf(p)
	if !v.IsValid() {
		return true
	}
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	return v.IsZero()
}

// annotate attaches the producing node to reducer errors.
func annotate(err error, nodeID string) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		if verr.NodeID == "" {
			verr.NodeID = nodeID
		}
		return err
	}
	return fmt.Errorf("merge patch from node %s: %w", nodeID, err)
}
