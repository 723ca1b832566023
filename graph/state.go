package graph

import (
	"encoding/json"
	"fmt"
)

// deepCopy returns an independent copy of state using a JSON round trip.
// The state type must therefore be JSON-serializable, which checkpoint
// stores require anyway. Unexported fields are not copied.
func deepCopy[S any](state S) (S, error) {
	var zero S

	data, err := json.Marshal(state)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal state: %w", err)
	}

	var copied S
	if err := json.Unmarshal(data, &copied); err != nil {
		return zero, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return copied, nil
}
