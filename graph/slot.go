package graph

// Slot is an optional patch field with three states: absent (the zero
// value), set to a value with Put, or explicitly cleared with Clear.
// Reducers branch on presence instead of sentinel values, so a patch can set
// a string to "" or a pointer to nil without ambiguity.
type Slot[T any] struct {
	present bool
	cleared bool
	value   T
}

// Put returns a Slot holding v.
func Put[T any](v T) Slot[T] {
	return Slot[T]{present: true, value: v}
}

// Clear returns a Slot that resets the field to its zero value.
func Clear[T any]() Slot[T] {
	return Slot[T]{present: true, cleared: true}
}

// Present reports whether the slot carries an update (Put or Clear).
func (s Slot[T]) Present() bool { return s.present }

// Cleared reports whether the slot resets the field.
func (s Slot[T]) Cleared() bool { return s.cleared }

// Get returns the value and whether the slot holds one. A cleared slot
// returns the zero value and false.
func (s Slot[T]) Get() (T, bool) {
	return s.value, s.present && !s.cleared
}

// Overwrite is the default last-write-wins reducer for one field.
func Overwrite[T any](dst *T, s Slot[T]) {
	if !s.present {
		return
	}
	if s.cleared {
		var zero T
		*dst = zero
		return
	}
	*dst = s.value
}
