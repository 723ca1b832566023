package emit

// Emitter receives observability events from the engine.
//
// Implementations must be safe for concurrent use: nodes in the same step
// emit from separate goroutines. Emit must not block for long and must not
// panic.
type Emitter interface {
	Emit(event Event)
}

// Multi fans every event out to all given emitters in order. Nil emitters
// are skipped.
func Multi(emitters ...Emitter) Emitter {
	list := make([]Emitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			list = append(list, e)
		}
	}
	return multiEmitter(list)
}

type multiEmitter []Emitter

func (m multiEmitter) Emit(event Event) {
	for _, e := range m {
		e.Emit(event)
	}
}
