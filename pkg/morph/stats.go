package morph

import (
	"reflect"
	"time"
)

// Stats counts the host operations issued by one pass.
type Stats struct {
	Created          int // elements and text nodes created
	Replaced         int // nodes swapped for a fresh node
	Removed          int // nodes detached
	Moved            int // keyed nodes moved into place
	Placeholders     int // empty text nodes inserted for new keyed children
	TextWrites       int
	AttrWrites       int
	AttrRemovals     int
	PropWrites       int
	InnerHTMLWrites  int
	ListenersAdded   int
	ListenersRemoved int
	DuplicateKeys    int

	Nodes    int // VNodes visited
	Duration time.Duration
}

// Mutations returns the number of host writes the pass issued.
func (s Stats) Mutations() int {
	return s.Created + s.Replaced + s.Removed + s.Moved + s.Placeholders +
		s.TextWrites + s.AttrWrites + s.AttrRemovals + s.PropWrites +
		s.InnerHTMLWrites + s.ListenersAdded + s.ListenersRemoved
}

// Observer is notified after every pass.
type Observer interface {
	ObservePass(Stats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Stats)

// ObservePass calls f(s).
func (f ObserverFunc) ObservePass(s Stats) {
	f(s)
}

// valuesEqual compares two property values.
func valuesEqual(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return reflect.DeepEqual(a, b)
}
