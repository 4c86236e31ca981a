package runtime

import "github.com/vango-dev/morph/pkg/dom"

// Effect is a side effect returned from Init or Update. It runs on the
// runtime loop after the messages of a tick have been applied, and may
// dispatch further messages, synchronously or from its own goroutine.
type Effect func(ctx EffectContext)

// EffectContext is what an effect may touch.
type EffectContext struct {
	// Dispatch queues a message. Messages dispatched while the tick is
	// still flushing are applied before the view is rendered.
	Dispatch func(msg any)

	// Emit raises a named event from the application root.
	Emit func(name string, data any)

	// Root is the element the application renders into. Only touch the
	// document from the runtime loop.
	Root dom.NodeID
}

// None returns an effect that does nothing.
func None() Effect {
	return nil
}

// Batch combines effects. They run in order.
func Batch(effects ...Effect) Effect {
	var out []Effect
	for _, e := range effects {
		if e != nil {
			out = append(out, e)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return func(ctx EffectContext) {
		for _, e := range out {
			e(ctx)
		}
	}
}

// Message returns an effect that dispatches msg.
func Message(msg any) Effect {
	return func(ctx EffectContext) {
		ctx.Dispatch(msg)
	}
}
