package morph

import (
	"log/slog"
	"time"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/vdom"
)

// Dispatch delivers a decoded message to the application. immediate asks
// the runtime to tick without waiting for the batch to fill.
type Dispatch func(msg any, immediate bool)

// Reconciler morphs a live host tree into the shape of a VNode tree.
// It owns the handler registry of every element it bound events on.
//
// A Reconciler is not safe for concurrent use. Passes run to completion and
// must not overlap.
type Reconciler struct {
	doc      dom.Document
	dispatch Dispatch
	logger   *slog.Logger
	observer Observer

	handlers map[dom.NodeID]map[string]callback
	listener dom.Listener

	stats   Stats
	pending []func()
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. Duplicate keys are reported at Warn level.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver registers an observer notified after every pass.
func WithObserver(o Observer) Option {
	return func(r *Reconciler) {
		r.observer = o
	}
}

// New creates a Reconciler mutating doc and delivering event messages
// through dispatch.
func New(doc dom.Document, dispatch Dispatch, opts ...Option) *Reconciler {
	r := &Reconciler{
		doc:      doc,
		dispatch: dispatch,
		logger:   slog.Default().With("component", "morph"),
		handlers: make(map[dom.NodeID]map[string]callback),
	}
	r.listener = r.handleEvent
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// work is one pending comparison on the worklist.
type work struct {
	prev   dom.NodeID
	next   *vdom.VNode
	parent dom.NodeID
}

// Morph makes the live node prev, a child of parent, represent next.
// prev may be dom.None, in which case a new node is appended to parent.
// It returns the live node now representing next.
//
// The pass runs inside a view transition when the document supports one.
// Work deferred to the next microtask (slot attribute delegation) runs on
// the document's microtask queue, or after the pass when it has none.
func (r *Reconciler) Morph(prev dom.NodeID, next *vdom.VNode, parent dom.NodeID) dom.NodeID {
	start := time.Now()
	r.stats = Stats{}

	var out dom.NodeID
	pass := func() { out = r.run(prev, next, parent) }
	if t, ok := r.doc.(dom.Transitioner); ok {
		t.StartViewTransition(pass)
	} else {
		pass()
	}

	r.stats.Duration = time.Since(start)
	stats := r.stats

	pending := r.pending
	r.pending = nil
	for _, fn := range pending {
		fn()
	}

	if r.observer != nil {
		r.observer.ObservePass(stats)
	}
	return out
}

// LastStats returns the counters of the most recent pass.
func (r *Reconciler) LastStats() Stats {
	return r.stats
}

// run drains the worklist. The list is consumed front to back: siblings
// queued by one parent are handled in order, so appends land in order.
func (r *Reconciler) run(prev dom.NodeID, next *vdom.VNode, parent dom.NodeID) dom.NodeID {
	var out dom.NodeID
	queue := []work{{prev: prev, next: next, parent: parent}}

	for head := 0; head < len(queue); head++ {
		w := queue[head]
		n := vdom.Force(w.next)
		r.stats.Nodes++

		var live dom.NodeID
		switch n.Kind {
		case vdom.KindText:
			live = r.morphText(w.prev, n, w.parent)
		case vdom.KindElement:
			live = r.morphElement(w.prev, n, w.parent, &queue)
		}
		if head == 0 {
			out = live
		}
		queue[head] = work{}
	}
	return out
}

func (r *Reconciler) morphText(prev dom.NodeID, next *vdom.VNode, parent dom.NodeID) dom.NodeID {
	switch {
	case prev == dom.None:
		created := r.doc.CreateTextNode(next.Text)
		r.doc.AppendChild(parent, created)
		r.stats.Created++
		return created

	case r.doc.NodeType(prev) == dom.TextNode:
		if r.doc.TextContent(prev) != next.Text {
			r.doc.SetTextContent(prev, next.Text)
			r.stats.TextWrites++
		}
		return prev

	default:
		created := r.doc.CreateTextNode(next.Text)
		r.replace(parent, created, prev)
		r.stats.Created++
		return created
	}
}

// replace swaps old for created under parent, releasing old's handlers.
func (r *Reconciler) replace(parent, created, old dom.NodeID) {
	r.release(old)
	r.doc.ReplaceChild(parent, created, old)
	r.stats.Replaced++
}

// remove detaches child from parent, releasing its handlers first.
func (r *Reconciler) remove(parent, child dom.NodeID) {
	r.release(child)
	r.doc.RemoveChild(parent, child)
	r.stats.Removed++
}

// deferTask schedules fn for after the current pass.
func (r *Reconciler) deferTask(fn func()) {
	if q, ok := r.doc.(dom.MicrotaskQueue); ok {
		q.QueueMicrotask(fn)
		return
	}
	r.pending = append(r.pending, fn)
}
