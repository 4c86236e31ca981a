package morph

import (
	"sort"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/vdom"
)

// callback turns a host event into zero or one dispatched message.
type callback func(ev vdom.Event)

// callback wraps decoder so a successful decode is dispatched. Decode
// failures are dropped.
func (r *Reconciler) callback(decoder vdom.Decoder, immediate bool) callback {
	return func(ev vdom.Event) {
		if decoder == nil || r.dispatch == nil {
			return
		}
		msg, err := decoder(ev)
		if err != nil {
			r.logger.Debug("event decode failed", "event", ev.Type, "error", err)
			return
		}
		r.dispatch(msg, immediate)
	}
}

// bind registers cb for eventType on el. The shared listener is attached
// only the first time; later passes just swap the callback.
func (r *Reconciler) bind(el dom.NodeID, eventType string, cb callback) {
	entry := r.handlers[el]
	if entry == nil {
		entry = make(map[string]callback)
		r.handlers[el] = entry
	}
	if _, ok := entry[eventType]; !ok {
		r.doc.AddEventListener(el, eventType, r.listener)
		r.stats.ListenersAdded++
	}
	entry[eventType] = cb
}

// unbind drops the callback for eventType and detaches the listener.
func (r *Reconciler) unbind(el dom.NodeID, eventType string) {
	entry := r.handlers[el]
	if _, ok := entry[eventType]; !ok {
		return
	}
	delete(entry, eventType)
	if len(entry) == 0 {
		delete(r.handlers, el)
	}
	r.doc.RemoveEventListener(el, eventType)
	r.stats.ListenersRemoved++
}

// handleEvent is the single listener attached to every bound element. It
// looks up the current callback, and detaches itself when there is none.
func (r *Reconciler) handleEvent(target dom.NodeID, ev vdom.Event) {
	cb, ok := r.handlers[target][ev.Type]
	if !ok {
		r.doc.RemoveEventListener(target, ev.Type)
		return
	}
	cb(ev)
}

// release forgets the callbacks of node and its descendants.
func (r *Reconciler) release(node dom.NodeID) {
	if len(r.handlers) == 0 {
		return
	}
	delete(r.handlers, node)
	r.releaseChildren(node)
}

func (r *Reconciler) releaseChildren(node dom.NodeID) {
	if len(r.handlers) == 0 {
		return
	}
	for c := r.doc.FirstChild(node); c != dom.None; c = r.doc.NextSibling(c) {
		r.release(c)
	}
}

// Release forgets the callbacks of node and its subtree. Call it before
// discarding a tree the reconciler rendered.
func (r *Reconciler) Release(node dom.NodeID) {
	r.release(node)
}

// Handlers returns the event types bound on node, sorted.
func (r *Reconciler) Handlers(node dom.NodeID) []string {
	entry := r.handlers[node]
	if len(entry) == 0 {
		return nil
	}
	names := make([]string, 0, len(entry))
	for name := range entry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HandlerCount returns the number of elements with bound callbacks.
func (r *Reconciler) HandlerCount() int {
	return len(r.handlers)
}
