// Package dom defines the host document a reconciler mutates, and ships an
// in-memory implementation of it.
//
// Live nodes are addressed by NodeID. The Document interface carries the
// primitives a reconciler needs (create, insert, replace, remove, attribute
// and property access, one listener per node and event type). Optional
// capabilities (view transitions, microtasks) are discovered with type
// assertions on Transitioner and MicrotaskQueue.
//
// Memory records every mutation in a journal. Servers drain the journal
// after each pass and stream it to a browser; tests assert on it.
package dom

var (
	_ Document       = (*Memory)(nil)
	_ Transitioner   = (*Memory)(nil)
	_ MicrotaskQueue = (*Memory)(nil)
)
