// Package session persists server-side application state so a client that
// reconnects gets its session back.
//
// A Store holds opaque snapshots with an expiry:
//
//	store := session.NewMemoryStore()
//	// or, shared between servers
//	store := session.NewRedisStore("localhost:6379", "", 0)
//
// Snapshot wraps the application model with the bookkeeping needed to
// resume it and encodes it as JSON.
//
// The Manager enforces connection limits and moves snapshots into the
// store when a session detaches:
//
//	m := session.NewManager(store, session.DefaultConfig(), logger)
//	if err := m.Register(id, ip); err != nil { ... }
//	defer m.Detach(ctx, id, snapshot)
package session
