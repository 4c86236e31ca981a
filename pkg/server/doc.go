// Package server serves a runtime application to browser clients over a
// websocket.
//
// Every connection gets a Session holding a server-side Memory document.
// The runtime reconciles the application view into that document, and the
// mutations it records are encoded into frames (see pkg/protocol) and sent
// to the client, which replays them against its own DOM. Client events come
// back naming a node id and are dispatched on the server document, where
// the reconciler's listeners turn them into application messages.
//
// # Session Lifecycle
//
//  1. The client sends a ClientHello, optionally naming a session to resume
//  2. The server restores the saved model, or runs Init for a new session
//  3. A ServerHello carries the session id and the root node id
//  4. The first mutation batch carries FlagReset and builds the whole tree
//  5. Events and mutation batches flow until either side closes
//  6. On disconnect the model is saved for Config.Session.ResumeWindow
//
// The session runs three goroutines:
//   - the read loop decodes frames and hands events to the runtime loop
//   - the runtime loop applies messages, morphs and ships mutations
//   - the write loop sends queued frames and heartbeat pings
//
// # Usage
//
//	srv := server.New(app, &server.Config{Address: ":8080"})
//	if err := srv.ListenAndServe(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// The handler also serves the HTML shell on "/", Prometheus metrics on
// "/metrics" and a JSON health check on "/healthz". Ticks and events are
// traced with OpenTelemetry through the global tracer provider.
package server
