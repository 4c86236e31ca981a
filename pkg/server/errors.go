package server

import (
	"errors"
	"fmt"
)

var (
	// ErrServerClosed is returned by ListenAndServe and Serve after Shutdown.
	ErrServerClosed = errors.New("server: closed")

	// ErrInvalidHandshake means the socket did not open with a ClientHello.
	ErrInvalidHandshake = errors.New("server: invalid handshake")

	// ErrVersionMismatch means the client speaks another protocol major.
	ErrVersionMismatch = errors.New("server: protocol version mismatch")

	// ErrSendQueueFull closes a session whose client stopped reading.
	ErrSendQueueFull = errors.New("server: send queue full")

	// ErrSessionClosed is returned for work queued after a session ended.
	ErrSessionClosed = errors.New("server: session closed")
)

// SessionError records which session and step an error came from.
type SessionError struct {
	SessionID string
	Op        string
	Err       error
}

func (e *SessionError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
	}
	return fmt.Sprintf("server: %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

func newSessionError(id, op string, err error) *SessionError {
	return &SessionError{SessionID: id, Op: op, Err: err}
}
