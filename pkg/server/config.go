package server

import (
	"net/http"
	"time"

	"github.com/vango-dev/morph/pkg/session"
)

// Config holds server configuration.
type Config struct {
	// Address is the listen address for ListenAndServe.
	// Default: ":8080".
	Address string

	// MountID is the id of the element the page mounts the application in.
	// Default: "app".
	MountID string

	// Title is the page title of the HTML shell.
	Title string

	// ReadTimeout is the maximum time to wait for a client frame. Clients
	// answer heartbeats, so it must exceed HeartbeatInterval.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single websocket write.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HandshakeTimeout is the time a client has to send its ClientHello.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// HeartbeatInterval is the time between server pings.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// BatchDelay is how long the runtime waits to batch messages into one
	// tick. Input events always tick at once.
	// Default: 0.
	BatchDelay time.Duration

	// CheckpointInterval is the minimum time between snapshot saves while
	// a session is connected. Zero saves only on disconnect.
	// Default: 30 seconds.
	CheckpointInterval time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// MaxMessageSize is the largest client frame accepted.
	// Default: 64KB.
	MaxMessageSize int64

	// SendQueueSize is the number of encoded frames buffered per session.
	// A client that falls further behind is disconnected.
	// Default: 256.
	SendQueueSize int

	// ReadBufferSize and WriteBufferSize size the websocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the Origin header of upgrade requests. Nil
	// accepts same-origin requests only.
	CheckOrigin func(r *http.Request) bool

	// TrustedProxies lists IPs or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string

	// Session limits and resume window.
	Session session.Config

	// Store persists snapshots. Nil keeps them in memory.
	Store session.Store
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:            ":8080",
		MountID:            "app",
		Title:              "morph",
		ReadTimeout:        60 * time.Second,
		WriteTimeout:       10 * time.Second,
		HandshakeTimeout:   10 * time.Second,
		HeartbeatInterval:  30 * time.Second,
		CheckpointInterval: 30 * time.Second,
		ShutdownTimeout:    30 * time.Second,
		MaxMessageSize:     64 * 1024,
		SendQueueSize:      256,
		ReadBufferSize:     4096,
		WriteBufferSize:    4096,
		Session:            session.DefaultConfig(),
	}
}

// withDefaults fills unset fields of c from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.MountID == "" {
		out.MountID = d.MountID
	}
	if out.Title == "" {
		out.Title = d.Title
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = d.HandshakeTimeout
	}
	if out.HeartbeatInterval <= 0 {
		out.HeartbeatInterval = d.HeartbeatInterval
	}
	if out.ShutdownTimeout <= 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.SendQueueSize <= 0 {
		out.SendQueueSize = d.SendQueueSize
	}
	if out.ReadBufferSize <= 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize <= 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.Session.ResumeWindow <= 0 {
		out.Session.ResumeWindow = d.Session.ResumeWindow
	}
	return &out
}
