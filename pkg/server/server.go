package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/protocol"
	"github.com/vango-dev/morph/pkg/runtime"
	"github.com/vango-dev/morph/pkg/session"
)

// Server serves one application to many websocket clients. Each client
// gets its own Session; the client applies the mutation batches the
// session sends to a mirror of the server document.
type Server[M any] struct {
	app         runtime.App[M]
	config      *Config
	runtimeOpts []runtime.Option

	store     session.Store
	ownsStore bool
	manager   *session.Manager
	metrics   *metrics
	tracer    trace.Tracer
	logger    *slog.Logger
	proxies   *proxies
	upgrader  websocket.Upgrader
	router    chi.Router

	mu         sync.Mutex
	sessions   map[string]*Session[M]
	closing    bool
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	metrics     []MetricsOption
	tracerName  string
	runtimeOpts []runtime.Option
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics configures the Prometheus metrics.
func WithMetrics(opts ...MetricsOption) Option {
	return func(o *options) {
		o.metrics = append(o.metrics, opts...)
	}
}

// WithTracerName sets the OpenTelemetry instrumentation name.
func WithTracerName(name string) Option {
	return func(o *options) {
		o.tracerName = name
	}
}

// WithRuntimeOptions adds options to every session runtime.
func WithRuntimeOptions(opts ...runtime.Option) Option {
	return func(o *options) {
		o.runtimeOpts = append(o.runtimeOpts, opts...)
	}
}

// New creates a Server for app. A nil config uses DefaultConfig.
func New[M any](app runtime.App[M], config *Config, opts ...Option) *Server[M] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	logger := o.logger.With("component", "server")

	mc := defaultMetricsConfig()
	for _, opt := range o.metrics {
		opt(&mc)
	}

	config = config.withDefaults()
	s := &Server[M]{
		app:         app,
		config:      config,
		runtimeOpts: o.runtimeOpts,
		store:       config.Store,
		metrics:     newMetrics(mc),
		tracer:      newTracer(o.tracerName),
		logger:      logger,
		proxies:     newProxies(config.TrustedProxies, logger),
		sessions:    make(map[string]*Session[M]),
	}
	if s.store == nil {
		s.store = session.NewMemoryStore()
		s.ownsStore = true
	}
	s.manager = session.NewManager(s.store, config.Session, o.logger)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     config.CheckOrigin,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/", s.handlePage)
	r.Get("/ws", s.HandleWebSocket)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	s.router = r
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server[M]) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server[M]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Manager returns the session manager.
func (s *Server[M]) Manager() *session.Manager {
	return s.manager
}

// Session returns the live session with id.
func (s *Server[M]) Session(id string) (*Session[M], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// SessionCount returns the number of live sessions.
func (s *Server[M]) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server[M]) track(sess *Session[M]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.sessions[sess.ID] = sess
	s.metrics.activeSessions.Inc()
	return true
}

func (s *Server[M]) untrack(sess *Session[M]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[sess.ID]; ok && cur == sess {
		delete(s.sessions, sess.ID)
		s.metrics.activeSessions.Dec()
	}
}

func (s *Server[M]) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// HandleWebSocket upgrades the request and runs a session until the
// client goes away.
//
// The first client frame must be a ClientHello. A hello naming a session
// saved within the resume window restores its model; an unknown id gets
// a fresh session and HandshakeSessionExpired.
func (s *Server[M]) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		s.metrics.wsErrors.WithLabelValues("upgrade").Inc()
		return
	}

	conn.SetReadLimit(s.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout))

	hello, err := s.readClientHello(conn)
	if err != nil {
		s.logger.Warn("handshake failed", "error", err)
		status := protocol.HandshakeInvalidFormat
		if errors.Is(err, ErrVersionMismatch) {
			status = protocol.HandshakeVersionMismatch
		}
		s.reject(conn, status, "rejected")
		return
	}
	if s.isClosing() {
		s.reject(conn, protocol.HandshakeServerBusy, "closing")
		return
	}

	requested := hello.SessionID
	if requested == "" {
		requested = r.URL.Query().Get("sid")
	}
	id, from, status := s.restore(r.Context(), requested)

	ip := clientIP(r, s.proxies)
	if err := s.manager.Register(id, ip); err != nil {
		s.logger.Warn("session rejected", "error", err, "ip", ip)
		s.reject(conn, protocol.HandshakeServerBusy, "busy")
		return
	}

	sess := newSession(s, conn, id, ip)
	if err := sess.start(from); err != nil {
		s.logger.Error("session start failed", "error", err)
		s.manager.Remove(r.Context(), id)
		s.reject(conn, protocol.HandshakeInternalError, "error")
		return
	}

	if err := s.writeServerHello(conn, &protocol.ServerHello{
		Status:     status,
		SessionID:  id,
		Root:       uint64(sess.root),
		NextSeq:    sess.seq,
		ServerTime: uint64(time.Now().UnixMilli()),
	}); err != nil {
		s.logger.Warn("server hello failed", "error", err)
		sess.rt.Shutdown()
		s.manager.Detach(r.Context(), id, nil)
		conn.Close()
		return
	}

	sess.run()
	if !s.track(sess) {
		snap := sess.close(protocol.CloseServerShutdown, "server shutting down")
		s.manager.Detach(r.Context(), id, snap)
		return
	}
	s.metrics.sessionsTotal.WithLabelValues(outcome(from, status)).Inc()
	sess.logger.Info("session started", "ip", ip, "resumed", from != nil)

	sess.readLoop()

	snap := sess.close(protocol.CloseGoingAway, "")
	sess.logger.Info("session ended")
	ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
	defer cancel()
	if sess.forget {
		err = s.manager.Remove(ctx, id)
	} else {
		err = s.manager.Detach(ctx, id, snap)
	}
	if err != nil && !errors.Is(err, session.ErrStoreClosed) {
		sess.logger.Warn("session save failed", "error", err)
	}
}

func outcome[M any](from *restored[M], status protocol.HandshakeStatus) string {
	switch {
	case from != nil:
		return "resumed"
	case status == protocol.HandshakeSessionExpired:
		return "expired"
	default:
		return "new"
	}
}

// readClientHello reads and validates the handshake frame.
func (s *Server[M]) readClientHello(conn *websocket.Conn) (*protocol.ClientHello, error) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read hello: %w", err)
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandshake, err)
	}
	if frame.Type != protocol.FrameHandshake {
		return nil, fmt.Errorf("%w: got %s frame", ErrInvalidHandshake, frame.Type)
	}
	hello, err := protocol.DecodeClientHello(frame.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandshake, err)
	}
	if !hello.Version.Compatible() {
		return nil, fmt.Errorf("%w: client %d.%d", ErrVersionMismatch, hello.Version.Major, hello.Version.Minor)
	}
	return hello, nil
}

// restore picks the id of the new session and, when the requested session
// was saved, the state to resume from.
func (s *Server[M]) restore(ctx context.Context, requested string) (string, *restored[M], protocol.HandshakeStatus) {
	if requested == "" {
		return session.NewID(), nil, protocol.HandshakeOK
	}

	data, err := s.manager.Resume(ctx, requested)
	if err != nil {
		if !errors.Is(err, session.ErrSessionNotFound) && !errors.Is(err, session.ErrSessionActive) {
			s.logger.Warn("resume failed", "session_id", requested, "error", err)
		}
		return session.NewID(), nil, protocol.HandshakeSessionExpired
	}
	snap, err := session.DecodeSnapshot[M](data)
	if err != nil {
		s.logger.Warn("discarding unreadable snapshot", "session_id", requested, "error", err)
		s.manager.Remove(ctx, requested)
		return session.NewID(), nil, protocol.HandshakeSessionExpired
	}
	return requested, &restored[M]{model: snap.Model, seq: snap.Seq}, protocol.HandshakeOK
}

func (s *Server[M]) writeServerHello(conn *websocket.Conn, hello *protocol.ServerHello) error {
	frame := protocol.NewFrame(protocol.FrameHandshake, protocol.EncodeServerHello(hello))
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, frame.Encode())
}

// reject answers a failed handshake and closes the connection.
func (s *Server[M]) reject(conn *websocket.Conn, status protocol.HandshakeStatus, label string) {
	s.metrics.sessionsTotal.WithLabelValues(label).Inc()
	if err := s.writeServerHello(conn, &protocol.ServerHello{
		Status:     status,
		ServerTime: uint64(time.Now().UnixMilli()),
	}); err != nil {
		s.logger.Debug("handshake reply failed", "error", err)
	}
	conn.Close()
}

// RenderHTML renders the first view of a fresh application into the
// mount element and returns its outer HTML.
func (s *Server[M]) RenderHTML() (string, error) {
	doc := dom.NewMemory()
	root := doc.CreateElement("", "div")
	doc.SetAttribute(root, "id", s.config.MountID)

	rt, err := runtime.Start(doc, root, s.app, runtime.WithLogger(s.logger))
	if err != nil {
		return "", err
	}
	defer rt.Shutdown()
	doc.FlushMicrotasks()
	return doc.OuterHTML(root), nil
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body data-morph-ws="/ws" data-morph-mount="%s">
%s
</body>
</html>
`

// handlePage serves the HTML shell with the first view rendered in place.
// The client replaces it with the tree of its websocket session.
func (s *Server[M]) handlePage(w http.ResponseWriter, r *http.Request) {
	body, err := s.RenderHTML()
	if err != nil {
		s.logger.Error("render failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageTemplate,
		html.EscapeString(s.config.Title),
		html.EscapeString(s.config.MountID),
		body)
}

type health struct {
	Status    string `json:"status"`
	Sessions  int    `json:"sessions"`
	UniqueIPs int    `json:"unique_ips"`
}

func (s *Server[M]) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.manager.Stats()
	h := health{Status: "ok", Sessions: stats.Connected, UniqueIPs: stats.UniqueIPs}
	code := http.StatusOK
	if s.isClosing() {
		h.Status = "closing"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(h)
}

// ListenAndServe serves on Config.Address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server[M]) ListenAndServe(ctx context.Context) error {
	hs := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.HandshakeTimeout,
	}
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.httpServer = hs
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- hs.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", s.config.Address)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes every session, saves their snapshots in one batch and
// stops the HTTP server. Snapshots survive a restart when the store does.
func (s *Server[M]) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	live := make([]*Session[M], 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	hs := s.httpServer
	s.mu.Unlock()

	s.logger.Info("shutting down", "sessions", len(live))
	snapshots := make(map[string][]byte, len(live))
	for _, sess := range live {
		if snap := sess.close(protocol.CloseServerShutdown, "server shutting down"); snap != nil {
			snapshots[sess.ID] = snap
		}
	}

	err := s.manager.Shutdown(ctx, snapshots)
	if hs != nil {
		err = errors.Join(err, hs.Shutdown(ctx))
	}
	if s.ownsStore {
		err = errors.Join(err, s.store.Close())
	}
	return err
}
