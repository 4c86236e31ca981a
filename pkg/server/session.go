package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/protocol"
	"github.com/vango-dev/morph/pkg/runtime"
	"github.com/vango-dev/morph/pkg/session"
)

// Session is one connected client. It owns a Memory document mirrored by
// the client, the runtime rendering into it, and the websocket.
//
// The session runs three goroutines:
//   - the read loop, on the handler goroutine, decoding client frames
//   - the runtime loop, applying events and ticking
//   - the write loop, sending encoded frames and heartbeats
//
// The document and every field marked loop-owned are only touched from
// the runtime loop.
type Session[M any] struct {
	ID string
	IP string

	srv    *Server[M]
	conn   *websocket.Conn
	doc    *dom.Memory
	root   dom.NodeID
	rt     *runtime.Runtime[M]
	logger *slog.Logger

	// Loop-owned.
	seq            uint64
	reset          bool
	lastEvent      uint64
	lastCheckpoint time.Time

	out       chan []byte
	ctx       context.Context
	cancel    context.CancelFunc
	runDone   chan struct{}
	writeDone chan struct{}

	// Set before cancel, read by the write loop after ctx is done.
	closeReason  protocol.CloseReason
	closeMessage string
	// forget drops the saved snapshot when the client closes for good.
	forget bool

	closeOnce sync.Once
	closed    chan struct{}
	snapshot  []byte
}

// restored is the state a session resumes from.
type restored[M any] struct {
	model M
	seq   uint64
}

func newSession[M any](srv *Server[M], conn *websocket.Conn, id, ip string) *Session[M] {
	ctx, cancel := context.WithCancel(context.Background())
	logger := srv.logger.With("session_id", id)
	doc := dom.NewMemory(dom.WithMemoryLogger(logger))
	root := doc.CreateElement("", "div")
	doc.ResetMutations()

	return &Session[M]{
		ID:             id,
		IP:             ip,
		srv:            srv,
		conn:           conn,
		doc:            doc,
		root:           root,
		logger:         logger,
		reset:          true,
		lastCheckpoint: time.Now(),
		out:            make(chan []byte, srv.config.SendQueueSize),
		ctx:            ctx,
		cancel:         cancel,
		runDone:        make(chan struct{}),
		writeDone:      make(chan struct{}),
		closed:         make(chan struct{}),
	}
}

// start renders the first view. Its mutation batch is queued, not
// written, so the ServerHello can go out first.
func (s *Session[M]) start(from *restored[M]) error {
	app := s.srv.app
	if from != nil {
		model := from.model
		app.Init = func() (M, runtime.Effect) { return model, nil }
		s.seq = from.seq
	}

	opts := append([]runtime.Option{
		runtime.WithLogger(s.logger),
		runtime.WithBatchDelay(s.srv.config.BatchDelay),
		runtime.WithAfterTick(s.afterTick),
	}, s.srv.runtimeOpts...)

	rt, err := runtime.Start(s.doc, s.root, app, opts...)
	if err != nil {
		return newSessionError(s.ID, "start", err)
	}
	s.rt = rt
	return nil
}

// run starts the runtime and write loops.
func (s *Session[M]) run() {
	go s.writeLoop()
	go func() {
		defer close(s.runDone)
		if err := s.rt.Run(s.ctx); err != nil && s.ctx.Err() == nil {
			s.logger.Error("runtime stopped", "error", err)
		}
	}()
}

// afterTick ships the mutations of a tick. It runs on the runtime loop.
func (s *Session[M]) afterTick(info runtime.TickInfo) {
	s.srv.metrics.recordTick(info)
	sent := s.flush()
	traceTick(s.srv.tracer, s.ID, info, sent)

	interval := s.srv.config.CheckpointInterval
	if interval > 0 && s.rt != nil && time.Since(s.lastCheckpoint) >= interval {
		s.checkpoint()
	}
}

// flush encodes the pending journal into a mutation frame and queues it.
// It returns the number of mutations queued.
func (s *Session[M]) flush() int {
	s.doc.FlushMicrotasks()
	muts := s.doc.TakeMutations()
	if len(muts) == 0 && !s.reset {
		return 0
	}

	s.seq++
	payload, err := protocol.EncodeMutations(&protocol.MutationsFrame{Seq: s.seq, Mutations: muts})
	if err != nil {
		// The client mirror cannot be kept in sync past this point.
		s.logger.Error("encode mutations", "error", err)
		s.srv.metrics.wsErrors.WithLabelValues("encode").Inc()
		go s.close(protocol.CloseError, "encode failed")
		return 0
	}
	frame := protocol.NewFrame(protocol.FrameMutations, payload)
	if s.reset {
		frame.Flags = protocol.FlagReset
		s.reset = false
	}
	data := frame.Encode()
	if !s.enqueue(data) {
		return 0
	}
	s.srv.metrics.recordMutations(muts, len(data))
	return len(muts)
}

// checkpoint saves the model while the session stays connected.
func (s *Session[M]) checkpoint() {
	s.lastCheckpoint = time.Now()
	data := s.encodeSnapshot()
	if data == nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.srv.config.WriteTimeout)
	defer cancel()
	if err := s.srv.manager.Checkpoint(ctx, s.ID, data); err != nil {
		s.logger.Warn("checkpoint failed", "error", err)
	}
}

// encodeSnapshot serializes the model. It must run on the runtime loop or
// after the loop has stopped.
func (s *Session[M]) encodeSnapshot() []byte {
	snap := &session.Snapshot[M]{
		ID:      s.ID,
		Seq:     s.seq,
		SavedAt: time.Now().UTC(),
		Model:   s.rt.Model(),
	}
	data, err := snap.Encode()
	if err != nil {
		s.logger.Warn("snapshot encode failed", "error", err)
		return nil
	}
	return data
}

// enqueue hands a frame to the write loop without blocking. A full queue
// means the client cannot keep up and the session is closed.
func (s *Session[M]) enqueue(data []byte) bool {
	select {
	case <-s.ctx.Done():
		return false
	default:
	}
	select {
	case s.out <- data:
		return true
	default:
		s.logger.Warn("send queue full, closing session")
		s.srv.metrics.wsErrors.WithLabelValues("backpressure").Inc()
		go s.close(protocol.CloseError, ErrSendQueueFull.Error())
		return false
	}
}

// sendError queues an error frame.
func (s *Session[M]) sendError(code protocol.ErrorCode, message string) {
	payload := protocol.EncodeErrorMessage(protocol.NewError(code, message))
	s.enqueue(protocol.NewFrame(protocol.FrameError, payload).Encode())
}

// sendControl queues a control frame.
func (s *Session[M]) sendControl(c *protocol.Control) {
	s.enqueue(protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(c)).Encode())
}

// close stops the session and returns its final snapshot. Only the first
// call does the work; later calls wait for it and return the same bytes.
func (s *Session[M]) close(reason protocol.CloseReason, message string) []byte {
	s.closeOnce.Do(func() {
		s.closeReason = reason
		s.closeMessage = message
		s.cancel()
		<-s.runDone

		s.snapshot = s.encodeSnapshot()
		s.rt.Shutdown()
		<-s.writeDone
		s.conn.Close()
		s.srv.untrack(s)
		close(s.closed)
	})
	<-s.closed
	return s.snapshot
}

// Done is closed once the session has stopped.
func (s *Session[M]) Done() <-chan struct{} {
	return s.closed
}

// Model returns the current model. Use it only after Done is closed or
// from the runtime loop.
func (s *Session[M]) Model() M {
	return s.rt.Model()
}

// Do runs fn on the session's runtime loop.
func (s *Session[M]) Do(fn func()) error {
	if err := s.rt.Do(fn); err != nil {
		return newSessionError(s.ID, "do", ErrSessionClosed)
	}
	return nil
}
