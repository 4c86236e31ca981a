package runtime

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/morph"
	"github.com/vango-dev/morph/pkg/vdom"
)

var (
	// ErrStopped is returned once the runtime has been shut down.
	ErrStopped = errors.New("runtime: stopped")

	// ErrNoRoot is returned when the root is not an element of the document.
	ErrNoRoot = errors.New("runtime: root is not an element")

	// ErrIncompleteApp is returned when Init, Update or View is missing.
	ErrIncompleteApp = errors.New("runtime: app needs Init, Update and View")
)

// App is an application rendered by a Runtime.
type App[M any] struct {
	Init   func() (M, Effect)
	Update func(model M, msg any) (M, Effect)
	View   func(model M) *vdom.VNode
}

// Emitter receives events raised with Emit.
type Emitter func(name string, data any)

// TickInfo describes one completed tick.
type TickInfo struct {
	Seq      uint64
	Messages int // messages applied through Update
	Effects  int // effects run
	Stats    morph.Stats
	Duration time.Duration
}

// Runtime owns an application model and keeps a document subtree in sync
// with its view.
//
// The document, the model and the reconciler belong to a single goroutine:
// the one calling Run, or the caller itself when Tick is driven by hand.
// Dispatch and Do may be called from anywhere.
type Runtime[M any] struct {
	doc    dom.Document
	root   dom.NodeID
	app    App[M]
	rec    *morph.Reconciler
	logger *slog.Logger

	emitter    Emitter
	afterTick  []func(TickInfo)
	batchDelay time.Duration

	mu        sync.Mutex
	queue     []any
	immediate bool
	flushing  bool
	stopped   bool

	wake chan struct{}
	fns  chan func()
	done chan struct{}

	// Loop-owned.
	model   M
	effects []Effect
	seq     uint64
}

// Start validates app, runs Init and renders the first view into root.
// The effects returned by Init run as part of that first tick.
func Start[M any](doc dom.Document, root dom.NodeID, app App[M], opts ...Option) (*Runtime[M], error) {
	if app.Init == nil || app.Update == nil || app.View == nil {
		return nil, ErrIncompleteApp
	}
	if doc.NodeType(root) != dom.ElementNode {
		return nil, ErrNoRoot
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	rt := &Runtime[M]{
		doc:        doc,
		root:       root,
		app:        app,
		logger:     o.logger,
		emitter:    o.emitter,
		afterTick:  o.afterTick,
		batchDelay: o.batchDelay,
		wake:       make(chan struct{}, 1),
		fns:        make(chan func(), o.queueSize),
		done:       make(chan struct{}),
	}
	morphOpts := append([]morph.Option{morph.WithLogger(o.logger)}, o.morphOpts...)
	rt.rec = morph.New(doc, rt.Send, morphOpts...)
	if rt.emitter == nil {
		rt.emitter = rt.emitOnRoot
	}

	model, effect := app.Init()
	rt.model = model
	if effect != nil {
		rt.effects = append(rt.effects, effect)
	}
	rt.Tick()
	return rt, nil
}

// Dispatch queues msg for the next tick.
func (rt *Runtime[M]) Dispatch(msg any) {
	rt.Send(msg, false)
}

// Send queues msg. immediate asks Run to tick without waiting for the
// batch delay; the reconciler sets it for input events.
func (rt *Runtime[M]) Send(msg any, immediate bool) {
	rt.mu.Lock()
	if rt.stopped {
		rt.mu.Unlock()
		return
	}
	rt.queue = append(rt.queue, msg)
	if immediate {
		rt.immediate = true
	}
	flushing := rt.flushing
	rt.mu.Unlock()

	if !flushing {
		rt.signal()
	}
}

// Pending returns the number of queued messages.
func (rt *Runtime[M]) Pending() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.queue)
}

// Do runs fn on the runtime loop. Use it for any work that touches the
// document from another goroutine.
func (rt *Runtime[M]) Do(fn func()) error {
	select {
	case <-rt.done:
		return ErrStopped
	default:
	}
	select {
	case rt.fns <- fn:
		return nil
	case <-rt.done:
		return ErrStopped
	}
}

// Run drives the runtime until ctx is cancelled or Shutdown is called.
// Queued messages are batched for the configured delay unless one of them
// was sent as immediate.
func (rt *Runtime[M]) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	armed := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-rt.done:
			return nil

		case fn := <-rt.fns:
			rt.safely("do", fn)

		case <-rt.wake:
			if rt.takeImmediate() || rt.batchDelay <= 0 {
				if armed {
					timer.Stop()
					armed = false
				}
				rt.safely("tick", func() { rt.Tick() })
			} else if !armed {
				timer.Reset(rt.batchDelay)
				armed = true
			}

		case <-timer.C:
			armed = false
			rt.safely("tick", func() { rt.Tick() })
		}
	}
}

func (rt *Runtime[M]) takeImmediate() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	immediate := rt.immediate
	rt.immediate = false
	return immediate
}

// safely runs fn, logging a panic instead of killing the loop.
func (rt *Runtime[M]) safely(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Error(what+" panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Tick applies every queued message, runs the resulting effects, renders
// the view and morphs the document. It must run on the loop goroutine.
func (rt *Runtime[M]) Tick() TickInfo {
	if rt.isStopped() {
		return TickInfo{}
	}
	start := time.Now()
	rt.seq++
	info := TickInfo{Seq: rt.seq}

	info.Messages, info.Effects = rt.flush()

	view := rt.app.View(rt.model)
	rt.rec.Morph(rt.doc.FirstChild(rt.root), view, rt.root)

	info.Stats = rt.rec.LastStats()
	info.Duration = time.Since(start)
	for _, hook := range rt.afterTick {
		hook(info)
	}
	return info
}

// flush applies queued messages and runs effects until both are drained.
func (rt *Runtime[M]) flush() (messages, effects int) {
	rt.setFlushing(true)
	defer rt.endFlush()

	ctx := EffectContext{
		Dispatch: rt.Dispatch,
		Emit:     rt.Emit,
		Root:     rt.root,
	}
	for {
		for _, msg := range rt.takeQueue() {
			model, effect := rt.app.Update(rt.model, msg)
			rt.model = model
			if effect != nil {
				rt.effects = append(rt.effects, effect)
			}
			messages++
		}
		for len(rt.effects) > 0 {
			effect := rt.effects[0]
			rt.effects = rt.effects[1:]
			effect(ctx)
			effects++
		}
		if rt.Pending() == 0 {
			return messages, effects
		}
	}
}

func (rt *Runtime[M]) setFlushing(v bool) {
	rt.mu.Lock()
	rt.flushing = v
	rt.mu.Unlock()
}

// endFlush clears the flushing flag. Messages sent after the last drain saw
// the flag set and skipped the wake, so the loop wakes itself for them.
func (rt *Runtime[M]) endFlush() {
	rt.mu.Lock()
	rt.flushing = false
	pending := len(rt.queue) > 0
	rt.mu.Unlock()
	if pending {
		rt.signal()
	}
}

func (rt *Runtime[M]) signal() {
	select {
	case rt.wake <- struct{}{}:
	default:
	}
}

func (rt *Runtime[M]) takeQueue() []any {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	q := rt.queue
	rt.queue = nil
	return q
}

// Model returns the current model. It must run on the loop goroutine.
func (rt *Runtime[M]) Model() M {
	return rt.model
}

// ForceModel replaces the model and re-renders without calling Update.
// Queued messages and pending effects are discarded.
func (rt *Runtime[M]) ForceModel(model M) {
	if rt.isStopped() {
		return
	}
	rt.takeQueue()
	rt.effects = nil
	rt.model = model
	rt.rec.Morph(rt.doc.FirstChild(rt.root), rt.app.View(model), rt.root)
}

// Emit raises a named event from the application root.
func (rt *Runtime[M]) Emit(name string, data any) {
	rt.emitter(name, data)
}

// eventDispatcher is implemented by documents that can deliver events.
type eventDispatcher interface {
	DispatchEvent(target dom.NodeID, ev vdom.Event) bool
}

func (rt *Runtime[M]) emitOnRoot(name string, data any) {
	d, ok := rt.doc.(eventDispatcher)
	if !ok {
		rt.logger.Debug("emit dropped", "event", name)
		return
	}
	detail, ok := data.(map[string]any)
	if !ok {
		detail = map[string]any{"value": data}
	}
	d.DispatchEvent(rt.root, vdom.Event{Type: name, Detail: detail})
}

// Root returns the element the application renders into.
func (rt *Runtime[M]) Root() dom.NodeID {
	return rt.root
}

// Reconciler returns the reconciler rendering the application.
func (rt *Runtime[M]) Reconciler() *morph.Reconciler {
	return rt.rec
}

// Done is closed by Shutdown.
func (rt *Runtime[M]) Done() <-chan struct{} {
	return rt.done
}

func (rt *Runtime[M]) isStopped() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.stopped
}

// Shutdown stops the runtime, drops queued messages and removes everything
// rendered under the root. It must run on the loop goroutine, or after Run
// has returned. Shutdown is idempotent.
func (rt *Runtime[M]) Shutdown() {
	rt.mu.Lock()
	if rt.stopped {
		rt.mu.Unlock()
		return
	}
	rt.stopped = true
	rt.queue = nil
	rt.mu.Unlock()

	close(rt.done)
	rt.effects = nil
	for c := rt.doc.FirstChild(rt.root); c != dom.None; c = rt.doc.FirstChild(rt.root) {
		rt.rec.Release(c)
		rt.doc.RemoveChild(rt.root, c)
	}
	var zero M
	rt.model = zero
}
