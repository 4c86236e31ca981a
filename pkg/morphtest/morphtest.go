package morphtest

import (
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/runtime"
	"github.com/vango-dev/morph/pkg/session"
	"github.com/vango-dev/morph/pkg/vdom"
)

// Harness drives an application in an in-memory document.
type Harness[M any] struct {
	tb   testing.TB
	app  runtime.App[M]
	opts []runtime.Option

	Doc  *dom.Memory
	Root dom.NodeID
	RT   *runtime.Runtime[M]

	last runtime.TickInfo
}

// New starts app under a fresh <main> element. The runtime is shut down
// when the test ends.
func New[M any](tb testing.TB, app runtime.App[M], opts ...runtime.Option) *Harness[M] {
	tb.Helper()
	h := &Harness[M]{tb: tb, app: app, opts: opts}
	h.start(app.Init)
	tb.Cleanup(func() { h.RT.Shutdown() })
	return h
}

func (h *Harness[M]) start(init func() (M, runtime.Effect)) {
	h.tb.Helper()
	app := h.app
	app.Init = init
	h.Doc = dom.NewMemory()
	h.Root = h.Doc.CreateElement("", "main")
	rt, err := runtime.Start(h.Doc, h.Root, app, h.opts...)
	if err != nil {
		h.tb.Fatalf("start: %v", err)
	}
	h.RT = rt
	h.Doc.FlushMicrotasks()
}

// Model returns the current model.
func (h *Harness[M]) Model() M {
	return h.RT.Model()
}

// Tick applies queued messages and runs deferred document work.
func (h *Harness[M]) Tick() runtime.TickInfo {
	h.last = h.RT.Tick()
	h.Doc.FlushMicrotasks()
	return h.last
}

// LastTick returns the result of the most recent tick.
func (h *Harness[M]) LastTick() runtime.TickInfo {
	return h.last
}

// Dispatch queues msg and ticks.
func (h *Harness[M]) Dispatch(msg any) runtime.TickInfo {
	h.RT.Dispatch(msg)
	return h.Tick()
}

// Fire dispatches ev at id and ticks. The test fails when no listener
// handled the event.
func (h *Harness[M]) Fire(id dom.NodeID, ev vdom.Event) runtime.TickInfo {
	h.tb.Helper()
	if !h.Doc.Exists(id) {
		h.tb.Fatalf("fire %s: node %d does not exist", ev.Type, id)
	}
	if !h.Doc.DispatchEvent(id, ev) {
		h.tb.Errorf("fire %s: no listener on %s", ev.Type, h.describe(id))
	}
	return h.Tick()
}

// Click fires a click at id.
func (h *Harness[M]) Click(id dom.NodeID) runtime.TickInfo {
	h.tb.Helper()
	return h.Fire(id, vdom.Event{Type: "click"})
}

// Input fires an input event carrying value at id.
func (h *Harness[M]) Input(id dom.NodeID, value string) runtime.TickInfo {
	h.tb.Helper()
	return h.Fire(id, vdom.Event{Type: "input", Value: value})
}

// Check fires a change event carrying checked at id.
func (h *Harness[M]) Check(id dom.NodeID, checked bool) runtime.TickInfo {
	h.tb.Helper()
	return h.Fire(id, vdom.Event{Type: "change", Checked: checked})
}

// Submit fires a submit event at id.
func (h *Harness[M]) Submit(id dom.NodeID) runtime.TickInfo {
	h.tb.Helper()
	return h.Fire(id, vdom.Event{Type: "submit"})
}

// All returns the elements under the mount element matching selector.
func (h *Harness[M]) All(selector string) []dom.NodeID {
	return h.AllIn(h.Root, selector)
}

// AllIn returns the elements under id matching selector.
func (h *Harness[M]) AllIn(id dom.NodeID, selector string) []dom.NodeID {
	tag, class, _ := strings.Cut(selector, ".")
	var out []dom.NodeID
	var walk func(dom.NodeID)
	walk = func(n dom.NodeID) {
		for _, c := range h.Doc.Children(n) {
			if h.Doc.NodeType(c) != dom.ElementNode {
				continue
			}
			if h.matches(c, tag, class) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(id)
	return out
}

func (h *Harness[M]) matches(id dom.NodeID, tag, class string) bool {
	if tag != "" && h.Doc.LocalName(id) != tag {
		return false
	}
	if class == "" {
		return true
	}
	v, _ := h.Doc.GetAttribute(id, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// Find returns the first element matching selector and fails the test
// when there is none.
func (h *Harness[M]) Find(selector string) dom.NodeID {
	h.tb.Helper()
	return h.FindIn(h.Root, selector)
}

// FindIn is Find under id.
func (h *Harness[M]) FindIn(id dom.NodeID, selector string) dom.NodeID {
	h.tb.Helper()
	all := h.AllIn(id, selector)
	if len(all) == 0 {
		h.tb.Fatalf("no element matches %q in:\n%s", selector, truncate(h.Doc.OuterHTML(id), 500))
	}
	return all[0]
}

// Text returns the text content of id.
func (h *Harness[M]) Text(id dom.NodeID) string {
	return h.Doc.TextContent(id)
}

// Attr returns an attribute of id, or "" when it is absent.
func (h *Harness[M]) Attr(id dom.NodeID, name string) string {
	v, _ := h.Doc.GetAttribute(id, name)
	return v
}

// HTML returns the outer HTML of the mount element.
func (h *Harness[M]) HTML() string {
	return h.Doc.OuterHTML(h.Root)
}

// SimulateRestart snapshots the model the way the session manager does,
// decodes it and starts the application again from the decoded model in a
// new document.
func (h *Harness[M]) SimulateRestart() {
	h.tb.Helper()
	snap := &session.Snapshot[M]{
		ID:      "morphtest",
		Seq:     h.last.Seq,
		SavedAt: time.Now(),
		Model:   h.RT.Model(),
	}
	data, err := snap.Encode()
	if err != nil {
		h.tb.Fatalf("encode snapshot: %v", err)
	}
	restored, err := session.DecodeSnapshot[M](data)
	if err != nil {
		h.tb.Fatalf("decode snapshot: %v", err)
	}

	h.RT.Shutdown()
	h.last = runtime.TickInfo{}
	h.start(func() (M, runtime.Effect) { return restored.Model, runtime.None() })
}

func (h *Harness[M]) describe(id dom.NodeID) string {
	return truncate(h.Doc.OuterHTML(id), 120)
}

// ExpectContains asserts that html contains expected.
func ExpectContains(tb testing.TB, html, expected string) {
	tb.Helper()
	if !strings.Contains(html, expected) {
		tb.Errorf("expected output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that html does not contain unexpected.
func ExpectNotContains(tb testing.TB, html, unexpected string) {
	tb.Helper()
	if strings.Contains(html, unexpected) {
		tb.Errorf("expected output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectAttribute asserts that id carries attr with value.
func ExpectAttribute[M any](tb testing.TB, h *Harness[M], id dom.NodeID, attr, value string) {
	tb.Helper()
	got, ok := h.Doc.GetAttribute(id, attr)
	if !ok {
		tb.Errorf("expected attribute %s=%q, it is missing on %s", attr, value, h.describe(id))
		return
	}
	if got != value {
		tb.Errorf("attribute %s = %q, want %q", attr, got, value)
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
