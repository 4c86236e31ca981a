package morph_test

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/morph"
	"github.com/vango-dev/morph/pkg/vdom"
)

type dispatched struct {
	msg       any
	immediate bool
}

type harness struct {
	doc  *dom.Memory
	root dom.NodeID
	r    *morph.Reconciler
	msgs []dispatched
	logs bytes.Buffer
}

func newHarness(t *testing.T, opts ...morph.Option) *harness {
	t.Helper()
	h := &harness{doc: dom.NewMemory(dom.WithMemoryLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))}
	h.root = h.doc.CreateElement(vdom.NamespaceHTML, "main")
	logger := slog.New(slog.NewTextHandler(&h.logs, nil))
	opts = append([]morph.Option{morph.WithLogger(logger)}, opts...)
	h.r = morph.New(h.doc, func(msg any, immediate bool) {
		h.msgs = append(h.msgs, dispatched{msg: msg, immediate: immediate})
	}, opts...)
	h.doc.ResetMutations()
	return h
}

// morph runs a pass and returns the live node. The journal is cleared
// beforehand so assertions only see this pass.
func (h *harness) morph(prev dom.NodeID, next *vdom.VNode) dom.NodeID {
	h.doc.ResetMutations()
	return h.r.Morph(prev, next, h.root)
}

func list(keys ...string) *vdom.VNode {
	return vdom.Ul(vdom.RangeKeyed(keys,
		func(k string) string { return k },
		func(k string, _ int) *vdom.VNode { return vdom.Li(k) },
	))
}

// keyedChildren maps each keyed child of parent to its NodeID.
func keyedChildren(doc *dom.Memory, parent dom.NodeID) map[string]dom.NodeID {
	out := map[string]dom.NodeID{}
	for _, c := range doc.Children(parent) {
		if k, ok := doc.GetAttribute(c, vdom.KeyAttr); ok {
			out[k] = c
		}
	}
	return out
}

func childTexts(doc *dom.Memory, parent dom.NodeID) []string {
	var out []string
	for _, c := range doc.Children(parent) {
		out = append(out, doc.TextContent(c))
	}
	return out
}

func richView() *vdom.VNode {
	return vdom.Div(vdom.ID("app"), vdom.Class("a"), vdom.Class("b"), vdom.Style("color:red;"),
		vdom.H1("Title"),
		vdom.Input(vdom.Type("text"), vdom.Value("v"), vdom.Checked(true),
			vdom.OnInput(func(s string) any { return s })),
		list("a", "b", "c"),
		vdom.Lazy(func() *vdom.VNode { return vdom.P("lazy") }),
		vdom.Textarea("body"),
		vdom.Div(vdom.DangerousHTML("<b>raw</b>")),
		vdom.Slot(vdom.Delegate("data-theme", "dark")),
		vdom.Svg(vdom.Circle(vdom.Attribute("r", "4"))),
		vdom.Button(vdom.OnClick("clicked"), vdom.OnServer("dblclick", "zoom", nil), "Go"),
	)
}

func TestMorph_InitialRender(t *testing.T) {
	h := newHarness(t)
	out := h.morph(dom.None, vdom.Div(vdom.Class("a"), vdom.Title("t"), "hi"))

	require.NotEqual(t, dom.None, out)
	assert.Equal(t, []dom.NodeID{out}, h.doc.Children(h.root))
	assert.Equal(t, `<div title="t" class="a">hi</div>`, h.doc.OuterHTML(out))

	stats := h.r.LastStats()
	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 2, stats.AttrWrites)
	assert.Equal(t, 2, stats.Nodes)
}

func TestMorph_Idempotent(t *testing.T) {
	h := newHarness(t)
	out := h.morph(dom.None, richView())
	html := h.doc.OuterHTML(out)

	again := h.morph(out, richView())

	assert.Equal(t, out, again)
	assert.Empty(t, h.doc.Mutations())
	assert.Zero(t, h.r.LastStats().Mutations())
	assert.Equal(t, html, h.doc.OuterHTML(out))
}

func TestMorph_TextUpdatedInPlace(t *testing.T) {
	h := newHarness(t)
	text := h.morph(dom.None, vdom.Text("a"))

	again := h.morph(text, vdom.Text("b"))

	assert.Equal(t, text, again)
	assert.Equal(t, "b", h.doc.TextContent(text))
	require.Len(t, h.doc.Mutations(), 1)
	assert.Equal(t, dom.MutSetText, h.doc.Mutations()[0].Op)
	assert.Equal(t, 1, h.r.LastStats().TextWrites)
}

func TestMorph_TextElementSwap(t *testing.T) {
	h := newHarness(t)
	text := h.morph(dom.None, vdom.Text("a"))

	el := h.morph(text, vdom.Span("b"))
	assert.NotEqual(t, text, el)
	assert.False(t, h.doc.Exists(text))
	assert.Equal(t, 1, h.r.LastStats().Replaced)

	back := h.morph(el, vdom.Text("c"))
	assert.False(t, h.doc.Exists(el))
	assert.Equal(t, dom.TextNode, h.doc.NodeType(back))
	assert.Equal(t, []dom.NodeID{back}, h.doc.Children(h.root))
}

func TestMorph_TagMismatchReplaces(t *testing.T) {
	tests := []struct {
		name string
		prev *vdom.VNode
		next *vdom.VNode
	}{
		{"tag", vdom.Div("x"), vdom.Span("x")},
		{"namespace", vdom.ElementNS(vdom.NamespaceHTML, "a"), vdom.ElementNS(vdom.NamespaceSVG, "a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			old := h.morph(dom.None, tt.prev)

			out := h.morph(old, tt.next)

			assert.NotEqual(t, old, out)
			assert.False(t, h.doc.Exists(old))
			assert.Equal(t, []dom.NodeID{out}, h.doc.Children(h.root))
			assert.Equal(t, tt.next.EffectiveNamespace(), h.doc.NamespaceURI(out))
			assert.Equal(t, 1, h.r.LastStats().Replaced)
		})
	}
}

func TestMorph_UnkeyedChildren(t *testing.T) {
	h := newHarness(t)
	out := h.morph(dom.None, vdom.Ul(vdom.Li("a"), vdom.Li("b"), vdom.Li("c")))
	before := h.doc.Children(out)

	h.morph(out, vdom.Ul(vdom.Li("a"), vdom.Li("x")))

	after := h.doc.Children(out)
	assert.Equal(t, before[:2], after)
	assert.Equal(t, []string{"a", "x"}, childTexts(h.doc, out))
	assert.False(t, h.doc.Exists(before[2]))

	h.morph(out, vdom.Ul(vdom.Li("a"), vdom.Li("x"), vdom.P("y")))
	assert.Equal(t, []string{"a", "x", "y"}, childTexts(h.doc, out))
	assert.Equal(t, 2, h.r.LastStats().Created)
}

func TestMorph_KeyedReorderMovesOnly(t *testing.T) {
	tests := []struct {
		name  string
		from  []string
		to    []string
		moves int
	}{
		{"rotate", []string{"a", "b", "c"}, []string{"c", "a", "b"}, 1},
		{"reverse", []string{"a", "b", "c", "d"}, []string{"d", "c", "b", "a"}, 3},
		{"swap", []string{"a", "b"}, []string{"b", "a"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ul := h.morph(dom.None, list(tt.from...))
			ids := keyedChildren(h.doc, ul)

			h.morph(ul, list(tt.to...))

			assert.Equal(t, tt.to, childTexts(h.doc, ul))
			assert.Equal(t, ids, keyedChildren(h.doc, ul))
			for _, m := range h.doc.Mutations() {
				assert.Equal(t, dom.MutInsertBefore, m.Op, m.String())
			}
			stats := h.r.LastStats()
			assert.Equal(t, tt.moves, stats.Moved)
			assert.Zero(t, stats.Created)
			assert.Zero(t, stats.Removed)
			assert.Zero(t, stats.Replaced)
		})
	}
}

func TestMorph_KeyedInsert(t *testing.T) {
	tests := []struct {
		name         string
		from         []string
		to           []string
		placeholders int
	}{
		{"middle", []string{"a", "c"}, []string{"a", "b", "c"}, 1},
		{"front", []string{"b", "c"}, []string{"a", "b", "c"}, 1},
		{"end", []string{"a", "b"}, []string{"a", "b", "c"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ul := h.morph(dom.None, list(tt.from...))
			ids := keyedChildren(h.doc, ul)

			h.morph(ul, list(tt.to...))

			assert.Equal(t, tt.to, childTexts(h.doc, ul))
			after := keyedChildren(h.doc, ul)
			for k, id := range ids {
				assert.Equal(t, id, after[k], "key %s", k)
			}
			stats := h.r.LastStats()
			assert.Equal(t, tt.placeholders, stats.Placeholders)
			assert.Equal(t, 2, stats.Created) // li and its text
			assert.Zero(t, stats.Moved)
			assert.Zero(t, stats.Removed)
		})
	}
}

func TestMorph_KeyedRemove(t *testing.T) {
	tests := []struct {
		name    string
		to      []string
		removed string
	}{
		{"middle", []string{"a", "c"}, "b"},
		{"front", []string{"b", "c"}, "a"},
		{"end", []string{"a", "b"}, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ul := h.morph(dom.None, list("a", "b", "c"))
			ids := keyedChildren(h.doc, ul)

			h.morph(ul, list(tt.to...))

			assert.Equal(t, tt.to, childTexts(h.doc, ul))
			assert.False(t, h.doc.Exists(ids[tt.removed]))
			for _, k := range tt.to {
				assert.Equal(t, ids[k], keyedChildren(h.doc, ul)[k])
			}
			assert.Equal(t, 1, h.r.LastStats().Removed)
			assert.Zero(t, h.r.LastStats().Created)
		})
	}
}

func TestMorph_KeyedMixedEdit(t *testing.T) {
	h := newHarness(t)
	ul := h.morph(dom.None, list("a", "b", "c", "d"))
	ids := keyedChildren(h.doc, ul)

	h.morph(ul, list("d", "x", "b"))

	assert.Equal(t, []string{"d", "x", "b"}, childTexts(h.doc, ul))
	after := keyedChildren(h.doc, ul)
	assert.Equal(t, ids["d"], after["d"])
	assert.Equal(t, ids["b"], after["b"])
	assert.False(t, h.doc.Exists(ids["a"]))
	assert.False(t, h.doc.Exists(ids["c"]))

	stats := h.r.LastStats()
	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, 2, stats.Removed)
	assert.Equal(t, 1, stats.Placeholders)
}

func TestMorph_KeyedFromEmpty(t *testing.T) {
	h := newHarness(t)
	ul := h.morph(dom.None, vdom.Ul())

	h.morph(ul, list("a", "b"))

	assert.Equal(t, []string{"a", "b"}, childTexts(h.doc, ul))
	assert.Zero(t, h.r.LastStats().Placeholders)
}

func TestMorph_DuplicateKeyWarns(t *testing.T) {
	h := newHarness(t)
	ul := h.morph(dom.None, list("a", "b"))
	ids := keyedChildren(h.doc, ul)

	h.morph(ul, list("a", "a", "b"))

	assert.Contains(t, h.logs.String(), "duplicate key in sibling list")
	assert.Contains(t, h.logs.String(), "key=a")
	assert.Equal(t, 1, h.r.LastStats().DuplicateKeys)
	assert.Equal(t, []string{"a", "a", "b"}, childTexts(h.doc, ul))

	children := h.doc.Children(ul)
	require.Len(t, children, 3)
	assert.Equal(t, ids["a"], children[0])
	assert.Equal(t, ids["b"], children[2])
	_, keyed := h.doc.GetAttribute(children[1], vdom.KeyAttr)
	assert.False(t, keyed)
}

func TestMorph_DuplicateKeyOnFirstRender(t *testing.T) {
	for _, tt := range []struct {
		name   string
		render func(h *harness) dom.NodeID
	}{
		{"fresh parent", func(h *harness) dom.NodeID {
			return h.morph(dom.None, list("k", "k"))
		}},
		{"empty parent", func(h *harness) dom.NodeID {
			ul := h.morph(dom.None, vdom.Ul())
			return h.morph(ul, list("k", "k"))
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ul := tt.render(h)

			assert.Contains(t, h.logs.String(), "duplicate key in sibling list")
			assert.Equal(t, 1, h.r.LastStats().DuplicateKeys)
			children := h.doc.Children(ul)
			require.Len(t, children, 2)
			key, ok := h.doc.GetAttribute(children[0], vdom.KeyAttr)
			assert.True(t, ok)
			assert.Equal(t, "k", key)
			_, keyed := h.doc.GetAttribute(children[1], vdom.KeyAttr)
			assert.False(t, keyed)

			for range 2 {
				h.morph(ul, list("k", "k"))
				assert.Empty(t, h.doc.Mutations())
				assert.Equal(t, children, h.doc.Children(ul))
			}
		})
	}
}

func TestMorph_KeyedListKeepsUnkeyedSiblings(t *testing.T) {
	h := newHarness(t)
	view := func(keys ...string) *vdom.VNode {
		items := []any{}
		for _, k := range keys {
			items = append(items, vdom.Keyed(k, vdom.Li(k)))
			items = append(items, vdom.Li("sep"))
		}
		return vdom.Ul(items...)
	}
	ul := h.morph(dom.None, view("a", "b"))
	before := h.doc.Children(ul)
	require.Len(t, before, 4)

	h.morph(ul, view("a", "b"))
	assert.Empty(t, h.doc.Mutations())
	assert.Equal(t, before, h.doc.Children(ul))
}

func TestMorph_KeyAttribute(t *testing.T) {
	h := newHarness(t)
	out := h.morph(dom.None, vdom.Keyed("k1", vdom.Div()))

	key, ok := h.doc.GetAttribute(out, vdom.KeyAttr)
	require.True(t, ok)
	assert.Equal(t, "k1", key)

	h.morph(out, vdom.Div())
	_, ok = h.doc.GetAttribute(out, vdom.KeyAttr)
	assert.False(t, ok)
}

func TestMorph_AttributePruning(t *testing.T) {
	h := newHarness(t)
	out := h.morph(dom.None, vdom.Div(vdom.ID("x"), vdom.Title("t"), vdom.Data("role", "r")))

	h.morph(out, vdom.Div(vdom.ID("y")))

	assert.Equal(t, []string{"id"}, h.doc.AttributeNames(out))
	id, _ := h.doc.GetAttribute(out, "id")
	assert.Equal(t, "y", id)
	stats := h.r.LastStats()
	assert.Equal(t, 2, stats.AttrRemovals)
	assert.Equal(t, 1, stats.AttrWrites)
}

func TestMorph_ClassAndStyleConcatenate(t *testing.T) {
	h := newHarness(t)
	out := h.morph(dom.None, vdom.Div(
		vdom.Class("a"), vdom.Style("color:red;"), vdom.Class("b c"), vdom.Style("margin:0"),
	))

	class, _ := h.doc.GetAttribute(out, "class")
	style, _ := h.doc.GetAttribute(out, "style")
	assert.Equal(t, "a b c", class)
	assert.Equal(t, "color:red;margin:0", style)
}

func TestMorph_Properties(t *testing.T) {
	h := newHarness(t)
	out := h.morph(dom.None, vdom.Input(vdom.Checked(true), vdom.Value("a")))

	assert.Equal(t, true, h.doc.Property(out, "checked"))
	assert.Equal(t, "a", h.doc.Property(out, "value"))

	h.morph(out, vdom.Input(vdom.Checked(false), vdom.Value("a")))
	assert.Equal(t, false, h.doc.Property(out, "checked"))
	assert.Equal(t, 1, h.r.LastStats().PropWrites)

	h.morph(out, vdom.Input(vdom.Checked(false), vdom.Value("a")))
	assert.Zero(t, h.r.LastStats().Mutations())
}

func TestMorph_EventRebindKeepsOneListener(t *testing.T) {
	h := newHarness(t)
	btn := h.morph(dom.None, vdom.Button(vdom.OnClick("first")))
	assert.Equal(t, 1, h.r.LastStats().ListenersAdded)

	h.morph(btn, vdom.Button(vdom.OnClick("second")))

	assert.Empty(t, h.doc.Mutations())
	assert.Equal(t, 1, h.doc.ListenerCount(btn))
	assert.Equal(t, []string{"click"}, h.r.Handlers(btn))

	require.True(t, h.doc.DispatchEvent(btn, vdom.Event{Type: "click"}))
	require.Len(t, h.msgs, 1)
	assert.Equal(t, "second", h.msgs[0].msg)
	assert.False(t, h.msgs[0].immediate)
}

func TestMorph_EventUnbind(t *testing.T) {
	h := newHarness(t)
	btn := h.morph(dom.None, vdom.Button(vdom.OnClick("go"), vdom.OnFocus("focus")))

	h.morph(btn, vdom.Button(vdom.OnFocus("focus")))

	assert.False(t, h.doc.HasEventListener(btn, "click"))
	assert.True(t, h.doc.HasEventListener(btn, "focus"))
	assert.Equal(t, []string{"focus"}, h.r.Handlers(btn))
	assert.Equal(t, 1, h.r.LastStats().ListenersRemoved)

	h.morph(btn, vdom.Button())
	assert.Zero(t, h.r.HandlerCount())
	assert.Zero(t, h.doc.ListenerCount(btn))
}

func TestMorph_InputDispatchesImmediately(t *testing.T) {
	h := newHarness(t)
	in := h.morph(dom.None, vdom.Input(vdom.OnInput(func(s string) any { return "typed:" + s })))

	h.doc.DispatchEvent(in, vdom.Event{Type: "input", Value: "hey"})

	require.Len(t, h.msgs, 1)
	assert.Equal(t, "typed:hey", h.msgs[0].msg)
	assert.True(t, h.msgs[0].immediate)
}

func TestMorph_DecodeFailureDropped(t *testing.T) {
	h := newHarness(t)
	btn := h.morph(dom.None, vdom.Button(vdom.On("click", vdom.Fail(nil))))

	assert.True(t, h.doc.DispatchEvent(btn, vdom.Event{Type: "click"}))
	assert.Empty(t, h.msgs)
}

func TestMorph_EventBubblesToBoundAncestor(t *testing.T) {
	h := newHarness(t)
	out := h.morph(dom.None, vdom.Div(vdom.OnClick("outer"), vdom.Button("x")))
	btn := h.doc.FirstChild(out)

	h.doc.DispatchEvent(btn, vdom.Event{Type: "click"})

	require.Len(t, h.msgs, 1)
	assert.Equal(t, "outer", h.msgs[0].msg)
}

func TestMorph_StaleListenerRemovesItself(t *testing.T) {
	h := newHarness(t)
	btn := h.morph(dom.None, vdom.Button(vdom.OnClick("go")))
	h.r.Release(btn)

	h.doc.DispatchEvent(btn, vdom.Event{Type: "click"})

	assert.Empty(t, h.msgs)
	assert.False(t, h.doc.HasEventListener(btn, "click"))
}

func TestMorph_ReplaceReleasesHandlers(t *testing.T) {
	h := newHarness(t)
	out := h.morph(dom.None, vdom.Div(vdom.Button(vdom.OnClick("a")), vdom.Input(vdom.OnInput(func(s string) any { return s }))))
	require.Equal(t, 2, h.r.HandlerCount())

	h.morph(out, vdom.Span())
	assert.Zero(t, h.r.HandlerCount())
}

func TestMorph_RemoveReleasesHandlers(t *testing.T) {
	h := newHarness(t)
	ul := h.morph(dom.None, vdom.Ul(
		vdom.Keyed("a", vdom.Li(vdom.OnClick("a"))),
		vdom.Keyed("b", vdom.Li(vdom.OnClick("b"))),
	))
	require.Equal(t, 2, h.r.HandlerCount())

	h.morph(ul, vdom.Ul(vdom.Keyed("b", vdom.Li(vdom.OnClick("b")))))
	assert.Equal(t, 1, h.r.HandlerCount())
}

func TestMorph_ServerEvent(t *testing.T) {
	h := newHarness(t)
	out := h.morph(dom.None, vdom.Div(
		vdom.Button(vdom.OnServer("click", "save", map[string]any{"id": 7})),
		vdom.Input(vdom.OnServer("input", "typed", nil, "type")),
	))
	children := h.doc.Children(out)
	require.Len(t, children, 2)

	tag, ok := h.doc.GetAttribute(children[0], vdom.ServerEventPrefix+"click")
	require.True(t, ok)
	assert.Equal(t, "save", tag)

	h.doc.DispatchEvent(children[0], vdom.Event{Type: "click"})
	h.doc.DispatchEvent(children[1], vdom.Event{Type: "input", Value: "hey"})

	require.Len(t, h.msgs, 2)
	assert.Equal(t, vdom.ServerEventMsg{
		Tag:  "save",
		Data: map[string]any{"data": map[string]any{"id": float64(7)}},
	}, h.msgs[0].msg)
	assert.Equal(t, vdom.ServerEventMsg{
		Tag: "typed",
		Data: map[string]any{
			"data":   map[string]any{},
			"type":   "input",
			"target": map[string]any{"value": "hey"},
		},
	}, h.msgs[1].msg)
}

func TestMorph_Lazy(t *testing.T) {
	h := newHarness(t)
	calls := 0
	view := func() *vdom.VNode {
		return vdom.Div(vdom.Lazy(func() *vdom.VNode {
			calls++
			return vdom.Lazy(func() *vdom.VNode { return vdom.P("deep") })
		}))
	}

	node := view()
	assert.Zero(t, calls)

	out := h.morph(dom.None, node)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "<div><p>deep</p></div>", h.doc.OuterHTML(out))

	nilLazy := h.morph(dom.None, vdom.Lazy(func() *vdom.VNode { return nil }))
	assert.Equal(t, dom.TextNode, h.doc.NodeType(nilLazy))
	assert.Equal(t, "", h.doc.TextContent(nilLazy))
}

func TestMorph_TextareaValueSync(t *testing.T) {
	h := newHarness(t)
	ta := h.morph(dom.None, vdom.Textarea("hello"))

	h.morph(ta, vdom.Textarea("hello"))
	assert.Zero(t, h.r.LastStats().Mutations())

	h.doc.SetProperty(ta, "value", "user typing")
	h.morph(ta, vdom.Textarea("hello"))
	assert.Equal(t, "hello", h.doc.Property(ta, "value"))
	assert.Equal(t, 1, h.r.LastStats().PropWrites)

	h.morph(ta, vdom.Textarea("world"))
	assert.Equal(t, "world", h.doc.Property(ta, "value"))
	assert.Equal(t, "world", h.doc.TextContent(ta))
}

func TestMorph_SlotDelegation(t *testing.T) {
	h := newHarness(t)
	view := vdom.Slot(vdom.Delegate("data-theme", "dark"), vdom.Delegate("aria-label", "menu"))
	slot := h.morph(dom.None, view)

	light := h.doc.CreateElement(vdom.NamespaceHTML, "button")
	h.doc.SetAttribute(light, "aria-label", "keep")
	h.doc.Assign(slot, light)

	_, ok := h.doc.GetAttribute(light, "data-theme")
	assert.False(t, ok, "propagation must wait for the microtask")

	assert.Equal(t, 1, h.doc.FlushMicrotasks())
	theme, ok := h.doc.GetAttribute(light, "data-theme")
	require.True(t, ok)
	assert.Equal(t, "dark", theme)
	label, _ := h.doc.GetAttribute(light, "aria-label")
	assert.Equal(t, "keep", label)

	h.morph(slot, view)
	_, ok = h.doc.GetAttribute(slot, vdom.DelegatePrefix+"data-theme")
	assert.True(t, ok)
	assert.Zero(t, h.r.LastStats().Mutations())
}

func TestMorph_SlotDelegationWithoutMicrotasks(t *testing.T) {
	mem := dom.NewMemory()
	root := mem.CreateElement(vdom.NamespaceHTML, "main")
	// Embedding the interface hides the optional capabilities of Memory.
	doc := struct{ dom.Document }{mem}
	r := morph.New(doc, nil)

	view := vdom.Slot(vdom.Delegate("data-x", "1"))
	slot := r.Morph(dom.None, view, root)
	light := mem.CreateElement(vdom.NamespaceHTML, "span")
	mem.Assign(slot, light)

	r.Morph(slot, view, root)

	x, ok := mem.GetAttribute(light, "data-x")
	require.True(t, ok)
	assert.Equal(t, "1", x)
	assert.Zero(t, mem.FlushMicrotasks())
	assert.Zero(t, mem.Transitions())
}

func TestMorph_InnerHTML(t *testing.T) {
	h := newHarness(t)
	out := h.morph(dom.None, vdom.Div(vdom.DangerousHTML("<b>x</b><i>y</i>"), "ignored"))

	assert.Equal(t, "<b>x</b><i>y</i>", h.doc.InnerHTML(out))
	assert.Equal(t, 1, h.r.LastStats().InnerHTMLWrites)
	_, ok := h.doc.GetAttribute(out, vdom.InnerHTMLAttr)
	assert.False(t, ok)

	h.morph(out, vdom.Div(vdom.DangerousHTML("<b>x</b><i>y</i>")))
	assert.Zero(t, h.r.LastStats().Mutations())

	h.morph(out, vdom.Div("plain"))
	assert.Equal(t, "plain", h.doc.InnerHTML(out))
	assert.Nil(t, h.doc.Property(out, "innerHTML"))
}

func TestMorph_SVGNamespace(t *testing.T) {
	h := newHarness(t)
	out := h.morph(dom.None, vdom.Svg(vdom.Circle(vdom.Attribute("r", "4"))))

	assert.Equal(t, vdom.NamespaceSVG, h.doc.NamespaceURI(out))
	assert.Equal(t, vdom.NamespaceSVG, h.doc.NamespaceURI(h.doc.FirstChild(out)))
}

func TestMorph_TransitionAndObserver(t *testing.T) {
	var passes []morph.Stats
	h := newHarness(t, morph.WithObserver(morph.ObserverFunc(func(s morph.Stats) {
		passes = append(passes, s)
	})))

	out := h.morph(dom.None, vdom.Div("a"))
	h.morph(out, vdom.Div("b"))

	assert.Equal(t, 2, h.doc.Transitions())
	require.Len(t, passes, 2)
	assert.Equal(t, 2, passes[0].Created)
	assert.Equal(t, 1, passes[1].TextWrites)
	assert.Equal(t, 1, passes[1].Mutations())
}
