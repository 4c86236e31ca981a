package demo

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/morph/internal/errors"
	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/morphtest"
	"github.com/vango-dev/morph/pkg/server"
	"github.com/vango-dev/morph/pkg/vdom"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"card", "counter", "notes", "todo"}, Names())

	e, err := Lookup("todo")
	require.NoError(t, err)
	assert.Equal(t, "todo", e.Name)
	assert.NotEmpty(t, e.Description)

	_, err = Lookup("nope")
	assert.Equal(t, errors.CodeUnknownApp, errors.Code(err))
	var me *errors.MorphError
	require.ErrorAs(t, err, &me)
	assert.Contains(t, me.Suggestion, "counter")
}

func TestEntry_NewServer(t *testing.T) {
	for _, e := range Apps() {
		t.Run(e.Name, func(t *testing.T) {
			srv := e.NewServer(&server.Config{MountID: "root"})
			out, err := srv.RenderHTML()
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, `<div id="root">`), out)
			assert.Contains(t, out, `class="`+e.Name+`"`)
			assert.Zero(t, srv.SessionCount())
			assert.NoError(t, srv.Shutdown(context.Background()))
		})
	}
}

func TestCounter(t *testing.T) {
	h := morphtest.New(t, Counter())
	require.Len(t, h.All("button"), 2)
	assert.Empty(t, h.All("button.reset"))

	inc := h.All("button")[1]
	h.Click(inc)
	h.Click(inc)
	assert.Equal(t, 2, h.Model().Count)
	assert.Equal(t, "2", h.Text(h.Find("span.count")))

	h.Input(h.Find("input"), "5")
	h.Click(inc)
	assert.Equal(t, CounterModel{Count: 7, Step: 5}, h.Model())

	h.Input(h.Find("input"), "abc")
	h.Click(h.All("button")[0])
	assert.Equal(t, CounterModel{Count: 2, Step: 5}, h.Model())

	h.Click(h.Find("button.reset"))
	assert.Zero(t, h.Model().Count)
	assert.Len(t, h.All("button"), 2)
}

func addTodo(h *morphtest.Harness[TodoModel], title string) {
	form := h.Find("form")
	h.Doc.DispatchEvent(h.FindIn(form, "input"), vdom.Event{Type: "input", Value: title})
	h.Submit(form)
}

func TestTodo_AddToggleClear(t *testing.T) {
	h := morphtest.New(t, Todo())

	addTodo(h, "  ")
	assert.Empty(t, h.Model().Items)

	addTodo(h, "milk")
	addTodo(h, "eggs")
	m := h.Model()
	require.Len(t, m.Items, 2)
	assert.Equal(t, TodoItem{ID: 1, Title: "milk"}, m.Items[0])
	assert.Equal(t, "", m.Draft)
	assert.Equal(t, "", h.Doc.Property(h.Find("input"), "value"))

	items := h.All("li")
	require.Len(t, items, 2)
	h.Check(h.FindIn(items[0], "input"), true)
	assert.True(t, h.Model().Items[0].Done)
	morphtest.ExpectAttribute(t, h, items[0], "class", "done item")
	assert.Contains(t, h.Text(h.Find("footer")), "1 of 2 done")

	h.Click(h.Find("button.clear"))
	assert.Equal(t, []TodoItem{{ID: 2, Title: "eggs"}}, h.Model().Items)
	assert.Equal(t, []dom.NodeID{items[1]}, h.All("li"))
}

func TestTodo_ReorderMovesNodes(t *testing.T) {
	h := morphtest.New(t, Todo())
	for _, title := range []string{"a", "b", "c"} {
		addTodo(h, title)
	}
	before := h.All("li")
	require.Len(t, before, 3)

	info := h.Click(h.FindIn(before[2], "button.up"))

	after := h.All("li")
	assert.Equal(t, []dom.NodeID{before[0], before[2], before[1]}, after)
	assert.Zero(t, info.Stats.Created)
	assert.Zero(t, info.Stats.Removed)

	h.Click(h.FindIn(after[1], "button.remove"))
	assert.Equal(t, []dom.NodeID{before[0], before[1]}, h.All("li"))
	assert.False(t, h.Doc.Exists(before[2]))
}

func TestNotes(t *testing.T) {
	h := morphtest.New(t, Notes())

	var saved []map[string]any
	h.Doc.AddEventListener(h.Root, "saved", func(_ dom.NodeID, ev vdom.Event) {
		saved = append(saved, ev.Detail)
	})

	textarea := h.Find("textarea")
	h.Input(textarea, "a <b>\nc\n\nnext")
	assert.Equal(t, "a <b>\nc\n\nnext", h.Doc.Property(textarea, "value"))

	preview := h.Find("div.preview")
	assert.Equal(t, "<p>a &lt;b&gt;<br>c</p><p>next</p>", h.Doc.Property(preview, "innerHTML"))
	assert.Contains(t, h.Text(preview), "next")

	button := h.Find("button")
	morphtest.ExpectAttribute(t, h, button, vdom.ServerEventPrefix+"click", SaveTag)
	h.Click(button)

	m := h.Model()
	assert.Equal(t, 1, m.Saves)
	assert.Equal(t, m.Text, m.Saved)
	require.Len(t, saved, 1)
	assert.Equal(t, 1, saved[0]["saves"])
	assert.Equal(t, "saved 1 times", h.Text(h.Find("p.status")))
}

func TestUpdateNotes_IgnoresOtherServerEvents(t *testing.T) {
	m, eff := updateNotes(NotesModel{Text: "x"}, vdom.ServerEventMsg{Tag: "other"})
	assert.Nil(t, eff)
	assert.Zero(t, m.Saves)
}

func TestRenderPreview(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"\n\n  \n\n", ""},
		{"one", "<p>one</p>"},
		{"a\r\nb", "<p>a<br>b</p>"},
		{"x & y\n\n\n\nz", "<p>x &amp; y</p><p>z</p>"},
		{`"q"`, "<p>&#34;q&#34;</p>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, renderPreview(tt.in), "input %q", tt.in)
	}
}

func TestCard_DelegatesToAssignedElements(t *testing.T) {
	h := morphtest.New(t, Card())

	child := h.Doc.CreateElement("", "article")
	h.Doc.AppendChild(h.Root, child)
	h.Doc.Assign(h.Find("slot"), child)

	h.Click(h.Find("button.theme"))

	morphtest.ExpectAttribute(t, h, child, "data-theme", "dark")
	morphtest.ExpectAttribute(t, h, child, "aria-expanded", "false")
	morphtest.ExpectAttribute(t, h, h.Find("div.card"), "data-theme", "dark")

	h.Check(h.Find("input"), true)
	assert.Equal(t, CardModel{Theme: "dark", Expanded: true}, h.Model())
	// Attributes the child already carries are left alone.
	morphtest.ExpectAttribute(t, h, child, "aria-expanded", "false")
}

func TestModelsSurviveRestart(t *testing.T) {
	counter := morphtest.New(t, Counter())
	counter.Click(counter.All("button")[1])
	counter.SimulateRestart()
	assert.Equal(t, CounterModel{Count: 1, Step: 1}, counter.Model())
	assert.Equal(t, "1", counter.Text(counter.Find("span.count")))

	todo := morphtest.New(t, Todo())
	addTodo(todo, "milk")
	todo.Check(todo.FindIn(todo.Find("li"), "input"), true)
	todo.SimulateRestart()
	assert.Equal(t, TodoModel{Items: []TodoItem{{ID: 1, Title: "milk", Done: true}}, NextID: 2}, todo.Model())
	assert.Len(t, todo.All("li.done"), 1)

	notes := morphtest.New(t, Notes())
	notes.Input(notes.Find("textarea"), "draft")
	notes.SimulateRestart()
	assert.Equal(t, "draft", notes.Model().Text)

	card := morphtest.New(t, Card())
	card.Click(card.Find("button.theme"))
	card.SimulateRestart()
	assert.Equal(t, "dark", card.Model().Theme)
}
