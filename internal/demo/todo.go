package demo

import (
	"strconv"
	"strings"

	"github.com/vango-dev/morph/pkg/runtime"
	"github.com/vango-dev/morph/pkg/vdom"
)

// TodoItem is one entry of the todo list.
type TodoItem struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// TodoModel is the state of the todo application.
type TodoModel struct {
	Items  []TodoItem `json:"items"`
	Draft  string     `json:"draft"`
	NextID int        `json:"next_id"`
}

type (
	todoDraft     struct{ value string }
	todoAdd       struct{}
	todoToggle    struct{ id int }
	todoRemove    struct{ id int }
	todoMoveUp    struct{ id int }
	todoClearDone struct{}
)

// Todo is a todo list rendered as a keyed list, so reordering moves nodes
// instead of rewriting them.
func Todo() runtime.App[TodoModel] {
	return runtime.App[TodoModel]{
		Init: func() (TodoModel, runtime.Effect) {
			return TodoModel{NextID: 1}, runtime.None()
		},
		Update: updateTodo,
		View:   viewTodo,
	}
}

func updateTodo(m TodoModel, msg any) (TodoModel, runtime.Effect) {
	switch msg := msg.(type) {
	case todoDraft:
		m.Draft = msg.value
	case todoAdd:
		title := strings.TrimSpace(m.Draft)
		if title == "" {
			break
		}
		m.Items = append(append([]TodoItem(nil), m.Items...), TodoItem{ID: m.NextID, Title: title})
		m.NextID++
		m.Draft = ""
	case todoToggle:
		m.Items = mapItems(m.Items, func(it TodoItem) (TodoItem, bool) {
			if it.ID == msg.id {
				it.Done = !it.Done
			}
			return it, true
		})
	case todoRemove:
		m.Items = mapItems(m.Items, func(it TodoItem) (TodoItem, bool) {
			return it, it.ID != msg.id
		})
	case todoMoveUp:
		for i, it := range m.Items {
			if it.ID == msg.id && i > 0 {
				items := append([]TodoItem(nil), m.Items...)
				items[i-1], items[i] = items[i], items[i-1]
				m.Items = items
				break
			}
		}
	case todoClearDone:
		m.Items = mapItems(m.Items, func(it TodoItem) (TodoItem, bool) {
			return it, !it.Done
		})
	}
	return m, runtime.None()
}

// mapItems copies items through fn, dropping those it rejects. The model
// is passed by value, so the backing array must not be shared.
func mapItems(items []TodoItem, fn func(TodoItem) (TodoItem, bool)) []TodoItem {
	out := make([]TodoItem, 0, len(items))
	for _, it := range items {
		if it, keep := fn(it); keep {
			out = append(out, it)
		}
	}
	return out
}

func viewTodo(m TodoModel) *vdom.VNode {
	done := 0
	for _, it := range m.Items {
		if it.Done {
			done++
		}
	}
	return vdom.Section(vdom.Class("todo"),
		vdom.Form(
			vdom.OnSubmit(todoAdd{}),
			vdom.Input(
				vdom.Placeholder("What needs doing?"),
				vdom.Value(m.Draft),
				vdom.OnInput(func(s string) any { return todoDraft{s} }),
			),
			vdom.Button(vdom.Type("submit"), "Add"),
		),
		vdom.Ul(vdom.Class("items"),
			vdom.RangeKeyed(m.Items,
				func(it TodoItem) string { return strconv.Itoa(it.ID) },
				viewTodoItem,
			),
		),
		vdom.Footer(
			vdom.Textf("%d of %d done", done, len(m.Items)),
			vdom.If(done > 0, vdom.Button(vdom.Class("clear"), vdom.OnClick(todoClearDone{}), "Clear done")),
		),
	)
}

func viewTodoItem(it TodoItem, _ int) *vdom.VNode {
	return vdom.Li(
		vdom.ClassList(map[string]bool{"item": true, "done": it.Done}),
		vdom.Input(
			vdom.Type("checkbox"),
			vdom.Checked(it.Done),
			vdom.OnCheck(func(bool) any { return todoToggle{it.ID} }),
		),
		vdom.Span(it.Title),
		vdom.Button(vdom.Class("up"), vdom.OnClick(todoMoveUp{it.ID}), "↑"),
		vdom.Button(vdom.Class("remove"), vdom.OnClick(todoRemove{it.ID}), "×"),
	)
}
