package morphtest_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vango-dev/morph/pkg/morphtest"
	"github.com/vango-dev/morph/pkg/runtime"
	"github.com/vango-dev/morph/pkg/vdom"
)

type (
	add    struct{}
	rename struct{ name string }
)

type list struct {
	Items []string `json:"items"`
	Name  string   `json:"name"`
}

func listApp() runtime.App[list] {
	return runtime.App[list]{
		Init: func() (list, runtime.Effect) { return list{Name: "item"}, nil },
		Update: func(m list, msg any) (list, runtime.Effect) {
			switch msg := msg.(type) {
			case add:
				m.Items = append(append([]string(nil), m.Items...), fmt.Sprintf("%s %d", m.Name, len(m.Items)+1))
			case rename:
				m.Name = msg.name
			}
			return m, nil
		},
		View: func(m list) *vdom.VNode {
			return vdom.Div(
				vdom.Input(vdom.Class("name"), vdom.Value(m.Name), vdom.OnInput(func(s string) any { return rename{s} })),
				vdom.Button(vdom.Class("add"), vdom.OnClick(add{}), "Add"),
				vdom.Ul(vdom.Range(m.Items, func(s string, _ int) *vdom.VNode {
					return vdom.Li(vdom.Class("entry"), s)
				})),
				vdom.Span(vdom.Class("empty"), vdom.Data("count", fmt.Sprint(len(m.Items)))),
			)
		},
	}
}

// recorder captures failures reported through testing.TB.
type recorder struct {
	testing.TB
	errors []string
}

func (r *recorder) Helper() {}

func (r *recorder) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func TestHarness_FireAndFind(t *testing.T) {
	h := morphtest.New(t, listApp())

	h.Input(h.Find("input.name"), "task")
	h.Click(h.Find(".add"))
	info := h.Click(h.Find("button.add"))

	if got := h.Model().Items; len(got) != 2 || got[1] != "task 2" {
		t.Fatalf("Items = %q", got)
	}
	if info.Messages != 1 {
		t.Errorf("Messages = %d, want 1", info.Messages)
	}
	if h.LastTick().Seq != info.Seq {
		t.Errorf("LastTick().Seq = %d, want %d", h.LastTick().Seq, info.Seq)
	}

	entries := h.All("li.entry")
	if len(entries) != 2 || h.Text(entries[0]) != "task 1" {
		t.Errorf("entries = %v", entries)
	}
	if len(h.AllIn(h.Find("ul"), "li")) != 2 {
		t.Error("AllIn(ul, li) should find both entries")
	}
	if h.Attr(h.Find(".empty"), "data-count") != "2" {
		t.Errorf("data-count = %q", h.Attr(h.Find(".empty"), "data-count"))
	}
	if h.Attr(h.Find(".empty"), "missing") != "" {
		t.Error("missing attribute should read as empty")
	}
	if len(h.All(".nope")) != 0 {
		t.Error("All should be empty for unmatched selectors")
	}

	morphtest.ExpectContains(t, h.HTML(), "<li class=\"entry\">task 2</li>")
	morphtest.ExpectNotContains(t, h.HTML(), "item 1")
	morphtest.ExpectAttribute(t, h, h.Find("span"), "data-count", "2")
}

func TestHarness_Dispatch(t *testing.T) {
	h := morphtest.New(t, listApp())

	h.Dispatch(rename{"x"})
	h.Dispatch(add{})

	if got := h.Text(h.Find("li")); got != "x 1" {
		t.Errorf("li = %q", got)
	}
}

func TestHarness_SimulateRestart(t *testing.T) {
	h := morphtest.New(t, listApp())
	h.Dispatch(rename{"kept"})
	h.Dispatch(add{})
	doc := h.Doc

	h.SimulateRestart()

	if h.Doc == doc {
		t.Error("restart should render into a new document")
	}
	if got := h.Model(); got.Name != "kept" || len(got.Items) != 1 {
		t.Fatalf("Model after restart = %+v", got)
	}
	morphtest.ExpectContains(t, h.HTML(), "kept 1")

	h.Click(h.Find(".add"))
	if len(h.All("li")) != 2 {
		t.Error("restarted application should keep handling events")
	}
}

func TestHarness_FireWithoutListener(t *testing.T) {
	rec := &recorder{TB: t}
	h := morphtest.New(rec, listApp())

	h.Click(h.Find("ul"))

	if len(rec.errors) != 1 || !strings.Contains(rec.errors[0], "no listener") {
		t.Errorf("errors = %q", rec.errors)
	}
}

func TestExpectations_Report(t *testing.T) {
	rec := &recorder{TB: t}
	h := morphtest.New(t, listApp())

	morphtest.ExpectContains(rec, "<p>a</p>", "b")
	morphtest.ExpectNotContains(rec, "<p>a</p>", "a")
	morphtest.ExpectAttribute(rec, h, h.Find("span"), "data-count", "9")
	morphtest.ExpectAttribute(rec, h, h.Find("span"), "title", "x")

	if len(rec.errors) != 4 {
		t.Fatalf("errors = %q", rec.errors)
	}
	if !strings.Contains(rec.errors[3], "missing") {
		t.Errorf("missing attribute message = %q", rec.errors[3])
	}
}
