package demo

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/morph/pkg/runtime"
	"github.com/vango-dev/morph/pkg/vdom"
)

// NotesModel is the state of the notes application.
type NotesModel struct {
	Text  string `json:"text"`
	Saves int    `json:"saves"`
	Saved string `json:"saved"`
}

type notesEdit struct{ value string }

// SaveTag tags the server event raised by the notes save button.
const SaveTag = "notes.save"

// Notes edits a textarea and renders a preview of it as raw HTML. The save
// button is bound as a server event and emits "saved" when handled.
func Notes() runtime.App[NotesModel] {
	return runtime.App[NotesModel]{
		Init: func() (NotesModel, runtime.Effect) {
			return NotesModel{}, runtime.None()
		},
		Update: updateNotes,
		View:   viewNotes,
	}
}

func updateNotes(m NotesModel, msg any) (NotesModel, runtime.Effect) {
	switch msg := msg.(type) {
	case notesEdit:
		m.Text = msg.value
	case vdom.ServerEventMsg:
		if msg.Tag != SaveTag {
			break
		}
		m.Saves++
		m.Saved = m.Text
		saves := m.Saves
		return m, func(ctx runtime.EffectContext) {
			ctx.Emit("saved", map[string]any{"saves": saves})
		}
	}
	return m, runtime.None()
}

func viewNotes(m NotesModel) *vdom.VNode {
	return vdom.Div(vdom.Class("notes"),
		vdom.Textarea(
			vdom.Name("text"),
			vdom.Value(m.Text),
			vdom.OnInput(func(s string) any { return notesEdit{s} }),
		),
		vdom.Button(vdom.OnServer("click", SaveTag, map[string]any{"source": "button"}), "Save"),
		vdom.Div(vdom.Class("preview"), vdom.DangerousHTML(renderPreview(m.Text))),
		vdom.P(vdom.Class("status"), vdom.Textf("saved %d times", m.Saves)),
	)
}

// renderPreview turns blank-line separated text into escaped paragraphs.
func renderPreview(text string) string {
	var b strings.Builder
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(line)
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
