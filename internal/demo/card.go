package demo

import (
	"github.com/vango-dev/morph/pkg/runtime"
	"github.com/vango-dev/morph/pkg/vdom"
)

// CardModel is the state of the card application.
type CardModel struct {
	Theme    string `json:"theme"`
	Expanded bool   `json:"expanded"`
}

type (
	cardToggleTheme struct{}
	cardExpand      struct{ open bool }
)

// Card renders a slot that forwards its theme and expansion state to the
// elements assigned to it.
func Card() runtime.App[CardModel] {
	return runtime.App[CardModel]{
		Init: func() (CardModel, runtime.Effect) {
			return CardModel{Theme: "light"}, runtime.None()
		},
		Update: func(m CardModel, msg any) (CardModel, runtime.Effect) {
			switch msg := msg.(type) {
			case cardToggleTheme:
				if m.Theme == "light" {
					m.Theme = "dark"
				} else {
					m.Theme = "light"
				}
			case cardExpand:
				m.Expanded = msg.open
			}
			return m, runtime.None()
		},
		View: viewCard,
	}
}

func viewCard(m CardModel) *vdom.VNode {
	expanded := "false"
	if m.Expanded {
		expanded = "true"
	}
	return vdom.Div(vdom.Class("card"), vdom.Data("theme", m.Theme),
		vdom.Header(
			vdom.Button(vdom.Class("theme"), vdom.OnClick(cardToggleTheme{}), "Theme"),
			vdom.Label(
				vdom.Input(
					vdom.Type("checkbox"),
					vdom.Checked(m.Expanded),
					vdom.OnCheck(func(open bool) any { return cardExpand{open} }),
				),
				" Expanded",
			),
		),
		vdom.Slot(
			vdom.Name("body"),
			vdom.Delegate("data-theme", m.Theme),
			vdom.Delegate("aria-expanded", expanded),
		),
	)
}
