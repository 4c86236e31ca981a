package demo

import (
	"strconv"

	"github.com/vango-dev/morph/pkg/runtime"
	"github.com/vango-dev/morph/pkg/vdom"
)

// CounterModel is the state of the counter application.
type CounterModel struct {
	Count int `json:"count"`
	Step  int `json:"step"`
}

type (
	counterIncrement struct{}
	counterDecrement struct{}
	counterReset     struct{}
	counterStep      struct{ value string }
)

// Counter is a counter with a configurable step.
func Counter() runtime.App[CounterModel] {
	return runtime.App[CounterModel]{
		Init: func() (CounterModel, runtime.Effect) {
			return CounterModel{Step: 1}, runtime.None()
		},
		Update: updateCounter,
		View:   viewCounter,
	}
}

func updateCounter(m CounterModel, msg any) (CounterModel, runtime.Effect) {
	switch msg := msg.(type) {
	case counterIncrement:
		m.Count += m.Step
	case counterDecrement:
		m.Count -= m.Step
	case counterReset:
		m.Count = 0
	case counterStep:
		// Ignore input that is not a positive number.
		if n, err := strconv.Atoi(msg.value); err == nil && n > 0 {
			m.Step = n
		}
	}
	return m, runtime.None()
}

func viewCounter(m CounterModel) *vdom.VNode {
	return vdom.Div(vdom.Class("counter"),
		vdom.Button(vdom.OnClick(counterDecrement{}), "-"),
		vdom.Span(vdom.Class("count"), vdom.Textf("%d", m.Count)),
		vdom.Button(vdom.OnClick(counterIncrement{}), "+"),
		vdom.Label(
			"Step ",
			vdom.Input(
				vdom.Type("number"),
				vdom.Value(strconv.Itoa(m.Step)),
				vdom.OnInput(func(s string) any { return counterStep{s} }),
			),
		),
		vdom.If(m.Count != 0, vdom.Button(vdom.Class("reset"), vdom.OnClick(counterReset{}), "Reset")),
	)
}
