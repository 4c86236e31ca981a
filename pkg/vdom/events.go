package vdom

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ErrDecode is returned by decoders that cannot produce a message from an event.
var ErrDecode = errors.New("vdom: event decode failed")

// EventTarget gives decoders read access to the element an event was bound on.
type EventTarget interface {
	Attribute(name string) (string, bool)
}

// Event is a raw host event as seen by handler decoders.
type Event struct {
	Type    string         // "click", "input", ...
	Value   string         // target.value for form controls
	Checked bool           // target.checked for checkboxes
	Key     string         // KeyboardEvent.key
	Detail  map[string]any // free-form payload (custom events, pointer data)
	Target  EventTarget    // current target, may be nil
}

// Decoder turns a raw host event into an application message.
type Decoder func(ev Event) (any, error)

// Succeed returns a decoder that always yields msg.
func Succeed(msg any) Decoder {
	return func(Event) (any, error) { return msg, nil }
}

// Fail returns a decoder that always fails with err.
func Fail(err error) Decoder {
	if err == nil {
		err = ErrDecode
	}
	return func(Event) (any, error) { return nil, err }
}

// Map transforms the message produced by d.
func Map(d Decoder, fn func(any) any) Decoder {
	return func(ev Event) (any, error) {
		msg, err := d(ev)
		if err != nil {
			return nil, err
		}
		return fn(msg), nil
	}
}

// TargetValue decodes target.value and hands it to fn.
func TargetValue(fn func(string) any) Decoder {
	return func(ev Event) (any, error) { return fn(ev.Value), nil }
}

// TargetChecked decodes target.checked and hands it to fn.
func TargetChecked(fn func(bool) any) Decoder {
	return func(ev Event) (any, error) { return fn(ev.Checked), nil }
}

// KeyName decodes the keyboard key. Events without a key fail to decode.
func KeyName(fn func(string) any) Decoder {
	return func(ev Event) (any, error) {
		if ev.Key == "" {
			return nil, fmt.Errorf("%w: %s event has no key", ErrDecode, ev.Type)
		}
		return fn(ev.Key), nil
	}
}

// DetailInto decodes the event detail map into a T using mapstructure tags.
func DetailInto[T any](fn func(T) any) Decoder {
	return func(ev Event) (any, error) {
		var out T
		if ev.Detail == nil {
			return nil, fmt.Errorf("%w: %s event has no detail", ErrDecode, ev.Type)
		}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &out,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(ev.Detail); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return fn(out), nil
	}
}

// On binds a decoder to an arbitrary event name.
func On(name string, decoder Decoder) Attr {
	return Attr{Kind: AttrEvent, Name: name, Handler: decoder}
}

// Mouse events

// OnClick dispatches msg on click.
func OnClick(msg any) Attr { return On("click", Succeed(msg)) }

// OnDblClick dispatches msg on dblclick.
func OnDblClick(msg any) Attr { return On("dblclick", Succeed(msg)) }

// OnMouseEnter dispatches msg on mouseenter.
func OnMouseEnter(msg any) Attr { return On("mouseenter", Succeed(msg)) }

// OnMouseLeave dispatches msg on mouseleave.
func OnMouseLeave(msg any) Attr { return On("mouseleave", Succeed(msg)) }

// Form events

// OnInput hands the current target value to fn on every input event.
func OnInput(fn func(string) any) Attr { return On("input", TargetValue(fn)) }

// OnChange hands the committed target value to fn.
func OnChange(fn func(string) any) Attr { return On("change", TargetValue(fn)) }

// OnCheck hands the checked state to fn.
func OnCheck(fn func(bool) any) Attr { return On("change", TargetChecked(fn)) }

// OnSubmit dispatches msg on form submission.
func OnSubmit(msg any) Attr { return On("submit", Succeed(msg)) }

// OnFocus dispatches msg on focus.
func OnFocus(msg any) Attr { return On("focus", Succeed(msg)) }

// OnBlur dispatches msg on blur.
func OnBlur(msg any) Attr { return On("blur", Succeed(msg)) }

// Keyboard events

// OnKeyDown hands the pressed key to fn.
func OnKeyDown(fn func(string) any) Attr { return On("keydown", KeyName(fn)) }

// OnKeyUp hands the released key to fn.
func OnKeyUp(fn func(string) any) Attr { return On("keyup", KeyName(fn)) }
