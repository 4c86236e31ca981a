package protocol

import (
	"github.com/goccy/go-json"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/vdom"
)

// Event is a host event captured by the client on a node the server
// created. The server replays it on its own document, where it bubbles to
// the bound listener exactly as it did in the browser.
//
// Wire format:
//
//	[Seq: varint][Node: varint][Type: string][Value: string]
//	[Checked: bool][Key: string][Detail: JSON bytes, empty for none]
type Event struct {
	Seq     uint64
	Node    dom.NodeID
	Type    string
	Value   string
	Checked bool
	Key     string
	Detail  map[string]any
}

// VDOM converts e into the event handed to listeners.
func (e *Event) VDOM() vdom.Event {
	return vdom.Event{
		Type:    e.Type,
		Value:   e.Value,
		Checked: e.Checked,
		Key:     e.Key,
		Detail:  e.Detail,
	}
}

// EncodeEvent encodes ev as a frame payload.
func EncodeEvent(ev *Event) ([]byte, error) {
	var detail []byte
	if len(ev.Detail) > 0 {
		var err error
		if detail, err = json.Marshal(ev.Detail); err != nil {
			return nil, err
		}
	}
	e := NewEncoder()
	e.WriteUvarint(ev.Seq)
	e.WriteUvarint(uint64(ev.Node))
	e.WriteString(ev.Type)
	e.WriteString(ev.Value)
	e.WriteBool(ev.Checked)
	e.WriteString(ev.Key)
	e.WriteLenBytes(detail)
	return e.Bytes(), nil
}

// DecodeEvent decodes an event frame payload.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	ev := &Event{}
	var err error
	if ev.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if ev.Node, err = readNode(d); err != nil {
		return nil, err
	}
	if ev.Type, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Value, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Checked, err = d.ReadBool(); err != nil {
		return nil, err
	}
	if ev.Key, err = d.ReadString(); err != nil {
		return nil, err
	}
	detail, err := d.ReadLenBytes()
	if err != nil {
		return nil, err
	}
	if len(detail) > 0 {
		if err := json.Unmarshal(detail, &ev.Detail); err != nil {
			return nil, err
		}
	}
	return ev, d.finish()
}
