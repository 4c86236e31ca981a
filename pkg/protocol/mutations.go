package protocol

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/vango-dev/morph/pkg/dom"
)

// MutationsFrame is one batch of host mutations, usually everything a
// single tick wrote to the server-side document. The client applies the
// batches in Seq order.
//
// Each mutation is encoded as its op byte and node id followed by
// op-specific fields:
//
//	CreateElement    namespace, tag
//	CreateText       value
//	AppendChild      parent
//	InsertBefore     parent, anchor
//	ReplaceChild     parent, old
//	RemoveChild      parent
//	SetText          value
//	SetAttribute     name, value
//	RemoveAttribute  name
//	SetProperty      name, JSON value
//	SetInnerHTML     value
//	AddListener      name
//	RemoveListener   name
//
// Node ids are varints, names and values length-prefixed strings.
type MutationsFrame struct {
	Seq       uint64
	Mutations []dom.Mutation
}

// EncodeMutations encodes mf as a frame payload. It fails only when a
// property value cannot be marshalled as JSON.
func EncodeMutations(mf *MutationsFrame) ([]byte, error) {
	e := NewEncoder()
	e.WriteUvarint(mf.Seq)
	e.WriteUvarint(uint64(len(mf.Mutations)))
	for i := range mf.Mutations {
		if err := encodeMutation(e, &mf.Mutations[i]); err != nil {
			return nil, err
		}
	}
	return e.Bytes(), nil
}

func encodeMutation(e *Encoder, m *dom.Mutation) error {
	e.WriteByte(byte(m.Op))
	e.WriteUvarint(uint64(m.Node))

	switch m.Op {
	case dom.MutCreateElement:
		e.WriteString(m.Namespace)
		e.WriteString(m.Tag)
	case dom.MutCreateText, dom.MutSetText, dom.MutSetInnerHTML:
		e.WriteString(m.Value)
	case dom.MutAppendChild, dom.MutRemoveChild:
		e.WriteUvarint(uint64(m.Parent))
	case dom.MutInsertBefore:
		e.WriteUvarint(uint64(m.Parent))
		e.WriteUvarint(uint64(m.Anchor))
	case dom.MutReplaceChild:
		e.WriteUvarint(uint64(m.Parent))
		e.WriteUvarint(uint64(m.Old))
	case dom.MutSetAttribute:
		e.WriteString(m.Name)
		e.WriteString(m.Value)
	case dom.MutRemoveAttribute, dom.MutAddListener, dom.MutRemoveListener:
		e.WriteString(m.Name)
	case dom.MutSetProperty:
		raw, err := json.Marshal(m.Prop)
		if err != nil {
			return fmt.Errorf("protocol: property %q on #%d: %w", m.Name, m.Node, err)
		}
		e.WriteString(m.Name)
		e.WriteLenBytes(raw)
	default:
		return fmt.Errorf("protocol: unknown mutation op 0x%02x", byte(m.Op))
	}
	return nil
}

// DecodeMutations decodes a mutations frame payload. Property values come
// back as their JSON decoding: numbers are float64, objects map[string]any.
func DecodeMutations(data []byte) (*MutationsFrame, error) {
	d := NewDecoder(data)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	mf := &MutationsFrame{Seq: seq, Mutations: make([]dom.Mutation, count)}
	for i := range mf.Mutations {
		if err := decodeMutation(d, &mf.Mutations[i]); err != nil {
			return nil, fmt.Errorf("mutation %d: %w", i, err)
		}
	}
	return mf, d.finish()
}

func readNode(d *Decoder) (dom.NodeID, error) {
	v, err := d.ReadUvarint()
	return dom.NodeID(v), err
}

func decodeMutation(d *Decoder, m *dom.Mutation) error {
	op, err := d.ReadByte()
	if err != nil {
		return err
	}
	m.Op = dom.MutationOp(op)
	if m.Node, err = readNode(d); err != nil {
		return err
	}

	switch m.Op {
	case dom.MutCreateElement:
		if m.Namespace, err = d.ReadString(); err != nil {
			return err
		}
		m.Tag, err = d.ReadString()
	case dom.MutCreateText, dom.MutSetText, dom.MutSetInnerHTML:
		m.Value, err = d.ReadString()
	case dom.MutAppendChild, dom.MutRemoveChild:
		m.Parent, err = readNode(d)
	case dom.MutInsertBefore:
		if m.Parent, err = readNode(d); err != nil {
			return err
		}
		m.Anchor, err = readNode(d)
	case dom.MutReplaceChild:
		if m.Parent, err = readNode(d); err != nil {
			return err
		}
		m.Old, err = readNode(d)
	case dom.MutSetAttribute:
		if m.Name, err = d.ReadString(); err != nil {
			return err
		}
		m.Value, err = d.ReadString()
	case dom.MutRemoveAttribute, dom.MutAddListener, dom.MutRemoveListener:
		m.Name, err = d.ReadString()
	case dom.MutSetProperty:
		if m.Name, err = d.ReadString(); err != nil {
			return err
		}
		var raw []byte
		if raw, err = d.ReadLenBytes(); err != nil {
			return err
		}
		err = json.Unmarshal(raw, &m.Prop)
	default:
		return fmt.Errorf("protocol: unknown mutation op 0x%02x", op)
	}
	return err
}
