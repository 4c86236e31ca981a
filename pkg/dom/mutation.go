package dom

import "fmt"

// MutationOp is the type of a recorded host mutation.
type MutationOp uint8

const (
	MutCreateElement   MutationOp = 0x01 // Node created (Namespace, Tag)
	MutCreateText      MutationOp = 0x02 // Text node created (Value)
	MutAppendChild     MutationOp = 0x03 // Node appended to Parent
	MutInsertBefore    MutationOp = 0x04 // Node inserted into Parent before Anchor
	MutReplaceChild    MutationOp = 0x05 // Node replaces Old under Parent
	MutRemoveChild     MutationOp = 0x06 // Node removed from Parent
	MutSetText         MutationOp = 0x07 // Text content set (Value)
	MutSetAttribute    MutationOp = 0x08 // Attribute Name set to Value
	MutRemoveAttribute MutationOp = 0x09 // Attribute Name removed
	MutSetProperty     MutationOp = 0x0A // Property Name set to Prop
	MutSetInnerHTML    MutationOp = 0x0B // Raw HTML (Value) replaced children
	MutAddListener     MutationOp = 0x0C // Listener for Name attached
	MutRemoveListener  MutationOp = 0x0D // Listener for Name detached
)

// String returns the string representation of the MutationOp.
func (op MutationOp) String() string {
	switch op {
	case MutCreateElement:
		return "CreateElement"
	case MutCreateText:
		return "CreateText"
	case MutAppendChild:
		return "AppendChild"
	case MutInsertBefore:
		return "InsertBefore"
	case MutReplaceChild:
		return "ReplaceChild"
	case MutRemoveChild:
		return "RemoveChild"
	case MutSetText:
		return "SetText"
	case MutSetAttribute:
		return "SetAttribute"
	case MutRemoveAttribute:
		return "RemoveAttribute"
	case MutSetProperty:
		return "SetProperty"
	case MutSetInnerHTML:
		return "SetInnerHTML"
	case MutAddListener:
		return "AddListener"
	case MutRemoveListener:
		return "RemoveListener"
	default:
		return "Unknown"
	}
}

// IsStructural reports whether the op changes the shape of the tree.
func (op MutationOp) IsStructural() bool {
	switch op {
	case MutAppendChild, MutInsertBefore, MutReplaceChild, MutRemoveChild, MutSetInnerHTML:
		return true
	}
	return false
}

// Mutation is one recorded host mutation.
type Mutation struct {
	Op        MutationOp
	Node      NodeID
	Parent    NodeID
	Anchor    NodeID // InsertBefore
	Old       NodeID // ReplaceChild
	Namespace string // CreateElement
	Tag       string // CreateElement
	Name      string // attribute, property or event name
	Value     string // text, attribute value or raw HTML
	Prop      any    // SetProperty
}

// String renders the mutation for logs and test failures.
func (m Mutation) String() string {
	switch m.Op {
	case MutCreateElement:
		return fmt.Sprintf("%s(#%d <%s>)", m.Op, m.Node, m.Tag)
	case MutCreateText:
		return fmt.Sprintf("%s(#%d %q)", m.Op, m.Node, m.Value)
	case MutAppendChild, MutRemoveChild:
		return fmt.Sprintf("%s(#%d -> #%d)", m.Op, m.Node, m.Parent)
	case MutInsertBefore:
		return fmt.Sprintf("%s(#%d -> #%d before #%d)", m.Op, m.Node, m.Parent, m.Anchor)
	case MutReplaceChild:
		return fmt.Sprintf("%s(#%d for #%d in #%d)", m.Op, m.Node, m.Old, m.Parent)
	case MutSetText, MutSetInnerHTML:
		return fmt.Sprintf("%s(#%d %q)", m.Op, m.Node, m.Value)
	case MutSetAttribute:
		return fmt.Sprintf("%s(#%d %s=%q)", m.Op, m.Node, m.Name, m.Value)
	case MutSetProperty:
		return fmt.Sprintf("%s(#%d %s=%v)", m.Op, m.Node, m.Name, m.Prop)
	default:
		return fmt.Sprintf("%s(#%d %s)", m.Op, m.Node, m.Name)
	}
}

// CountOps tallies mutations by op.
func CountOps(muts []Mutation) map[MutationOp]int {
	counts := make(map[MutationOp]int)
	for _, m := range muts {
		counts[m.Op]++
	}
	return counts
}
