package dom

import "github.com/vango-dev/morph/pkg/vdom"

// NodeID identifies a live node within one Document. The zero value means
// "no node".
type NodeID uint64

// None is the absent node.
const None NodeID = 0

// NodeType is the kind of a live node.
type NodeType uint8

const (
	InvalidNode NodeType = iota
	ElementNode
	TextNode
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	default:
		return "Invalid"
	}
}

// Listener receives events for the node it was attached to.
type Listener func(target NodeID, ev vdom.Event)

// Document is the host a reconciler mutates.
//
// Queries on an unknown node return zero values. Mutations on an unknown
// node are ignored.
type Document interface {
	CreateElement(namespace, tag string) NodeID
	CreateTextNode(content string) NodeID

	AppendChild(parent, child NodeID)
	InsertBefore(parent, child, anchor NodeID)
	ReplaceChild(parent, newChild, oldChild NodeID)
	RemoveChild(parent, child NodeID)

	NodeType(n NodeID) NodeType
	LocalName(n NodeID) string
	NamespaceURI(n NodeID) string
	ParentNode(n NodeID) NodeID
	FirstChild(n NodeID) NodeID
	NextSibling(n NodeID) NodeID

	TextContent(n NodeID) string
	SetTextContent(n NodeID, content string)

	AttributeNames(n NodeID) []string
	GetAttribute(n NodeID, name string) (string, bool)
	SetAttribute(n NodeID, name, value string)
	RemoveAttribute(n NodeID, name string)

	Property(n NodeID, name string) any
	SetProperty(n NodeID, name string, value any)
	SetInnerHTML(n NodeID, html string)

	// AddEventListener attaches l for the event type. Attaching again for
	// the same (node, type) replaces the listener.
	AddEventListener(n NodeID, eventType string, l Listener)
	RemoveEventListener(n NodeID, eventType string)
	HasEventListener(n NodeID, eventType string) bool

	// AssignedElements returns the light-DOM elements assigned to a slot.
	AssignedElements(slot NodeID) []NodeID
}

// Transitioner is implemented by hosts that can animate a batch of mutations.
type Transitioner interface {
	StartViewTransition(fn func())
}

// MicrotaskQueue is implemented by hosts that can defer work until the
// current synchronous pass has finished.
type MicrotaskQueue interface {
	QueueMicrotask(fn func())
}
