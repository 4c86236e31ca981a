package dom

import (
	"log/slog"

	"github.com/vango-dev/morph/pkg/vdom"
)

// nonBubbling lists event types delivered to their target only.
var nonBubbling = map[string]bool{
	"focus":      true,
	"blur":       true,
	"mouseenter": true,
	"mouseleave": true,
	"load":       true,
	"scroll":     true,
}

type attribute struct {
	name  string
	value string
}

type node struct {
	id   NodeID
	typ  NodeType
	ns   string
	tag  string
	text string

	attrs     []attribute
	props     map[string]any
	listeners map[string]Listener
	assigned  []NodeID

	parent      *node
	first, last *node
	prev, next  *node
}

// Memory is an in-memory Document. Every mutation is appended to a journal
// that transports drain after each pass.
//
// Removing or replacing a node destroys it and its subtree: their NodeIDs
// become invalid. Memory is not safe for concurrent use; it belongs to the
// goroutine that runs the reconciler.
type Memory struct {
	nodes      map[NodeID]*node
	lastID     NodeID
	journal    []Mutation
	microtasks []func()

	transitions int
	logger      *slog.Logger
}

// MemoryOption configures a Memory document.
type MemoryOption func(*Memory)

// WithMemoryLogger sets the logger used for ignored operations.
func WithMemoryLogger(l *slog.Logger) MemoryOption {
	return func(m *Memory) {
		m.logger = l
	}
}

// NewMemory creates an empty in-memory document.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		nodes:  make(map[NodeID]*node),
		logger: slog.Default().With("component", "dom"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) get(id NodeID) *node {
	if id == None {
		return nil
	}
	return m.nodes[id]
}

func (m *Memory) alloc(typ NodeType) *node {
	m.lastID++
	n := &node{id: m.lastID, typ: typ}
	m.nodes[n.id] = n
	return n
}

func (m *Memory) record(mut Mutation) {
	m.journal = append(m.journal, mut)
}

// Len returns the number of live nodes, attached or not.
func (m *Memory) Len() int {
	return len(m.nodes)
}

// Exists reports whether id names a live node.
func (m *Memory) Exists(id NodeID) bool {
	return m.get(id) != nil
}

// CreateElement creates a detached element.
func (m *Memory) CreateElement(namespace, tag string) NodeID {
	n := m.createElement(namespace, tag)
	m.record(Mutation{Op: MutCreateElement, Node: n.id, Namespace: n.ns, Tag: tag})
	return n.id
}

func (m *Memory) createElement(namespace, tag string) *node {
	if namespace == "" {
		namespace = vdom.NamespaceHTML
	}
	n := m.alloc(ElementNode)
	n.ns = namespace
	n.tag = tag
	return n
}

// CreateTextNode creates a detached text node.
func (m *Memory) CreateTextNode(content string) NodeID {
	n := m.alloc(TextNode)
	n.text = content
	m.record(Mutation{Op: MutCreateText, Node: n.id, Value: content})
	return n.id
}

// AppendChild moves child to the end of parent's children.
func (m *Memory) AppendChild(parent, child NodeID) {
	p, c := m.get(parent), m.get(child)
	if p == nil || c == nil || p.typ != ElementNode || isAncestor(c, p) {
		m.logger.Debug("append ignored", "parent", parent, "child", child)
		return
	}
	detach(c)
	link(p, c, nil)
	m.record(Mutation{Op: MutAppendChild, Node: child, Parent: parent})
}

// InsertBefore moves child in front of anchor. A missing anchor, or one
// that is not a child of parent, appends.
func (m *Memory) InsertBefore(parent, child, anchor NodeID) {
	p, c, a := m.get(parent), m.get(child), m.get(anchor)
	if p == nil || c == nil || p.typ != ElementNode || isAncestor(c, p) {
		m.logger.Debug("insert ignored", "parent", parent, "child", child)
		return
	}
	if a == nil || a.parent != p {
		m.AppendChild(parent, child)
		return
	}
	if a == c {
		return
	}
	detach(c)
	link(p, c, a)
	m.record(Mutation{Op: MutInsertBefore, Node: child, Parent: parent, Anchor: anchor})
}

// ReplaceChild puts newChild where oldChild was and destroys oldChild.
// The new node is inserted before the old one is removed.
func (m *Memory) ReplaceChild(parent, newChild, oldChild NodeID) {
	p, nc, oc := m.get(parent), m.get(newChild), m.get(oldChild)
	if p == nil || nc == nil || p.typ != ElementNode || isAncestor(nc, p) {
		m.logger.Debug("replace ignored", "parent", parent, "new", newChild, "old", oldChild)
		return
	}
	if oc == nil || oc.parent != p {
		m.AppendChild(parent, newChild)
		return
	}
	if nc == oc {
		return
	}
	detach(nc)
	link(p, nc, oc)
	detach(oc)
	m.destroy(oc)
	m.record(Mutation{Op: MutReplaceChild, Node: newChild, Parent: parent, Old: oldChild})
}

// RemoveChild detaches child from parent and destroys it.
func (m *Memory) RemoveChild(parent, child NodeID) {
	p, c := m.get(parent), m.get(child)
	if p == nil || c == nil || c.parent != p {
		m.logger.Debug("remove ignored", "parent", parent, "child", child)
		return
	}
	detach(c)
	m.destroy(c)
	m.record(Mutation{Op: MutRemoveChild, Node: child, Parent: parent})
}

// NodeType returns the type of n.
func (m *Memory) NodeType(id NodeID) NodeType {
	if n := m.get(id); n != nil {
		return n.typ
	}
	return InvalidNode
}

// LocalName returns the tag of an element.
func (m *Memory) LocalName(id NodeID) string {
	if n := m.get(id); n != nil {
		return n.tag
	}
	return ""
}

// NamespaceURI returns the namespace of an element.
func (m *Memory) NamespaceURI(id NodeID) string {
	if n := m.get(id); n != nil {
		return n.ns
	}
	return ""
}

// ParentNode returns the parent of n.
func (m *Memory) ParentNode(id NodeID) NodeID {
	if n := m.get(id); n != nil && n.parent != nil {
		return n.parent.id
	}
	return None
}

// FirstChild returns the first child of n.
func (m *Memory) FirstChild(id NodeID) NodeID {
	if n := m.get(id); n != nil && n.first != nil {
		return n.first.id
	}
	return None
}

// NextSibling returns the sibling following n.
func (m *Memory) NextSibling(id NodeID) NodeID {
	if n := m.get(id); n != nil && n.next != nil {
		return n.next.id
	}
	return None
}

// Children returns the children of n in order.
func (m *Memory) Children(id NodeID) []NodeID {
	n := m.get(id)
	if n == nil {
		return nil
	}
	var out []NodeID
	for c := n.first; c != nil; c = c.next {
		out = append(out, c.id)
	}
	return out
}

// TextContent returns the text of a text node, or the concatenated text of
// an element's descendants.
func (m *Memory) TextContent(id NodeID) string {
	n := m.get(id)
	if n == nil {
		return ""
	}
	if n.typ == TextNode {
		return n.text
	}
	var out []byte
	var walk func(*node)
	walk = func(x *node) {
		for c := x.first; c != nil; c = c.next {
			if c.typ == TextNode {
				out = append(out, c.text...)
			} else {
				walk(c)
			}
		}
	}
	walk(n)
	return string(out)
}

// SetTextContent sets the text of a text node. On an element it replaces
// all children with a single text node.
func (m *Memory) SetTextContent(id NodeID, content string) {
	n := m.get(id)
	if n == nil {
		return
	}
	if n.typ == TextNode {
		n.text = content
	} else {
		m.clearChildren(n)
		t := m.alloc(TextNode)
		t.text = content
		link(n, t, nil)
	}
	m.record(Mutation{Op: MutSetText, Node: id, Value: content})
}

// AttributeNames returns attribute names in insertion order.
func (m *Memory) AttributeNames(id NodeID) []string {
	n := m.get(id)
	if n == nil || len(n.attrs) == 0 {
		return nil
	}
	names := make([]string, len(n.attrs))
	for i, a := range n.attrs {
		names[i] = a.name
	}
	return names
}

// GetAttribute returns the value of an attribute.
func (m *Memory) GetAttribute(id NodeID, name string) (string, bool) {
	n := m.get(id)
	if n == nil {
		return "", false
	}
	for _, a := range n.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// SetAttribute sets an attribute, keeping its position when it exists.
func (m *Memory) SetAttribute(id NodeID, name, value string) {
	n := m.get(id)
	if n == nil || n.typ != ElementNode {
		return
	}
	found := false
	for i := range n.attrs {
		if n.attrs[i].name == name {
			n.attrs[i].value = value
			found = true
			break
		}
	}
	if !found {
		n.attrs = append(n.attrs, attribute{name: name, value: value})
	}
	m.record(Mutation{Op: MutSetAttribute, Node: id, Name: name, Value: value})
}

// RemoveAttribute removes an attribute if present.
func (m *Memory) RemoveAttribute(id NodeID, name string) {
	n := m.get(id)
	if n == nil {
		return
	}
	for i := range n.attrs {
		if n.attrs[i].name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			m.record(Mutation{Op: MutRemoveAttribute, Node: id, Name: name})
			return
		}
	}
}

// Property returns a live-object field, or nil.
func (m *Memory) Property(id NodeID, name string) any {
	if n := m.get(id); n != nil {
		return n.props[name]
	}
	return nil
}

// SetProperty sets a live-object field.
func (m *Memory) SetProperty(id NodeID, name string, value any) {
	n := m.get(id)
	if n == nil {
		return
	}
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[name] = value
	m.record(Mutation{Op: MutSetProperty, Node: id, Name: name, Prop: value})
}

// SetInnerHTML parses html and replaces the children of an element with the
// result. The raw string is kept as the innerHTML property.
func (m *Memory) SetInnerHTML(id NodeID, raw string) {
	n := m.get(id)
	if n == nil || n.typ != ElementNode {
		return
	}
	m.clearChildren(n)
	if err := m.parseInto(n, raw); err != nil {
		m.logger.Warn("innerHTML parse failed", "node", id, "error", err)
	}
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props["innerHTML"] = raw
	m.record(Mutation{Op: MutSetInnerHTML, Node: id, Value: raw})
}

// AddEventListener attaches l for eventType on n.
func (m *Memory) AddEventListener(id NodeID, eventType string, l Listener) {
	n := m.get(id)
	if n == nil || l == nil {
		return
	}
	if n.listeners == nil {
		n.listeners = make(map[string]Listener)
	}
	n.listeners[eventType] = l
	m.record(Mutation{Op: MutAddListener, Node: id, Name: eventType})
}

// RemoveEventListener detaches the listener for eventType on n.
func (m *Memory) RemoveEventListener(id NodeID, eventType string) {
	n := m.get(id)
	if n == nil {
		return
	}
	if _, ok := n.listeners[eventType]; !ok {
		return
	}
	delete(n.listeners, eventType)
	m.record(Mutation{Op: MutRemoveListener, Node: id, Name: eventType})
}

// HasEventListener reports whether n listens for eventType.
func (m *Memory) HasEventListener(id NodeID, eventType string) bool {
	n := m.get(id)
	if n == nil {
		return false
	}
	_, ok := n.listeners[eventType]
	return ok
}

// ListenerCount returns the number of event types n listens for.
func (m *Memory) ListenerCount(id NodeID) int {
	if n := m.get(id); n != nil {
		return len(n.listeners)
	}
	return 0
}

// Assign sets the light-DOM elements assigned to a slot.
func (m *Memory) Assign(slot NodeID, children ...NodeID) {
	if n := m.get(slot); n != nil {
		n.assigned = append([]NodeID(nil), children...)
	}
}

// AssignedElements returns the live elements assigned to a slot.
func (m *Memory) AssignedElements(slot NodeID) []NodeID {
	n := m.get(slot)
	if n == nil {
		return nil
	}
	out := make([]NodeID, 0, len(n.assigned))
	for _, id := range n.assigned {
		if c := m.get(id); c != nil && c.typ == ElementNode {
			out = append(out, id)
		}
	}
	return out
}

// DispatchEvent delivers ev to the listener on target and, for bubbling
// event types, to listeners on its ancestors. It reports whether any
// listener ran.
func (m *Memory) DispatchEvent(target NodeID, ev vdom.Event) bool {
	n := m.get(target)
	handled := false
	for n != nil {
		if l, ok := n.listeners[ev.Type]; ok {
			ev.Target = eventTarget{doc: m, id: n.id}
			l(n.id, ev)
			handled = true
		}
		if nonBubbling[ev.Type] {
			break
		}
		n = n.parent
	}
	return handled
}

// QueueMicrotask defers fn until FlushMicrotasks.
func (m *Memory) QueueMicrotask(fn func()) {
	m.microtasks = append(m.microtasks, fn)
}

// FlushMicrotasks runs queued microtasks, including ones queued while
// flushing, and returns how many ran.
func (m *Memory) FlushMicrotasks() int {
	ran := 0
	for len(m.microtasks) > 0 {
		fn := m.microtasks[0]
		m.microtasks = m.microtasks[1:]
		fn()
		ran++
	}
	return ran
}

// StartViewTransition runs fn synchronously and counts the transition.
func (m *Memory) StartViewTransition(fn func()) {
	m.transitions++
	fn()
}

// Transitions returns how many view transitions have started.
func (m *Memory) Transitions() int {
	return m.transitions
}

// Mutations returns a copy of the journal.
func (m *Memory) Mutations() []Mutation {
	return append([]Mutation(nil), m.journal...)
}

// TakeMutations drains the journal.
func (m *Memory) TakeMutations() []Mutation {
	out := m.journal
	m.journal = nil
	return out
}

// ResetMutations clears the journal.
func (m *Memory) ResetMutations() {
	m.journal = m.journal[:0]
}

func (m *Memory) clearChildren(n *node) {
	for c := n.first; c != nil; {
		next := c.next
		detach(c)
		m.destroy(c)
		c = next
	}
}

// destroy forgets a detached subtree.
func (m *Memory) destroy(n *node) {
	for c := n.first; c != nil; c = c.next {
		m.destroy(c)
	}
	delete(m.nodes, n.id)
}

// link inserts c under p before anchor (nil appends).
func link(p, c, anchor *node) {
	c.parent = p
	if anchor == nil {
		c.prev = p.last
		c.next = nil
		if p.last != nil {
			p.last.next = c
		} else {
			p.first = c
		}
		p.last = c
		return
	}
	c.next = anchor
	c.prev = anchor.prev
	if anchor.prev != nil {
		anchor.prev.next = c
	} else {
		p.first = c
	}
	anchor.prev = c
}

func detach(c *node) {
	p := c.parent
	if p == nil {
		return
	}
	if c.prev != nil {
		c.prev.next = c.next
	} else {
		p.first = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	} else {
		p.last = c.prev
	}
	c.parent, c.prev, c.next = nil, nil, nil
}

// isAncestor reports whether a is p or one of p's ancestors.
func isAncestor(a, p *node) bool {
	for x := p; x != nil; x = x.parent {
		if x == a {
			return true
		}
	}
	return false
}

type eventTarget struct {
	doc *Memory
	id  NodeID
}

func (t eventTarget) Attribute(name string) (string, bool) {
	return t.doc.GetAttribute(t.id, name)
}
