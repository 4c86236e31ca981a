package vdom

// VKind is the node type discriminator.
type VKind uint8

const (
	KindText    VKind = iota // Plain text node
	KindElement              // <div>, <button>, etc.
	KindLazy                 // Deferred subtree, forced before comparison
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindElement:
		return "Element"
	case KindLazy:
		return "Lazy"
	default:
		return "Unknown"
	}
}

// Well-known namespaces.
const (
	NamespaceHTML = "http://www.w3.org/1999/xhtml"
	NamespaceSVG  = "http://www.w3.org/2000/svg"
)

// VNode is an immutable description of one node of the UI tree.
//
// Only the fields relevant to Kind are meaningful:
//   - KindText uses Text.
//   - KindElement uses Key, Namespace, Tag, Attrs, Children, SelfClosing, Void.
//   - KindLazy uses Resolve.
type VNode struct {
	Kind        VKind
	Key         string // Reconciliation key, "" = unkeyed
	Namespace   string // "" means HTML
	Tag         string
	Attrs       []Attr
	Children    []*VNode
	Text        string
	SelfClosing bool
	Void        bool
	Resolve     func() *VNode
}

// IsKeyed reports whether the node carries a non-empty key.
func (v *VNode) IsKeyed() bool {
	return v != nil && v.Key != ""
}

// EffectiveNamespace returns the namespace an element is created in.
func (v *VNode) EffectiveNamespace() string {
	if v.Namespace == "" {
		return NamespaceHTML
	}
	return v.Namespace
}

// AttrKind discriminates the three attribute variants.
type AttrKind uint8

const (
	AttrPlain    AttrKind = iota // Set through the attribute-string API
	AttrProperty                 // Set as a live-object field
	AttrEvent                    // Event binding with a handler decoder
)

// String returns the string representation of the AttrKind.
func (k AttrKind) String() string {
	switch k {
	case AttrPlain:
		return "Plain"
	case AttrProperty:
		return "Property"
	case AttrEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// Attr is a single attribute, property or event binding.
// For AttrEvent, Name is the bare event name ("click", not "onclick").
type Attr struct {
	Kind    AttrKind
	Name    string
	Value   any
	Handler Decoder
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Name == ""
}

// StringValue returns the plain attribute value as a string.
func (a Attr) StringValue() string {
	if s, ok := a.Value.(string); ok {
		return s
	}
	if a.Value == nil {
		return ""
	}
	return propToString(a.Value)
}

// Force resolves Lazy wrappers until a concrete Text or Element remains.
// A Lazy that resolves to nil yields an empty text node.
func Force(n *VNode) *VNode {
	for n != nil && n.Kind == KindLazy {
		if n.Resolve == nil {
			return Text("")
		}
		n = n.Resolve()
	}
	if n == nil {
		return Text("")
	}
	return n
}

// ForceChildren returns the children of n with every Lazy child forced.
// The returned slice is freshly allocated; n is not modified.
func ForceChildren(n *VNode) []*VNode {
	if n == nil || len(n.Children) == 0 {
		return nil
	}
	out := make([]*VNode, 0, len(n.Children))
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		out = append(out, Force(c))
	}
	return out
}
