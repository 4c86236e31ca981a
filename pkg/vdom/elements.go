package vdom

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// Element creates an HTML element node.
// Arguments can be: nil, Attr, []Attr, *VNode, []*VNode, string.
// A Key attribute sets the node key instead of becoming an attribute.
func Element(tag string, args ...any) *VNode {
	return createElement("", tag, args)
}

// ElementNS creates an element in the given namespace.
func ElementNS(namespace, tag string, args ...any) *VNode {
	return createElement(namespace, tag, args)
}

// createElement creates a new VNode with the given namespace, tag and arguments.
func createElement(namespace, tag string, args []any) *VNode {
	node := &VNode{
		Kind:      KindElement,
		Namespace: namespace,
		Tag:       tag,
		Void:      namespace == "" && voidElements[tag],
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue

		case Attr:
			addAttr(node, v)

		case []Attr:
			for _, a := range v {
				addAttr(node, a)
			}

		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}

		case []*VNode:
			for _, c := range v {
				if c != nil {
					node.Children = append(node.Children, c)
				}
			}

		case string:
			node.Children = append(node.Children, Text(v))
		}
	}

	if node.Void {
		node.Children = nil
	}
	return node
}

func addAttr(node *VNode, a Attr) {
	if a.IsEmpty() {
		return
	}
	if a.Kind == AttrPlain && a.Name == "key" {
		node.Key = a.StringValue()
		return
	}
	node.Attrs = append(node.Attrs, a)
}

// Document structure

// Div creates a <div> element.
func Div(args ...any) *VNode { return Element("div", args...) }

// Span creates a <span> element.
func Span(args ...any) *VNode { return Element("span", args...) }

// P creates a <p> element.
func P(args ...any) *VNode { return Element("p", args...) }

// Section creates a <section> element.
func Section(args ...any) *VNode { return Element("section", args...) }

// Header creates a <header> element.
func Header(args ...any) *VNode { return Element("header", args...) }

// Footer creates a <footer> element.
func Footer(args ...any) *VNode { return Element("footer", args...) }

// Main creates a <main> element.
func Main(args ...any) *VNode { return Element("main", args...) }

// Nav creates a <nav> element.
func Nav(args ...any) *VNode { return Element("nav", args...) }

// H1 creates an <h1> element.
func H1(args ...any) *VNode { return Element("h1", args...) }

// H2 creates an <h2> element.
func H2(args ...any) *VNode { return Element("h2", args...) }

// H3 creates an <h3> element.
func H3(args ...any) *VNode { return Element("h3", args...) }

// Lists

// Ul creates a <ul> element.
func Ul(args ...any) *VNode { return Element("ul", args...) }

// Ol creates an <ol> element.
func Ol(args ...any) *VNode { return Element("ol", args...) }

// Li creates an <li> element.
func Li(args ...any) *VNode { return Element("li", args...) }

// Inline

// A creates an <a> element.
func A(args ...any) *VNode { return Element("a", args...) }

// Strong creates a <strong> element.
func Strong(args ...any) *VNode { return Element("strong", args...) }

// Em creates an <em> element.
func Em(args ...any) *VNode { return Element("em", args...) }

// Code creates a <code> element.
func Code(args ...any) *VNode { return Element("code", args...) }

// Pre creates a <pre> element.
func Pre(args ...any) *VNode { return Element("pre", args...) }

// Br creates a <br> element.
func Br(args ...any) *VNode { return Element("br", args...) }

// Hr creates an <hr> element.
func Hr(args ...any) *VNode { return Element("hr", args...) }

// Img creates an <img> element.
func Img(args ...any) *VNode { return Element("img", args...) }

// Forms

// Form creates a <form> element.
func Form(args ...any) *VNode { return Element("form", args...) }

// Button creates a <button> element.
func Button(args ...any) *VNode { return Element("button", args...) }

// Input creates an <input> element.
func Input(args ...any) *VNode { return Element("input", args...) }

// Label creates a <label> element.
func Label(args ...any) *VNode { return Element("label", args...) }

// Textarea creates a <textarea> element. Its first text child is synced to
// the live value field on every morph.
func Textarea(args ...any) *VNode { return Element("textarea", args...) }

// Select creates a <select> element.
func Select(args ...any) *VNode { return Element("select", args...) }

// Option creates an <option> element.
func Option(args ...any) *VNode { return Element("option", args...) }

// Web components

// Slot creates a <slot> element. Delegate attributes on a slot are copied to
// its assigned light-DOM children after each morph.
func Slot(args ...any) *VNode { return Element("slot", args...) }

// SVG

// Svg creates an <svg> element in the SVG namespace.
func Svg(args ...any) *VNode { return ElementNS(NamespaceSVG, "svg", args...) }

// Circle creates a <circle> element in the SVG namespace.
func Circle(args ...any) *VNode { return ElementNS(NamespaceSVG, "circle", args...) }

// Path creates a <path> element in the SVG namespace.
func Path(args ...any) *VNode { return ElementNS(NamespaceSVG, "path", args...) }
