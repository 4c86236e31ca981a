package dom

import (
	"bytes"
	"io"
	"strings"

	"github.com/vango-dev/morph/pkg/vdom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const namespaceMathML = "http://www.w3.org/1998/Math/MathML"

// OuterHTML serializes n and its subtree.
func (m *Memory) OuterHTML(id NodeID) string {
	n := m.get(id)
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := m.Render(&buf, id); err != nil {
		return ""
	}
	return buf.String()
}

// InnerHTML serializes the children of n.
func (m *Memory) InnerHTML(id NodeID) string {
	n := m.get(id)
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := n.first; c != nil; c = c.next {
		if err := html.Render(&buf, toHTML(c)); err != nil {
			return ""
		}
	}
	return buf.String()
}

// Render writes the HTML serialization of n to w.
func (m *Memory) Render(w io.Writer, id NodeID) error {
	n := m.get(id)
	if n == nil {
		return nil
	}
	return html.Render(w, toHTML(n))
}

func toHTML(n *node) *html.Node {
	if n.typ == TextNode {
		return &html.Node{Type: html.TextNode, Data: n.text}
	}
	out := &html.Node{
		Type:      html.ElementNode,
		Data:      n.tag,
		DataAtom:  atom.Lookup([]byte(n.tag)),
		Namespace: shortNamespace(n.ns),
	}
	for _, a := range n.attrs {
		out.Attr = append(out.Attr, html.Attribute{Key: a.name, Val: a.value})
	}
	for c := n.first; c != nil; c = c.next {
		out.AppendChild(toHTML(c))
	}
	return out
}

// parseInto parses raw as a fragment in the context of n and links the
// resulting nodes under n. Comments and doctypes are dropped.
func (m *Memory) parseInto(n *node, raw string) error {
	context := &html.Node{
		Type:      html.ElementNode,
		Data:      n.tag,
		DataAtom:  atom.Lookup([]byte(n.tag)),
		Namespace: shortNamespace(n.ns),
	}
	frags, err := html.ParseFragment(strings.NewReader(raw), context)
	if err != nil {
		return err
	}
	for _, f := range frags {
		if c := m.fromHTML(f); c != nil {
			link(n, c, nil)
		}
	}
	return nil
}

func (m *Memory) fromHTML(h *html.Node) *node {
	switch h.Type {
	case html.TextNode:
		t := m.alloc(TextNode)
		t.text = h.Data
		return t
	case html.ElementNode:
		el := m.createElement(longNamespace(h.Namespace), h.Data)
		for _, a := range h.Attr {
			el.attrs = append(el.attrs, attribute{name: a.Key, value: a.Val})
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if child := m.fromHTML(c); child != nil {
				link(el, child, nil)
			}
		}
		return el
	}
	return nil
}

func shortNamespace(ns string) string {
	switch ns {
	case vdom.NamespaceSVG:
		return "svg"
	case namespaceMathML:
		return "math"
	}
	return ""
}

func longNamespace(short string) string {
	switch short {
	case "svg":
		return vdom.NamespaceSVG
	case "math":
		return namespaceMathML
	}
	return vdom.NamespaceHTML
}
