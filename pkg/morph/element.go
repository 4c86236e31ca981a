package morph

import (
	"strings"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/vdom"
)

// morphElement realizes an element, reusing prev when tag and namespace
// match, and queues its children.
func (r *Reconciler) morphElement(prev dom.NodeID, next *vdom.VNode, parent dom.NodeID, queue *[]work) dom.NodeID {
	namespace := next.EffectiveNamespace()
	canMorph := prev != dom.None &&
		r.doc.NodeType(prev) == dom.ElementNode &&
		r.doc.LocalName(prev) == next.Tag &&
		r.doc.NamespaceURI(prev) == namespace

	el := prev
	if !canMorph {
		el = r.doc.CreateElement(namespace, next.Tag)
		r.stats.Created++
		if prev == dom.None {
			r.doc.AppendChild(parent, el)
		} else {
			r.replace(parent, el, prev)
		}
	}

	children := vdom.ForceChildren(next)
	res := r.reconcileAttrs(el, next, canMorph)

	if canMorph && next.Tag == "textarea" && len(children) > 0 && children[0].Kind == vdom.KindText {
		r.syncTextarea(el, children[0].Text)
	}

	if next.Tag == "slot" && len(res.delegated) > 0 {
		r.deferTask(func() { r.propagateDelegated(el, res.delegated) })
	}

	if res.hasInnerHTML {
		if current, _ := r.doc.Property(el, "innerHTML").(string); !canMorph || current != res.innerHTML {
			r.releaseChildren(el)
			r.doc.SetInnerHTML(el, res.innerHTML)
			r.stats.InnerHTMLWrites++
		}
		return el
	}
	if canMorph && r.doc.Property(el, "innerHTML") != nil {
		r.doc.SetProperty(el, "innerHTML", nil)
		r.stats.PropWrites++
	}

	r.reconcileChildren(el, children, canMorph, queue)
	return el
}

// attrResult carries what the attribute pass found besides host writes.
type attrResult struct {
	innerHTML    string
	hasInnerHTML bool
	delegated    [][2]string
}

// reconcileAttrs applies next's attributes, properties and event bindings
// to el. When morphing, anything set by a previous pass that next no
// longer names is removed afterwards.
func (r *Reconciler) reconcileAttrs(el dom.NodeID, next *vdom.VNode, canMorph bool) attrResult {
	var res attrResult

	var stale map[string]bool
	var staleHandlers map[string]bool
	var order []string
	if canMorph {
		order = r.doc.AttributeNames(el)
		stale = make(map[string]bool, len(order))
		for _, name := range order {
			stale[name] = true
		}
		staleHandlers = make(map[string]bool)
		for name := range r.handlers[el] {
			staleHandlers[name] = true
		}
	}

	var className, style strings.Builder
	hasClass, hasStyle := false, false

	for _, a := range next.Attrs {
		switch a.Kind {
		case vdom.AttrProperty:
			if !valuesEqual(r.doc.Property(el, a.Name), a.Value) {
				r.doc.SetProperty(el, a.Name, a.Value)
				r.stats.PropWrites++
			}
			delete(stale, a.Name)

		case vdom.AttrEvent:
			r.bind(el, a.Name, r.callback(a.Handler, a.Name == "input"))
			delete(staleHandlers, a.Name)

		case vdom.AttrPlain:
			name, value := a.Name, a.StringValue()
			switch {
			case strings.HasPrefix(name, vdom.ServerEventPrefix):
				eventName := name[len(vdom.ServerEventPrefix):]
				r.bind(el, eventName, r.callback(vdom.ServerEvent, false))
				r.setAttr(el, name, value)
				delete(staleHandlers, eventName)
				delete(stale, name)

			case strings.HasPrefix(name, vdom.DelegatePrefix):
				r.setAttr(el, name, value)
				res.delegated = append(res.delegated, [2]string{name[len(vdom.DelegatePrefix):], value})
				delete(stale, name)

			case name == "class":
				if hasClass {
					className.WriteByte(' ')
				}
				className.WriteString(value)
				hasClass = true

			case name == "style":
				style.WriteString(value)
				hasStyle = true

			case name == vdom.InnerHTMLAttr:
				res.innerHTML = value
				res.hasInnerHTML = true

			default:
				r.setAttr(el, name, value)
				if name == "value" || name == "selected" {
					if r.doc.Property(el, name) != value {
						r.doc.SetProperty(el, name, value)
						r.stats.PropWrites++
					}
				}
				delete(stale, name)
			}
		}
	}

	if hasClass {
		r.setAttr(el, "class", className.String())
		delete(stale, "class")
	}
	if hasStyle {
		r.setAttr(el, "style", style.String())
		delete(stale, "style")
	}
	if next.Key != "" {
		r.setAttr(el, vdom.KeyAttr, next.Key)
		delete(stale, vdom.KeyAttr)
	}

	if canMorph {
		for _, name := range order {
			if stale[name] {
				r.doc.RemoveAttribute(el, name)
				r.stats.AttrRemovals++
			}
		}
		for name := range staleHandlers {
			r.unbind(el, name)
		}
	}
	return res
}

// setAttr writes an attribute only when its value changed.
func (r *Reconciler) setAttr(el dom.NodeID, name, value string) {
	if current, ok := r.doc.GetAttribute(el, name); ok && current == value {
		return
	}
	r.doc.SetAttribute(el, name, value)
	r.stats.AttrWrites++
}

// syncTextarea resets the value of a textarea the user may have edited.
// Until the value property is set it mirrors the text content.
func (r *Reconciler) syncTextarea(el dom.NodeID, text string) {
	current, ok := r.doc.Property(el, "value").(string)
	if !ok {
		current = r.doc.TextContent(el)
	}
	if current != text {
		r.doc.SetProperty(el, "value", text)
		r.stats.PropWrites++
	}
}

// propagateDelegated copies delegated attributes onto the elements
// currently assigned to slot, leaving attributes they already carry alone.
func (r *Reconciler) propagateDelegated(slot dom.NodeID, delegated [][2]string) {
	for _, child := range r.doc.AssignedElements(slot) {
		for _, d := range delegated {
			if _, ok := r.doc.GetAttribute(child, d[0]); !ok {
				r.doc.SetAttribute(child, d[0], d[1])
			}
		}
	}
}
