package morph

import (
	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/vdom"
)

// reconcileChildren pairs the live children of el with children and queues
// each pair. Live children left over at the end are removed.
//
// A list is diffed by key when its first child is keyed. Unkeyed entries
// in a keyed list pair with unkeyed live nodes at the same position.
func (r *Reconciler) reconcileChildren(el dom.NodeID, children []*vdom.VNode, canMorph bool, queue *[]work) {
	prevChild := r.doc.FirstChild(el)
	keyed := len(children) > 0 && children[0].IsKeyed()
	if keyed {
		children = r.dropDuplicateKeys(el, children)
	}

	if canMorph && keyed {
		kd := &keyedDiff{
			r:        r,
			el:       el,
			queue:    queue,
			incoming: incomingKeys(children),
			live:     r.liveKeys(el),
		}
		for _, child := range children {
			prevChild = kd.step(prevChild, child)
		}
	} else {
		for _, child := range children {
			*queue = append(*queue, work{prev: prevChild, next: child, parent: el})
			if prevChild != dom.None {
				prevChild = r.doc.NextSibling(prevChild)
			}
		}
	}

	for prevChild != dom.None {
		next := r.doc.NextSibling(prevChild)
		r.remove(el, prevChild)
		prevChild = next
	}
}

// dropDuplicateKeys returns children with every repeated key after the
// first cleared. Each repeat is logged and counted.
func (r *Reconciler) dropDuplicateKeys(el dom.NodeID, children []*vdom.VNode) []*vdom.VNode {
	seen := make(map[string]bool, len(children))
	out, copied := children, false
	for i, c := range children {
		if c.Key == "" {
			continue
		}
		if !seen[c.Key] {
			seen[c.Key] = true
			continue
		}
		r.logger.Warn("duplicate key in sibling list", "key", c.Key, "parent", el)
		r.stats.DuplicateKeys++
		if !copied {
			out, copied = append([]*vdom.VNode(nil), children...), true
		}
		unkeyed := *c
		unkeyed.Key = ""
		out[i] = &unkeyed
	}
	return out
}

func incomingKeys(children []*vdom.VNode) map[string]bool {
	keys := make(map[string]bool, len(children))
	for _, c := range children {
		if c.Key != "" {
			keys[c.Key] = true
		}
	}
	return keys
}

// liveKeys maps the key attribute of each live child of el to that child.
func (r *Reconciler) liveKeys(el dom.NodeID) map[string]dom.NodeID {
	keys := make(map[string]dom.NodeID)
	for c := r.doc.FirstChild(el); c != dom.None; c = r.doc.NextSibling(c) {
		if key, ok := r.doc.GetAttribute(c, vdom.KeyAttr); ok && key != "" {
			keys[key] = c
		}
	}
	return keys
}

// keyedDiff holds the state of one keyed sibling walk.
type keyedDiff struct {
	r        *Reconciler
	el       dom.NodeID
	queue    *[]work
	incoming map[string]bool
	live     map[string]dom.NodeID
}

func (kd *keyedDiff) push(prev dom.NodeID, next *vdom.VNode) {
	*kd.queue = append(*kd.queue, work{prev: prev, next: next, parent: kd.el})
}

// step places child relative to the live pointer prevChild and returns the
// pointer for the next child. The pointer only advances past live nodes
// that were matched in place; moved nodes and placeholders are inserted
// before it.
func (kd *keyedDiff) step(prevChild dom.NodeID, child *vdom.VNode) dom.NodeID {
	r := kd.r
	doc := r.doc

	prevKey := ""
	for prevChild != dom.None {
		prevKey, _ = doc.GetAttribute(prevChild, vdom.KeyAttr)
		if prevKey != "" && kd.incoming[prevKey] {
			break
		}
		if prevKey == "" && child.Key == "" {
			break
		}
		next := doc.NextSibling(prevChild)
		r.remove(kd.el, prevChild)
		prevChild = next
	}

	if len(kd.live) == 0 {
		kd.push(prevChild, child)
		if prevChild != dom.None {
			return doc.NextSibling(prevChild)
		}
		return dom.None
	}

	if child.Key == "" {
		if prevChild != dom.None && prevKey == "" {
			kd.push(prevChild, child)
			return doc.NextSibling(prevChild)
		}
		return kd.insert(prevChild, child)
	}

	match, ok := kd.live[child.Key]
	if !ok {
		return kd.insert(prevChild, child)
	}

	if match == prevChild {
		kd.push(prevChild, child)
		return doc.NextSibling(prevChild)
	}

	doc.InsertBefore(kd.el, match, prevChild)
	r.stats.Moved++
	kd.push(match, child)
	return prevChild
}

// insert queues child as a new node in front of prevChild. A placeholder
// text node reserves the position; without a pointer the child is appended.
func (kd *keyedDiff) insert(prevChild dom.NodeID, child *vdom.VNode) dom.NodeID {
	if prevChild == dom.None {
		kd.push(dom.None, child)
		return dom.None
	}
	placeholder := kd.r.doc.CreateTextNode("")
	kd.r.doc.InsertBefore(kd.el, placeholder, prevChild)
	kd.r.stats.Placeholders++
	kd.push(placeholder, child)
	return prevChild
}
