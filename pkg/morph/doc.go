// Package morph reconciles a live host tree against a VNode tree.
//
// Unlike a diff/patch pipeline there is no previous virtual tree: the live
// document is the only record of what was rendered. A pass walks the new
// VNode tree breadth-first with a worklist of (live node, vnode, parent)
// triples and issues the smallest set of host operations it can find:
//
//   - text nodes are updated in place when the content differs
//   - elements with the same tag and namespace are morphed; anything else
//     is replaced by a fresh node
//   - attributes set by a previous pass and absent from the new node are
//     removed
//   - keyed children (data-morph-key) are matched by key and moved rather
//     than recreated
//
// Event handlers live in a registry owned by the Reconciler. Each element
// gets one shared listener per event type; a later pass only swaps the
// callback the listener looks up, so rebinding never touches the host.
//
//	r := morph.New(doc, func(msg any, immediate bool) { ... })
//	root := r.Morph(dom.None, view(model), container)
//	root = r.Morph(root, view(next), container)
package morph
