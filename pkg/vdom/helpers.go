package vdom

import "fmt"

// Text returns a text node holding content verbatim.
func Text(content string) *VNode {
	return &VNode{
		Kind: KindText,
		Text: content,
	}
}

// Textf is Text with fmt.Sprintf formatting.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// Lazy creates a deferred subtree. resolve runs when the reconciler reaches
// the node, never earlier.
func Lazy(resolve func() *VNode) *VNode {
	return &VNode{
		Kind:    KindLazy,
		Resolve: resolve,
	}
}

// Keyed returns node with its key set. Only elements carry keys: text
// nodes are returned unchanged, and lazy nodes are wrapped so the key is
// applied to the forced result.
func Keyed(key string, node *VNode) *VNode {
	if node == nil || node.Kind == KindText {
		return node
	}
	if node.Kind == KindLazy {
		inner := node
		return Lazy(func() *VNode {
			forced := Force(inner)
			if forced == nil || forced.Kind == KindText {
				return forced
			}
			cp := *forced
			cp.Key = key
			return &cp
		})
	}
	cp := *node
	cp.Key = key
	return &cp
}

// If yields node when cond holds. Nil children are skipped by element
// builders, so the result can be passed straight to one.
func If(cond bool, node *VNode) *VNode {
	return IfElse(cond, node, nil)
}

func IfElse(cond bool, then, otherwise *VNode) *VNode {
	if cond {
		return then
	}
	return otherwise
}

// When builds the node only if cond holds.
func When(cond bool, build func() *VNode) *VNode {
	if !cond {
		return nil
	}
	return build()
}

// Range builds one child per item, dropping nil results.
func Range[T any](items []T, build func(item T, index int) *VNode) []*VNode {
	out := make([]*VNode, 0, len(items))
	for i := range items {
		if n := build(items[i], i); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// RangeKeyed is Range with each child keyed by key(item), which lets the
// reconciler move existing nodes when the slice is reordered.
func RangeKeyed[T any](items []T, key func(item T) string, build func(item T, index int) *VNode) []*VNode {
	return Range(items, func(item T, i int) *VNode {
		return Keyed(key(item), build(item, i))
	})
}

// Repeat builds n children from their index.
func Repeat(n int, build func(i int) *VNode) []*VNode {
	if n <= 0 {
		return nil
	}
	out := make([]*VNode, 0, n)
	for i := range n {
		if node := build(i); node != nil {
			out = append(out, node)
		}
	}
	return out
}
