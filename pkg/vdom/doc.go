// Package vdom describes UI trees for the morph reconciler.
//
// A VNode is an immutable description of one node: a text node, an element,
// or a lazy subtree that is only resolved when the reconciler reaches it.
// Element attributes come in three flavours: plain attributes set through
// the attribute-string API, properties set as fields on the live node, and
// event bindings carrying a Decoder from raw host events to messages.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("Title")),
//	    P(Text("Content")),
//	    OnClick(Increment{}),
//	)
//
// # Keys
//
// Key("a") on an element sets its reconciliation key. A sibling list is
// diffed by key when its first child is keyed.
//
// # Decoders
//
// Decoders turn a raw Event into a message. They compose with Map, and
// DetailInto decodes a custom event's detail map into a struct.
package vdom
