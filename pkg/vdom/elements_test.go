package vdom

import "testing"

func findAttr(n *VNode, name string) (Attr, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

func TestCreateElement(t *testing.T) {
	t.Run("basic element", func(t *testing.T) {
		node := Div()
		if node.Kind != KindElement {
			t.Errorf("Kind = %v, want KindElement", node.Kind)
		}
		if node.Tag != "div" {
			t.Errorf("Tag = %v, want div", node.Tag)
		}
		if node.Namespace != "" {
			t.Errorf("Namespace = %q, want empty", node.Namespace)
		}
	})

	t.Run("with attributes in order", func(t *testing.T) {
		node := Div(Class("card"), ID("main"))
		if len(node.Attrs) != 2 {
			t.Fatalf("Attrs len = %d, want 2", len(node.Attrs))
		}
		if node.Attrs[0].Name != "class" || node.Attrs[1].Name != "id" {
			t.Errorf("Attrs = %v, want class then id", node.Attrs)
		}
	})

	t.Run("with attribute slice", func(t *testing.T) {
		node := Div([]Attr{ID("a"), Title("t")})
		if len(node.Attrs) != 2 {
			t.Errorf("Attrs len = %d, want 2", len(node.Attrs))
		}
	})

	t.Run("with children", func(t *testing.T) {
		node := Div(H1(Text("Title")), P(Text("Content")), []*VNode{Span(), nil})
		if len(node.Children) != 3 {
			t.Fatalf("Children len = %d, want 3", len(node.Children))
		}
		if node.Children[2].Tag != "span" {
			t.Errorf("Children[2].Tag = %v, want span", node.Children[2].Tag)
		}
	})

	t.Run("with string shorthand", func(t *testing.T) {
		node := Div("Hello")
		if len(node.Children) != 1 {
			t.Fatalf("Children len = %d, want 1", len(node.Children))
		}
		if node.Children[0].Kind != KindText || node.Children[0].Text != "Hello" {
			t.Errorf("Child = %v %q, want Text Hello", node.Children[0].Kind, node.Children[0].Text)
		}
	})

	t.Run("nil arguments are ignored", func(t *testing.T) {
		var missing *VNode
		node := Div(nil, missing, Attr{})
		if len(node.Children) != 0 || len(node.Attrs) != 0 {
			t.Errorf("got %d children and %d attrs, want none", len(node.Children), len(node.Attrs))
		}
	})

	t.Run("key sets the node key", func(t *testing.T) {
		node := Li(Key(7), Class("item"))
		if node.Key != "7" {
			t.Errorf("Key = %q, want 7", node.Key)
		}
		if _, ok := findAttr(node, "key"); ok {
			t.Error("key must not be kept as an attribute")
		}
	})
}

func TestVoidElements(t *testing.T) {
	tests := []struct {
		tag  string
		void bool
	}{
		{"input", true},
		{"br", true},
		{"img", true},
		{"hr", true},
		{"div", false},
		{"textarea", false},
	}

	for _, tt := range tests {
		if got := IsVoidElement(tt.tag); got != tt.void {
			t.Errorf("IsVoidElement(%q) = %v, want %v", tt.tag, got, tt.void)
		}
	}

	node := Input(Type("text"), "ignored")
	if !node.Void {
		t.Error("Input should be void")
	}
	if len(node.Children) != 0 {
		t.Errorf("void element kept %d children", len(node.Children))
	}
}

func TestElementNS(t *testing.T) {
	node := Svg(Circle(Attribute("r", "4")))
	if node.Namespace != NamespaceSVG {
		t.Errorf("Namespace = %v, want svg", node.Namespace)
	}
	if node.Children[0].Namespace != NamespaceSVG {
		t.Errorf("child Namespace = %v, want svg", node.Children[0].Namespace)
	}

	// Foreign elements are never void, even when the tag matches.
	if ElementNS(NamespaceSVG, "img").Void {
		t.Error("svg img should not be void")
	}
}

func TestTagHelpers(t *testing.T) {
	tests := []struct {
		node *VNode
		tag  string
	}{
		{Span(), "span"},
		{P(), "p"},
		{Section(), "section"},
		{Header(), "header"},
		{Footer(), "footer"},
		{Main(), "main"},
		{Nav(), "nav"},
		{H2(), "h2"},
		{H3(), "h3"},
		{Ol(), "ol"},
		{A(), "a"},
		{Strong(), "strong"},
		{Em(), "em"},
		{Code(), "code"},
		{Pre(), "pre"},
		{Form(), "form"},
		{Button(), "button"},
		{Label(), "label"},
		{Textarea(), "textarea"},
		{Select(), "select"},
		{Option(), "option"},
		{Slot(), "slot"},
		{Path(), "path"},
	}

	for _, tt := range tests {
		if tt.node.Tag != tt.tag {
			t.Errorf("Tag = %v, want %v", tt.node.Tag, tt.tag)
		}
	}
}
