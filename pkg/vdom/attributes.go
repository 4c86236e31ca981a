package vdom

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Special attribute names understood by the reconciler.
const (
	// KeyAttr stores an element's key on its live node.
	KeyAttr = "data-morph-key"

	// InnerHTMLAttr injects raw HTML and suppresses child diffing.
	InnerHTMLAttr = "dangerous-unescaped-html"

	// DelegatePrefix marks attributes forwarded to slotted children.
	DelegatePrefix = "delegate:"
)

// Attribute creates a plain attribute set through the attribute-string API.
func Attribute(name, value string) Attr {
	return Attr{Kind: AttrPlain, Name: name, Value: value}
}

// Property creates an attribute set as a field on the live node.
func Property(name string, value any) Attr {
	return Attr{Kind: AttrProperty, Name: name, Value: value}
}

// Identity attributes

// ID sets the id attribute.
func ID(id string) Attr { return Attribute("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
// Repeated Class attributes on one element are concatenated.
func Class(classes ...string) Attr { return Attribute("class", strings.Join(classes, " ")) }

// ClassList adds each class whose flag is true.
func ClassList(classes map[string]bool) Attr {
	names := make([]string, 0, len(classes))
	for name, on := range classes {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return Class(names...)
}

// Style sets the style attribute. Repeated Style attributes are concatenated.
func Style(style string) Attr { return Attribute("style", style) }

// Styles builds a style attribute from property/value pairs, in order.
func Styles(pairs ...[2]string) Attr {
	var b strings.Builder
	for _, p := range pairs {
		b.WriteString(p[0])
		b.WriteByte(':')
		b.WriteString(p[1])
		b.WriteByte(';')
	}
	return Style(b.String())
}

// Title sets the title attribute.
func Title(title string) Attr { return Attribute("title", title) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return Attribute("data-"+key, value) }

// Aria creates an aria-* attribute.
func Aria(key, value string) Attr { return Attribute("aria-"+key, value) }

// Role sets the role attribute.
func Role(role string) Attr { return Attribute("role", role) }

// Links and media

// Href sets the href attribute.
func Href(url string) Attr { return Attribute("href", url) }

// Src sets the src attribute.
func Src(url string) Attr { return Attribute("src", url) }

// Alt sets the alt attribute.
func Alt(text string) Attr { return Attribute("alt", text) }

// Form attributes

// Type sets the type attribute.
func Type(t string) Attr { return Attribute("type", t) }

// Name sets the name attribute.
func Name(name string) Attr { return Attribute("name", name) }

// Value sets the value attribute. The reconciler also syncs the value field.
func Value(v string) Attr { return Attribute("value", v) }

// Placeholder sets the placeholder attribute.
func Placeholder(text string) Attr { return Attribute("placeholder", text) }

// Checked sets the checked field of a checkbox or radio input.
func Checked(checked bool) Attr { return Property("checked", checked) }

// Disabled sets the disabled field.
func Disabled(disabled bool) Attr { return Property("disabled", disabled) }

// For sets the for attribute of a label.
func For(id string) Attr { return Attribute("for", id) }

// Special attributes

// DangerousHTML injects unescaped HTML into the element. Children are ignored.
// Use with caution - can lead to XSS if content is user-provided.
func DangerousHTML(html string) Attr { return Attribute(InnerHTMLAttr, html) }

// Delegate forwards a data-* or aria-* attribute to the light-DOM children
// assigned to a slot element. Other names are ignored.
func Delegate(name, value string) Attr {
	if !strings.HasPrefix(name, "data-") && !strings.HasPrefix(name, "aria-") {
		return Attr{}
	}
	return Attribute(DelegatePrefix+name, value)
}

// Key returns a keying marker for Element arguments.
// The key is converted to a string using fmt.Sprintf.
func Key(key any) Attr {
	return Attr{Kind: AttrPlain, Name: "key", Value: fmt.Sprintf("%v", key)}
}

// propToString converts a value to its attribute-string form.
func propToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
