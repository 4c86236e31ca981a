package vdom

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Attribute names used by server-bound events.
const (
	ServerEventPrefix = "data-morph-on-"
	ServerDataAttr    = "data-morph-data"
	ServerIncludeAttr = "data-morph-include"
)

// ServerEventMsg is the message produced by a server-bound event.
// Data always holds the decoded data attribute under "data", plus one
// nested entry per included event path.
type ServerEventMsg struct {
	Tag  string
	Data map[string]any
}

// OnServer binds eventName to a server event tagged tag. Extra data is
// carried as JSON on the element; include lists dotted event paths
// ("target.value", "key", "detail.x") copied into the message.
func OnServer(eventName, tag string, data map[string]any, include ...string) []Attr {
	attrs := []Attr{Attribute(ServerEventPrefix+eventName, tag)}
	if len(data) > 0 {
		if b, err := json.Marshal(data); err == nil {
			attrs = append(attrs, Attribute(ServerDataAttr, string(b)))
		}
	}
	if len(include) > 0 {
		if b, err := json.Marshal(include); err == nil {
			attrs = append(attrs, Attribute(ServerIncludeAttr, string(b)))
		}
	}
	return attrs
}

// ServerEvent decodes a server-bound event from the attributes of its target.
func ServerEvent(ev Event) (any, error) {
	if ev.Target == nil {
		return nil, fmt.Errorf("%w: server event without target", ErrDecode)
	}
	tag, ok := ev.Target.Attribute(ServerEventPrefix + ev.Type)
	if !ok {
		return nil, fmt.Errorf("%w: no server binding for %s", ErrDecode, ev.Type)
	}

	data := map[string]any{}
	if raw, ok := ev.Target.Attribute(ServerDataAttr); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecode, ServerDataAttr, err)
		}
	}
	var include []string
	if raw, ok := ev.Target.Attribute(ServerIncludeAttr); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &include); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecode, ServerIncludeAttr, err)
		}
	}
	switch ev.Type {
	case "input", "change":
		include = append(include, "target.value")
	}

	out := map[string]any{"data": data}
	for _, path := range include {
		v, ok := eventPath(ev, path)
		if !ok {
			continue
		}
		setPath(out, strings.Split(path, "."), v)
	}
	return ServerEventMsg{Tag: tag, Data: out}, nil
}

// eventPath resolves a dotted path against the fields an Event carries.
func eventPath(ev Event, path string) (any, bool) {
	switch path {
	case "type":
		return ev.Type, true
	case "key":
		return ev.Key, true
	case "target.value":
		return ev.Value, true
	case "target.checked":
		return ev.Checked, true
	}
	if rest, ok := strings.CutPrefix(path, "detail."); ok {
		var cur any = ev.Detail
		for _, seg := range strings.Split(rest, ".") {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			if cur, ok = m[seg]; !ok {
				return nil, false
			}
		}
		return cur, true
	}
	return nil, false
}

func setPath(dst map[string]any, segs []string, v any) {
	for i, seg := range segs {
		if i == len(segs)-1 {
			dst[seg] = v
			return
		}
		next, ok := dst[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			dst[seg] = next
		}
		dst = next
	}
}
