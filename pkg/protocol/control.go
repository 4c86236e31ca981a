package protocol

import "fmt"

// ControlType identifies a control message.
type ControlType uint8

const (
	ControlPing  ControlType = 0x01 // Liveness probe, either direction
	ControlPong  ControlType = 0x02 // Reply to a ping, echoing its timestamp
	ControlClose ControlType = 0x20 // Session is ending
)

// String returns the string representation of the control type.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	case ControlClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// CloseReason says why a session is closing.
type CloseReason uint8

const (
	CloseNormal         CloseReason = 0x00
	CloseGoingAway      CloseReason = 0x01
	CloseSessionExpired CloseReason = 0x02
	CloseServerShutdown CloseReason = 0x03
	CloseError          CloseReason = 0x04
)

// String returns the string representation of the close reason.
func (cr CloseReason) String() string {
	switch cr {
	case CloseNormal:
		return "Normal"
	case CloseGoingAway:
		return "GoingAway"
	case CloseSessionExpired:
		return "SessionExpired"
	case CloseServerShutdown:
		return "ServerShutdown"
	case CloseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Control is a control frame payload. Timestamp is set for ping and pong,
// Reason and Message for close.
type Control struct {
	Type      ControlType
	Timestamp uint64 // Unix milliseconds
	Reason    CloseReason
	Message   string
}

// Ping returns a ping stamped with ts.
func Ping(ts uint64) *Control {
	return &Control{Type: ControlPing, Timestamp: ts}
}

// Pong returns the reply to a ping stamped with ts.
func Pong(ts uint64) *Control {
	return &Control{Type: ControlPong, Timestamp: ts}
}

// Close returns a close message.
func Close(reason CloseReason, message string) *Control {
	return &Control{Type: ControlClose, Reason: reason, Message: message}
}

// EncodeControl encodes c as a frame payload.
func EncodeControl(c *Control) []byte {
	e := NewEncoder()
	e.WriteByte(byte(c.Type))
	switch c.Type {
	case ControlPing, ControlPong:
		e.WriteUint64(c.Timestamp)
	case ControlClose:
		e.WriteByte(byte(c.Reason))
		e.WriteString(c.Message)
	}
	return e.Bytes()
}

// DecodeControl decodes a control frame payload.
func DecodeControl(data []byte) (*Control, error) {
	d := NewDecoder(data)
	t, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	c := &Control{Type: ControlType(t)}
	switch c.Type {
	case ControlPing, ControlPong:
		if c.Timestamp, err = d.ReadUint64(); err != nil {
			return nil, err
		}
	case ControlClose:
		reason, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		c.Reason = CloseReason(reason)
		if c.Message, err = d.ReadString(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("protocol: unknown control type 0x%02x", t)
	}
	return c, d.finish()
}
