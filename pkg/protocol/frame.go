package protocol

import (
	"errors"
	"fmt"
	"io"
)

// FrameHeaderSize is the size of the frame header in bytes.
const FrameHeaderSize = 6

// MaxPayloadSize caps the payload of a single frame.
const MaxPayloadSize = DefaultMaxAllocation

// FrameType identifies the payload of a frame.
type FrameType uint8

const (
	FrameHandshake FrameType = 0x00 // ClientHello or ServerHello
	FrameEvent     FrameType = 0x01 // Client to server event
	FrameMutations FrameType = 0x02 // Server to client mutation batch
	FrameControl   FrameType = 0x03 // Ping, pong, close
	FrameError     FrameType = 0x05 // Error report
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameHandshake:
		return "Handshake"
	case FrameEvent:
		return "Event"
	case FrameMutations:
		return "Mutations"
	case FrameControl:
		return "Control"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FrameFlags modify how a frame is applied.
type FrameFlags uint8

// FlagReset marks a mutation batch that rebuilds the tree from scratch. The
// client drops its mirror of the previous session before applying it.
const FlagReset FrameFlags = 0x01

// Has reports whether ff contains flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is one protocol message.
//
// Wire format (6 byte header + payload):
//
//	┌────────────┬────────────┬──────────────────────────────┐
//	│ Frame Type │ Flags      │ Payload Length               │
//	│ (1 byte)   │ (1 byte)   │ (4 bytes, big-endian)        │
//	└────────────┴────────────┴──────────────────────────────┘
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame creates a frame with no flags.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode returns the frame header followed by the payload.
func (f *Frame) Encode() []byte {
	e := &Encoder{buf: make([]byte, 0, FrameHeaderSize+len(f.Payload))}
	e.WriteByte(byte(f.Type))
	e.WriteByte(byte(f.Flags))
	e.WriteUint32(uint32(len(f.Payload)))
	e.buf = append(e.buf, f.Payload...)
	return e.buf
}

func validType(ft FrameType) bool {
	switch ft {
	case FrameHandshake, FrameEvent, FrameMutations, FrameControl, FrameError:
		return true
	}
	return false
}

// DecodeFrameHeader parses a frame header.
func DecodeFrameHeader(data []byte) (FrameType, FrameFlags, int, error) {
	d := NewDecoder(data)
	t, err := d.ReadByte()
	if err != nil {
		return 0, 0, 0, err
	}
	flags, err := d.ReadByte()
	if err != nil {
		return 0, 0, 0, err
	}
	length, err := d.ReadUint32()
	if err != nil {
		return 0, 0, 0, err
	}
	ft := FrameType(t)
	if !validType(ft) {
		return 0, 0, 0, fmt.Errorf("%w: 0x%02x", ErrInvalidFrameType, t)
	}
	if length > MaxPayloadSize {
		return 0, 0, 0, ErrFrameTooLarge
	}
	return ft, FrameFlags(flags), int(length), nil
}

// DecodeFrame decodes a complete frame. The payload is copied out of data.
func DecodeFrame(data []byte) (*Frame, error) {
	ft, flags, length, err := DecodeFrameHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data)-FrameHeaderSize < length {
		return nil, io.ErrUnexpectedEOF
	}
	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:FrameHeaderSize+length])
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// ReadFrame reads one frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	ft, flags, length, err := DecodeFrameHeader(header)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// WriteFrame writes f to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}
