package protocol

import "encoding/binary"

// Encoder builds a payload in memory. Integers wider than a byte are
// big-endian, lengths and counts are varints.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder with room for a typical mutation batch.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Reset truncates the payload so the encoder can be reused.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

// Bytes returns the payload so far. It aliases the encoder's buffer.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the payload size.
func (e *Encoder) Len() int { return len(e.buf) }

// WriteByte appends b. It never fails.
func (e *Encoder) WriteByte(b byte) { e.buf = append(e.buf, b) }

// WriteBool appends 1 for true and 0 for false.
func (e *Encoder) WriteBool(b bool) {
	var v byte
	if b {
		v = 1
	}
	e.buf = append(e.buf, v)
}

func (e *Encoder) WriteUvarint(v uint64) { e.buf = binary.AppendUvarint(e.buf, v) }

// WriteSvarint appends v zigzag encoded, so small negatives stay short.
func (e *Encoder) WriteSvarint(v int64) { e.buf = binary.AppendVarint(e.buf, v) }

func (e *Encoder) WriteUint16(v uint16) { e.buf = binary.BigEndian.AppendUint16(e.buf, v) }
func (e *Encoder) WriteUint32(v uint32) { e.buf = binary.BigEndian.AppendUint32(e.buf, v) }
func (e *Encoder) WriteUint64(v uint64) { e.buf = binary.BigEndian.AppendUint64(e.buf, v) }

// WriteString appends s behind its varint length.
func (e *Encoder) WriteString(s string) {
	e.WriteUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteLenBytes appends b behind its varint length.
func (e *Encoder) WriteLenBytes(b []byte) {
	e.WriteUvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}
