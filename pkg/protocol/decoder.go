package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	// DefaultMaxAllocation bounds any length prefix read from a client:
	// strings, detail blobs and frame payloads alike.
	DefaultMaxAllocation = 4 << 20

	// MaxCollectionCount bounds the length of a decoded list.
	MaxCollectionCount = 100_000
)

var (
	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrInvalidBool        = errors.New("protocol: invalid boolean value")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
	ErrTrailingBytes      = errors.New("protocol: trailing bytes after message")
)

// Decoder walks a payload produced by an Encoder. Every read fails with
// io.ErrUnexpectedEOF when the input runs out.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns how many bytes are still unread.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// EOF reports whether the payload is fully consumed.
func (d *Decoder) EOF() bool { return d.Remaining() <= 0 }

// take consumes the next n bytes. The result aliases the payload.
func (d *Decoder) take(n int) ([]byte, error) {
	if n > d.Remaining() {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) ReadByte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBool accepts only 0 and 1.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	if b > 1 {
		return false, ErrInvalidBool
	}
	return b == 1, nil
}

func (d *Decoder) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.pos:])
	switch {
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	d.pos += n
	return v, nil
}

func (d *Decoder) ReadSvarint() (int64, error) {
	v, n := binary.Varint(d.buf[d.pos:])
	switch {
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	d.pos += n
	return v, nil
}

func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadLenBytes reads a length-prefixed blob without copying it.
func (d *Decoder) ReadLenBytes() ([]byte, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(d.Remaining()) {
		return nil, io.ErrUnexpectedEOF
	}
	if n > DefaultMaxAllocation {
		return nil, ErrAllocationTooLarge
	}
	return d.take(int(n))
}

func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadLenBytes()
	return string(b), err
}

// ReadCollectionCount reads a list length. Each item needs at least one
// byte, so a count beyond the unread input is truncation.
func (d *Decoder) ReadCollectionCount() (int, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if n > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	if n > uint64(d.Remaining()) {
		return 0, io.ErrUnexpectedEOF
	}
	return int(n), nil
}

// finish rejects a payload with bytes left over.
func (d *Decoder) finish() error {
	if !d.EOF() {
		return ErrTrailingBytes
	}
	return nil
}
