package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
	}{
		{name: "empty_payload", frame: Frame{Type: FrameEvent, Payload: []byte{}}},
		{name: "mutations", frame: Frame{Type: FrameMutations, Payload: []byte{0x01, 0x02, 0x03}}},
		{name: "reset", frame: Frame{Type: FrameMutations, Flags: FlagReset, Payload: []byte("x")}},
		{name: "control", frame: Frame{Type: FrameControl, Payload: []byte("test")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded := tc.frame.Encode()
			if len(encoded) != FrameHeaderSize+len(tc.frame.Payload) {
				t.Errorf("Encode() length = %d, want %d", len(encoded), FrameHeaderSize+len(tc.frame.Payload))
			}

			decoded, err := DecodeFrame(encoded)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if decoded.Type != tc.frame.Type {
				t.Errorf("Type = %v, want %v", decoded.Type, tc.frame.Type)
			}
			if decoded.Flags != tc.frame.Flags {
				t.Errorf("Flags = %v, want %v", decoded.Flags, tc.frame.Flags)
			}
			if !bytes.Equal(decoded.Payload, tc.frame.Payload) {
				t.Errorf("Payload = %v, want %v", decoded.Payload, tc.frame.Payload)
			}
		})
	}
}

func TestFrameLargePayload(t *testing.T) {
	// Larger than a 16-bit length could describe.
	payload := bytes.Repeat([]byte{0xAB}, 70_000)
	encoded := NewFrame(FrameMutations, payload).Encode()

	decoded, err := DecodeFrame(encoded)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if len(decoded.Payload) != len(payload) {
		t.Errorf("payload length = %d, want %d", len(decoded.Payload), len(payload))
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "short_header", data: []byte{0x01, 0x00, 0x00}, want: io.ErrUnexpectedEOF},
		{name: "short_payload", data: []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x05, 0x01}, want: io.ErrUnexpectedEOF},
		{name: "bad_type", data: []byte{0x04, 0x00, 0x00, 0x00, 0x00, 0x00}, want: ErrInvalidFrameType},
		{name: "too_large", data: []byte{0x01, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}, want: ErrFrameTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeFrame(tc.data)
			if !errors.Is(err, tc.want) {
				t.Errorf("DecodeFrame() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	frames := []*Frame{
		NewFrame(FrameHandshake, EncodeClientHello(NewClientHello(""))),
		NewFrame(FrameControl, EncodeControl(Ping(42))),
		NewFrame(FrameEvent, nil),
	}
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
	}

	for i, want := range frames {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame(%d) error = %v", i, err)
		}
		if got.Type != want.Type || !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("frame %d = %v %v, want %v %v", i, got.Type, got.Payload, want.Type, want.Payload)
		}
	}

	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Errorf("ReadFrame() on empty reader error = %v, want EOF", err)
	}
}

func TestFrameTypeString(t *testing.T) {
	tests := map[FrameType]string{
		FrameHandshake: "Handshake",
		FrameEvent:     "Event",
		FrameMutations: "Mutations",
		FrameControl:   "Control",
		FrameError:     "Error",
		FrameType(0x7F): "Unknown",
	}
	for ft, want := range tests {
		if got := ft.String(); got != want {
			t.Errorf("FrameType(%d).String() = %q, want %q", ft, got, want)
		}
	}
}

func TestFrameFlagsHas(t *testing.T) {
	if !FlagReset.Has(FlagReset) {
		t.Error("FlagReset.Has(FlagReset) = false")
	}
	if FrameFlags(0).Has(FlagReset) {
		t.Error("0.Has(FlagReset) = true")
	}
}
