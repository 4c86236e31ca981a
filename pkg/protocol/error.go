package protocol

// ErrorCode identifies an error reported over the wire.
type ErrorCode uint16

const (
	ErrUnknown        ErrorCode = 0x0000
	ErrInvalidFrame   ErrorCode = 0x0001 // Malformed frame or payload
	ErrInvalidEvent   ErrorCode = 0x0002 // Event could not be decoded
	ErrUnknownNode    ErrorCode = 0x0003 // Event targets a node the server does not have
	ErrSessionExpired ErrorCode = 0x0005
	ErrRateLimited    ErrorCode = 0x0006
	ErrServerError    ErrorCode = 0x0100
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrInvalidFrame:
		return "InvalidFrame"
	case ErrInvalidEvent:
		return "InvalidEvent"
	case ErrUnknownNode:
		return "UnknownNode"
	case ErrSessionExpired:
		return "SessionExpired"
	case ErrRateLimited:
		return "RateLimited"
	case ErrServerError:
		return "ServerError"
	default:
		return "Unknown"
	}
}

// ErrorMessage is the payload of an error frame. A fatal error is followed
// by the connection closing.
type ErrorMessage struct {
	Code    ErrorCode
	Message string
	Fatal   bool
}

// NewError creates a non-fatal error message.
func NewError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message}
}

// NewFatalError creates a fatal error message.
func NewFatalError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message, Fatal: true}
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return "fatal: " + em.Code.String() + ": " + em.Message
	}
	return em.Code.String() + ": " + em.Message
}

// EncodeErrorMessage encodes em as a frame payload.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteUint16(uint16(em.Code))
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
	return e.Bytes()
}

// DecodeErrorMessage decodes an error frame payload.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}
	message, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	fatal, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	return &ErrorMessage{Code: ErrorCode(code), Message: message, Fatal: fatal}, d.finish()
}
