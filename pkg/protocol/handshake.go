package protocol

// HandshakeStatus is the server's answer to a ClientHello.
type HandshakeStatus uint8

const (
	HandshakeOK              HandshakeStatus = 0x00
	HandshakeVersionMismatch HandshakeStatus = 0x01
	HandshakeSessionExpired  HandshakeStatus = 0x03 // Resume requested for an unknown session; a fresh one was started
	HandshakeServerBusy      HandshakeStatus = 0x04
	HandshakeInvalidFormat   HandshakeStatus = 0x06
	HandshakeInternalError   HandshakeStatus = 0x08
)

// String returns the string representation of the handshake status.
func (hs HandshakeStatus) String() string {
	switch hs {
	case HandshakeOK:
		return "OK"
	case HandshakeVersionMismatch:
		return "VersionMismatch"
	case HandshakeSessionExpired:
		return "SessionExpired"
	case HandshakeServerBusy:
		return "ServerBusy"
	case HandshakeInvalidFormat:
		return "InvalidFormat"
	case HandshakeInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// ProtocolVersion is a major.minor protocol version. Peers with different
// majors cannot talk.
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is the version spoken by this package.
var CurrentVersion = ProtocolVersion{Major: 1, Minor: 0}

// Compatible reports whether v can talk to CurrentVersion.
func (v ProtocolVersion) Compatible() bool {
	return v.Major == CurrentVersion.Major
}

// ClientHello opens a session. SessionID is empty for a new session.
type ClientHello struct {
	Version   ProtocolVersion
	SessionID string
	LastSeq   uint64 // Last mutation batch the client applied
}

// ServerHello answers a ClientHello. Root is the node id the client maps
// to its mount element; every mutation batch refers to it.
type ServerHello struct {
	Status     HandshakeStatus
	SessionID  string
	Root       uint64
	NextSeq    uint64 // Sequence number of the next mutation batch
	ServerTime uint64 // Unix milliseconds
}

// NewClientHello creates a ClientHello for the current version.
func NewClientHello(sessionID string) *ClientHello {
	return &ClientHello{Version: CurrentVersion, SessionID: sessionID}
}

// EncodeClientHello encodes ch as a frame payload.
func EncodeClientHello(ch *ClientHello) []byte {
	e := NewEncoder()
	e.WriteByte(ch.Version.Major)
	e.WriteByte(ch.Version.Minor)
	e.WriteString(ch.SessionID)
	e.WriteUvarint(ch.LastSeq)
	return e.Bytes()
}

// DecodeClientHello decodes a ClientHello payload.
func DecodeClientHello(data []byte) (*ClientHello, error) {
	d := NewDecoder(data)
	ch := &ClientHello{}
	var err error
	if ch.Version.Major, err = d.ReadByte(); err != nil {
		return nil, err
	}
	if ch.Version.Minor, err = d.ReadByte(); err != nil {
		return nil, err
	}
	if ch.SessionID, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ch.LastSeq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	return ch, d.finish()
}

// EncodeServerHello encodes sh as a frame payload.
func EncodeServerHello(sh *ServerHello) []byte {
	e := NewEncoder()
	e.WriteByte(byte(sh.Status))
	e.WriteString(sh.SessionID)
	e.WriteUvarint(sh.Root)
	e.WriteUvarint(sh.NextSeq)
	e.WriteUint64(sh.ServerTime)
	return e.Bytes()
}

// DecodeServerHello decodes a ServerHello payload.
func DecodeServerHello(data []byte) (*ServerHello, error) {
	d := NewDecoder(data)
	sh := &ServerHello{}
	status, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	sh.Status = HandshakeStatus(status)
	if sh.SessionID, err = d.ReadString(); err != nil {
		return nil, err
	}
	if sh.Root, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if sh.NextSeq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if sh.ServerTime, err = d.ReadUint64(); err != nil {
		return nil, err
	}
	return sh, d.finish()
}
