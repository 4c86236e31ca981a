package session

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// SnapshotVersion is the current snapshot format. Snapshots with another
// version are refused rather than half-restored.
const SnapshotVersion = 1

// Snapshot is what a server persists to resume a session: the application
// model and the sequence of the last mutation batch sent.
type Snapshot[M any] struct {
	Version int       `json:"version"`
	ID      string    `json:"id"`
	Seq     uint64    `json:"seq"`
	SavedAt time.Time `json:"saved_at"`
	Model   M         `json:"model"`
}

// Encode marshals s, stamping the current version.
func (s *Snapshot[M]) Encode() ([]byte, error) {
	s.Version = SnapshotVersion
	return json.Marshal(s)
}

// DecodeSnapshot unmarshals data produced by Encode.
func DecodeSnapshot[M any](data []byte) (*Snapshot[M], error) {
	var s Snapshot[M]
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("session: snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	return &s, nil
}
