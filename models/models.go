// Package models holds the plain data types shared across the fingerprinting
// pipeline and the store.
package models

import "time"

// Recording is an immutable catalogue entry. It is created atomically with
// its fingerprint tuples and is read-only thereafter.
type Recording struct {
	ID            uint64
	Title         string
	Artist        string
	Album         string // optional, empty when unknown
	DurationSec   float64
	ContentDigest string // hex SHA-256 of the raw uploaded bytes
	CreatedAt     time.Time
}

// Tuple is a single fingerprint: a packed hash paired with the anchor frame
// it was observed at and the recording it belongs to.
type Tuple struct {
	Hash        uint64
	AnchorTime  uint32 // spectrogram frame index, not seconds
	RecordingID uint64
}

// Posting is what the store returns for a lookup: the hash that matched,
// which recording it came from, and the frame it was stored at.
type Posting struct {
	Hash        uint64
	RecordingID uint64
	StoredTime  uint32
}

// Stats summarizes catalogue size.
type Stats struct {
	RecordingCount int64
	TupleCount     int64
}

// Match is the outcome of a successful identify call.
type Match struct {
	RecordingID     uint64
	Score           int // histogram peak height
	AlignmentOffset int32
	ConfidencePct   float64
}
