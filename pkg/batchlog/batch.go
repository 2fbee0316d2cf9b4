// Package batchlog stores labeled training batches in an append-only,
// snappy-compressed and checksummed file, one entry per solved instance.
//
// Entry format, big endian:
//
//	[Seq:8][DataLen:4][Data:N][Checksum:4][Timestamp:8]
//
// Data is the snappy-compressed JSON encoding of a Batch and the checksum
// is the CRC32 (IEEE) of the compressed bytes.
package batchlog

import (
	"errors"
	"fmt"

	"github.com/dd0wney/nodesel-dagger/pkg/ranking"
)

// Batch holds the records extracted from one instance.
type Batch struct {
	Instance string           `json:"instance"`
	RunID    string           `json:"runID"`
	Records  []ranking.Record `json:"records"`
}

// Entry is a stored batch with its framing metadata.
type Entry struct {
	Seq       uint64
	Timestamp int64
	Batch     *Batch
}

var (
	ErrChecksum  = errors.New("checksum mismatch")
	ErrTruncated = errors.New("truncated entry")
	ErrCorrupt   = errors.New("corrupt entry")
	// ErrEncode marks a batch that cannot be serialized; nothing is written.
	ErrEncode    = errors.New("encode batch")
)

// EntryError reports a damaged entry. Seq is the sequence number read from
// the entry header, 0 when even the header was incomplete.
type EntryError struct {
	Seq    uint64
	Offset int64
	Cause  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("batch entry %d at offset %d: %v", e.Seq, e.Offset, e.Cause)
}

func (e *EntryError) Unwrap() error { return e.Cause }

const (
	headerSize  = 8 + 4
	trailerSize = 4 + 8
	// maxEntrySize bounds DataLen so a corrupt header cannot trigger a
	// huge allocation.
	maxEntrySize = 1 << 30
)
