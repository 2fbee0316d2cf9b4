package batchlog

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/golang/snappy"
)

// Reader decodes entries from a batch file stream.
type Reader struct {
	r      *bufio.Reader
	offset int64
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next entry, or io.EOF at a clean end of stream. A damaged
// entry yields an *EntryError.
func (r *Reader) Next() (*Entry, error) {
	start := r.offset

	var header [headerSize]byte
	n, err := io.ReadFull(r.r, header[:])
	r.offset += int64(n)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &EntryError{Offset: start, Cause: ErrTruncated}
	}

	seq := binary.BigEndian.Uint64(header[0:8])
	dataLen := binary.BigEndian.Uint32(header[8:12])
	if dataLen > maxEntrySize {
		return nil, &EntryError{Seq: seq, Offset: start, Cause: fmt.Errorf("%w: data length %d", ErrCorrupt, dataLen)}
	}

	data := make([]byte, dataLen)
	n, err = io.ReadFull(r.r, data)
	r.offset += int64(n)
	if err != nil {
		return nil, &EntryError{Seq: seq, Offset: start, Cause: ErrTruncated}
	}

	var trailer [trailerSize]byte
	n, err = io.ReadFull(r.r, trailer[:])
	r.offset += int64(n)
	if err != nil {
		return nil, &EntryError{Seq: seq, Offset: start, Cause: ErrTruncated}
	}

	if crc32.ChecksumIEEE(data) != binary.BigEndian.Uint32(trailer[0:4]) {
		return nil, &EntryError{Seq: seq, Offset: start, Cause: ErrChecksum}
	}

	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, &EntryError{Seq: seq, Offset: start, Cause: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	var b Batch
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, &EntryError{Seq: seq, Offset: start, Cause: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}

	return &Entry{
		Seq:       seq,
		Timestamp: int64(binary.BigEndian.Uint64(trailer[4:12])),
		Batch:     &b,
	}, nil
}

// Replay calls fn for every entry of the batch file at path, in order.
// A missing file has no entries.
func Replay(path string, fn func(*Entry) error) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	r := NewReader(f)
	for {
		e, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}

// ReadAll returns every entry of the batch file at path.
func ReadAll(path string) ([]*Entry, error) {
	entries := make([]*Entry, 0)
	err := Replay(path, func(e *Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ExportJSONLines writes each batch of the file at path to w as one JSON
// array of records per line.
func ExportJSONLines(path string, w io.Writer) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	err := Replay(path, func(e *Entry) error {
		return enc.Encode(e.Batch.Records)
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}
