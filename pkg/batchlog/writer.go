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
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
)

// Writer appends batches to a batch file.
type Writer struct {
	file    *os.File
	writer  *bufio.Writer
	path    string
	seq     uint64
	syncAll bool
	closed  bool
	mu      sync.Mutex

	// Statistics
	entries           uint64
	bytesUncompressed uint64
	bytesCompressed   uint64
}

// Stats holds compression statistics of a writer session.
type Stats struct {
	Entries           uint64
	BytesUncompressed uint64
	BytesCompressed   uint64
	CompressionRatio  float64 // e.g., 0.75 = 75% smaller
}

// Open opens the batch file at path for appending, creating it and its
// directory when needed. Sequence numbers continue after the last intact
// entry; a damaged file is refused.
func Open(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create batch directory: %w", err)
	}

	last, err := lastSeq(path)
	if err != nil {
		return nil, fmt.Errorf("recover batch file %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}

	return &Writer{
		file:    file,
		writer:  bufio.NewWriter(file),
		path:    path,
		seq:     last,
		syncAll: true,
	}, nil
}

// SetSync controls whether every Append is fsynced. It is on by default.
func (w *Writer) SetSync(on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.syncAll = on
}

// Append writes one batch and returns its sequence number.
func (w *Writer) Append(b *Batch) (uint64, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	compressed := snappy.Encode(nil, data)
	seq := w.seq + 1

	if err := w.writeEntry(seq, compressed, time.Now().Unix()); err != nil {
		return 0, fmt.Errorf("write batch entry: %w", err)
	}
	if err := w.writer.Flush(); err != nil {
		return 0, fmt.Errorf("flush batch file: %w", err)
	}
	if w.syncAll {
		if err := w.file.Sync(); err != nil {
			return 0, fmt.Errorf("sync batch file: %w", err)
		}
	}

	w.seq = seq
	w.entries++
	w.bytesUncompressed += uint64(len(data))
	w.bytesCompressed += uint64(len(compressed))
	return seq, nil
}

func (w *Writer) writeEntry(seq uint64, data []byte, ts int64) error {
	var header [headerSize]byte
	binary.BigEndian.PutUint64(header[0:8], seq)
	binary.BigEndian.PutUint32(header[8:12], uint32(len(data)))
	if _, err := w.writer.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.writer.Write(data); err != nil {
		return err
	}

	var trailer [trailerSize]byte
	binary.BigEndian.PutUint32(trailer[0:4], crc32.ChecksumIEEE(data))
	binary.BigEndian.PutUint64(trailer[4:12], uint64(ts))
	_, err := w.writer.Write(trailer[:])
	return err
}

// Seq returns the sequence number of the last written entry.
func (w *Writer) Seq() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seq
}

// Path returns the file the writer appends to.
func (w *Writer) Path() string {
	return w.path
}

// Stats returns compression statistics for entries written by this writer.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	ratio := 0.0
	if w.bytesUncompressed > 0 {
		ratio = 1.0 - float64(w.bytesCompressed)/float64(w.bytesUncompressed)
	}
	return Stats{
		Entries:           w.entries,
		BytesUncompressed: w.bytesUncompressed,
		BytesCompressed:   w.bytesCompressed,
		CompressionRatio:  ratio,
	}
}

// Close flushes, syncs and closes the file. Closing twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.writer.Flush(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	return w.file.Close()
}

func lastSeq(path string) (uint64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := NewReader(f)
	var last uint64
	for {
		e, err := r.Next()
		if err == io.EOF {
			return last, nil
		}
		if err != nil {
			return 0, err
		}
		last = e.Seq
	}
}
