// Package features reads the per-node feature vectors the instrumented
// node selector writes while solving.
package features

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	// Size is the number of features describing one node.
	Size = 20
	// BlockSize is the number of fields per node: id, group id, features.
	BlockSize = Size + 2
)

var (
	ErrBadField     = errors.New("field is not key:value")
	ErrBadValue     = errors.New("malformed value")
	ErrPartialBlock = errors.New("field count is not a multiple of the block size")
)

// ParseError describes a malformed trajectory line.
type ParseError struct {
	Line  int // 1-based
	Token string
	Cause error
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("trajectory line %d token %q: %v", e.Line, e.Token, e.Cause)
	}
	return fmt.Sprintf("trajectory line %d: %v", e.Line, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Observation is one node as seen in one priority-queue snapshot.
type Observation struct {
	NodeID  int
	GroupID int
	Feats   []float64
}

// ParseLine parses one snapshot line. Each token is "key:value" and every
// BlockSize consecutive values describe one node. Values must be finite.
// Blank lines yield no observations.
func ParseLine(line string) ([]Observation, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, nil
	}
	if len(tokens)%BlockSize != 0 {
		return nil, &ParseError{Cause: fmt.Errorf("%w: %d fields", ErrPartialBlock, len(tokens))}
	}

	values := make([]float64, len(tokens))
	for i, tok := range tokens {
		_, raw, ok := strings.Cut(tok, ":")
		if !ok {
			return nil, &ParseError{Token: tok, Cause: ErrBadField}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ParseError{Token: tok, Cause: ErrBadValue}
		}
		values[i] = v
	}

	obs := make([]Observation, 0, len(values)/BlockSize)
	for off := 0; off < len(values); off += BlockSize {
		block := values[off : off+BlockSize]
		feats := make([]float64, Size)
		copy(feats, block[2:])
		obs = append(obs, Observation{
			NodeID:  int(block[0]),
			GroupID: int(block[1]),
			Feats:   feats,
		})
	}
	return obs, nil
}

// Trajectory is the parsed content of one trajectory file.
type Trajectory struct {
	Observations []Observation
	// Errors holds one *ParseError per skipped line.
	Errors []error
}

// Read parses every line of r. Malformed lines are skipped and reported in
// Errors; only I/O failures are returned as err.
func Read(r io.Reader) (*Trajectory, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	t := &Trajectory{
		Observations: make([]Observation, 0),
		Errors:       make([]error, 0),
	}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		obs, err := ParseLine(scanner.Text())
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = lineNo
			}
			t.Errors = append(t.Errors, err)
			continue
		}
		t.Observations = append(t.Observations, obs...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// ReadFile parses the trajectory file at path.
func ReadFile(path string) (*Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trajectory %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read trajectory %s: %w", path, err)
	}
	return t, nil
}

// FileName returns the trajectory file name the solver writes for an
// instance base name.
func FileName(base string) string {
	return base + ".search.trj.1"
}
