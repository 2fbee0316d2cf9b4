package solverlog

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/mmap"
)

// maxLineSize bounds a single log line. Selection records with long
// incumbent lists can run to a few kilobytes.
const maxLineSize = 16 * 1024 * 1024

// ReadLines returns the lines of a log file without their line terminators.
// The file is memory-mapped read-only and scanned once.
func ReadLines(path string) ([]string, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	defer r.Close()

	lines, err := scanLines(io.NewSectionReader(r, 0, int64(r.Len())))
	if err != nil {
		return nil, fmt.Errorf("read log %s: %w", path, err)
	}
	return lines, nil
}

func scanLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lines := make([]string, 0, 1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ScanMarkers returns the 0-based indices of lines containing marker, in
// file order.
func ScanMarkers(lines []string, marker string) []int {
	idx := make([]int, 0)
	for i, line := range lines {
		if strings.Contains(line, marker) {
			idx = append(idx, i)
		}
	}
	return idx
}
