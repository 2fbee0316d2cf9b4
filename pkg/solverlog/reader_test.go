package solverlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	content := "first\r\nsecond\n\nfourth"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}
	want := []string{"first", "second", "", "fourth"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("ReadLines() = %q, want %q", lines, want)
	}
}

func TestReadLines_LongLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.log")
	long := strings.Repeat("obj0 1 ", 40000)
	if err := os.WriteFile(path, []byte(long+"\nend\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}
	if len(lines) != 2 || lines[1] != "end" {
		t.Errorf("got %d lines", len(lines))
	}
}

func TestScanMarkers(t *testing.T) {
	got := ScanMarkers(scenarioLog(), "final selecting")
	want := []int{1, 3, 6, 10, 12}
	if len(got) != len(want) {
		t.Fatalf("ScanMarkers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ScanMarkers()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
