package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ListInstances returns the base names (file name without extension) of the
// instance files in dir, ordered by the numeric suffix of name_<n>. Names
// without a numeric suffix sort last, by name. firstK > 0 keeps only the
// first firstK.
func ListInstances(dir string, firstK int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}

	bases := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := e.Name()
		bases = append(bases, strings.TrimSuffix(name, filepath.Ext(name)))
	}

	sort.SliceStable(bases, func(i, j int) bool {
		ni, oki := numericSuffix(bases[i])
		nj, okj := numericSuffix(bases[j])
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return bases[i] < bases[j]
		}
	})

	if firstK > 0 && firstK < len(bases) {
		bases = bases[:firstK]
	}
	return bases, nil
}

func numericSuffix(base string) (int, bool) {
	i := strings.LastIndexByte(base, '_')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(base[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}
