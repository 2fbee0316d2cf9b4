// Package policy stores trained search policies as numbered artifacts named
// searchPolicy.<iter>.bin.
package policy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dd0wney/nodesel-dagger/pkg/gbrank"
)

// ErrNotFound is returned when no artifact exists for an iteration.
var ErrNotFound = errors.New("policy not found")

const (
	filePrefix = "searchPolicy."
	fileSuffix = ".bin"
)

// Store persists policy iterations.
type Store interface {
	Save(ctx context.Context, iter int, b *gbrank.Booster) error
	Load(ctx context.Context, iter int) (*gbrank.Booster, error)
	// Latest returns the highest stored iteration, or ErrNotFound.
	Latest(ctx context.Context) (int, error)
}

// FileName returns the artifact name of an iteration.
func FileName(iter int) string {
	return fmt.Sprintf("%s%d%s", filePrefix, iter, fileSuffix)
}

// ParseFileName extracts the iteration from an artifact name.
func ParseFileName(name string) (int, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func latestOf(names []string) (int, error) {
	best := -1
	for _, name := range names {
		if n, ok := ParseFileName(name); ok && n > best {
			best = n
		}
	}
	if best < 0 {
		return 0, ErrNotFound
	}
	return best, nil
}
