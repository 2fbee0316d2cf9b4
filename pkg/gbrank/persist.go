package gbrank

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

const formatVersion = 1

type artifact struct {
	Version int `json:"version"`
	*Booster
}

// Save writes the model as snappy-compressed JSON.
func (b *Booster) Save(w io.Writer) error {
	data, err := json.Marshal(artifact{Version: formatVersion, Booster: b})
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if _, err := w.Write(snappy.Encode(nil, data)); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load reads a model written by Save.
func Load(r io.Reader) (*Booster, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress model: %w", err)
	}

	a := artifact{Booster: &Booster{}}
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if a.Version != formatVersion {
		return nil, fmt.Errorf("unsupported model version %d", a.Version)
	}
	for i, t := range a.Trees {
		if err := t.check(); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return a.Booster, nil
}

// check rejects trees whose child links would loop or leave the slice.
func (t Tree) check() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 {
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}
