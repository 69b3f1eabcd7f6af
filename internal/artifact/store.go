package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Tag identifies one enhanced-table artifact. One tag maps to exactly
// one stored blob; writing the same tag twice overwrites.
type Tag struct {
	DocID     string
	Year      int
	PageIndex int
}

// Key is the stable storage key for the tag, matching the naming the
// downstream combination stages expect.
func (t Tag) Key() string {
	return fmt.Sprintf("Lines_%s_page%d.png", t.DocID, t.PageIndex)
}

func (t Tag) String() string {
	return fmt.Sprintf("%d/%s", t.Year, t.Key())
}

// Store is the blob interface the exporter writes through. The cloud
// sync stage provides its own implementation; FSStore is the local one.
type Store interface {
	Put(ctx context.Context, tag Tag, data []byte) error
	Get(ctx context.Context, tag Tag) ([]byte, error)
}

// FSStore keeps artifacts under <root>/PDFs_Lines_<year>/.
type FSStore struct {
	root string
}

func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) path(tag Tag) string {
	return filepath.Join(s.root, fmt.Sprintf("PDFs_Lines_%d", tag.Year), tag.Key())
}

func (s *FSStore) Put(_ context.Context, tag Tag, data []byte) error {
	p := s.path(tag)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("artifact dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", tag, err)
	}
	return nil
}

func (s *FSStore) Get(_ context.Context, tag Tag) ([]byte, error) {
	b, err := os.ReadFile(s.path(tag))
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", tag, err)
	}
	return b, nil
}
