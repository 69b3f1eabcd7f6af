package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/lassa-tracker/internal/common"
)

// SourceDocument is one situation-report PDF as published. The store
// owns these; everything downstream treats them as read-only.
type SourceDocument struct {
	ID   string // filename stem, e.g. "An_update_of_Lassa_fever_outbreak_in_Nigeria_21_W09"
	Year int
	Week int
	Path string
}

// Store provides read-only access to source reports.
type Store interface {
	// List returns the reports available for a year, ordered by week.
	List(ctx context.Context, year int) ([]SourceDocument, error)
	// Read returns the raw bytes of one report.
	Read(ctx context.Context, doc SourceDocument) ([]byte, error)
}

// weekSuffix matches the publisher's filename convention "..._W09.pdf".
var weekSuffix = regexp.MustCompile(`_W(\d+)\.pdf$`)

// FSStore reads reports from <root>/PDFs_<year>/ directories, the
// layout the download stage produces.
type FSStore struct {
	root   string
	logger *slog.Logger
}

func NewFSStore(root string, logger *slog.Logger) *FSStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSStore{root: root, logger: logger}
}

func (s *FSStore) List(_ context.Context, year int) ([]SourceDocument, error) {
	dir := filepath.Join(s.root, fmt.Sprintf("PDFs_%d", year))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, common.WrapError(err, "list reports")
	}

	var docs []SourceDocument
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pdf") {
			continue
		}
		m := weekSuffix.FindStringSubmatch(e.Name())
		if m == nil {
			s.logger.Warn("document.list.unrecognized_name", "name", e.Name(), "year", year)
			continue
		}
		week, err := strconv.Atoi(m[1])
		if err != nil || week < 1 || week > 53 {
			s.logger.Warn("document.list.bad_week", "name", e.Name(), "year", year)
			continue
		}
		docs = append(docs, SourceDocument{
			ID:   strings.TrimSuffix(e.Name(), ".pdf"),
			Year: year,
			Week: week,
			Path: filepath.Join(dir, e.Name()),
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Week < docs[j].Week })
	return docs, nil
}

func (s *FSStore) Read(_ context.Context, doc SourceDocument) ([]byte, error) {
	b, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrDocumentRead, doc.ID, err)
	}
	return b, nil
}
