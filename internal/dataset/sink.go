package dataset

import (
	"sort"
	"sync"

	"github.com/joseph-ayodele/lassa-tracker/internal/llm"
)

// Key identifies one observation in the validated dataset.
type Key struct {
	Year  int
	Week  int
	State string
}

// Sink accumulates validated records across workers. It is the only
// cross-worker mutable structure in the pipeline, so every insert is
// serialized here; extraction and validation stay concurrent.
type Sink struct {
	mu      sync.Mutex
	records map[Key]llm.CandidateRecord
}

func NewSink() *Sink {
	return &Sink{records: make(map[Key]llm.CandidateRecord)}
}

// Add inserts or replaces the record for its (year, week, state) key.
// On conflict the most recently accepted value wins; a retried page
// supersedes whatever an earlier attempt committed.
func (s *Sink) Add(rec llm.CandidateRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[Key{Year: rec.Year, Week: rec.Week, State: rec.State}] = rec
}

// AddAll inserts a batch under one lock acquisition.
func (s *Sink) AddAll(recs []llm.CandidateRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.records[Key{Year: rec.Year, Week: rec.Week, State: rec.State}] = rec
	}
}

// Len reports the number of accumulated observations.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Snapshot returns the dataset ordered by (year, week, state), with
// each week's Total row last, the order the combination stage expects.
func (s *Sink) Snapshot() []llm.CandidateRecord {
	s.mu.Lock()
	out := make([]llm.CandidateRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if a.IsTotal() != b.IsTotal() {
			return b.IsTotal()
		}
		return a.State < b.State
	})
	return out
}
