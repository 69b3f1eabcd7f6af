package llm

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/lassa-tracker/constants"
)

// CandidateRecord is one state/week observation produced by an
// extraction call, normalized but not yet validated.
type CandidateRecord struct {
	Year      int
	Week      int
	State     string
	Suspected Count
	Confirmed Count
	Probable  Count
	HCW       Count
	Deaths    Count
}

// IsTotal reports whether this is the aggregate bottom row.
func (r CandidateRecord) IsTotal() bool {
	return r.State == constants.TotalRow
}

// Counts returns the five numeric fields in the dataset field order.
func (r CandidateRecord) Counts() [5]Count {
	return [5]Count{r.Suspected, r.Confirmed, r.Probable, r.HCW, r.Deaths}
}

func (r CandidateRecord) String() string {
	return fmt.Sprintf("%s suspected=%s confirmed=%s probable=%s hcw=%s deaths=%s",
		r.State, r.Suspected, r.Confirmed, r.Probable, r.HCW, r.Deaths)
}

func (r CandidateRecord) blank() bool {
	for _, c := range r.Counts() {
		if !c.Unknown() {
			return false
		}
	}
	return true
}

// DecodeRows normalizes wire rows into candidate records: state names
// are lowercased with hyphens folded to spaces, rows with no values at
// all are dropped (the model sometimes pads the roster with empty
// states), and names outside the roster are kept but logged so new
// spellings reach the audit trail.
func DecodeRows(rows []TableRow, logger *slog.Logger) []CandidateRecord {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]CandidateRecord, 0, len(rows))
	for _, row := range rows {
		state, known := constants.CanonicalState(row.State)
		rec := CandidateRecord{
			Year:      row.Year,
			Week:      row.Week,
			State:     state,
			Suspected: row.Suspected,
			Confirmed: row.Confirmed,
			Probable:  row.Probable,
			HCW:       row.HCW,
			Deaths:    row.Deaths,
		}
		if state == "" || (rec.blank() && !rec.IsTotal()) {
			continue
		}
		if !known {
			logger.Warn("llm.decode.unknown_state", "state", row.State, "year", row.Year, "week", row.Week)
		}
		out = append(out, rec)
	}
	return out
}
