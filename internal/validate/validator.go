// Package validate enforces the reporting-scheme invariants on
// extracted case counts. Everything here is pure and deterministic:
// same record in, same verdict out, regardless of call order.
package validate

import (
	"github.com/joseph-ayodele/lassa-tracker/constants"
	"github.com/joseph-ayodele/lassa-tracker/internal/llm"
)

// Verdict classifies one candidate record.
type Verdict struct {
	Valid bool
	Rule  constants.Rule // set when invalid
}

func valid() Verdict {
	return Verdict{Valid: true}
}

func invalid(rule constants.Rule) Verdict {
	return Verdict{Rule: rule}
}

// Record applies the consistency invariants in order, short-circuiting
// on the first failure. Unknown counts pass the presence rule but are
// excluded from ordering comparisons; a case count can legitimately be
// unreported while its neighbors are not.
func Record(rec llm.CandidateRecord, taggedYear int) Verdict {
	// 1. every field is a non-negative integer or explicitly unknown
	for _, c := range rec.Counts() {
		if c.Malformed() || (c.Known && c.Value < 0) {
			return invalid(constants.RuleFields)
		}
	}

	// 2. a case cannot be confirmed without first being suspected
	if lessThan(rec.Suspected, rec.Confirmed) {
		return invalid(constants.RuleSuspectedConfirmed)
	}

	// 3. probable cases are a subset of suspected; deaths are recorded
	// against confirmed cases only
	if lessThan(rec.Suspected, rec.Probable) {
		return invalid(constants.RuleSuspectedProbable)
	}
	if lessThan(rec.Confirmed, rec.Deaths) {
		return invalid(constants.RuleConfirmedDeaths)
	}

	// 4. period sanity against the artifact's tag
	if rec.Week < 1 || rec.Week > 53 {
		return invalid(constants.RuleWeek)
	}
	if rec.Year != taggedYear {
		return invalid(constants.RuleYear)
	}

	return valid()
}

// lessThan reports a < b when both operands are known.
func lessThan(a, b llm.Count) bool {
	return a.Known && b.Known && a.Value < b.Value
}
