// Package extract drives the validate-retry state machine around the
// external structured-extraction capability.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lassa-tracker/constants"
	"github.com/joseph-ayodele/lassa-tracker/internal/artifact"
	"github.com/joseph-ayodele/lassa-tracker/internal/common"
	"github.com/joseph-ayodele/lassa-tracker/internal/dataset"
	"github.com/joseph-ayodele/lassa-tracker/internal/llm"
	"github.com/joseph-ayodele/lassa-tracker/internal/validate"
)

// Attempt groups one enhanced image with its extraction progress.
// Retries mutate the same Attempt; it terminates Accepted or Exhausted.
type Attempt struct {
	ID       uuid.UUID
	Tag      artifact.Tag
	Week     int
	Counter  int
	State    constants.AttemptState
	Records  []llm.CandidateRecord
	Verdicts []validate.Verdict
}

// Committed returns the records whose verdicts passed.
func (a *Attempt) Committed() []llm.CandidateRecord {
	var out []llm.CandidateRecord
	for i, v := range a.Verdicts {
		if v.Valid {
			out = append(out, a.Records[i])
		}
	}
	return out
}

// Orchestrator submits artifacts for extraction, validates what comes
// back, and retries with a correction hint until the budget runs out.
// Attempts for different images are independent; retries against one
// image are strictly sequential because each retry instruction depends
// on the previous result.
type Orchestrator struct {
	store     artifact.Store
	extractor llm.TableExtractor
	sink      *dataset.Sink
	budget    int
	logger    *slog.Logger
}

func NewOrchestrator(store artifact.Store, extractor llm.TableExtractor, sink *dataset.Sink, budget int, logger *slog.Logger) *Orchestrator {
	if budget < 1 {
		budget = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     store,
		extractor: extractor,
		sink:      sink,
		budget:    budget,
		logger:    logger,
	}
}

// Run processes one exported artifact to a terminal state. On
// Exhausted it still commits whatever validated on the final parsed
// call and returns ErrRetryBudgetExhausted; the caller logs the gap
// and moves on; a missing week must never block the run.
func (o *Orchestrator) Run(ctx context.Context, tag artifact.Tag, week int) (*Attempt, error) {
	att := &Attempt{
		ID:    uuid.New(),
		Tag:   tag,
		Week:  week,
		State: constants.AttemptPending,
	}

	image, err := o.store.Get(ctx, tag)
	if err != nil {
		att.State = constants.AttemptCallFailed
		return att, common.WrapError(err, "load artifact")
	}
	instruction := llm.BuildInstruction(tag.Year, week)

	var hints []llm.InvalidHint
	for att.Counter < o.budget {
		att.Counter++
		att.State = constants.AttemptSubmitted

		rows, _, err := o.extractor.ExtractTable(ctx, llm.ExtractRequest{
			ImagePNG:    image,
			Instruction: instruction,
			PriorHints:  hints,
		})
		if err != nil {
			att.State = constants.AttemptCallFailed
			o.logger.Warn("extract.attempt.call_failed",
				"attempt_id", att.ID, "doc_id", tag.DocID, "year", tag.Year,
				"page", tag.PageIndex, "counter", att.Counter, "error", err)
			if o.retry(att) {
				continue
			}
			break
		}

		att.Records = llm.DecodeRows(rows, o.logger)
		att.State = constants.AttemptParsed
		att.Verdicts = o.validateAll(att)

		switch att.State {
		case constants.AttemptAllValid:
			att.State = constants.AttemptAccepted
			o.sink.AddAll(att.Records)
			o.auditTotals(att)
			o.logger.Info("extract.attempt.accepted",
				"attempt_id", att.ID, "doc_id", tag.DocID, "year", tag.Year,
				"page", tag.PageIndex, "counter", att.Counter, "records", len(att.Records))
			return att, nil
		case constants.AttemptPartiallyInvalid, constants.AttemptAllInvalid:
			hints = buildHints(att)
			if o.retry(att) {
				continue
			}
		}
		break
	}

	// Budget exhausted: keep what validated, surface the rest.
	att.State = constants.AttemptExhausted
	kept := att.Committed()
	o.sink.AddAll(kept)
	o.logger.Error("extract.attempt.exhausted",
		"attempt_id", att.ID, "doc_id", tag.DocID, "year", tag.Year,
		"page", tag.PageIndex, "counter", att.Counter,
		"kept", len(kept), "discarded", len(att.Records)-len(kept))
	return att, fmt.Errorf("%w: %s after %d attempts", common.ErrRetryBudgetExhausted, tag, att.Counter)
}

// retry transitions to RetryScheduled when budget remains.
func (o *Orchestrator) retry(att *Attempt) bool {
	if att.Counter >= o.budget {
		return false
	}
	att.State = constants.AttemptRetryScheduled
	return true
}

// validateAll classifies every record and sets the aggregate state.
func (o *Orchestrator) validateAll(att *Attempt) []validate.Verdict {
	verdicts := make([]validate.Verdict, len(att.Records))
	validCount := 0
	for i, rec := range att.Records {
		v := validate.Record(rec, att.Tag.Year)
		verdicts[i] = v
		if v.Valid {
			validCount++
			continue
		}
		o.logger.Warn("validate.record.invalid",
			"attempt_id", att.ID, "doc_id", att.Tag.DocID, "year", att.Tag.Year,
			"page", att.Tag.PageIndex, "state", rec.State,
			"rule", string(v.Rule), "row", rec.String())
	}

	switch {
	case len(att.Records) == 0:
		// an empty table is indistinguishable from a misread; retry
		att.State = constants.AttemptAllInvalid
	case validCount == len(att.Records):
		att.State = constants.AttemptAllValid
	case validCount == 0:
		att.State = constants.AttemptAllInvalid
	default:
		att.State = constants.AttemptPartiallyInvalid
	}
	return verdicts
}

// buildHints renders the invalid rows for the retry instruction.
func buildHints(att *Attempt) []llm.InvalidHint {
	var hints []llm.InvalidHint
	for i, v := range att.Verdicts {
		if v.Valid {
			continue
		}
		rec := att.Records[i]
		hints = append(hints, llm.InvalidHint{
			State: rec.State,
			Rule:  string(v.Rule),
			Row:   rec.String(),
		})
	}
	return hints
}

// auditTotals compares the Total row against the column sums when both
// sides are fully known. A mismatch is an audit log entry only; the
// publisher's totals occasionally lag corrections in the state rows.
func (o *Orchestrator) auditTotals(att *Attempt) {
	var total *llm.CandidateRecord
	sums := [5]int{}
	known := [5]bool{true, true, true, true, true}
	for i := range att.Records {
		rec := &att.Records[i]
		if rec.IsTotal() {
			total = rec
			continue
		}
		for j, c := range rec.Counts() {
			if !c.Known {
				known[j] = false
				continue
			}
			sums[j] += c.Value
		}
	}
	if total == nil {
		return
	}
	names := [5]string{"suspected", "confirmed", "probable", "hcw", "deaths"}
	for j, c := range total.Counts() {
		if !known[j] || !c.Known {
			continue
		}
		if c.Value != sums[j] {
			o.logger.Warn("extract.totals.mismatch",
				"attempt_id", att.ID, "doc_id", att.Tag.DocID, "year", att.Tag.Year,
				"page", att.Tag.PageIndex, "column", names[j],
				"total_row", c.Value, "column_sum", sums[j])
		}
	}
}
