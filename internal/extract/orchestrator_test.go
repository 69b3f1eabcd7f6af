package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lassa-tracker/constants"
	"github.com/joseph-ayodele/lassa-tracker/internal/artifact"
	"github.com/joseph-ayodele/lassa-tracker/internal/common"
	"github.com/joseph-ayodele/lassa-tracker/internal/dataset"
	"github.com/joseph-ayodele/lassa-tracker/internal/llm"
)

type memStore map[string][]byte

func (m memStore) Put(_ context.Context, tag artifact.Tag, data []byte) error {
	m[tag.String()] = data
	return nil
}

func (m memStore) Get(_ context.Context, tag artifact.Tag) ([]byte, error) {
	b, ok := m[tag.String()]
	if !ok {
		return nil, fmt.Errorf("missing %s", tag)
	}
	return b, nil
}

// scriptedExtractor replays one outcome per call and records the
// requests it saw.
type scriptedExtractor struct {
	outcomes []func() ([]llm.TableRow, error)
	requests []llm.ExtractRequest
}

func (s *scriptedExtractor) ExtractTable(_ context.Context, req llm.ExtractRequest) ([]llm.TableRow, []byte, error) {
	s.requests = append(s.requests, req)
	if len(s.requests) > len(s.outcomes) {
		return nil, nil, fmt.Errorf("unexpected call %d", len(s.requests))
	}
	rows, err := s.outcomes[len(s.requests)-1]()
	return rows, nil, err
}

func callFails() func() ([]llm.TableRow, error) {
	return func() ([]llm.TableRow, error) {
		return nil, fmt.Errorf("%w: boom", common.ErrExtractionCall)
	}
}

func returns(rows ...llm.TableRow) func() ([]llm.TableRow, error) {
	return func() ([]llm.TableRow, error) { return rows, nil }
}

func row(state string, suspected, confirmed, deaths int) llm.TableRow {
	return llm.TableRow{
		State: state, Year: 2021, Week: 9,
		Suspected: llm.KnownCount(suspected),
		Confirmed: llm.KnownCount(confirmed),
		Probable:  llm.KnownCount(0),
		HCW:       llm.KnownCount(0),
		Deaths:    llm.KnownCount(deaths),
	}
}

func testTag() artifact.Tag {
	return artifact.Tag{DocID: "report_21_W09", Year: 2021, PageIndex: 3}
}

func storeWithArtifact(t *testing.T) memStore {
	t.Helper()
	store := memStore{}
	require.NoError(t, store.Put(context.Background(), testTag(), []byte("png")))
	return store
}

func TestRunAcceptsAfterFailures(t *testing.T) {
	ext := &scriptedExtractor{outcomes: []func() ([]llm.TableRow, error){
		callFails(),
		callFails(),
		returns(row("Edo", 30, 12, 2), row("Ondo", 25, 8, 1)),
	}}
	sink := dataset.NewSink()
	o := NewOrchestrator(storeWithArtifact(t), ext, sink, 3, nil)

	att, err := o.Run(context.Background(), testTag(), 9)
	require.NoError(t, err)

	assert.Equal(t, constants.AttemptAccepted, att.State)
	assert.Equal(t, 3, att.Counter)
	assert.Equal(t, 2, sink.Len())
}

func TestRunAcceptsAfterValidationFailures(t *testing.T) {
	bad := row("Edo", 10, 15, 2) // fails suspected≥confirmed
	ext := &scriptedExtractor{outcomes: []func() ([]llm.TableRow, error){
		returns(bad),
		returns(bad),
		returns(row("Edo", 30, 12, 2)),
	}}
	sink := dataset.NewSink()
	o := NewOrchestrator(storeWithArtifact(t), ext, sink, 3, nil)

	att, err := o.Run(context.Background(), testTag(), 9)
	require.NoError(t, err)
	assert.Equal(t, constants.AttemptAccepted, att.State)
	assert.Equal(t, 3, att.Counter)
	assert.Equal(t, 1, sink.Len())
}

func TestRunExhaustsWhenNothingValidates(t *testing.T) {
	bad := row("Edo", 10, 15, 2)
	ext := &scriptedExtractor{outcomes: []func() ([]llm.TableRow, error){
		returns(bad), returns(bad), returns(bad),
	}}
	sink := dataset.NewSink()
	o := NewOrchestrator(storeWithArtifact(t), ext, sink, 3, nil)

	att, err := o.Run(context.Background(), testTag(), 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRetryBudgetExhausted))
	assert.Equal(t, constants.AttemptExhausted, att.State)
	assert.Equal(t, 3, att.Counter)
	assert.Equal(t, 0, sink.Len())
}

func TestRunExhaustsOnRepeatedCallFailure(t *testing.T) {
	ext := &scriptedExtractor{outcomes: []func() ([]llm.TableRow, error){
		callFails(), callFails(), callFails(),
	}}
	sink := dataset.NewSink()
	o := NewOrchestrator(storeWithArtifact(t), ext, sink, 3, nil)

	att, err := o.Run(context.Background(), testTag(), 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRetryBudgetExhausted))

	assert.Equal(t, constants.AttemptExhausted, att.State)
	assert.Equal(t, 3, att.Counter)
	assert.Len(t, ext.requests, 3)
	assert.Equal(t, 0, sink.Len())
}

func TestRunRetriesWithHints(t *testing.T) {
	bad := row("Edo", 10, 15, 2) // confirmed exceeds suspected
	ext := &scriptedExtractor{outcomes: []func() ([]llm.TableRow, error){
		returns(bad, row("Ondo", 25, 8, 1)),
		returns(row("Edo", 30, 15, 2), row("Ondo", 25, 8, 1)),
	}}
	sink := dataset.NewSink()
	o := NewOrchestrator(storeWithArtifact(t), ext, sink, 3, nil)

	att, err := o.Run(context.Background(), testTag(), 9)
	require.NoError(t, err)
	assert.Equal(t, constants.AttemptAccepted, att.State)
	assert.Equal(t, 2, att.Counter)

	require.Len(t, ext.requests, 2)
	assert.Empty(t, ext.requests[0].PriorHints)
	require.Len(t, ext.requests[1].PriorHints, 1)
	hint := ext.requests[1].PriorHints[0]
	assert.Equal(t, "edo", hint.State)
	assert.Equal(t, string(constants.RuleSuspectedConfirmed), hint.Rule)
	assert.Contains(t, hint.Row, "suspected=10")
}

func TestRunExhaustedCommitsValidSubset(t *testing.T) {
	bad := row("Edo", 10, 15, 2)
	good := row("Ondo", 25, 8, 1)
	ext := &scriptedExtractor{outcomes: []func() ([]llm.TableRow, error){
		returns(bad, good), returns(bad, good), returns(bad, good),
	}}
	sink := dataset.NewSink()
	o := NewOrchestrator(storeWithArtifact(t), ext, sink, 3, nil)

	att, err := o.Run(context.Background(), testTag(), 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRetryBudgetExhausted))
	assert.Equal(t, constants.AttemptExhausted, att.State)

	// the valid row is kept, the invalid one is not
	recs := sink.Snapshot()
	require.Len(t, recs, 1)
	assert.Equal(t, "ondo", recs[0].State)
}

func TestRunEmptyTableRetries(t *testing.T) {
	ext := &scriptedExtractor{outcomes: []func() ([]llm.TableRow, error){
		returns(), // empty parse is treated as all-invalid
		returns(row("Edo", 30, 12, 2)),
	}}
	sink := dataset.NewSink()
	o := NewOrchestrator(storeWithArtifact(t), ext, sink, 3, nil)

	att, err := o.Run(context.Background(), testTag(), 9)
	require.NoError(t, err)
	assert.Equal(t, constants.AttemptAccepted, att.State)
	assert.Equal(t, 2, att.Counter)
}

func TestRunMissingArtifact(t *testing.T) {
	ext := &scriptedExtractor{}
	o := NewOrchestrator(memStore{}, ext, dataset.NewSink(), 3, nil)

	att, err := o.Run(context.Background(), testTag(), 9)
	require.Error(t, err)
	assert.Equal(t, constants.AttemptCallFailed, att.State)
	assert.Empty(t, ext.requests)
}

func TestAttemptCommitted(t *testing.T) {
	att := &Attempt{}
	assert.Empty(t, att.Committed())
}
