package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lassa-tracker/constants"
	"github.com/joseph-ayodele/lassa-tracker/internal/llm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAndLoadRecords(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	unknown := rec(2021, 9, "ondo", 0)
	unknown.HCW = llm.UnknownCount()

	require.NoError(t, s.UpsertRecords(ctx, []llm.CandidateRecord{
		rec(2021, 9, "total", 30),
		rec(2021, 9, "edo", 12),
		unknown,
	}))

	got, err := s.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// ordered by (year, week, state) with total last
	assert.Equal(t, "edo", got[0].State)
	assert.Equal(t, "ondo", got[1].State)
	assert.Equal(t, "total", got[2].State)

	assert.Equal(t, 12, got[0].Suspected.Value)
	// the unknown sentinel survives the round trip as unknown, not zero
	assert.True(t, got[1].HCW.Unknown())
}

func TestUpsertRecordsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.UpsertRecords(ctx, []llm.CandidateRecord{rec(2021, 9, "edo", 10)}))
	require.NoError(t, s.UpsertRecords(ctx, []llm.CandidateRecord{rec(2021, 9, "edo", 14)}))

	got, err := s.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 14, got[0].Suspected.Value)
}

func TestUpsertRecordsEmptyBatch(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.UpsertRecords(context.Background(), nil))
}

func TestMarkPageAndStatus(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	status, err := s.PageStatus(ctx, "report_21_W09", 2021, 3)
	require.NoError(t, err)
	assert.Equal(t, constants.PageStatus(""), status)

	require.NoError(t, s.MarkPage(ctx, "report_21_W09", 2021, 3, constants.PageEnhanced, ""))
	status, err = s.PageStatus(ctx, "report_21_W09", 2021, 3)
	require.NoError(t, err)
	assert.Equal(t, constants.PageEnhanced, status)

	// re-marking overwrites
	require.NoError(t, s.MarkPage(ctx, "report_21_W09", 2021, 3, constants.PageExtracted, "42 records"))
	status, err = s.PageStatus(ctx, "report_21_W09", 2021, 3)
	require.NoError(t, err)
	assert.Equal(t, constants.PageExtracted, status)
}
