package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wireRow(state string, suspected Count) TableRow {
	return TableRow{
		State: state, Year: 2021, Week: 9,
		Suspected: suspected,
		Confirmed: UnknownCount(),
		Probable:  UnknownCount(),
		HCW:       UnknownCount(),
		Deaths:    UnknownCount(),
	}
}

func TestDecodeRowsNormalizesStates(t *testing.T) {
	rows := []TableRow{
		wireRow("Akwa-Ibom", KnownCount(3)),
		wireRow("EDO", KnownCount(12)),
		wireRow("Total", KnownCount(15)),
	}
	recs := DecodeRows(rows, nil)
	require.Len(t, recs, 3)
	assert.Equal(t, "akwa ibom", recs[0].State)
	assert.Equal(t, "edo", recs[1].State)
	assert.Equal(t, "total", recs[2].State)
	assert.True(t, recs[2].IsTotal())
}

func TestDecodeRowsDropsBlankRows(t *testing.T) {
	rows := []TableRow{
		wireRow("Ondo", UnknownCount()), // every count unknown, padding
		wireRow("Edo", KnownCount(4)),
	}
	recs := DecodeRows(rows, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, "edo", recs[0].State)
}

func TestDecodeRowsKeepsBlankTotal(t *testing.T) {
	// a fully-unknown Total row is meaningful: the publisher left the
	// aggregate blank that week
	rows := []TableRow{wireRow("Total", UnknownCount())}
	recs := DecodeRows(rows, nil)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].IsTotal())
}

func TestDecodeRowsKeepsUnknownStateNames(t *testing.T) {
	rows := []TableRow{wireRow("Edo Central", KnownCount(1))}
	recs := DecodeRows(rows, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, "edo central", recs[0].State)
}

func TestCandidateRecordString(t *testing.T) {
	rec := CandidateRecord{
		State:     "kogi",
		Suspected: KnownCount(8),
		Confirmed: KnownCount(2),
		Probable:  UnknownCount(),
		HCW:       KnownCount(0),
		Deaths:    KnownCount(1),
	}
	assert.Equal(t, "kogi suspected=8 confirmed=2 probable=unknown hcw=0 deaths=1", rec.String())
}
