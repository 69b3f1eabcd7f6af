package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/lassa-tracker/internal/llm"
)

func sampleRecords() []llm.CandidateRecord {
	return []llm.CandidateRecord{
		{
			Year: 2021, Week: 9, State: "edo",
			Suspected: llm.KnownCount(33), Confirmed: llm.KnownCount(12),
			Probable: llm.KnownCount(0), HCW: llm.UnknownCount(), Deaths: llm.KnownCount(2),
		},
		{
			Year: 2021, Week: 9, State: "total",
			Suspected: llm.KnownCount(33), Confirmed: llm.KnownCount(12),
			Probable: llm.KnownCount(0), HCW: llm.UnknownCount(), Deaths: llm.KnownCount(2),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(nil)
	require.NoError(t, svc.WriteCSV(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, FieldOrder, rows[0])
	assert.Equal(t, []string{"2021", "9", "edo", "33", "12", "0", "unknown", "2"}, rows[1])
	assert.Equal(t, "total", rows[2][2])
}

func TestWriteCSVEmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(nil)
	require.NoError(t, svc.WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}

func TestExportXLSX(t *testing.T) {
	svc := NewService(nil)
	b, err := svc.ExportXLSX(sampleRecords())
	require.NoError(t, err)
	require.NotEmpty(t, b)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Dataset"}, f.GetSheetList())

	header, err := f.GetCellValue("Dataset", "A1")
	require.NoError(t, err)
	assert.Equal(t, "year", header)

	state, err := f.GetCellValue("Dataset", "C2")
	require.NoError(t, err)
	assert.Equal(t, "edo", state)

	suspected, err := f.GetCellValue("Dataset", "D2")
	require.NoError(t, err)
	assert.Equal(t, "33", suspected)

	hcw, err := f.GetCellValue("Dataset", "G2")
	require.NoError(t, err)
	assert.Equal(t, "unknown", hcw)
}
