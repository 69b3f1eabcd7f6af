// Package export renders the validated dataset for the downstream
// combination stage: CSV with the stable field order, and an XLSX
// workbook for manual review.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/lassa-tracker/internal/llm"
)

// FieldOrder is the persisted dataset schema; later stages index by
// position, so this never changes without a schema bump downstream.
var FieldOrder = []string{"year", "week", "state", "suspected", "confirmed", "probable", "hcw", "deaths"}

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

func recordRow(rec llm.CandidateRecord) []string {
	return []string{
		strconv.Itoa(rec.Year),
		strconv.Itoa(rec.Week),
		rec.State,
		rec.Suspected.String(),
		rec.Confirmed.String(),
		rec.Probable.String(),
		rec.HCW.String(),
		rec.Deaths.String(),
	}
}

// WriteCSV streams the dataset as CSV with a header row.
func (s *Service) WriteCSV(w io.Writer, recs []llm.CandidateRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FieldOrder); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range recs {
		if err := cw.Write(recordRow(rec)); err != nil {
			return fmt.Errorf("write csv row %d W%d %s: %w", rec.Year, rec.Week, rec.State, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportXLSX returns an XLSX workbook (as bytes) for the dataset.
func (s *Service) ExportXLSX(recs []llm.CandidateRecord) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Dataset"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	header := make([]any, len(FieldOrder))
	for i, h := range FieldOrder {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, rec := range recs {
		row := make([]any, 0, len(FieldOrder))
		row = append(row, rec.Year, rec.Week, rec.State)
		for _, c := range rec.Counts() {
			if c.Known {
				row = append(row, c.Value)
			} else {
				row = append(row, c.String())
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"records", len(recs), "bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}
