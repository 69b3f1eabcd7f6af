package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/lassa-tracker/constants"
	"github.com/joseph-ayodele/lassa-tracker/internal/artifact"
	"github.com/joseph-ayodele/lassa-tracker/internal/common"
	"github.com/joseph-ayodele/lassa-tracker/internal/dataset"
	"github.com/joseph-ayodele/lassa-tracker/internal/document"
	"github.com/joseph-ayodele/lassa-tracker/internal/enhance"
	"github.com/joseph-ayodele/lassa-tracker/internal/extract"
	"github.com/joseph-ayodele/lassa-tracker/internal/raster"
	"github.com/joseph-ayodele/lassa-tracker/internal/region"
)

// Processor runs the per-page pipeline: rasterize, detect, enhance,
// export, then the extraction state machine. Pages are independent;
// nothing here is shared across workers except the sink inside the
// orchestrator and the audit store, both of which serialize writes.
type Processor struct {
	Logger       *slog.Logger
	Rasterizer   *raster.Rasterizer
	Detector     *region.Detector
	Enhancer     *enhance.Enhancer
	Exporter     *artifact.Exporter
	Orchestrator *extract.Orchestrator
	Store        *dataset.Store // optional audit/persistence; nil disables
	DPI          int
}

// EnhancePage renders one page, isolates the table and exports the
// enhanced artifact. A page without marker rows is not an error to the
// run: it is flagged for manual handling and skipped.
func (p *Processor) EnhancePage(ctx context.Context, doc document.SourceDocument, pageIndex int) (artifact.Tag, error) {
	var tag artifact.Tag

	pr, err := p.Rasterizer.Render(ctx, doc, pageIndex, p.DPI)
	if err != nil {
		p.mark(ctx, doc, pageIndex, constants.PageReadFailed, err.Error())
		return tag, err
	}

	reg, err := p.Detector.Detect(pr)
	if err != nil {
		if errors.Is(err, common.ErrRegionNotFound) {
			p.mark(ctx, doc, pageIndex, constants.PageRegionNotFound, err.Error())
		} else {
			p.mark(ctx, doc, pageIndex, constants.PageReadFailed, err.Error())
		}
		return tag, err
	}

	img, err := p.Enhancer.Enhance(pr, reg)
	if err != nil {
		p.mark(ctx, doc, pageIndex, constants.PageEnhanceFailed, err.Error())
		return tag, err
	}

	tag, err = p.Exporter.Export(ctx, img)
	if err != nil {
		p.mark(ctx, doc, pageIndex, constants.PageEnhanceFailed, err.Error())
		return tag, err
	}
	p.mark(ctx, doc, pageIndex, constants.PageEnhanced, "")
	return tag, nil
}

// ExtractPage runs the state machine for one exported artifact and
// persists whatever it committed.
func (p *Processor) ExtractPage(ctx context.Context, doc document.SourceDocument, tag artifact.Tag) error {
	att, err := p.Orchestrator.Run(ctx, tag, doc.Week)

	kept := att.Committed()
	if p.Store != nil && len(kept) > 0 {
		if perr := p.Store.UpsertRecords(ctx, kept); perr != nil {
			p.Logger.Error("pipeline.persist.failed",
				"doc_id", doc.ID, "year", doc.Year, "page", tag.PageIndex, "error", perr)
		}
	}

	switch {
	case err == nil:
		p.mark(ctx, doc, tag.PageIndex, constants.PageExtracted, "")
		return nil
	case errors.Is(err, common.ErrRetryBudgetExhausted) && len(kept) > 0:
		p.mark(ctx, doc, tag.PageIndex, constants.PagePartial, err.Error())
		return err
	default:
		p.mark(ctx, doc, tag.PageIndex, constants.PageExhausted, err.Error())
		return err
	}
}

// ProcessPage is the full pipeline for one page. Recoverable outcomes
// (no region, exhausted budget) return nil so a worker never treats
// them as job failures; they are already logged and audited.
func (p *Processor) ProcessPage(ctx context.Context, doc document.SourceDocument, pageIndex int) error {
	if p.Store != nil {
		status, err := p.Store.PageStatus(ctx, doc.ID, doc.Year, pageIndex)
		if err != nil {
			return err
		}
		if status == constants.PageExtracted {
			p.Logger.Info("pipeline.page.skip_done", "doc_id", doc.ID, "year", doc.Year, "page", pageIndex)
			return nil
		}
	}

	tag, err := p.EnhancePage(ctx, doc, pageIndex)
	if err != nil {
		if errors.Is(err, common.ErrRegionNotFound) || errors.Is(err, common.ErrDocumentRead) {
			return nil // fatal for this page only; run continues
		}
		return err
	}

	if err := p.ExtractPage(ctx, doc, tag); err != nil {
		if errors.Is(err, common.ErrRetryBudgetExhausted) {
			return nil
		}
		return err
	}
	return nil
}

func (p *Processor) mark(ctx context.Context, doc document.SourceDocument, pageIndex int, status constants.PageStatus, detail string) {
	if p.Store == nil {
		return
	}
	if err := p.Store.MarkPage(ctx, doc.ID, doc.Year, pageIndex, status, detail); err != nil {
		p.Logger.Error("pipeline.audit.mark_failed",
			"doc_id", doc.ID, "year", doc.Year, "page", pageIndex,
			"status", string(status), "error", err)
	}
}
