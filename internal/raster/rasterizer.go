package raster

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/joseph-ayodele/lassa-tracker/internal/common"
	"github.com/joseph-ayodele/lassa-tracker/internal/document"
)

// PageRaster is one rendered report page. It lives only long enough
// for the detector and enhancer to consume it.
type PageRaster struct {
	DocID     string
	Year      int
	Week      int
	PageIndex int
	DPI       int
	Image     *image.RGBA
}

// Rasterizer renders report pages through MuPDF.
type Rasterizer struct {
	store  document.Store
	logger *slog.Logger
}

func NewRasterizer(store document.Store, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rasterizer{store: store, logger: logger}
}

// PageCount reports how many pages a report has.
func (r *Rasterizer) PageCount(ctx context.Context, doc document.SourceDocument) (int, error) {
	b, err := r.store.Read(ctx, doc)
	if err != nil {
		return 0, err
	}
	fdoc, err := fitz.NewFromMemory(b)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %v", common.ErrDocumentRead, doc.ID, err)
	}
	defer fdoc.Close()
	return fdoc.NumPage(), nil
}

// Render rasterizes one page at the requested DPI. An out-of-range
// index or a corrupt source fails that page only.
func (r *Rasterizer) Render(ctx context.Context, doc document.SourceDocument, pageIndex, dpi int) (*PageRaster, error) {
	start := time.Now()

	b, err := r.store.Read(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fdoc, err := fitz.NewFromMemory(b)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrDocumentRead, doc.ID, err)
	}
	defer fdoc.Close()

	if pageIndex < 0 || pageIndex >= fdoc.NumPage() {
		return nil, fmt.Errorf("%w: %s: page %d of %d", common.ErrDocumentRead, doc.ID, pageIndex, fdoc.NumPage())
	}

	img, err := fdoc.ImageDPI(pageIndex, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("%w: render %s page %d: %v", common.ErrDocumentRead, doc.ID, pageIndex, err)
	}

	r.logger.Info("raster.render.ok",
		"doc_id", doc.ID,
		"year", doc.Year,
		"page", pageIndex,
		"dpi", dpi,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return &PageRaster{
		DocID:     doc.ID,
		Year:      doc.Year,
		Week:      doc.Week,
		PageIndex: pageIndex,
		DPI:       dpi,
		Image:     img,
	}, nil
}
