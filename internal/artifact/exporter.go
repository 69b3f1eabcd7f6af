package artifact

import (
	"bytes"
	"context"
	"image/png"
	"log/slog"

	"github.com/joseph-ayodele/lassa-tracker/internal/common"
	"github.com/joseph-ayodele/lassa-tracker/internal/enhance"
)

// Exporter encodes enhanced regions and writes them through the store.
type Exporter struct {
	store  Store
	logger *slog.Logger
}

func NewExporter(store Store, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{store: store, logger: logger}
}

// Export PNG-encodes the enhanced image and stores it under its tag.
// Exporting the same tag again overwrites the prior artifact, so a
// re-run of the enhancement stage is idempotent.
func (e *Exporter) Export(ctx context.Context, img *enhance.EnhancedImage) (Tag, error) {
	tag := Tag{DocID: img.DocID, Year: img.Year, PageIndex: img.PageIndex}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Image); err != nil {
		return tag, common.WrapError(err, "encode artifact")
	}
	if err := e.store.Put(ctx, tag, buf.Bytes()); err != nil {
		return tag, err
	}

	e.logger.Info("artifact.export.ok",
		"doc_id", img.DocID, "year", img.Year, "page", img.PageIndex,
		"key", tag.Key(), "bytes", buf.Len())
	return tag, nil
}
