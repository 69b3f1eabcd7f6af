package enhance

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	"github.com/joseph-ayodele/lassa-tracker/internal/common"
	"github.com/joseph-ayodele/lassa-tracker/internal/raster"
	"github.com/joseph-ayodele/lassa-tracker/internal/region"
)

// EnhancedImage is the cropped table region with its grid lines
// redrawn at full contrast, tagged for the extraction stage.
type EnhancedImage struct {
	Image     *image.RGBA
	DocID     string
	Year      int
	Week      int
	PageIndex int
}

// lineGray is the shade the grid lines are stamped with. Dark enough
// for the extraction service to track cell boundaries, light enough
// not to swallow digits that touch a line.
var lineGray = color.RGBA{R: 100, G: 100, B: 100, A: 255}

// Enhancer redraws the faint table grid inside a detected region.
// The scans ink the row/column rules so lightly that the extraction
// service merges adjacent cells; emphasizing long horizontal and
// vertical ink runs and stamping them back fixes that without touching
// the printed numbers.
type Enhancer struct {
	// MinLineFrac is the minimum length of an ink run, as a fraction of
	// the region dimension, for it to count as a grid line rather than
	// text strokes. Zero means the default.
	MinLineFrac float64
	logger      *slog.Logger
}

const defaultMinLineFrac = 0.05

func NewEnhancer(logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{logger: logger}
}

// Enhance crops the raster to the region and returns the line-enhanced
// copy. The output dimensions equal the crop dimensions exactly; no
// resampling happens at any point, so header text stays aligned.
func (e *Enhancer) Enhance(pr *raster.PageRaster, reg region.TableRegion) (*EnhancedImage, error) {
	bounds := reg.Bounds.Intersect(pr.Image.Bounds())
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, common.NewAppError("ENHANCE_EMPTY_REGION",
			fmt.Sprintf("%s page %d: region %s is empty", pr.DocID, pr.PageIndex, reg.Bounds.String()),
			common.ErrInvalidInput)
	}

	w, h := bounds.Dx(), bounds.Dy()
	crop := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(crop, crop.Bounds(), pr.Image, bounds.Min, draw.Src)

	gray, thr := grayAndThreshold(crop)
	ink := make([]bool, w*h)
	for i, v := range gray {
		ink[i] = v < thr
	}

	frac := e.MinLineFrac
	if frac <= 0 {
		frac = defaultMinLineFrac
	}
	minH := maxInt(int(float64(w)*frac), 16)
	minV := maxInt(int(float64(h)*frac), 16)

	hLines := horizontalRuns(ink, w, h, minH)
	vLines := verticalRuns(ink, w, h, minV)

	stamped := 0
	for i := range hLines {
		if hLines[i] || vLines[i] {
			x, y := i%w, i/w
			crop.SetRGBA(x, y, lineGray)
			stamped++
		}
	}

	e.logger.Info("enhance.lines.ok",
		"doc_id", pr.DocID, "year", pr.Year, "page", pr.PageIndex,
		"width", w, "height", h, "threshold", thr, "line_pixels", stamped)

	return &EnhancedImage{
		Image:     crop,
		DocID:     pr.DocID,
		Year:      pr.Year,
		Week:      pr.Week,
		PageIndex: pr.PageIndex,
	}, nil
}

// grayAndThreshold converts to a single intensity channel and derives
// the ink threshold from the mean intensity. Scanned fills sit well
// above the mean, ink well below, so a fixed fraction of the mean
// separates them reliably on this layout.
func grayAndThreshold(img *image.RGBA) ([]uint8, uint8) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := make([]uint8, w*h)
	var sum uint64
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			r, g, bl := row[x*4], row[x*4+1], row[x*4+2]
			// ITU-R BT.601 luma
			v := uint8((299*int(r) + 587*int(g) + 114*int(bl)) / 1000)
			gray[y*w+x] = v
			sum += uint64(v)
		}
	}
	mean := sum / uint64(len(gray))
	thr := uint8(mean * 7 / 10)
	return gray, thr
}

// horizontalRuns keeps only ink runs of at least minLen pixels per row:
// a morphological opening with a 1×minLen structuring element.
func horizontalRuns(ink []bool, w, h, minLen int) []bool {
	out := make([]bool, len(ink))
	for y := 0; y < h; y++ {
		runStart := -1
		for x := 0; x <= w; x++ {
			inked := x < w && ink[y*w+x]
			if inked && runStart < 0 {
				runStart = x
			}
			if !inked && runStart >= 0 {
				if x-runStart >= minLen {
					for i := runStart; i < x; i++ {
						out[y*w+i] = true
					}
				}
				runStart = -1
			}
		}
	}
	return out
}

// verticalRuns is the Nx1 counterpart of horizontalRuns.
func verticalRuns(ink []bool, w, h, minLen int) []bool {
	out := make([]bool, len(ink))
	for x := 0; x < w; x++ {
		runStart := -1
		for y := 0; y <= h; y++ {
			inked := y < h && ink[y*w+x]
			if inked && runStart < 0 {
				runStart = y
			}
			if !inked && runStart >= 0 {
				if y-runStart >= minLen {
					for i := runStart; i < y; i++ {
						out[i*w+x] = true
					}
				}
				runStart = -1
			}
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
