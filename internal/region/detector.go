package region

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/joseph-ayodele/lassa-tracker/internal/common"
	"github.com/joseph-ayodele/lassa-tracker/internal/raster"
)

// TableRegion is the rectangular sub-area of a page raster believed to
// contain the data table.
type TableRegion struct {
	Bounds       image.Rectangle
	MarkerPixels int // pixels of the chosen cluster (confidence)
	Clusters     int // disjoint clusters seen before the largest-cluster policy
}

// Detector locates the table via the publisher's reserved pale-green
// row markers. The first and last data rows carry the marker fill, so
// the vertical extent of the marker pixels brackets the table body and
// the configured margins pull in the header band around it.
type Detector struct {
	cfg    common.RegionConfig
	logger *slog.Logger
}

func NewDetector(cfg common.RegionConfig, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{cfg: cfg, logger: logger}
}

// Detect builds the marker mask and derives the table bounding box.
// When marker pixels form several disjoint clusters (stray page
// graphics can fall inside the color window), only the largest cluster
// by pixel count is used. That is a simplifying policy, not a
// correctness guarantee; the discarded clusters are logged so layout
// drift shows up in the audit trail.
func (d *Detector) Detect(pr *raster.PageRaster) (TableRegion, error) {
	img := pr.Image
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return TableRegion{}, fmt.Errorf("%w: %s page %d: empty raster", common.ErrDocumentRead, pr.DocID, pr.PageIndex)
	}

	mask := make([]bool, w*h)
	total := 0
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			if d.isMarker(row[x*4], row[x*4+1], row[x*4+2]) {
				mask[y*w+x] = true
				total++
			}
		}
	}
	if total == 0 {
		d.logger.Warn("region.detect.not_found",
			"doc_id", pr.DocID, "year", pr.Year, "page", pr.PageIndex)
		return TableRegion{}, fmt.Errorf("%w: %s page %d", common.ErrRegionNotFound, pr.DocID, pr.PageIndex)
	}

	best, clusters := largestCluster(mask, w, h, d.cfg.MinClusterPx)
	if best.pixels == 0 {
		// only speck clusters below the noise floor
		d.logger.Warn("region.detect.not_found",
			"doc_id", pr.DocID, "year", pr.Year, "page", pr.PageIndex,
			"speck_pixels", total)
		return TableRegion{}, fmt.Errorf("%w: %s page %d", common.ErrRegionNotFound, pr.DocID, pr.PageIndex)
	}
	if clusters > 1 {
		d.logger.Warn("region.detect.multiple_clusters",
			"doc_id", pr.DocID, "year", pr.Year, "page", pr.PageIndex,
			"clusters", clusters, "kept_pixels", best.pixels)
	}

	// Margins are calibrated at 600 DPI; scale to the render resolution.
	scale := float64(pr.DPI) / 600.0
	top := best.minY - px(d.cfg.MarginTop, scale)
	bottom := best.maxY + px(d.cfg.MarginBottom, scale)
	left := best.minX - px(d.cfg.MarginSide, scale)
	right := best.maxX + px(d.cfg.MarginSide, scale)

	rect := image.Rect(max(left, b.Min.X), max(top, b.Min.Y), min(right+1, b.Max.X), min(bottom+1, b.Max.Y))
	region := TableRegion{Bounds: rect, MarkerPixels: best.pixels, Clusters: clusters}

	d.logger.Info("region.detect.ok",
		"doc_id", pr.DocID, "year", pr.Year, "page", pr.PageIndex,
		"bounds", rect.String(), "marker_pixels", best.pixels, "clusters", clusters)
	return region, nil
}

func px(v int, scale float64) int {
	return int(float64(v) * scale)
}

// isMarker tests a pixel against the configured HSV window.
func (d *Detector) isMarker(r, g, b uint8) bool {
	hue, sat, val := rgbToHSV(r, g, b)
	return hue >= d.cfg.HueLo && hue <= d.cfg.HueHi &&
		sat >= d.cfg.SatLo && sat <= d.cfg.SatHi &&
		val >= d.cfg.ValLo && val <= d.cfg.ValHi
}

// rgbToHSV converts to hue in degrees [0,360) and saturation/value in [0,1].
func rgbToHSV(r8, g8, b8 uint8) (h, s, v float64) {
	r := float64(r8) / 255
	g := float64(g8) / 255
	b := float64(b8) / 255

	maxc := r
	if g > maxc {
		maxc = g
	}
	if b > maxc {
		maxc = b
	}
	minc := r
	if g < minc {
		minc = g
	}
	if b < minc {
		minc = b
	}

	v = maxc
	delta := maxc - minc
	if maxc > 0 {
		s = delta / maxc
	}
	if delta == 0 {
		return 0, s, v
	}

	switch maxc {
	case r:
		h = 60 * ((g - b) / delta)
	case g:
		h = 60 * (2 + (b-r)/delta)
	default:
		h = 60 * (4 + (r-g)/delta)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

type cluster struct {
	pixels                 int
	minX, minY, maxX, maxY int
}

// largestCluster labels 4-connected components of the mask and returns
// the biggest one at or above the noise floor, plus how many components
// cleared the floor.
func largestCluster(mask []bool, w, h, minPx int) (cluster, int) {
	visited := make([]bool, len(mask))
	var best cluster
	count := 0
	stack := make([]int, 0, 1024)

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		c := cluster{minX: w, minY: h, maxX: -1, maxY: -1}
		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%w, idx/w

			c.pixels++
			if x < c.minX {
				c.minX = x
			}
			if x > c.maxX {
				c.maxX = x
			}
			if y < c.minY {
				c.minY = y
			}
			if y > c.maxY {
				c.maxY = y
			}

			if x > 0 && mask[idx-1] && !visited[idx-1] {
				visited[idx-1] = true
				stack = append(stack, idx-1)
			}
			if x < w-1 && mask[idx+1] && !visited[idx+1] {
				visited[idx+1] = true
				stack = append(stack, idx+1)
			}
			if y > 0 && mask[idx-w] && !visited[idx-w] {
				visited[idx-w] = true
				stack = append(stack, idx-w)
			}
			if y < h-1 && mask[idx+w] && !visited[idx+w] {
				visited[idx+w] = true
				stack = append(stack, idx+w)
			}
		}
		if c.pixels < minPx {
			continue
		}
		count++
		if c.pixels > best.pixels {
			best = c
		}
	}
	return best, count
}
