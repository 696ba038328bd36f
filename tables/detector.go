package tables

import (
	"image"
	"log/slog"

	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/format"
	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/raster"
)

// binarizeThreshold separates ink from paper on an 8-bit luminance scale
const binarizeThreshold = 128

// Detector finds table cells in a canonical schedule image
type Detector struct {
	config config.BoxConfig
}

// New creates a cell detector with the given thresholds
func New(cfg config.BoxConfig) *Detector {
	return &Detector{config: cfg}
}

// Name returns the detector's identifier ("morphological").
func (d *Detector) Name() string {
	return "morphological"
}

// Configure replaces the detector thresholds.
func (d *Detector) Configure(cfg config.BoxConfig) error {
	d.config = cfg
	return nil
}

// Detect returns the deduplicated cell boxes of img in reading order. It
// fails with model.ErrNoTableDetected when no box survives filtering.
func (d *Detector) Detect(img image.Image, kind format.Kind) ([]model.Box, error) {
	b := img.Bounds()
	walls := d.Walls(img)

	candidates := Candidates(walls)
	for i := range candidates {
		candidates[i].X += b.Min.X
		candidates[i].Y += b.Min.Y
	}

	kept := Filter(candidates, d.config, kind)
	boxes := Dedupe(kept, d.config.IoUThreshold)
	model.SortReadingOrder(boxes)

	if len(boxes) == 0 {
		return nil, model.NewError(model.ErrNoTableDetected, "detect cells",
			slog.Int("candidates", len(candidates)),
			slog.Int("filtered", len(kept)),
			slog.String("kind", kind.String()),
			slog.Int("width", b.Dx()),
			slog.Int("height", b.Dy()),
		)
	}
	return boxes, nil
}

// Walls builds the cell-wall mask of img: long vertical and horizontal
// strokes, united and thickened so small gaps at line crossings close.
func (d *Detector) Walls(img image.Image) *raster.Mask {
	ink := raster.Binarize(img, binarizeThreshold)

	length := 1
	if d.config.KernelDivisor > 0 {
		length = max(ink.W/d.config.KernelDivisor, 1)
	}

	vertical := ink.OpenVertical(length)
	horizontal := ink.OpenHorizontal(length)
	return raster.Union(vertical, horizontal).Dilate(d.config.WallPasses)
}

// Candidates returns the bounding box of every region of the wall mask that
// is enclosed by the wall, in mask coordinates. The open background around
// the table reaches the image edge and is excluded.
func Candidates(walls *raster.Mask) []model.Box {
	var boxes []model.Box
	for _, c := range walls.Hierarchy() {
		if c.TouchesBorder || c.Depth == 0 {
			continue
		}
		boxes = append(boxes, model.BoxFromRect(c.Bounds))
	}
	return boxes
}

// Filter keeps the boxes that pass the size, area and aspect checks. The
// area floor depends on the source kind.
func Filter(boxes []model.Box, cfg config.BoxConfig, kind format.Kind) []model.Box {
	minArea := cfg.MinAreaPDF
	if kind == format.KindImage {
		minArea = cfg.MinAreaImage
	}

	var out []model.Box
	for _, b := range boxes {
		if b.W < cfg.MinWidth || b.H < cfg.MinHeight {
			continue
		}
		if area := b.Area(); area < minArea || area > cfg.MaxArea {
			continue
		}
		if aspect := b.Aspect(); aspect < cfg.MinAspect || aspect > cfg.MaxAspect {
			continue
		}
		out = append(out, b)
	}
	return out
}
