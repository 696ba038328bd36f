package document

import (
	"image"

	"github.com/tsawler/timetable/layout"
	"github.com/tsawler/timetable/ocr"
	"github.com/tsawler/timetable/raster"
)

const (
	// inkThreshold separates ink from paper when tracing ruled lines
	inkThreshold = 128
	// ruleDarkness is the luminance below which a pixel counts toward a
	// horizontal rule
	ruleDarkness = 200
	// Rows searched above and below a header row for its rules
	ruleSearchAbove = 50
	ruleSearchBelow = 100
)

// BoundaryStrategy locates one horizontal edge of the table on a page.
// ok is false when the strategy has no opinion.
type BoundaryStrategy interface {
	Name() string
	Boundary(img image.Image) (y int, ok bool)
}

// FindBoundary tries strategies in order and returns the first result
// with the name of the strategy that produced it.
func FindBoundary(img image.Image, strategies []BoundaryStrategy) (int, string, bool) {
	for _, s := range strategies {
		if y, ok := s.Boundary(img); ok {
			return y, s.Name(), true
		}
	}
	return 0, "", false
}

// LineEnds reports where the page's long vertical rules stop: the lowest
// end of any vertical segment of at least MinLength pixels, provided at
// least MinLines such segments exist.
type LineEnds struct {
	MinLength int
	MinLines  int
}

func (LineEnds) Name() string { return "vertical-line-end" }

func (s LineEnds) Boundary(img image.Image) (int, bool) {
	segs := raster.Binarize(img, inkThreshold).VerticalSegments(s.MinLength)
	if len(segs) < s.MinLines {
		return 0, false
	}
	bottom := 0
	for _, seg := range segs {
		bottom = max(bottom, seg.Y1)
	}
	return img.Bounds().Min.Y + bottom, true
}

// LineStarts reports where the page's long vertical rules begin: the
// highest start of any vertical segment of at least MinLength pixels,
// provided at least MinLines such segments exist.
type LineStarts struct {
	MinLength int
	MinLines  int
}

func (LineStarts) Name() string { return "vertical-line-start" }

func (s LineStarts) Boundary(img image.Image) (int, bool) {
	segs := raster.Binarize(img, inkThreshold).VerticalSegments(s.MinLength)
	if len(segs) < s.MinLines {
		return 0, false
	}
	top := segs[0].Y0
	for _, seg := range segs[1:] {
		top = min(top, seg.Y0)
	}
	return img.Bounds().Min.Y + top, true
}

// HeaderRow finds the day-name header that browsers repeat at the top of a
// continuation page and reports the first row below it. Day words are
// searched in the top SearchFraction of the page. The result is just under
// the first horizontal rule below the words, or Padding rows under the
// words when no such rule exists.
type HeaderRow struct {
	Engine         ocr.Engine
	Days           *layout.DayMatcher
	SearchFraction float64
	RuleDensity    float64
	RuleOffset     int
	Padding        int
}

func (HeaderRow) Name() string { return "duplicate-header" }

func (s HeaderRow) Boundary(img image.Image) (int, bool) {
	b := img.Bounds()
	limit := b.Min.Y + int(float64(b.Dy())*s.SearchFraction)

	words, err := s.Engine.Words(raster.Region(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, limit)))
	if err != nil {
		return 0, false
	}

	found := false
	top, bottom := limit, b.Min.Y
	for _, w := range words {
		if _, ok := s.Days.Match(w.Text); !ok {
			continue
		}
		found = true
		top = min(top, w.Box.Min.Y)
		bottom = max(bottom, w.Box.Max.Y)
	}
	if !found {
		return 0, false
	}

	rules := raster.HorizontalRules(img, max(b.Min.Y, top-ruleSearchAbove), min(limit, bottom+ruleSearchBelow), ruleDarkness, s.RuleDensity)
	if len(rules) >= 2 {
		for _, r := range rules {
			if r.Y > bottom {
				return r.Y + s.RuleOffset, true
			}
		}
	}
	return bottom + s.Padding, true
}

// FullHeight always reports the bottom of the page.
type FullHeight struct{}

func (FullHeight) Name() string { return "full-height" }

func (FullHeight) Boundary(img image.Image) (int, bool) {
	return img.Bounds().Max.Y, true
}

// PageTop always reports the top of the page.
type PageTop struct{}

func (PageTop) Name() string { return "page-top" }

func (PageTop) Boundary(img image.Image) (int, bool) {
	return img.Bounds().Min.Y, true
}
