// Package ocrtest provides a deterministic OCR engine for tests.
//
// A Page places text labels at fixed rectangles. Because raster regions keep
// the source coordinate space, the engine can tell which labels a crop covers
// from the crop's Bounds() alone.
package ocrtest

import (
	"errors"
	"image"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tsawler/timetable/ocr"
)

// ErrInjected is returned for regions listed in Page.Fail.
var ErrInjected = errors.New("ocrtest: injected failure")

// Label is text printed at a fixed position on the page.
type Label struct {
	Text string
	Rect image.Rectangle
}

// Page is the set of labels an engine "sees".
type Page struct {
	Labels []Label

	// Fail lists rectangles whose Text calls return ErrInjected. A request
	// fails when its region contains the center of any of them.
	Fail []image.Rectangle

	mu     sync.Mutex
	calls  []image.Rectangle
	opened atomic.Int32
	closed atomic.Int32
}

// Add places a label and returns the page for chaining.
func (p *Page) Add(text string, r image.Rectangle) *Page {
	p.Labels = append(p.Labels, Label{Text: text, Rect: r})
	return p
}

// Factory returns an ocr.Factory whose engines read from p.
func (p *Page) Factory() ocr.Factory {
	return func() (ocr.Engine, error) {
		p.opened.Add(1)
		return &Engine{page: p}, nil
	}
}

// Calls returns the regions passed to Text so far, in call order.
func (p *Page) Calls() []image.Rectangle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]image.Rectangle(nil), p.calls...)
}

// Opened reports how many engines were created.
func (p *Page) Opened() int { return int(p.opened.Load()) }

// Closed reports how many engines were closed.
func (p *Page) Closed() int { return int(p.closed.Load()) }

// Engine implements ocr.Engine over a Page.
type Engine struct {
	page *Page
}

var _ ocr.Engine = (*Engine)(nil)

// Text joins the labels whose centers lie inside img's bounds, in reading
// order.
func (e *Engine) Text(img image.Image) (string, error) {
	b := img.Bounds()
	e.page.mu.Lock()
	e.page.calls = append(e.page.calls, b)
	e.page.mu.Unlock()

	for _, r := range e.page.Fail {
		if center(r).In(b) {
			return "", ErrInjected
		}
	}

	var hits []Label
	for _, l := range e.page.Labels {
		if center(l.Rect).In(b) {
			hits = append(hits, l)
		}
	}
	sortLabels(hits)

	parts := make([]string, len(hits))
	for i, l := range hits {
		parts[i] = l.Text
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

// Words returns one word per whitespace-separated token of every label that
// overlaps img's bounds. Every token shares its label's rectangle.
func (e *Engine) Words(img image.Image) ([]ocr.Word, error) {
	b := img.Bounds()
	var hits []Label
	for _, l := range e.page.Labels {
		if l.Rect.Overlaps(b) {
			hits = append(hits, l)
		}
	}
	sortLabels(hits)

	var words []ocr.Word
	for _, l := range hits {
		for _, f := range strings.Fields(l.Text) {
			words = append(words, ocr.Word{Text: f, Box: l.Rect, Confidence: 95})
		}
	}
	return words, nil
}

// Close records the release.
func (e *Engine) Close() error {
	e.page.closed.Add(1)
	return nil
}

func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

func sortLabels(ls []Label) {
	sort.SliceStable(ls, func(i, j int) bool {
		if ls[i].Rect.Min.Y != ls[j].Rect.Min.Y {
			return ls[i].Rect.Min.Y < ls[j].Rect.Min.Y
		}
		return ls[i].Rect.Min.X < ls[j].Rect.Min.X
	})
}
