package document

import (
	"image"

	"github.com/tsawler/timetable/layout"
	"github.com/tsawler/timetable/ocr"
	"github.com/tsawler/timetable/raster"
)

// Anchor is a located anchor word and the separator placed for it
type Anchor struct {
	Word      ocr.Word
	Separator int  // x of the injected vertical line
	OnRule    bool // Separator sits at the end of a rule under the word
}

// FindAnchor searches words for the anchors in order; the first anchor that
// appears wins, and the earliest occurrence of it in words is returned.
func FindAnchor(words []ocr.Word, anchors []string) (ocr.Word, bool) {
	for _, a := range anchors {
		want := layout.Fold(a)
		for _, w := range words {
			if layout.Fold(w.Text) == want {
				return w, true
			}
		}
	}
	return ocr.Word{}, false
}

// placeSeparator picks the separator column for an anchor word: padding to
// the right of the word, or the right end of the nearest rule beneath the
// word when that rule spans the word and stops sooner.
func placeSeparator(img image.Image, word ocr.Word, padding int, density float64) Anchor {
	a := Anchor{Word: word, Separator: word.Box.Max.X + padding}

	below := word.Box.Max.Y + word.Box.Dy() + padding
	for _, r := range raster.HorizontalRules(img, word.Box.Max.Y, below, ruleDarkness, density) {
		if r.X0 > word.Box.Min.X || r.X1 < word.Box.Max.X {
			continue
		}
		if r.X1-1 < a.Separator {
			a.Separator = r.X1 - 1
			a.OnRule = true
		}
		break
	}

	b := img.Bounds()
	a.Separator = min(max(a.Separator, b.Min.X), b.Max.X-1)
	return a
}
