package raster

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// subImager is implemented by every concrete image type in the standard
// library.
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Region returns the part of img inside r without copying pixels. The
// returned image keeps the source coordinate space, so its Bounds() report
// where it came from. r is clipped to the image bounds.
func Region(img image.Image, r image.Rectangle) image.Image {
	r = r.Intersect(img.Bounds())
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	out := image.NewRGBA(r)
	draw.Draw(out, r, img, r.Min, draw.Src)
	return out
}

// Crop copies the part of img inside r into a new RGBA image whose origin
// is (0, 0).
func Crop(img image.Image, r image.Rectangle) *image.RGBA {
	r = r.Intersect(img.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}

// ToRGBA returns img as an RGBA image with origin (0, 0), copying only when
// necessary.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	return Crop(img, img.Bounds())
}

// StackVertical places top above bottom on a white canvas as wide as the
// wider of the two.
func StackVertical(top, bottom image.Image) *image.RGBA {
	tb, bb := top.Bounds(), bottom.Bounds()
	w := max(tb.Dx(), bb.Dx())
	out := image.NewRGBA(image.Rect(0, 0, w, tb.Dy()+bb.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, tb.Dx(), tb.Dy()), top, tb.Min, draw.Src)
	draw.Draw(out, image.Rect(0, tb.Dy(), bb.Dx(), tb.Dy()+bb.Dy()), bottom, bb.Min, draw.Src)
	return out
}

// DrawVerticalLine paints a one-pixel black line over the full height of
// img at column x.
func DrawVerticalLine(img *image.RGBA, x int) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.SetRGBA(x, y, color.RGBA{A: 0xff})
	}
}

// HorizontalRule is a band of rows dense enough in dark pixels to be a
// ruled line.
type HorizontalRule struct {
	Y      int // Middle row of the band
	X0, X1 int // Horizontal extent of dark pixels in the band
}

// HorizontalRules scans rows [y0, y1) of img and reports bands where at
// least density of the row width is darker than dark. A band continues
// while rows stay above half that density.
func HorizontalRules(img image.Image, y0, y1 int, dark uint8, density float64) []HorizontalRule {
	b := img.Bounds()
	y0 = max(y0, b.Min.Y)
	y1 = min(y1, b.Max.Y)
	if y1 <= y0 {
		return nil
	}

	mask := Binarize(Region(img, image.Rect(b.Min.X, y0, b.Max.X, y1)), dark)
	counts := make([]int, mask.H)
	for y := 0; y < mask.H; y++ {
		for x := 0; x < mask.W; x++ {
			if mask.Pix[y*mask.W+x] {
				counts[y]++
			}
		}
	}

	threshold := float64(mask.W) * density
	var rules []HorizontalRule
	for i := 0; i < len(counts); {
		if float64(counts[i]) < threshold {
			i++
			continue
		}
		start := i
		for i < len(counts) && float64(counts[i]) >= threshold*0.5 {
			i++
		}
		rule := HorizontalRule{Y: y0 + (start+i)/2, X0: mask.W, X1: 0}
		for y := start; y < i; y++ {
			for x := 0; x < mask.W; x++ {
				if mask.Pix[y*mask.W+x] {
					rule.X0 = min(rule.X0, x)
					rule.X1 = max(rule.X1, x+1)
				}
			}
		}
		rule.X0 += b.Min.X
		rule.X1 += b.Min.X
		rules = append(rules, rule)
	}
	return rules
}
