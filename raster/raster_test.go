package raster

import (
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/draw"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func fillRect(img *image.RGBA, r image.Rectangle) {
	draw.Draw(img, r, image.NewUniform(color.Black), image.Point{}, draw.Src)
}

func TestBinarize(t *testing.T) {
	img := whiteImage(10, 10)
	fillRect(img, image.Rect(2, 2, 5, 5))
	img.Set(8, 8, color.Gray{Y: 140})

	m := Binarize(img, 128)
	if m.Count() != 9 {
		t.Errorf("Count() = %d, want 9", m.Count())
	}
	if !m.At(2, 2) || m.At(5, 5) || m.At(8, 8) {
		t.Error("unexpected foreground pixels")
	}

	gray := image.NewGray(image.Rect(0, 0, 4, 1))
	gray.Pix = []uint8{0, 127, 128, 255}
	gm := Binarize(gray, 128)
	want := []bool{true, true, false, false}
	for i, w := range want {
		if gm.Pix[i] != w {
			t.Errorf("gray pixel %d = %v, want %v", i, gm.Pix[i], w)
		}
	}
}

func TestBinarizeSubImage(t *testing.T) {
	img := whiteImage(20, 20)
	fillRect(img, image.Rect(10, 10, 12, 12))
	m := Binarize(Region(img, image.Rect(8, 8, 16, 16)), 128)
	if m.W != 8 || m.H != 8 {
		t.Fatalf("size = %dx%d", m.W, m.H)
	}
	if !m.At(2, 2) || !m.At(3, 3) || m.At(4, 4) || m.Count() != 4 {
		t.Errorf("sub-image offsets wrong, count=%d", m.Count())
	}
}

func TestOpenVertical(t *testing.T) {
	m := NewMask(5, 20)
	for y := 0; y < 15; y++ {
		m.Set(1, y, true) // long run
	}
	for y := 0; y < 4; y++ {
		m.Set(3, y, true) // short run
	}

	out := m.OpenVertical(10)
	if out.Count() != 15 {
		t.Errorf("Count() = %d, want 15", out.Count())
	}
	if out.At(3, 0) {
		t.Error("short run should be removed")
	}
}

func TestOpenHorizontal(t *testing.T) {
	m := NewMask(30, 3)
	for x := 0; x < 25; x++ {
		m.Set(x, 1, true)
	}
	m.Set(28, 0, true)

	out := m.OpenHorizontal(20)
	if out.Count() != 25 || out.At(28, 0) {
		t.Errorf("Count() = %d, want 25", out.Count())
	}
}

func TestDilate(t *testing.T) {
	m := NewMask(9, 9)
	m.Set(4, 4, true)

	if got := m.Dilate(1).Count(); got != 9 {
		t.Errorf("one pass Count() = %d, want 9", got)
	}
	if got := m.Dilate(2).Count(); got != 25 {
		t.Errorf("two passes Count() = %d, want 25", got)
	}
	if got := m.Dilate(0); got == m || got.Count() != 1 {
		t.Error("zero passes should return an equal copy")
	}
}

func TestUnionInvert(t *testing.T) {
	a, b := NewMask(2, 1), NewMask(2, 1)
	a.Set(0, 0, true)
	b.Set(1, 0, true)
	if Union(a, b).Count() != 2 {
		t.Error("Union() should cover both pixels")
	}
	if a.Invert().At(0, 0) || !a.Invert().At(1, 0) {
		t.Error("Invert() wrong")
	}
}

func TestComponents(t *testing.T) {
	// Two separate squares and a diagonal pair that is not 4-connected.
	m := NewMask(20, 10)
	for y := 1; y < 4; y++ {
		for x := 1; x < 4; x++ {
			m.Set(x, y, true)
		}
	}
	for y := 5; y < 8; y++ {
		for x := 10; x < 15; x++ {
			m.Set(x, y, true)
		}
	}
	m.Set(17, 2, true)
	m.Set(18, 3, true)

	comps := m.Components(true)
	if len(comps) != 4 {
		t.Fatalf("len(Components) = %d, want 4", len(comps))
	}
	if comps[0].Bounds != image.Rect(1, 1, 4, 4) || comps[0].Area != 9 {
		t.Errorf("first component = %+v", comps[0])
	}
	if comps[0].TouchesBorder {
		t.Error("interior component should not touch the border")
	}

	bg := m.Components(false)
	if len(bg) != 1 || !bg[0].TouchesBorder {
		t.Errorf("background components = %+v", bg)
	}
}

func TestHierarchy(t *testing.T) {
	// A ruled 2x1 grid: outer background, the wall, two enclosed cells.
	m := NewMask(40, 20)
	for x := 5; x < 35; x++ {
		m.Set(x, 5, true)
		m.Set(x, 15, true)
	}
	for y := 5; y < 16; y++ {
		m.Set(5, y, true)
		m.Set(20, y, true)
		m.Set(34, y, true)
	}

	comps := m.Hierarchy()
	depths := map[int]int{}
	for _, c := range comps {
		depths[c.Depth]++
	}
	if depths[0] != 1 || depths[1] != 1 || depths[2] != 2 {
		t.Errorf("depth histogram = %v, want 0:1 1:1 2:2", depths)
	}
}

func TestVerticalSegments(t *testing.T) {
	m := NewMask(50, 100)
	for y := 10; y < 90; y++ {
		m.Set(5, y, true)
		m.Set(6, y, true)
	}
	for y := 20; y < 40; y++ {
		m.Set(30, y, true)
	}

	segs := m.VerticalSegments(50)
	if len(segs) != 1 {
		t.Fatalf("len(VerticalSegments) = %d, want 1", len(segs))
	}
	s := segs[0]
	if s.X0 != 5 || s.X1 != 7 || s.Y0 != 10 || s.Y1 != 90 || s.Length() != 80 {
		t.Errorf("segment = %+v", s)
	}
}

func TestRegionKeepsCoordinates(t *testing.T) {
	img := whiteImage(100, 100)
	r := Region(img, image.Rect(10, 20, 200, 40))
	if r.Bounds() != image.Rect(10, 20, 100, 40) {
		t.Errorf("Region bounds = %v", r.Bounds())
	}
	c := Crop(img, image.Rect(10, 20, 30, 40))
	if c.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Errorf("Crop bounds = %v", c.Bounds())
	}
}

func TestStackVertical(t *testing.T) {
	top := whiteImage(50, 10)
	bottom := whiteImage(80, 20)
	fillRect(bottom, image.Rect(0, 0, 80, 1))

	out := StackVertical(top, bottom)
	if out.Bounds() != image.Rect(0, 0, 80, 30) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if r, _, _, _ := out.At(70, 5).RGBA(); r != 0xffff {
		t.Error("padding should be white")
	}
	if r, _, _, _ := out.At(40, 10).RGBA(); r != 0 {
		t.Error("bottom image should start at row 10")
	}
}

func TestDrawVerticalLine(t *testing.T) {
	img := whiteImage(10, 10)
	DrawVerticalLine(img, 3)
	DrawVerticalLine(img, 50) // out of range, ignored
	m := Binarize(img, 128)
	if m.Count() != 10 {
		t.Errorf("Count() = %d, want 10", m.Count())
	}
}

func TestHorizontalRules(t *testing.T) {
	img := whiteImage(100, 60)
	fillRect(img, image.Rect(10, 20, 90, 22))
	fillRect(img, image.Rect(40, 40, 45, 41)) // too short

	rules := HorizontalRules(img, 0, 60, 200, 0.3)
	if len(rules) != 1 {
		t.Fatalf("len(rules) = %d, want 1", len(rules))
	}
	if rules[0].Y != 21 || rules[0].X0 != 10 || rules[0].X1 != 90 {
		t.Errorf("rule = %+v", rules[0])
	}

	if got := HorizontalRules(img, 30, 60, 200, 0.3); len(got) != 0 {
		t.Errorf("window should exclude the rule, got %+v", got)
	}
}
