package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/format"
	"github.com/tsawler/timetable/internal/testimg"
	"github.com/tsawler/timetable/layout"
	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/ocr"
	"github.com/tsawler/timetable/ocr/ocrtest"
)

// buildPDF writes a minimal PDF whose pages inherit one MediaBox from the
// page tree root.
func buildPDF(pages int, w, h float64) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	var kids bytes.Buffer
	for i := 0; i < pages; i++ {
		fmt.Fprintf(&kids, "%d 0 R ", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %g %g] >>", kids.String(), pages, w, h))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// spyRasterizer serves prepared page images and counts Open calls.
type spyRasterizer struct {
	pages  []*image.RGBA
	opens  int
	closes int
}

func (s *spyRasterizer) Open(data []byte) (Document, error) {
	s.opens++
	return &spyDocument{spy: s}, nil
}

type spyDocument struct{ spy *spyRasterizer }

func (d *spyDocument) NumPage() int { return len(d.spy.pages) }

func (d *spyDocument) Render(page int, dpi float64) (*image.RGBA, error) {
	if page >= len(d.spy.pages) {
		return nil, errors.New("no such page")
	}
	src := d.spy.pages[page]
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out, nil
}

func (d *spyDocument) Close() error {
	d.spy.closes++
	return nil
}

// grid is one browser-printed page: 5 long vertical rules from y=20 to
// y=208 on a 370x228 canvas.
var grid = testimg.Grid{Cols: 4, Rows: 3, CellW: 80, CellH: 60, Line: 2, Margin: 20}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func isBlack(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r == 0 && g == 0 && b == 0
}

func TestInspect(t *testing.T) {
	info, err := Inspect(buildPDF(2, 842, 595))
	require.NoError(t, err)
	assert.Equal(t, 2, info.Pages)
	assert.Equal(t, 842.0, info.Width)
	assert.Equal(t, 595.0, info.Height)
	assert.True(t, info.Landscape())

	info, err = Inspect(buildPDF(1, 595, 842))
	require.NoError(t, err)
	assert.False(t, info.Landscape())
}

func TestInspectMalformed(t *testing.T) {
	for name, data := range map[string][]byte{
		"garbage":   []byte("%PDF-1.4\nthis is not a pdf"),
		"truncated": buildPDF(1, 100, 100)[:40],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Inspect(data)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeRejectsBeforeRasterizing(t *testing.T) {
	spy := &spyRasterizer{}
	page := &ocrtest.Page{}
	n := NewNormalizer(config.Default(), spy, page.Factory(), nil)

	_, err := n.Normalize(context.Background(), buildPDF(3, 595, 842), "application/pdf", "")
	require.ErrorIs(t, err, model.ErrInvalidDocument)
	assert.Zero(t, spy.opens)
	assert.Zero(t, page.Opened())

	var perr *model.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "validate pdf", perr.Op)
}

func TestNormalizeInvalidInput(t *testing.T) {
	pngData := encodePNG(t, grid.Image())

	tests := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{"empty", nil, "application/pdf"},
		{"bad signature", []byte("hello, world"), "application/pdf"},
		{"png declared as pdf", pngData, "application/pdf"},
		{"unknown type", []byte("hello, world"), "text/plain"},
		{"corrupt png", []byte("\x89PNG\r\n\x1a\nbroken"), "image/png"},
		{"corrupt pdf", []byte("%PDF-1.7\ngarbage"), "application/pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyRasterizer{}
			n := NewNormalizer(config.Default(), spy, (&ocrtest.Page{}).Factory(), nil)
			_, err := n.Normalize(context.Background(), tt.data, tt.contentType, "")
			assert.ErrorIs(t, err, model.ErrInvalidDocument)
			assert.Zero(t, spy.opens)
		})
	}
}

func TestNormalizeImage(t *testing.T) {
	page := (&ocrtest.Page{}).Add("THURSDAY", image.Rect(100, 30, 160, 45))
	n := NewNormalizer(config.Default(), &spyRasterizer{}, page.Factory(), nil)

	got, err := n.Normalize(context.Background(), encodePNG(t, grid.Image()), "image/png", "portrait")
	require.NoError(t, err)

	assert.Equal(t, format.PNG, got.Format)
	assert.Equal(t, format.KindImage, got.Kind)
	assert.Equal(t, 1, got.Pages)
	assert.Equal(t, "THURSDAY", got.Anchor.Word.Text)
	assert.Equal(t, 260, got.Anchor.Separator)
	assert.True(t, isBlack(got.Image, 260, 5), "separator should span the margin")
	assert.Equal(t, page.Opened(), page.Closed())
}

func TestNormalizeFrenchAnchor(t *testing.T) {
	page := (&ocrtest.Page{}).Add("Jeudi", image.Rect(100, 30, 160, 45))
	n := NewNormalizer(config.Default(), &spyRasterizer{}, page.Factory(), nil)

	got, err := n.Normalize(context.Background(), encodePNG(t, grid.Image()), "", "")
	require.NoError(t, err)
	assert.Equal(t, "Jeudi", got.Anchor.Word.Text)
}

func TestNormalizeAnchorBelowTopQuarter(t *testing.T) {
	page := (&ocrtest.Page{}).Add("THURSDAY", image.Rect(100, 150, 160, 165))
	n := NewNormalizer(config.Default(), &spyRasterizer{}, page.Factory(), nil)

	got, err := n.Normalize(context.Background(), encodePNG(t, grid.Image()), "image/png", "")
	require.NoError(t, err)
	assert.Equal(t, 260, got.Anchor.Separator)
}

func TestNormalizeNoAnchor(t *testing.T) {
	page := (&ocrtest.Page{}).Add("MONDAY", image.Rect(100, 30, 160, 45))
	n := NewNormalizer(config.Default(), &spyRasterizer{}, page.Factory(), nil)

	_, err := n.Normalize(context.Background(), encodePNG(t, grid.Image()), "image/png", "")
	require.ErrorIs(t, err, model.ErrUnsupportedLayout)
	assert.Equal(t, page.Opened(), page.Closed())
}

func TestNormalizeOCRUnavailable(t *testing.T) {
	failing := func() (ocr.Engine, error) { return nil, ocr.ErrOCRNotEnabled }
	n := NewNormalizer(config.Default(), &spyRasterizer{}, failing, nil)

	_, err := n.Normalize(context.Background(), encodePNG(t, grid.Image()), "image/png", "")
	require.ErrorIs(t, err, ocr.ErrOCRNotEnabled)
	assert.Nil(t, model.KindOf(err))
}

func TestNormalizeSinglePagePDF(t *testing.T) {
	spy := &spyRasterizer{pages: []*image.RGBA{grid.Image()}}
	page := (&ocrtest.Page{}).Add("THURSDAY", image.Rect(100, 30, 160, 45))
	n := NewNormalizer(config.Default(), spy, page.Factory(), nil)

	got, err := n.Normalize(context.Background(), buildPDF(1, 842, 595), "application/pdf", "")
	require.NoError(t, err)
	assert.Equal(t, format.KindPDF, got.Kind)
	assert.Equal(t, 1, got.Pages)
	assert.Equal(t, image.Rect(0, 0, 370, 228), got.Image.Bounds())
	assert.Equal(t, 1, spy.opens)
	assert.Equal(t, 1, spy.closes)
}

func TestNormalizeMergesTwoPages(t *testing.T) {
	spy := &spyRasterizer{pages: []*image.RGBA{grid.Image(), grid.Image()}}
	// Below the continuation page's header search band, inside the merged
	// image's top quarter.
	page := (&ocrtest.Page{}).Add("THURSDAY", image.Rect(100, 80, 160, 95))
	n := NewNormalizer(config.Default(), spy, page.Factory(), nil)

	got, err := n.Normalize(context.Background(), buildPDF(2, 595, 842), "application/pdf", "")
	require.NoError(t, err)

	assert.Equal(t, 2, got.Pages)
	// Page one up to its rule ends (208) plus page two from its rule
	// starts (20).
	assert.Equal(t, image.Rect(0, 0, 370, 208+228-20), got.Image.Bounds())
	assert.Equal(t, 1, spy.opens)
	assert.Equal(t, page.Opened(), page.Closed())
}

func TestNormalizeCanceled(t *testing.T) {
	spy := &spyRasterizer{pages: []*image.RGBA{grid.Image(), grid.Image()}}
	page := (&ocrtest.Page{}).Add("THURSDAY", image.Rect(100, 80, 160, 95))
	n := NewNormalizer(config.Default(), spy, page.Factory(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := n.Normalize(ctx, buildPDF(2, 595, 842), "application/pdf", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLineBoundaries(t *testing.T) {
	img := grid.Image()

	y, ok := LineEnds{MinLength: 100, MinLines: 3}.Boundary(img)
	require.True(t, ok)
	assert.Equal(t, 208, y)

	y, ok = LineStarts{MinLength: 100, MinLines: 3}.Boundary(img)
	require.True(t, ok)
	assert.Equal(t, 20, y)

	_, ok = LineEnds{MinLength: 100, MinLines: 6}.Boundary(img)
	assert.False(t, ok, "five rules are not enough")

	_, ok = LineStarts{MinLength: 200, MinLines: 3}.Boundary(img)
	assert.False(t, ok, "rules are shorter than the minimum")
}

func TestFindBoundaryFallsBack(t *testing.T) {
	img := whiteImage(100, 300)

	y, name, ok := FindBoundary(img, []BoundaryStrategy{LineEnds{MinLength: 100, MinLines: 3}, FullHeight{}})
	require.True(t, ok)
	assert.Equal(t, 300, y)
	assert.Equal(t, "full-height", name)

	y, name, ok = FindBoundary(img, []BoundaryStrategy{LineStarts{MinLength: 100, MinLines: 3}, PageTop{}})
	require.True(t, ok)
	assert.Equal(t, 0, y)
	assert.Equal(t, "page-top", name)

	_, _, ok = FindBoundary(img, nil)
	assert.False(t, ok)
}

func TestHeaderRow(t *testing.T) {
	days := layout.NewDayMatcher(config.Default().Layout.DayNames(), 1)
	page := (&ocrtest.Page{}).Add("MONDAY", image.Rect(30, 40, 90, 55))
	engine, err := page.Factory()()
	require.NoError(t, err)

	t.Run("below the header rule", func(t *testing.T) {
		s := HeaderRow{Engine: engine, Days: days, SearchFraction: 0.5, RuleDensity: 0.3, RuleOffset: 5, Padding: 10}
		y, ok := s.Boundary(grid.Image())
		require.True(t, ok)
		// Rules at 21 and 83; the first one under the words wins.
		assert.Equal(t, 88, y)
	})

	t.Run("single rule pads the words", func(t *testing.T) {
		s := HeaderRow{Engine: engine, Days: days, SearchFraction: 0.3, RuleDensity: 0.3, RuleOffset: 5, Padding: 10}
		y, ok := s.Boundary(grid.Image())
		require.True(t, ok)
		assert.Equal(t, 65, y)
	})

	t.Run("no day words", func(t *testing.T) {
		other, err := (&ocrtest.Page{}).Add("Room 12", image.Rect(30, 40, 90, 55)).Factory()()
		require.NoError(t, err)
		s := HeaderRow{Engine: other, Days: days, SearchFraction: 0.5, RuleDensity: 0.3}
		_, ok := s.Boundary(grid.Image())
		assert.False(t, ok)
	})
}

func TestFindAnchor(t *testing.T) {
	words := []ocr.Word{
		{Text: "jeudi", Box: image.Rect(0, 0, 10, 10)},
		{Text: "Thursday", Box: image.Rect(20, 0, 30, 10)},
		{Text: "THURSDAY", Box: image.Rect(40, 0, 50, 10)},
	}

	w, ok := FindAnchor(words, []string{"THURSDAY", "JEUDI"})
	require.True(t, ok)
	assert.Equal(t, image.Rect(20, 0, 30, 10), w.Box, "first anchor wins, earliest occurrence")

	w, ok = FindAnchor(words, []string{"JEUDI"})
	require.True(t, ok)
	assert.Equal(t, "jeudi", w.Text)

	_, ok = FindAnchor(words, []string{"FRIDAY"})
	assert.False(t, ok)
}

func TestPlaceSeparator(t *testing.T) {
	img := whiteImage(400, 200)
	draw.Draw(img, image.Rect(10, 60, 200, 62), image.NewUniform(color.Black), image.Point{}, draw.Src)
	word := ocr.Word{Text: "THURSDAY", Box: image.Rect(20, 30, 80, 45)}

	a := placeSeparator(img, word, 100, 0.3)
	assert.Equal(t, 180, a.Separator)
	assert.False(t, a.OnRule)

	a = placeSeparator(img, word, 200, 0.3)
	assert.Equal(t, 199, a.Separator, "rule under the word ends first")
	assert.True(t, a.OnRule)

	a = placeSeparator(whiteImage(400, 200), word, 1000, 0.3)
	assert.Equal(t, 399, a.Separator, "clamped to the image")
}
