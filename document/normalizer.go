package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WEBP decoder

	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/format"
	"github.com/tsawler/timetable/layout"
	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/ocr"
	"github.com/tsawler/timetable/raster"
)

// Page is the canonical image of a schedule
type Page struct {
	Image  *image.RGBA
	Format format.Format
	Kind   format.Kind
	Pages  int // Source page count; 1 for raster images
	Anchor Anchor
}

// Normalizer validates uploads and produces canonical images
type Normalizer struct {
	config     config.DocumentConfig
	days       *layout.DayMatcher
	rasterizer Rasterizer
	factory    ocr.Factory
	logger     *slog.Logger
}

// NewNormalizer creates a normalizer. A nil logger discards output.
func NewNormalizer(cfg config.Config, rasterizer Rasterizer, factory ocr.Factory, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Normalizer{
		config:     cfg.Document,
		days:       layout.NewDayMatcher(cfg.Layout.DayNames(), cfg.Layout.DayMatchDistance),
		rasterizer: rasterizer,
		factory:    factory,
		logger:     logger,
	}
}

// BottomStrategies returns the strategies used to find where the table ends
// on an upper page, in priority order.
func (n *Normalizer) BottomStrategies() []BoundaryStrategy {
	return []BoundaryStrategy{
		LineEnds{MinLength: n.config.VerticalLineMinLen, MinLines: n.config.MinVerticalLines},
		FullHeight{},
	}
}

// TopStrategies returns the strategies used to find where the table resumes
// on a continuation page, in priority order.
func (n *Normalizer) TopStrategies(engine ocr.Engine) []BoundaryStrategy {
	return []BoundaryStrategy{
		HeaderRow{
			Engine:         engine,
			Days:           n.days,
			SearchFraction: n.config.HeaderSearchFraction,
			RuleDensity:    n.config.RuleDensity,
			RuleOffset:     n.config.RuleOffset,
			Padding:        n.config.HeaderPadding,
		},
		LineStarts{MinLength: n.config.VerticalLineMinLen, MinLines: n.config.MinVerticalLines},
		PageTop{},
	}
}

// Normalize converts an upload to its canonical image. hint is the legacy
// browser layout hint; it is logged and otherwise ignored.
//
// It fails with model.ErrInvalidDocument for empty, mistyped, corrupt or
// oversized documents, and with model.ErrUnsupportedLayout when no anchor
// weekday can be found.
func (n *Normalizer) Normalize(ctx context.Context, data []byte, contentType, hint string) (*Page, error) {
	const op = "normalize"

	if len(data) == 0 {
		return nil, model.NewError(model.ErrInvalidDocument, op, slog.String("reason", "empty document"))
	}
	f := format.Resolve(data, contentType)
	if f == format.Unknown {
		return nil, model.NewError(model.ErrInvalidDocument, op,
			slog.String("reason", "unsupported or mismatched type"),
			slog.String("content_type", contentType),
			slog.String("sniffed", format.DetectFromMagic(data).String()),
		)
	}
	n.logger.Debug("normalizing document", "format", f.String(), "bytes", len(data), "hint", hint)

	var (
		page *Page
		err  error
	)
	if f == format.PDF {
		page, err = n.fromPDF(ctx, data)
	} else {
		page, err = n.fromImage(data, f)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine, err := n.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to start OCR engine: %w", err)
	}
	defer engine.Close()

	anchor, err := n.separate(engine, page.Image)
	if err != nil {
		return nil, err
	}
	page.Anchor = anchor
	n.logger.Info("document normalized",
		"format", f.String(),
		"pages", page.Pages,
		"width", page.Image.Bounds().Dx(),
		"height", page.Image.Bounds().Dy(),
		"anchor", anchor.Word.Text,
		"separator", anchor.Separator,
	)
	return page, nil
}

func (n *Normalizer) fromImage(data []byte, f format.Format) (*Page, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.Wrap(model.ErrInvalidDocument, "decode image", err, slog.String("format", f.String()))
	}
	return &Page{Image: raster.ToRGBA(img), Format: f, Kind: format.KindImage, Pages: 1}, nil
}

func (n *Normalizer) fromPDF(ctx context.Context, data []byte) (*Page, error) {
	if !format.IsPDFSignature(data) {
		return nil, model.NewError(model.ErrInvalidDocument, "validate pdf", slog.String("reason", "bad signature"))
	}
	info, err := Inspect(data)
	if err != nil {
		return nil, model.Wrap(model.ErrInvalidDocument, "validate pdf", err)
	}
	if info.Pages == 0 || info.Pages > n.config.MaxPages {
		return nil, model.NewError(model.ErrInvalidDocument, "validate pdf",
			slog.String("reason", "page count out of bounds"),
			slog.Int("pages", info.Pages),
			slog.Int("max_pages", n.config.MaxPages),
		)
	}

	orientation := "portrait"
	if info.Landscape() {
		orientation = "landscape"
	}
	n.logger.Info("pdf validated", "pages", info.Pages, "orientation", orientation)

	doc, err := n.rasterizer.Open(data)
	if err != nil {
		return nil, model.Wrap(model.ErrInvalidDocument, "open pdf", err)
	}
	defer doc.Close()

	canvas, err := doc.Render(0, n.config.DPI)
	if err != nil {
		return nil, model.Wrap(model.ErrInvalidDocument, "render pdf", err, slog.Int("page", 1))
	}

	if info.Pages > 1 {
		engine, err := n.factory()
		if err != nil {
			return nil, fmt.Errorf("failed to start OCR engine: %w", err)
		}
		defer engine.Close()

		for i := 1; i < info.Pages; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			next, err := doc.Render(i, n.config.DPI)
			if err != nil {
				return nil, model.Wrap(model.ErrInvalidDocument, "render pdf", err, slog.Int("page", i+1))
			}
			canvas = n.Merge(canvas, next, engine)
		}
	}

	return &Page{Image: canvas, Format: format.PDF, Kind: format.KindPDF, Pages: info.Pages}, nil
}

// Merge crops upper at its table bottom and lower at its table top and
// stacks the two crops.
func (n *Normalizer) Merge(upper, lower image.Image, engine ocr.Engine) *image.RGBA {
	bottom, bottomBy, _ := FindBoundary(upper, n.BottomStrategies())
	top, topBy, _ := FindBoundary(lower, n.TopStrategies(engine))

	ub, lb := upper.Bounds(), lower.Bounds()
	merged := raster.StackVertical(
		raster.Region(upper, image.Rect(ub.Min.X, ub.Min.Y, ub.Max.X, bottom)),
		raster.Region(lower, image.Rect(lb.Min.X, top, lb.Max.X, lb.Max.Y)),
	)
	n.logger.Info("pages merged",
		"bottom", bottom, "bottom_strategy", bottomBy,
		"top", top, "top_strategy", topBy,
		"width", merged.Bounds().Dx(), "height", merged.Bounds().Dy(),
	)
	return merged
}

// separate locates the anchor weekday and draws the separator line. The top
// of the image is searched first, then the whole image.
func (n *Normalizer) separate(engine ocr.Engine, img *image.RGBA) (Anchor, error) {
	b := img.Bounds()
	regions := []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+int(float64(b.Dy())*n.config.AnchorSearchFraction)),
		b,
	}

	var errs []error
	for _, r := range regions {
		words, err := engine.Words(raster.Region(img, r))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if word, ok := FindAnchor(words, n.config.AnchorWords); ok {
			a := placeSeparator(img, word, n.config.KeywordPadding, n.config.RuleDensity)
			raster.DrawVerticalLine(img, a.Separator)
			return a, nil
		}
	}

	return Anchor{}, model.Wrap(model.ErrUnsupportedLayout, "find anchor", errors.Join(errs...),
		slog.Any("anchors", n.config.AnchorWords),
		slog.Int("width", b.Dx()),
		slog.Int("height", b.Dy()),
	)
}
