package ocr

import (
	"bytes"
	"errors"
	"image"
	"strings"

	"golang.org/x/image/bmp"
)

// ErrOCRNotEnabled is returned when OCR functions are called but OCR support
// was not compiled in. Rebuild with -tags ocr to enable OCR support.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Word is a recognized word with its bounding box in the coordinate space
// of the image passed to the engine.
type Word struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// Engine recognizes text in images. Implementations hold native resources
// and are not safe for concurrent use; give each goroutine its own engine.
type Engine interface {
	// Text returns the recognized text, trimmed of surrounding whitespace.
	Text(img image.Image) (string, error)

	// Words returns the recognized words with their positions.
	Words(img image.Image) ([]Word, error)

	// Close releases the engine.
	Close() error
}

// Factory creates a new Engine.
type Factory func() (Engine, error)

// PageSegMode represents page segmentation modes for OCR.
// These control how Tesseract analyzes the page layout.
type PageSegMode int

// Page segmentation modes (matching Tesseract's numbering).
const (
	PSM_OSD_ONLY               PageSegMode = 0  // Orientation and script detection only
	PSM_AUTO_OSD               PageSegMode = 1  // Automatic with OSD
	PSM_AUTO_ONLY              PageSegMode = 2  // Automatic, no OSD or OCR
	PSM_AUTO                   PageSegMode = 3  // Fully automatic (default)
	PSM_SINGLE_COLUMN          PageSegMode = 4  // Single column of variable sizes
	PSM_SINGLE_BLOCK_VERT_TEXT PageSegMode = 5  // Single uniform block of vertically aligned text
	PSM_SINGLE_BLOCK           PageSegMode = 6  // Single uniform block of text
	PSM_SINGLE_LINE            PageSegMode = 7  // Single text line
	PSM_SINGLE_WORD            PageSegMode = 8  // Single word
	PSM_CIRCLE_WORD            PageSegMode = 9  // Single word in a circle
	PSM_SINGLE_CHAR            PageSegMode = 10 // Single character
	PSM_SPARSE_TEXT            PageSegMode = 11 // Find as much text as possible
	PSM_SPARSE_TEXT_OSD        PageSegMode = 12 // Sparse text with OSD
	PSM_RAW_LINE               PageSegMode = 13 // Treat image as single text line
)

// NewFactory returns a Factory producing Tesseract clients configured for
// the given "+"-separated languages (e.g. "eng+fra") and segmentation mode.
func NewFactory(languages string, mode PageSegMode) Factory {
	return func() (Engine, error) {
		c, err := New()
		if err != nil {
			return nil, err
		}
		if languages != "" {
			if err := c.SetLanguage(languages); err != nil {
				c.Close()
				return nil, err
			}
		}
		if err := c.SetPageSegMode(mode); err != nil {
			c.Close()
			return nil, err
		}
		return c, nil
	}
}

// encode serializes img for the engine. BMP is uncompressed, which keeps
// per-cell encoding cheap.
func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Normalize collapses runs of whitespace (including newlines) to single
// spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
