package document

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// Rasterizer opens PDF documents for rendering
type Rasterizer interface {
	Open(data []byte) (Document, error)
}

// Document is an open PDF. Pages are numbered from 0.
type Document interface {
	NumPage() int
	Render(page int, dpi float64) (*image.RGBA, error)
	Close() error
}

// Fitz renders pages with MuPDF
type Fitz struct{}

var _ Rasterizer = Fitz{}

// Open loads a PDF from memory.
func (Fitz) Open(data []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) NumPage() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) Render(page int, dpi float64) (*image.RGBA, error) {
	img, err := d.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
