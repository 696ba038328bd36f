package document

import (
	"bytes"
	"fmt"

	"rsc.io/pdf"
)

// Info is what the structural check learns about a PDF
type Info struct {
	Pages  int
	Width  float64 // First page MediaBox width in points, 0 when absent
	Height float64
}

// Landscape reports whether the first page is wider than it is tall.
func (i Info) Landscape() bool {
	return i.Height > 0 && i.Width/i.Height >= 1
}

// Inspect parses the PDF structure without rendering anything.
func Inspect(data []byte) (info Info, err error) {
	// rsc.io/pdf reports some malformed input by panicking.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("malformed PDF: %w", err)
	}

	info.Pages = r.NumPage()
	if info.Pages == 0 {
		return info, nil
	}
	if box := mediaBox(r.Page(1).V); box.Len() == 4 {
		info.Width = box.Index(2).Float64() - box.Index(0).Float64()
		info.Height = box.Index(3).Float64() - box.Index(1).Float64()
	}
	return info, nil
}

// maxTreeDepth bounds the walk up the page tree
const maxTreeDepth = 32

// mediaBox returns the page's MediaBox, following the page tree upwards
// when it is inherited.
func mediaBox(page pdf.Value) pdf.Value {
	v := page
	for depth := 0; depth < maxTreeDepth && v.Kind() == pdf.Dict; depth++ {
		if box := v.Key("MediaBox"); box.Kind() == pdf.Array {
			return box
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}
