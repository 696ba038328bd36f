// Package format provides input format detection for schedule documents.
package format

import (
	"bytes"
	"mime"
	"path/filepath"
	"strings"
)

// Format represents a supported input encoding.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PDF indicates a PDF document.
	PDF
	// PNG indicates a PNG image.
	PNG
	// JPEG indicates a JPEG image.
	JPEG
	// GIF indicates a GIF image.
	GIF
	// BMP indicates a Windows bitmap.
	BMP
	// TIFF indicates a TIFF image.
	TIFF
	// WEBP indicates a WebP image.
	WEBP
)

// Kind is the coarse type tag carried with the canonical image. Detection
// thresholds differ between rasterized PDFs and native images.
type Kind int

const (
	// KindUnknown indicates an unsupported input.
	KindUnknown Kind = iota
	// KindPDF indicates an image rasterized from a PDF.
	KindPDF
	// KindImage indicates a photographed or scanned raster image.
	KindImage
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "PDF"
	case KindImage:
		return "IMAGE"
	default:
		return "Unknown"
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	case GIF:
		return "GIF"
	case BMP:
		return "BMP"
	case TIFF:
		return "TIFF"
	case WEBP:
		return "WEBP"
	default:
		return "Unknown"
	}
}

// Kind returns the coarse type tag of the format.
func (f Format) Kind() Kind {
	switch f {
	case PDF:
		return KindPDF
	case PNG, JPEG, GIF, BMP, TIFF, WEBP:
		return KindImage
	default:
		return KindUnknown
	}
}

// MIMEType returns the canonical MIME type for the format.
func (f Format) MIMEType() string {
	switch f {
	case PDF:
		return "application/pdf"
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	case GIF:
		return "image/gif"
	case BMP:
		return "image/bmp"
	case TIFF:
		return "image/tiff"
	case WEBP:
		return "image/webp"
	default:
		return ""
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return PDF
	case ".png":
		return PNG
	case ".jpg", ".jpeg":
		return JPEG
	case ".gif":
		return GIF
	case ".bmp":
		return BMP
	case ".tif", ".tiff":
		return TIFF
	case ".webp":
		return WEBP
	default:
		return Unknown
	}
}

// FromMIME determines the format from a declared MIME type. Parameters
// such as charset are ignored.
func FromMIME(contentType string) Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mediaType {
	case "application/pdf", "application/x-pdf":
		return PDF
	case "image/png":
		return PNG
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return JPEG
	case "image/gif":
		return GIF
	case "image/bmp", "image/x-bmp", "image/x-ms-bmp":
		return BMP
	case "image/tiff":
		return TIFF
	case "image/webp":
		return WEBP
	default:
		return Unknown
	}
}

// PDF header prefixes accepted as a valid structural signature.
var pdfSignatures = [][]byte{[]byte("%PDF-1."), []byte("%PDF-2.")}

// IsPDFSignature reports whether data starts with a supported PDF header.
func IsPDFSignature(data []byte) bool {
	for _, sig := range pdfSignatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}

// DetectFromMagic checks file magic bytes to determine format.
// This provides more reliable detection than extension-based detection.
func DetectFromMagic(data []byte) Format {
	if len(data) < 4 {
		return Unknown
	}

	switch {
	case IsPDFSignature(data):
		return PDF
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return PNG
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return JPEG
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return GIF
	case bytes.HasPrefix(data, []byte("BM")):
		return BMP
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return TIFF
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return WEBP
	}

	return Unknown
}

// Resolve reconciles the declared MIME type with the magic bytes. The magic
// bytes win when both are known; the result's Kind must agree with the
// declared Kind or Unknown is returned.
func Resolve(data []byte, contentType string) Format {
	declared := FromMIME(contentType)
	sniffed := DetectFromMagic(data)

	switch {
	case sniffed == Unknown:
		// A declared PDF without a valid signature is rejected later by
		// the structural check.
		if declared == PDF {
			return PDF
		}
		return Unknown
	case declared == Unknown:
		return sniffed
	case declared.Kind() != sniffed.Kind():
		return Unknown
	default:
		return sniffed
	}
}
