package timetable

import (
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/document"
	"github.com/tsawler/timetable/metrics"
	"github.com/tsawler/timetable/ocr"
)

// tracerName identifies the pipeline's spans
const tracerName = "github.com/tsawler/timetable"

// options holds the pipeline configuration carried by a Converter.
type options struct {
	hint     string
	timezone string // Timezone code; empty selects the configured default
	today    time.Time

	config     config.Config
	logger     *slog.Logger
	recorder   metrics.Recorder
	tracer     trace.Tracer
	rasterizer document.Rasterizer
	factory    ocr.Factory // nil builds Tesseract engines from config
}

// defaultOptions returns the default pipeline options.
func defaultOptions() options {
	return options{
		config:     config.Default(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder:   metrics.Nop{},
		tracer:     otel.Tracer(tracerName),
		rasterizer: document.Fitz{},
	}
}

// clone creates a deep copy of options.
func (o options) clone() options {
	n := o
	n.config.Document.AnchorWords = append([]string(nil), o.config.Document.AnchorWords...)
	n.config.Layout.Locales = make(map[string][]string, len(o.config.Layout.Locales))
	for k, v := range o.config.Layout.Locales {
		n.config.Layout.Locales[k] = append([]string(nil), v...)
	}
	n.config.Calendar.Timezones = make(map[string]string, len(o.config.Calendar.Timezones))
	for k, v := range o.config.Calendar.Timezones {
		n.config.Calendar.Timezones[k] = v
	}
	return n
}

// ocrFactory returns the configured factory or a Tesseract one tuned for
// single-cell crops.
func (o options) ocrFactory() ocr.Factory {
	if o.factory != nil {
		return o.factory
	}
	return ocr.NewFactory(o.config.Extract.Languages, ocr.PageSegMode(o.config.Extract.PageSegMode))
}

// pageFactory is ocrFactory for whole-page word search.
func (o options) pageFactory() ocr.Factory {
	if o.factory != nil {
		return o.factory
	}
	return ocr.NewFactory(o.config.Extract.Languages, ocr.PageSegMode(o.config.Document.PageSegMode))
}

// now returns the pinned date or the wall clock.
func (o options) now() time.Time {
	if o.today.IsZero() {
		return time.Now()
	}
	return o.today
}
