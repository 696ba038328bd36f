package timetable

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tsawler/timetable/calendar"
	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/course"
	"github.com/tsawler/timetable/document"
	"github.com/tsawler/timetable/extract"
	"github.com/tsawler/timetable/layout"
	"github.com/tsawler/timetable/metrics"
	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/ocr"
	"github.com/tsawler/timetable/tables"
)

// Pipeline stage names used in logs, spans and metrics.
const (
	StageNormalize = "normalize"
	StageDetect    = "detect"
	StageClassify  = "classify"
	StageExtract   = "extract"
	StageAssemble  = "assemble"
	StageCalendar  = "calendar"
)

// Converter provides a fluent interface for converting a schedule document.
// Each configuration method returns a new Converter instance, making it
// safe for concurrent use and allowing method chaining.
type Converter struct {
	// Source
	data        []byte
	contentType string

	options options

	// Accumulated error (fail-fast)
	err error
}

// clone creates a copy of the Converter with a deep copy of options. The
// document bytes are shared and never modified.
func (c *Converter) clone() *Converter {
	return &Converter{
		data:        c.data,
		contentType: c.contentType,
		options:     c.options.clone(),
		err:         c.err,
	}
}

// ============================================================================
// Configuration Methods (return new Converter instance)
// ============================================================================

// Hint records the legacy browser layout hint (e.g. "CHROME"). It is logged
// and has no effect on the conversion.
func (c *Converter) Hint(hint string) *Converter {
	n := c.clone()
	n.options.hint = hint
	return n
}

// Timezone selects the timezone code (e.g. "KSA", "ALG") used for the
// calendar. Unknown codes fall back to the configured default.
//
// Example:
//
//	ics, err := timetable.Open("schedule.pdf").Timezone("ALG").Calendar(ctx)
func (c *Converter) Timezone(code string) *Converter {
	n := c.clone()
	n.options.timezone = code
	return n
}

// Today pins the date from which the first occurrence of every course is
// computed. The wall clock is used when unset.
func (c *Converter) Today(t time.Time) *Converter {
	n := c.clone()
	n.options.today = t
	return n
}

// Config replaces the layout configuration. An invalid configuration makes
// every terminal operation fail.
func (c *Converter) Config(cfg config.Config) *Converter {
	n := c.clone()
	if err := cfg.Validate(); err != nil && n.err == nil {
		n.err = err
	}
	n.options.config = cfg
	n.options = n.options.clone()
	return n
}

// Logger sets the structured logger for stage progress and diagnostics.
func (c *Converter) Logger(l *slog.Logger) *Converter {
	n := c.clone()
	if l != nil {
		n.options.logger = l
	}
	return n
}

// Metrics sets the recorder for stage timings and failure counts.
func (c *Converter) Metrics(r metrics.Recorder) *Converter {
	n := c.clone()
	if r != nil {
		n.options.recorder = r
	}
	return n
}

// Tracer sets the OpenTelemetry tracer for stage spans. The global tracer
// provider is used by default.
func (c *Converter) Tracer(t trace.Tracer) *Converter {
	n := c.clone()
	if t != nil {
		n.options.tracer = t
	}
	return n
}

// Rasterizer replaces the PDF renderer.
func (c *Converter) Rasterizer(r document.Rasterizer) *Converter {
	n := c.clone()
	if r != nil {
		n.options.rasterizer = r
	}
	return n
}

// OCR replaces the OCR engine factory. By default engines are Tesseract
// clients for the configured languages, which requires the "ocr" build tag.
func (c *Converter) OCR(factory ocr.Factory) *Converter {
	n := c.clone()
	n.options.factory = factory
	return n
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Courses runs the pipeline and returns the recognized course sessions in
// table reading order.
//
// Example:
//
//	courses, err := timetable.Open("schedule.pdf").Courses(ctx)
//	for _, c := range courses {
//	    fmt.Println(c.Day, c.Duration, c.Name)
//	}
func (c *Converter) Courses(ctx context.Context) ([]model.Course, error) {
	courses, err := c.courses(ctx)
	if err != nil {
		c.fail(err)
		return nil, err
	}
	return courses, nil
}

// Calendar runs the pipeline and returns the courses as an iCalendar feed
// of weekly recurring events.
func (c *Converter) Calendar(ctx context.Context) ([]byte, error) {
	courses, err := c.courses(ctx)
	if err != nil {
		c.fail(err)
		return nil, err
	}

	var ics []byte
	err = c.stage(ctx, StageCalendar, func(ctx context.Context) error {
		var err error
		ics, err = c.generator().Generate(courses, c.options.timezone)
		return err
	})
	if err != nil {
		c.fail(err)
		return nil, err
	}
	return ics, nil
}

// Events runs the pipeline and returns the calendar events without
// serializing them.
func (c *Converter) Events(ctx context.Context) ([]calendar.Event, error) {
	courses, err := c.courses(ctx)
	if err != nil {
		c.fail(err)
		return nil, err
	}

	var events []calendar.Event
	err = c.stage(ctx, StageCalendar, func(ctx context.Context) error {
		var err error
		events, err = c.generator().Events(courses, c.options.timezone)
		return err
	})
	if err != nil {
		c.fail(err)
		return nil, err
	}
	return events, nil
}

// generator builds the calendar generator. A pinned day is read by its
// calendar date, whatever zone it was parsed in.
func (c *Converter) generator() *calendar.Generator {
	gen := calendar.NewGenerator(c.options.config, c.options.logger).WithClock(c.options.now)
	if !c.options.today.IsZero() {
		gen = gen.WithDate(c.options.today)
	}
	return gen
}

func (c *Converter) courses(ctx context.Context) ([]model.Course, error) {
	if c.err != nil {
		return nil, c.err
	}

	ctx, span := c.options.tracer.Start(ctx, "timetable.convert", trace.WithAttributes(
		attribute.String("content_type", c.contentType),
		attribute.Int("bytes", len(c.data)),
	))
	defer span.End()

	cfg := c.options.config
	logger := c.options.logger
	factory := c.options.ocrFactory()

	var page *document.Page
	err := c.stage(ctx, StageNormalize, func(ctx context.Context) error {
		var err error
		n := document.NewNormalizer(cfg, c.options.rasterizer, c.options.pageFactory(), logger)
		page, err = n.Normalize(ctx, c.data, c.contentType, c.options.hint)
		return err
	})
	if err != nil {
		return nil, c.record(span, err)
	}

	var boxes []model.Box
	err = c.stage(ctx, StageDetect, func(ctx context.Context) error {
		var err error
		boxes, err = tables.New(cfg.Box).Detect(page.Image, page.Kind)
		if err == nil {
			logger.Info("cells detected", "boxes", len(boxes), "kind", page.Kind.String())
		}
		return err
	})
	if err != nil {
		return nil, c.record(span, err)
	}

	var cls *layout.Classification
	err = c.stage(ctx, StageClassify, func(ctx context.Context) error {
		var err error
		cls, err = layout.NewClassifier(cfg.Layout, factory, logger).Classify(ctx, page.Image, boxes)
		return err
	})
	if err != nil {
		return nil, c.record(span, err)
	}

	tasks := make([]extract.Task, len(cls.Cells))
	for i, box := range cls.Cells {
		tasks[i] = extract.Task{Box: box, Day: cls.Day(box)}
	}

	var subjects []model.Subject
	err = c.stage(ctx, StageExtract, func(ctx context.Context) error {
		var err error
		subjects, err = extract.New(cfg.Extract, factory, logger).Extract(ctx, page.Image, tasks, cls.Axis)
		return err
	})
	if err != nil {
		return nil, c.record(span, err)
	}

	var courses []model.Course
	err = c.stage(ctx, StageAssemble, func(ctx context.Context) error {
		var err error
		courses, err = course.NewAssembler(logger).Assemble(subjects)
		return err
	})
	if err != nil {
		return nil, c.record(span, err)
	}

	span.SetAttributes(attribute.Int("courses", len(courses)))
	logger.Info("schedule converted", "courses", len(courses), "subjects", len(subjects), "cells", len(boxes))
	return courses, nil
}

// stage runs fn inside a child span and records its duration.
func (c *Converter) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := c.options.tracer.Start(ctx, "timetable."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	c.options.recorder.ObserveStage(name, elapsed)
	c.options.logger.Debug("stage finished", "stage", name, "elapsed", elapsed, "ok", err == nil)
	if err != nil {
		c.record(span, err)
	}
	return err
}

// record marks span as failed and returns err.
func (c *Converter) record(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// fail logs a terminal failure and counts it by kind.
func (c *Converter) fail(err error) {
	c.options.recorder.CountError(ErrorKind(err))

	var perr *model.Error
	if errors.As(err, &perr) {
		c.options.logger.Warn("conversion failed", "error", perr)
		return
	}
	c.options.logger.Error("conversion failed", "error", err)
}

// ErrorKind returns a short label for the failure kind of err: the text of
// the model sentinel it matches, "canceled" for context errors, or
// "internal".
func ErrorKind(err error) string {
	if kind := model.KindOf(err); kind != nil {
		return kind.Error()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "internal"
}
