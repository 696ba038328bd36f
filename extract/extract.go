// Package extract reads the text of data cells and their row times
// concurrently.
package extract

import (
	"context"
	"image"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/layout"
	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/ocr"
	"github.com/tsawler/timetable/raster"
)

// Task is one data cell to read
type Task struct {
	Box model.Box
	Day string // Column label, empty when unassigned
}

// Extractor runs cell OCR on a bounded worker pool
type Extractor struct {
	config  config.ExtractConfig
	factory ocr.Factory
	logger  *slog.Logger
}

// New creates an extractor. A nil logger discards output.
func New(cfg config.ExtractConfig, factory ocr.Factory, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{config: cfg, factory: factory, logger: logger}
}

// Extract reads every task and returns the subjects in task order,
// regardless of the order in which workers finish. img is shared read-only
// by all workers. A cell that cannot be read, is empty, or holds only a
// time yields no subject.
//
// An error is returned only when the context is canceled or an OCR engine
// cannot be started.
func (e *Extractor) Extract(ctx context.Context, img image.Image, tasks []Task, axis *model.TimeAxis) ([]model.Subject, error) {
	workers := max(e.config.Workers, 1)
	slots := make([]*model.Subject, len(tasks))

	// Engines are not safe for concurrent use. At most `workers` tasks run
	// at once and each holds one engine, so the pool never exceeds that.
	engines := make(chan ocr.Engine, workers)
	defer func() {
		close(engines)
		for en := range engines {
			en.Close()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range tasks {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			en, err := e.acquire(engines)
			if err != nil {
				return err
			}
			defer func() { engines <- en }()

			if gctx.Err() != nil {
				return gctx.Err()
			}
			slots[i] = e.read(en, img, i, tasks[i], axis)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	subjects := make([]model.Subject, 0, len(tasks))
	for _, s := range slots {
		if s != nil {
			subjects = append(subjects, *s)
		}
	}
	e.logger.Debug("extracted subjects", "cells", len(tasks), "subjects", len(subjects), "workers", workers)
	return subjects, nil
}

func (e *Extractor) acquire(engines chan ocr.Engine) (ocr.Engine, error) {
	select {
	case en := <-engines:
		return en, nil
	default:
		return e.factory()
	}
}

// read processes one cell. It never fails: unreadable input yields nil.
func (e *Extractor) read(engine ocr.Engine, img image.Image, i int, task Task, axis *model.TimeAxis) *model.Subject {
	r := task.Box.Rect()
	r.Max.X += e.config.CropPad

	text, err := engine.Text(raster.Region(img, r))
	if err != nil {
		e.logger.Debug("cell unreadable", "cell", i, "error", err)
		return nil
	}
	details := ocr.Normalize(text)
	if details == "" || layout.IsTime(details) {
		return nil
	}

	var times []string
	if axis != nil {
		row := axis.Row(task.Box)
		t, err := engine.Text(raster.Region(img, row.Rect()))
		if err != nil {
			e.logger.Debug("row time unreadable", "cell", i, "error", err)
		} else {
			times = Tokenize(t)
		}
	}

	return &model.Subject{Details: details, Day: task.Day, Time: times}
}
