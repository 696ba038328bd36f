package layout

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/ocr"
	"github.com/tsawler/timetable/raster"
)

// maxDayColumns is the number of days in a week
const maxDayColumns = 7

// Classification is the result of reading the table headers
type Classification struct {
	// Days holds one header per distinct label in detection order.
	Days []model.DayBox

	// Axis locates the row times; nil when no time cell was read.
	Axis *model.TimeAxis

	// Cells holds every box that is not a day header, in input order.
	Cells []model.Box

	// Columns holds the day column spans, left to right.
	Columns []model.DayColumn
}

// Day returns the day label for a data cell.
func (c *Classification) Day(box model.Box) string {
	return Assign(c.Columns, box)
}

// Classifier separates day headers, the time axis and data cells
type Classifier struct {
	config  config.LayoutConfig
	days    *DayMatcher
	factory ocr.Factory
	logger  *slog.Logger
}

// NewClassifier creates a classifier that reads cells with engines from
// factory. A nil logger discards output.
func NewClassifier(cfg config.LayoutConfig, factory ocr.Factory, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Classifier{
		config:  cfg,
		days:    NewDayMatcher(cfg.DayNames(), cfg.DayMatchDistance),
		factory: factory,
		logger:  logger,
	}
}

// Classify reads boxes in order and classifies them. A cell that cannot be
// read is treated as a data cell.
func (c *Classifier) Classify(ctx context.Context, img image.Image, boxes []model.Box) (*Classification, error) {
	engine, err := c.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to start OCR engine: %w", err)
	}
	defer engine.Close()

	result := &Classification{}
	seen := make(map[string]bool)
	headers := make(map[int]bool)

	for i, box := range boxes {
		if len(seen) >= c.config.StopAfterDays && result.Axis != nil {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := engine.Text(raster.Region(img, box.Rect()))
		if err != nil {
			c.logger.Debug("header cell unreadable", "box", i, "error", err)
			continue
		}

		if label, ok := c.days.Match(text); ok {
			headers[i] = true
			if !seen[label] && len(result.Days) < maxDayColumns {
				seen[label] = true
				result.Days = append(result.Days, model.DayBox{Box: box, Label: label})
			}
			continue
		}
		if result.Axis == nil && IsTime(text) {
			result.Axis = &model.TimeAxis{X: box.X, W: box.W}
		}
	}

	result.Cells = make([]model.Box, 0, len(boxes)-len(headers))
	for i, box := range boxes {
		if !headers[i] {
			result.Cells = append(result.Cells, box)
		}
	}
	result.Columns = Columns(result.Days, c.config.ColumnTolerance, c.config.ColumnExtension)

	if len(result.Days) < c.config.StopAfterDays {
		labels := make([]string, len(result.Days))
		for i, d := range result.Days {
			labels[i] = d.Label
		}
		c.logger.Warn("fewer day columns than expected; neighbouring columns widen to cover the gap",
			"found", labels, "expected", c.config.StopAfterDays)
	}
	if result.Axis == nil {
		c.logger.Warn("no time axis found", "boxes", len(boxes))
	}

	c.logger.Debug("classified cells",
		"days", len(result.Days),
		"cells", len(result.Cells),
		"axis", result.Axis != nil,
	)
	return result, nil
}
