package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/internal/testimg"
	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/ocr"
	"github.com/tsawler/timetable/ocr/ocrtest"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"08:00 - 09:00", []string{"08:00", "09:00"}},
		{"08:00-09:00", []string{"08:00", "09:00"}},
		{"-08:00 -- 09:00-", []string{"08:00", "09:00"}},
		{"13:00–14:30", []string{"13:00", "14:30"}},
		{"08:00\n09:00\n10:00", []string{"08:00", "09:00", "10:00"}},
		{"08:00-09:00 10:00", []string{"08:00-09:00", "10:00"}},
		{"-08:00-", []string{"08:00"}},
		{"-", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if got := Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

var grid = testimg.Grid{Cols: 4, Rows: 3, CellW: 120, CellH: 60, Line: 2, Margin: 10}

func schedulePage() *ocrtest.Page {
	page := &ocrtest.Page{}
	page.Add("08:00 - 09:00", grid.Cell(0, 0))
	page.Add("Math", grid.Cell(1, 0))
	page.Add("ID: 101", grid.Cell(1, 0).Add(image.Pt(0, 20)))
	page.Add("10:00-11:30", grid.Cell(0, 1))
	page.Add("Physics Room: B2", grid.Cell(2, 1))
	page.Add("12:00", grid.Cell(3, 1))
	page.Add("13:00 -", grid.Cell(0, 2))
	page.Add("Art", grid.Cell(3, 2))
	return page
}

func cellTasks() []Task {
	var tasks []Task
	for r := 0; r < grid.Rows; r++ {
		for c := 1; c < grid.Cols; c++ {
			tasks = append(tasks, Task{Box: model.BoxFromRect(grid.Cell(c, r)), Day: fmt.Sprintf("DAY%d", c)})
		}
	}
	return tasks
}

func timeAxis() *model.TimeAxis {
	b := model.BoxFromRect(grid.Cell(0, 0))
	return &model.TimeAxis{X: b.X, W: b.W}
}

func TestExtract(t *testing.T) {
	page := schedulePage()
	e := New(config.Default().Extract, page.Factory(), nil)

	subjects, err := e.Extract(context.Background(), grid.Image(), cellTasks(), timeAxis())
	require.NoError(t, err)

	want := []model.Subject{
		{Details: "Math ID: 101", Day: "DAY1", Time: []string{"08:00", "09:00"}},
		{Details: "Physics Room: B2", Day: "DAY2", Time: []string{"10:00", "11:30"}},
		{Details: "Art", Day: "DAY3", Time: []string{"13:00"}},
	}
	assert.Equal(t, want, subjects)

	assert.LessOrEqual(t, page.Opened(), config.Default().Extract.Workers)
	assert.Equal(t, page.Opened(), page.Closed(), "every engine is released")
}

func TestExtract_PadsCrop(t *testing.T) {
	page := schedulePage()
	cfg := config.Default().Extract
	cfg.Workers = 1
	e := New(cfg, page.Factory(), nil)

	task := Task{Box: model.BoxFromRect(grid.Cell(1, 0))}
	_, err := e.Extract(context.Background(), grid.Image(), []Task{task}, timeAxis())
	require.NoError(t, err)

	calls := page.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, task.Box.W+cfg.CropPad, calls[0].Dx())
	assert.Equal(t, grid.Cell(0, 0), calls[1], "row time is read from the axis column")
}

func TestExtract_NoAxis(t *testing.T) {
	page := schedulePage()
	e := New(config.Default().Extract, page.Factory(), nil)

	subjects, err := e.Extract(context.Background(), grid.Image(), cellTasks(), nil)
	require.NoError(t, err)
	require.Len(t, subjects, 3)
	for _, s := range subjects {
		assert.Empty(t, s.Time)
	}
}

func TestExtract_FailingCellIsDropped(t *testing.T) {
	page := schedulePage()
	page.Fail = []image.Rectangle{grid.Cell(2, 1)}
	e := New(config.Default().Extract, page.Factory(), nil)

	subjects, err := e.Extract(context.Background(), grid.Image(), cellTasks(), timeAxis())
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Math ID: 101", subjects[0].Details)
	assert.Equal(t, "Art", subjects[1].Details)
}

func TestExtract_FactoryError(t *testing.T) {
	failing := ocr.Factory(func() (ocr.Engine, error) { return nil, ocr.ErrOCRNotEnabled })
	e := New(config.Default().Extract, failing, nil)

	_, err := e.Extract(context.Background(), grid.Image(), cellTasks(), timeAxis())
	assert.True(t, errors.Is(err, ocr.ErrOCRNotEnabled))
}

func TestExtract_Canceled(t *testing.T) {
	page := schedulePage()
	e := New(config.Default().Extract, page.Factory(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Extract(ctx, grid.Image(), cellTasks(), timeAxis())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, page.Opened(), page.Closed())
}

func TestExtract_Empty(t *testing.T) {
	e := New(config.Default().Extract, (&ocrtest.Page{}).Factory(), nil)
	subjects, err := e.Extract(context.Background(), grid.Image(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

// slowEngine delays cells near the top of the page the most, so workers
// finish in roughly reverse submission order.
type slowEngine struct {
	ocr.Engine
}

func (s slowEngine) Text(img image.Image) (string, error) {
	time.Sleep(time.Duration(max(2000-img.Bounds().Min.Y, 0)) * time.Microsecond)
	return s.Engine.Text(img)
}

func TestExtract_PreservesSubmissionOrder(t *testing.T) {
	tall := testimg.Grid{Cols: 2, Rows: 40, CellW: 120, CellH: 40, Line: 2, Margin: 10}
	page := &ocrtest.Page{}
	var tasks []Task
	var want []string
	for r := 0; r < tall.Rows; r++ {
		name := fmt.Sprintf("Course %02d", r)
		page.Add(fmt.Sprintf("%02d:00-%02d:50", r%24, r%24), tall.Cell(0, r))
		page.Add(name, tall.Cell(1, r))
		tasks = append(tasks, Task{Box: model.BoxFromRect(tall.Cell(1, r))})
		want = append(want, name)
	}
	factory := func() (ocr.Engine, error) {
		en, err := page.Factory()()
		return slowEngine{en}, err
	}
	axisBox := model.BoxFromRect(tall.Cell(0, 0))

	for run := 0; run < 3; run++ {
		e := New(config.ExtractConfig{Workers: 8, CropPad: 2}, factory, nil)
		subjects, err := e.Extract(context.Background(), tall.Image(), tasks, &model.TimeAxis{X: axisBox.X, W: axisBox.W})
		require.NoError(t, err)

		got := make([]string, len(subjects))
		for i, s := range subjects {
			got[i] = s.Details
		}
		require.Equal(t, want, got)
	}
}
