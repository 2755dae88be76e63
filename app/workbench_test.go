package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"qcview/domain/sheet"
	"qcview/internal"
	"qcview/internal/chart"
	"qcview/internal/errors"
	"qcview/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubReader parses "a,b;c,d" style bodies; names listed in gates block
// until their channel is closed.
type stubReader struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	fail  map[string]error
}

func (s *stubReader) Read(ctx context.Context, name string, src io.Reader) (*sheet.Dataset, error) {
	s.mu.Lock()
	gate := s.gates[name]
	failure := s.fail[name]
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, failure
	}
	body, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for _, line := range strings.Split(string(body), ";") {
		rows = append(rows, strings.Split(line, ","))
	}
	return sheet.FromStrings(rows), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.WorkbookEvent
}

func (p *recordingPublisher) Publish(event ports.WorkbookEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType
	}
	return out
}

const measurementSheet = "제품명,날짜,인장강도,연신율,모듈러스;" +
	"PE-100,25.07.21,30,400,2;" +
	"PP-200,25.07.22,31,410,2.5;" +
	"PE-300,25.07.22,32,420,3"

func newTestWorkbench(reader *stubReader, events *recordingPublisher) *Workbench {
	logger := internal.NewLoggerTo(&bytes.Buffer{}, internal.LogLevelDebug)
	charts := chart.NewRenderer(chart.Slots, chart.DefaultDrawOptions(), logger).
		WithDrawer(func(slot chart.Slot, points []chart.Point, opts chart.DrawOptions) ([]byte, error) {
			return []byte(fmt.Sprintf("%s:%d", slot, len(points))), nil
		})
	if events == nil {
		return NewWorkbench(reader, charts, nil, 2, logger)
	}
	return NewWorkbench(reader, charts, events, 2, logger)
}

func TestFilterBeforeLoad(t *testing.T) {
	w := newTestWorkbench(&stubReader{}, nil)

	view, err := w.Filter(context.Background(), sheet.Criteria{Keyword: "PE"})
	assert.Nil(t, view)
	assert.ErrorIs(t, err, ErrNothingLoaded)
	_, ok := w.Current()
	assert.False(t, ok)

	_, err = w.Columns()
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestLoadRendersEverything(t *testing.T) {
	events := &recordingPublisher{}
	w := newTestWorkbench(&stubReader{}, events)

	view, err := w.Load(context.Background(), "a.csv", strings.NewReader(measurementSheet))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), view.Generation)
	assert.Equal(t, "a.csv", view.Filename)
	assert.Equal(t, 3, view.TotalRows)
	assert.Equal(t, 3, view.MatchedRows())
	assert.Equal(t, 4, view.Table.RowCount())
	assert.Len(t, view.Charts.Drawn, 3)

	h, ok := w.Charts().Handle(chart.SlotTensile)
	require.True(t, ok)
	assert.Len(t, h.Points, 3)

	assert.Equal(t, []string{ports.EventWorkbookLoaded}, events.types())
}

func TestFilterNarrowsTableAndCharts(t *testing.T) {
	w := newTestWorkbench(&stubReader{}, nil)
	_, err := w.Load(context.Background(), "a.csv", strings.NewReader(measurementSheet))
	require.NoError(t, err)
	before, _ := w.Charts().Handle(chart.SlotModulus)

	view, err := w.Filter(context.Background(), sheet.Criteria{Keyword: "PE", Date: "2025-07-22"})
	require.NoError(t, err)

	require.Equal(t, 2, view.Table.RowCount())
	assert.Equal(t, "PE-300", view.Table.Rows[1].Cells[0])
	assert.Equal(t, 3, view.TotalRows)
	assert.Equal(t, 1, view.MatchedRows())

	after, ok := w.Charts().Handle(chart.SlotModulus)
	require.True(t, ok)
	assert.True(t, before.Retired())
	assert.Equal(t, []chart.Point{{X: "25.07.22", Y: 3}}, after.Points)
}

func TestFilterWithNoMatchesKeepsHeader(t *testing.T) {
	w := newTestWorkbench(&stubReader{}, nil)
	_, err := w.Load(context.Background(), "a.csv", strings.NewReader(measurementSheet))
	require.NoError(t, err)

	view, err := w.Filter(context.Background(), sheet.Criteria{Keyword: "XYZ"})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Table.RowCount())
	assert.True(t, view.Table.Rows[0].Header)
	assert.Equal(t, 0, view.MatchedRows())

	h, ok := w.Charts().Handle(chart.SlotTensile)
	require.True(t, ok)
	assert.Empty(t, h.Points)
}

func TestFailedLoadKeepsPreviousWorkbook(t *testing.T) {
	events := &recordingPublisher{}
	reader := &stubReader{fail: map[string]error{"broken.xlsx": errors.ParseError("xlsx", io.ErrUnexpectedEOF)}}
	w := newTestWorkbench(reader, events)

	_, err := w.Load(context.Background(), "a.csv", strings.NewReader(measurementSheet))
	require.NoError(t, err)

	_, err = w.Load(context.Background(), "broken.xlsx", strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, errors.CodeParseError, errors.GetCode(err))

	view, ok := w.Current()
	require.True(t, ok)
	assert.Equal(t, "a.csv", view.Filename)
	assert.Equal(t, []string{ports.EventWorkbookLoaded, ports.EventWorkbookFailed}, events.types())

	cols, err := w.Columns()
	require.NoError(t, err)
	assert.Equal(t, 0, cols[sheet.RoleProduct].Index)
}

func TestLastSelectedWorkbookWins(t *testing.T) {
	gate := make(chan struct{})
	reader := &stubReader{gates: map[string]chan struct{}{"slow.csv": gate}}
	w := newTestWorkbench(reader, nil)

	type outcome struct {
		view *View
		err  error
	}
	slow := make(chan outcome, 1)
	go func() {
		view, err := w.Load(context.Background(), "slow.csv", strings.NewReader("제품명;old"))
		slow <- outcome{view, err}
	}()

	// the slow load holds ticket 1 before the fast one starts
	require.Eventually(t, func() bool { return w.tickets.Load() == 1 }, time.Second, 5*time.Millisecond)

	view, err := w.Load(context.Background(), "fast.csv", strings.NewReader(measurementSheet))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), view.Generation)

	close(gate)
	res := <-slow
	assert.Nil(t, res.view)
	assert.ErrorIs(t, res.err, ErrStaleLoad)
	assert.Equal(t, errors.CodeConflict, errors.GetCode(res.err))

	current, ok := w.Current()
	require.True(t, ok)
	assert.Equal(t, "fast.csv", current.Filename)
	assert.Equal(t, 3, current.TotalRows)
}

func TestLoadWithoutChartColumnsKeepsCharts(t *testing.T) {
	w := newTestWorkbench(&stubReader{}, nil)
	_, err := w.Load(context.Background(), "a.csv", strings.NewReader(measurementSheet))
	require.NoError(t, err)
	before, _ := w.Charts().Handle(chart.SlotElongation)

	view, err := w.Load(context.Background(), "b.csv", strings.NewReader("제품명,날짜;X,25.01.01"))
	require.NoError(t, err)
	assert.True(t, view.Charts.Skipped)
	assert.Equal(t, 2, view.Table.RowCount())

	after, ok := w.Charts().Handle(chart.SlotElongation)
	require.True(t, ok)
	assert.Same(t, before, after)
	assert.False(t, after.Retired())
}

func TestLoadHonoursCancelledContext(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	w := newTestWorkbench(&stubReader{gates: map[string]chan struct{}{"a.csv": gate}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Load(ctx, "a.csv", strings.NewReader(measurementSheet))
	require.Error(t, err)

	_, ok := w.Current()
	assert.False(t, ok)
}

func TestFailedRenderKeepsPreviousWorkbook(t *testing.T) {
	events := &recordingPublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := internal.NewLoggerTo(&bytes.Buffer{}, internal.LogLevelDebug)
	charts := chart.NewRenderer(chart.Slots, chart.DefaultDrawOptions(), logger).
		WithDrawer(func(slot chart.Slot, points []chart.Point, opts chart.DrawOptions) ([]byte, error) {
			if len(points) == 1 {
				cancel()
			}
			return []byte(fmt.Sprintf("%s:%d", slot, len(points))), nil
		})
	w := NewWorkbench(&stubReader{}, charts, events, 2, logger)

	_, err := w.Load(ctx, "first.csv", strings.NewReader(measurementSheet))
	require.NoError(t, err)
	before, _ := w.Charts().Handle(chart.SlotTensile)

	_, err = w.Load(ctx, "second.csv", strings.NewReader("제품명,날짜,인장강도,연신율,모듈러스;X,25.07.23,1,2,3"))
	require.ErrorIs(t, err, context.Canceled)

	current, ok := w.Current()
	require.True(t, ok)
	assert.Equal(t, "first.csv", current.Filename)
	assert.Equal(t, uint64(1), current.Generation)
	assert.Equal(t, []string{ports.EventWorkbookLoaded}, events.types())

	after, ok := w.Charts().Handle(chart.SlotTensile)
	require.True(t, ok)
	assert.Same(t, before, after)
	assert.False(t, after.Retired())

	view, err := w.Filter(context.Background(), sheet.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, "first.csv", view.Filename)
	assert.Equal(t, 3, view.TotalRows)
}
