package app

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"qcview/domain/sheet"
	"qcview/internal"
	"qcview/internal/chart"
	"qcview/internal/errors"
	"qcview/internal/render"
	"qcview/ports"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrNothingLoaded is returned by Filter before any workbook was loaded
	ErrNothingLoaded = errors.NotFound("loaded workbook")
	// ErrStaleLoad is returned when a later-selected workbook committed first
	ErrStaleLoad = errors.New(errors.CodeConflict, "a newer workbook was loaded while this one was decoding")
)

// View is everything the page shows for one render
type View struct {
	Generation uint64
	Filename   string
	LoadedAt   time.Time
	Criteria   sheet.Criteria
	Dataset    *sheet.Dataset
	Table      render.TableView
	Charts     chart.RenderResult
	TotalRows  int // data rows in the unfiltered workbook
}

// MatchedRows returns the number of data rows in the view
func (v *View) MatchedRows() int {
	if v.Table.RowCount() == 0 {
		return 0
	}
	return v.Table.RowCount() - 1
}

// Workbench owns the loaded workbook and everything rendered from it.
// Each load replaces the dataset; each filter re-renders from it.
type Workbench struct {
	reader ports.WorkbookReader
	charts *chart.Renderer
	events ports.EventPublisher
	loads  *semaphore.Weighted
	logger *internal.Logger

	tickets atomic.Uint64

	mu   sync.RWMutex
	book workbook
	view *View
}

// workbook is one committed load
type workbook struct {
	dataset    *sheet.Dataset
	filename   string
	generation uint64
	loadedAt   time.Time
}

// NewWorkbench wires the workbench. events may be nil.
func NewWorkbench(reader ports.WorkbookReader, charts *chart.Renderer, events ports.EventPublisher, maxConcurrentLoads int, logger *internal.Logger) *Workbench {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if maxConcurrentLoads <= 0 {
		maxConcurrentLoads = 1
	}
	return &Workbench{
		reader: reader,
		charts: charts,
		events: events,
		loads:  semaphore.NewWeighted(int64(maxConcurrentLoads)),
		logger: logger.WithComponent("Workbench"),
	}
}

// Load decodes a workbook and, unless a later-selected workbook has already
// been committed, makes it the current dataset and renders it unfiltered.
// On failure the previous dataset stays current.
func (w *Workbench) Load(ctx context.Context, name string, src io.Reader) (*View, error) {
	ticket := w.tickets.Add(1)

	if err := w.loads.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	ds, err := w.reader.Read(ctx, name, src)
	w.loads.Release(1)
	if err != nil {
		w.logger.Error("failed to load %s: %v", name, err)
		w.publish(ports.WorkbookEvent{EventType: ports.EventWorkbookFailed, Filename: name,
			Data: map[string]interface{}{"error": err.Error()}})
		return nil, errors.Wrapf(err, "failed to load %s", name)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if ticket < w.book.generation {
		w.logger.Info("discarding %s (load %d), load %d is newer", name, ticket, w.book.generation)
		return nil, ErrStaleLoad
	}

	book := workbook{dataset: ds, filename: name, generation: ticket, loadedAt: time.Now()}
	view, err := w.renderLocked(ctx, book, sheet.Criteria{})
	if err != nil {
		w.logger.Error("failed to render %s, keeping %q: %v", name, w.book.filename, err)
		return nil, err
	}
	w.book = book
	w.view = view

	w.logger.Info("loaded %s as generation %d (%d data rows)", name, ticket, view.TotalRows)
	w.publish(ports.WorkbookEvent{EventType: ports.EventWorkbookLoaded, Generation: ticket,
		Filename: name, Rows: view.TotalRows})
	return view, nil
}

// Filter re-renders the current dataset restricted to rows matching c.
// Without a loaded workbook nothing is rendered and ErrNothingLoaded is returned.
func (w *Workbench) Filter(ctx context.Context, c sheet.Criteria) (*View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.book.dataset.IsEmpty() {
		return nil, ErrNothingLoaded
	}
	view, err := w.renderLocked(ctx, w.book, c)
	if err != nil {
		return nil, err
	}
	w.view = view
	return view, nil
}

// renderLocked draws book without committing anything to the workbench
func (w *Workbench) renderLocked(ctx context.Context, book workbook, c sheet.Criteria) (*View, error) {
	ds := book.dataset
	if !c.IsZero() {
		ds = sheet.Filter(book.dataset, c)
	}

	charts, err := w.charts.Render(ctx, ds)
	if err != nil {
		return nil, err
	}

	return &View{
		Generation: book.generation,
		Filename:   book.filename,
		LoadedAt:   book.loadedAt,
		Criteria:   c,
		Dataset:    ds,
		Table:      render.BuildTable(ds),
		Charts:     charts,
		TotalRows:  len(book.dataset.DataRows()),
	}, nil
}

// Current returns the most recently rendered view
func (w *Workbench) Current() (*View, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.view, w.view != nil
}

// Columns resolves every role against the current header
func (w *Workbench) Columns() (sheet.Resolution, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.book.dataset.IsEmpty() {
		return nil, ErrNothingLoaded
	}
	return sheet.ResolveRoles(w.book.dataset.Header()), nil
}

// Charts exposes the chart handles for image serving
func (w *Workbench) Charts() *chart.Renderer {
	return w.charts
}

func (w *Workbench) publish(event ports.WorkbookEvent) {
	if w.events != nil {
		w.events.Publish(event)
	}
}
