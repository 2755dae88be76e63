package chart

import (
	"context"
	"errors"
	"sync"

	"qcview/domain/sheet"
	"qcview/internal"
	"qcview/internal/profiling"

	"golang.org/x/sync/errgroup"
)

// MissingHeaderWarning is logged when a sheet lacks one of the chart columns
const MissingHeaderWarning = "헤더 이름을 찾을 수 없습니다. 그래프를 건너뜁니다."

// RenderResult describes what one Render call did
type RenderResult struct {
	Skipped bool         // true when chart columns were missing
	Missing []sheet.Role // roles that did not resolve
	Drawn   []Slot       // slots that received a new handle
	Cleared []Slot       // slots without a drawing surface
	Series  Series
	// Handles are the live handles after the render, including the kept
	// ones when the render was skipped
	Handles map[Slot]*Handle
}

// Renderer owns the live chart handle of every slot
type Renderer struct {
	mu       sync.RWMutex
	handles  map[Slot]*Handle
	surfaces map[Slot]bool
	opts     DrawOptions
	draw     Drawer
	logger   *internal.Logger
}

// NewRenderer creates a renderer that draws only into the given surfaces
func NewRenderer(surfaces []Slot, opts DrawOptions, logger *internal.Logger) *Renderer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	r := &Renderer{
		handles:  make(map[Slot]*Handle),
		surfaces: make(map[Slot]bool),
		opts:     opts,
		draw:     DrawScatter,
		logger:   logger.WithComponent("ChartRenderer"),
	}
	for _, s := range surfaces {
		r.surfaces[s] = true
	}
	return r
}

// WithDrawer swaps the drawing backend, used by tests
func (r *Renderer) WithDrawer(d Drawer) *Renderer {
	r.draw = d
	return r
}

// Render replaces every chart with one drawn from ds. When any chart column
// is missing nothing is drawn and the existing handles stay as they are.
func (r *Renderer) Render(ctx context.Context, ds *sheet.Dataset) (RenderResult, error) {
	series, err := ExtractSeries(ds)
	if err != nil {
		var missing *MissingColumnsError
		if errors.As(err, &missing) {
			r.logger.Warn("%s (%v)", MissingHeaderWarning, missing.Roles)
			r.mu.RLock()
			defer r.mu.RUnlock()
			return RenderResult{Skipped: true, Missing: missing.Roles, Handles: r.snapshotLocked()}, nil
		}
		return RenderResult{}, err
	}

	type drawn struct {
		image   []byte
		summary profiling.Summary
		err     error
	}
	results := make(map[Slot]*drawn, len(Slots))
	for _, slot := range Slots {
		if r.hasSurface(slot) {
			results[slot] = &drawn{}
		}
	}

	g, _ := errgroup.WithContext(ctx)
	for slot, out := range results {
		slot, out := slot, out
		g.Go(func() error {
			points := series[slot]
			out.summary, out.err = profiling.Summarize(Values(points))
			if out.err != nil {
				return nil
			}
			out.image, out.err = r.draw(slot, points, r.opts)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return RenderResult{}, err
	}

	result := RenderResult{Series: series}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, slot := range Slots {
		prev := r.handles[slot]
		out, ok := results[slot]
		if !ok {
			prev.Retire()
			delete(r.handles, slot)
			result.Cleared = append(result.Cleared, slot)
			continue
		}
		prev.Retire()
		delete(r.handles, slot)
		if out.err != nil {
			r.logger.Error("failed to draw %s: %v", slot, out.err)
			continue
		}
		r.handles[slot] = newHandle(slot, series[slot], out.summary, out.image)
		result.Drawn = append(result.Drawn, slot)
	}

	result.Handles = r.snapshotLocked()
	r.logger.Debug("rendered %d charts (%d points each)", len(result.Drawn), len(series[SlotTensile]))
	return result, nil
}

func (r *Renderer) hasSurface(slot Slot) bool {
	return r.surfaces[slot]
}

func (r *Renderer) snapshotLocked() map[Slot]*Handle {
	out := make(map[Slot]*Handle, len(r.handles))
	for slot, h := range r.handles {
		out[slot] = h
	}
	return out
}

// Handle returns the live handle of a slot
func (r *Renderer) Handle(slot Slot) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[slot]
	return h, ok
}

// Handles returns the live handles in page order
func (r *Renderer) Handles() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Handle, 0, len(r.handles))
	for _, slot := range Slots {
		if h, ok := r.handles[slot]; ok {
			out = append(out, h)
		}
	}
	return out
}
