package chart

import (
	"sync"
	"time"

	"qcview/internal/profiling"

	"github.com/google/uuid"
)

// Handle is one drawn chart instance. A slot holds at most one live handle;
// the previous one is retired before a replacement is installed.
type Handle struct {
	ID        uuid.UUID
	Slot      Slot
	Label     string
	Points    []Point
	Summary   profiling.Summary
	CreatedAt time.Time

	mu      sync.RWMutex
	image   []byte
	retired bool
}

func newHandle(slot Slot, points []Point, summary profiling.Summary, image []byte) *Handle {
	return &Handle{
		ID:        uuid.New(),
		Slot:      slot,
		Label:     slot.Label(),
		Points:    points,
		Summary:   summary,
		CreatedAt: time.Now(),
		image:     image,
	}
}

// Retire releases the drawn image. Retiring twice is a no-op.
func (h *Handle) Retire() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.retired = true
	h.image = nil
}

// Retired reports whether the handle has been replaced or cleared
func (h *Handle) Retired() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.retired
}

// PNG returns the drawn image, or false once the handle is retired
func (h *Handle) PNG() ([]byte, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.retired {
		return nil, false
	}
	return h.image, true
}
