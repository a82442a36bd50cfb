package events

import (
	"context"
	"sync"
)

// DefaultHistorySize is how many runs History keeps when constructed with
// a non-positive size.
const DefaultHistorySize = 50

// History keeps the most recent run events in memory.
type History struct {
	mu     sync.RWMutex
	size   int
	events []*RunEvent
}

// NewHistory creates a history retaining at most size events.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size}
}

func (h *History) PublishRun(_ context.Context, event *RunEvent) error {
	if event == nil {
		return nil
	}
	cp := *event
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, &cp)
	if over := len(h.events) - h.size; over > 0 {
		h.events = append([]*RunEvent(nil), h.events[over:]...)
	}
	return nil
}

func (h *History) Close() error { return nil }

// List returns retained events, newest first.
func (h *History) List() []*RunEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*RunEvent, 0, len(h.events))
	for i := len(h.events) - 1; i >= 0; i-- {
		out = append(out, h.events[i])
	}
	return out
}

// Latest returns the newest event, or nil before the first run.
func (h *History) Latest() *RunEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.events) == 0 {
		return nil
	}
	return h.events[len(h.events)-1]
}

// Get returns the event for runID.
func (h *History) Get(runID string) (*RunEvent, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.events) - 1; i >= 0; i-- {
		if h.events[i].RunID == runID {
			return h.events[i], true
		}
	}
	return nil, false
}
