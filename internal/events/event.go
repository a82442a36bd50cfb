// Package events publishes run lifecycle notifications.
package events

import (
	"context"
	stderrors "errors"
	"time"
)

// RunEvent is emitted once per completed run.
type RunEvent struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`

	// Pages lists output paths written by the run, relative to OutputDir.
	Pages     []string `json:"pages,omitempty"`
	OutputDir string   `json:"output_dir"`

	Routes   int `json:"routes"`
	Compiled int `json:"compiled"` // routes the cache check sent to compilation
	Cached   int `json:"cached"`

	Errors     []string  `json:"errors,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher delivers run events to a downstream consumer.
type Publisher interface {
	PublishRun(ctx context.Context, event *RunEvent) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) PublishRun(context.Context, *RunEvent) error { return nil }
func (Noop) Close() error                                 { return nil }

// Multi fans every event out to each publisher in order. Publish and Close
// errors are joined; a failing publisher does not stop the rest.
type Multi []Publisher

func (m Multi) PublishRun(ctx context.Context, event *RunEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishRun(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
