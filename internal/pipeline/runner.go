// Package pipeline runs barrier-synchronised stages over a set of items.
// Every item of a stage runs concurrently; the next stage starts only after
// all of them have settled. Items whose task fails are logged and dropped
// from later stages without affecting their siblings.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/routegen/internal/errlog"
	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
	"git.home.luguber.info/inful/routegen/internal/logfields"
	"git.home.luguber.info/inful/routegen/internal/metrics"
	"git.home.luguber.info/inful/routegen/internal/observability"
)

// Task processes one item within a stage.
type Task[T any] func(ctx context.Context, item T) error

// Result is the outcome of one task.
type Result[T any] struct {
	Item     T
	Err      error
	Duration time.Duration
}

// Option configures a Runner.
type Option func(*settings)

type settings struct {
	limit    int
	strict   bool
	recorder metrics.Recorder
	logger   *slog.Logger
}

// WithConcurrency bounds concurrent tasks per stage; n <= 0 means unbounded.
func WithConcurrency(n int) Option {
	return func(s *settings) {
		if n <= 0 {
			n = -1
		}
		s.limit = n
	}
}

// WithStrict makes a stage return the aggregate error as soon as any error
// has been logged, so the caller halts at that barrier.
func WithStrict(strict bool) Option {
	return func(s *settings) { s.strict = strict }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *settings) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// Runner executes stages for items of type T.
type Runner[T any] struct {
	settings
	log  *errlog.Log
	name func(T) string
}

// NewRunner creates a runner that reports failures to log. name labels an
// item in logs.
func NewRunner[T any](log *errlog.Log, name func(T) string, opts ...Option) *Runner[T] {
	r := &Runner[T]{
		settings: settings{limit: -1, recorder: metrics.NoopRecorder{}, logger: slog.Default()},
		log:      log,
		name:     name,
	}
	for _, opt := range opts {
		opt(&r.settings)
	}
	return r
}

// Run executes task for every item and waits for all of them. It returns
// one result per item, in input order.
func (r *Runner[T]) Run(ctx context.Context, stage string, items []T, task Task[T]) []Result[T] {
	ctx = observability.WithStage(ctx, stage)
	results := make([]Result[T], len(items))

	eg := new(errgroup.Group)
	eg.SetLimit(r.limit)
	for i, item := range items {
		eg.Go(func() error {
			start := time.Now()
			err := r.call(ctx, item, task)
			results[i] = Result[T]{Item: item, Err: err, Duration: time.Since(start)}
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// Stage runs task over items, logs every failure, and returns the items that
// succeeded in input order. The error is non-nil only when ctx is done, or
// in strict mode once the log holds any error.
func (r *Runner[T]) Stage(ctx context.Context, stage string, items []T, task Task[T]) ([]T, error) {
	start := time.Now()
	results := r.Run(ctx, stage, items, task)

	survivors := make([]T, 0, len(results))
	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			r.log.Log(res.Err)
			r.recorder.IncStageResult(stage, metrics.ResultFailed)
			observability.WarnContext(observability.WithRoute(ctx, r.name(res.Item)), "Stage failed for route",
				logfields.Stage(stage), logfields.Error(res.Err))
			continue
		}
		r.recorder.IncStageResult(stage, metrics.ResultSuccess)
		survivors = append(survivors, res.Item)
	}

	elapsed := time.Since(start)
	r.recorder.ObserveStageDuration(stage, elapsed)
	r.logger.Debug("Stage settled",
		logfields.Stage(stage),
		logfields.Count(len(survivors)),
		slog.Int("failed", failed),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))

	if err := ctx.Err(); err != nil {
		return survivors, err
	}
	if r.strict {
		if err := r.log.Err(); err != nil {
			return survivors, err
		}
	}
	return survivors, nil
}

func (r *Runner[T]) call(ctx context.Context, item T, task Task[T]) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.InternalError(fmt.Sprintf("%s: panic: %v", r.name(item), p)).Build()
		}
	}()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return task(ctx, item)
}

// Collect runs fn concurrently for every item and gathers the values it
// emits. Emitted values are appended under a lock; order is unspecified.
func Collect[T, V any](ctx context.Context, r *Runner[T], stage string, items []T, fn func(ctx context.Context, item T) ([]V, error)) ([]T, []V, error) {
	var (
		mu  sync.Mutex
		out []V
	)
	survivors, err := r.Stage(ctx, stage, items, func(ctx context.Context, item T) error {
		vs, err := fn(ctx, item)
		if err != nil {
			return err
		}
		mu.Lock()
		out = append(out, vs...)
		mu.Unlock()
		return nil
	})
	return survivors, out, err
}
