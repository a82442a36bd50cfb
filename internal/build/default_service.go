package build

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/routegen/internal/errlog"
	"git.home.luguber.info/inful/routegen/internal/events"
	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
	"git.home.luguber.info/inful/routegen/internal/incremental"
	"git.home.luguber.info/inful/routegen/internal/loader"
	"git.home.luguber.info/inful/routegen/internal/logfields"
	"git.home.luguber.info/inful/routegen/internal/manifest"
	"git.home.luguber.info/inful/routegen/internal/metrics"
	"git.home.luguber.info/inful/routegen/internal/observability"
	"git.home.luguber.info/inful/routegen/internal/output"
	"git.home.luguber.info/inful/routegen/internal/pageindex"
	"git.home.luguber.info/inful/routegen/internal/pages"
	"git.home.luguber.info/inful/routegen/internal/pipeline"
	"git.home.luguber.info/inful/routegen/internal/route"
	"git.home.luguber.info/inful/routegen/internal/storage"
)

// Stage names used for logging and metrics.
const (
	StageDecide    = "decide"
	StageHash      = "hash"
	StageImport    = "import"
	StageGather    = "gather"
	StageGenerate  = "generate"
	StageDuplicate = "duplicates"
	StageDryRun    = "dry_run"
	StageCommit    = "commit"
	StageCache     = "cache"
)

// DefaultConcurrency bounds the tasks of each stage.
const DefaultConcurrency = 8

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	loader      loader.Loader
	store       storage.Store
	probe       output.Probe
	recorder    metrics.Recorder
	publisher   events.Publisher
	logger      *slog.Logger
	concurrency int
	strict      bool
	newRunID    func() string
}

// NewService creates a service that loads module documents from disk and
// keeps no cache.
func NewService() *DefaultService {
	return &DefaultService{
		loader:      loader.NewDocuments(""),
		store:       storage.Discard{},
		probe:       output.AccessProbe{},
		recorder:    metrics.NoopRecorder{},
		publisher:   events.Noop{},
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
		newRunID:    uuid.NewString,
	}
}

// WithLoader sets the module loader.
func (s *DefaultService) WithLoader(l loader.Loader) *DefaultService {
	if l != nil {
		s.loader = l
	}
	return s
}

// WithStore sets the incremental cache store.
func (s *DefaultService) WithStore(st storage.Store) *DefaultService {
	if st != nil {
		s.store = st
	}
	return s
}

// WithProbe replaces the dry-run write probe.
func (s *DefaultService) WithProbe(p output.Probe) *DefaultService {
	if p != nil {
		s.probe = p
	}
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithPublisher sets where run events are sent.
func (s *DefaultService) WithPublisher(p events.Publisher) *DefaultService {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithLogger sets a custom logger.
func (s *DefaultService) WithLogger(l *slog.Logger) *DefaultService {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithConcurrency bounds concurrent tasks per stage.
func (s *DefaultService) WithConcurrency(n int) *DefaultService {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// WithStrict stops the run at the first stage barrier that logged an error.
func (s *DefaultService) WithStrict(strict bool) *DefaultService {
	s.strict = strict
	return s
}

func (s *DefaultService) checker() *incremental.Checker {
	return incremental.NewChecker(s.store).
		WithLogger(s.logger).
		WithArtifactCheck(s.loader.Exists)
}

// Plan classifies every route of m without running anything.
func (s *DefaultService) Plan(ctx context.Context, m *manifest.Manifest, force bool) (incremental.Decision, error) {
	if m == nil {
		return incremental.Decision{}, errors.ConfigError("entries manifest required").Build()
	}
	return s.checker().Decide(ctx, m.Origins(), force)
}

// Run executes the complete pipeline.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{
		RunID:     s.newRunID(),
		Status:    StatusRunning,
		OutputDir: req.OutputDir,
		StartTime: time.Now(),
	}
	ctx = observability.WithRunID(ctx, result.RunID)
	s.recorder.SetConcurrency(s.concurrency)

	if req.Manifest == nil {
		return s.fail(ctx, result, errors.ConfigError("entries manifest required").Build())
	}
	if req.OutputDir == "" {
		return s.fail(ctx, result, errors.ConfigError("output directory required").Build())
	}

	routes := req.Manifest.Routes()
	result.Routes = len(routes)
	observability.InfoContext(ctx, "Starting run",
		logfields.Count(len(routes)),
		logfields.Path(req.OutputDir),
		slog.Bool("force", req.Force))

	checker := s.checker()
	stageStart := time.Now()
	decision, err := checker.Decide(ctx, req.Manifest.Origins(), req.Force)
	if err != nil {
		return s.fail(ctx, result, err)
	}
	s.recorder.ObserveStageDuration(StageDecide, time.Since(stageStart))
	for _, origin := range req.Manifest.Origins() {
		s.recorder.IncCacheDecision(decision.IsCached(origin))
	}
	result.Decision = decision
	observability.InfoContext(ctx, "Incremental cache decision",
		slog.Int("cached", len(decision.Cached)),
		slog.Int("to_compile", len(decision.ToCompile)))

	elog := errlog.New().WithLogger(s.logger)
	runner := pipeline.NewRunner(elog, func(r *route.Route) string { return r.Origin },
		pipeline.WithConcurrency(s.concurrency),
		pipeline.WithStrict(s.strict),
		pipeline.WithRecorder(s.recorder),
		pipeline.WithLogger(s.logger),
	)

	live, err := runner.Stage(ctx, StageHash, routes, func(ctx context.Context, r *route.Route) error {
		r.DependenciesHashed = incremental.HashDependencies(ctx, r.Dependencies)
		return nil
	})
	if err != nil {
		return s.halt(ctx, result, elog, err)
	}

	live, err = runner.Stage(ctx, StageImport, live, s.importRoute)
	if err != nil {
		return s.halt(ctx, result, elog, err)
	}

	live, err = runner.Stage(ctx, StageGather, live, route.Gather)
	if err != nil {
		return s.halt(ctx, result, elog, err)
	}

	gen := pages.NewGenerator(req.OutputDir).
		WithConcurrency(s.concurrency).
		WithLogger(s.logger)
	live, entries, err := pipeline.Collect(ctx, runner, StageGenerate, live, gen.Generate)
	if err != nil {
		return s.halt(ctx, result, elog, err)
	}
	result.Failed = failedOrigins(routes, live)
	result.Pages = len(entries)

	index := pageindex.New()
	index.AddAll(entries)

	if err := s.checkpoint(ctx, StageDuplicate, index.CheckDuplicates); err != nil {
		elog.Log(err)
		return s.halt(ctx, result, elog, elog.Err())
	}

	writer := output.NewWriter(req.OutputDir).
		WithProbe(s.probe).
		WithConcurrency(s.concurrency).
		WithLogger(s.logger)
	pagesToWrite := index.Entries()

	if err := s.checkpoint(ctx, StageDryRun, func() error { return writer.DryRun(ctx, pagesToWrite) }); err != nil {
		elog.Log(err)
		return s.halt(ctx, result, elog, elog.Err())
	}

	stageStart = time.Now()
	written, commitErr := writer.Commit(ctx, pagesToWrite)
	s.recorder.ObserveStageDuration(StageCommit, time.Since(stageStart))
	s.recorder.AddPagesWritten(len(written))
	result.Written = written
	if commitErr != nil {
		elog.Log(commitErr)
	}
	if ctx.Err() != nil {
		return s.halt(ctx, result, elog, ctx.Err())
	}
	if commitErr != nil && hasFatal(commitErr) {
		s.recorder.IncStageResult(StageCommit, metrics.ResultFailed)
		return s.halt(ctx, result, elog, elog.Err())
	}
	s.recorder.IncStageResult(StageCommit, metrics.ResultSuccess)

	s.recordCache(ctx, checker, live, pagesToWrite, written)
	return s.complete(ctx, result, elog)
}

// importRoute loads and validates a route's module.
func (s *DefaultService) importRoute(ctx context.Context, r *route.Route) error {
	exports, err := s.loader.Load(ctx, r.ImportPath)
	if err != nil {
		if errors.IsClassified(err) {
			return err
		}
		return errors.WrapError(err, errors.CategoryImport, fmt.Sprintf("%s: failed to import %q", r.Origin, r.ImportPath)).
			WithContext("origin", r.Origin).
			Build()
	}
	r.Compiled = exports
	if err := route.Validate(r.Origin, exports); err != nil {
		r.Valid = false
		return err
	}
	r.Valid = true
	return nil
}

// checkpoint runs one run-wide check and records its metrics.
func (s *DefaultService) checkpoint(ctx context.Context, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.recorder.ObserveStageDuration(stage, time.Since(start))
	if err != nil {
		s.recorder.IncStageResult(stage, metrics.ResultFailed)
		observability.ErrorContext(observability.WithStage(ctx, stage), "Run-wide check failed", logfields.Error(err))
		return err
	}
	s.recorder.IncStageResult(stage, metrics.ResultSuccess)
	return nil
}

// recordCache persists dependency snapshots for routes whose every page was
// written. Cache failures are logged and never fail the run.
func (s *DefaultService) recordCache(ctx context.Context, checker *incremental.Checker, live []*route.Route, entries []pageindex.Entry, written []string) {
	start := time.Now()
	ok := make(map[string]bool, len(written))
	for _, p := range written {
		ok[p] = true
	}
	complete := make(map[string]bool, len(live))
	for _, r := range live {
		complete[r.Origin] = true
	}
	for _, e := range entries {
		if !ok[e.Permalink] {
			complete[e.Origin] = false
		}
	}

	for _, r := range live {
		if !complete[r.Origin] {
			continue
		}
		if err := checker.Record(ctx, r.Origin, r.ImportPath, r.DependenciesHashed); err != nil {
			observability.WarnContext(observability.WithRoute(ctx, r.Origin), "Failed to record cache", logfields.Error(err))
		}
	}
	s.recorder.ObserveStageDuration(StageCache, time.Since(start))
}

func (s *DefaultService) complete(ctx context.Context, result *Result, elog *errlog.Log) (*Result, error) {
	s.collect(result, elog)
	if elog.HasFatal() {
		result.finish(StatusFailed)
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
	} else {
		result.finish(StatusSuccess)
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	}
	s.recorder.ObserveBuildDuration(result.Duration)

	observability.InfoContext(ctx, "Run finished",
		slog.String("status", string(result.Status)),
		logfields.Pages(len(result.Written)),
		slog.Int("failed_routes", len(result.Failed)),
		logfields.DurationMS(float64(result.Duration.Microseconds())/1000))
	s.publish(ctx, result)

	if result.Status.IsSuccess() {
		return result, nil
	}
	return result, elog.Err()
}

// halt ends the run before commit.
func (s *DefaultService) halt(ctx context.Context, result *Result, elog *errlog.Log, err error) (*Result, error) {
	if ctx.Err() != nil {
		s.collect(result, elog)
		result.finish(StatusCancelled)
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
		s.recorder.ObserveBuildDuration(result.Duration)
		observability.WarnContext(ctx, "Run cancelled", logfields.Error(ctx.Err()))
		s.publish(context.WithoutCancel(ctx), result)
		return result, ctx.Err()
	}
	if elog.Len() == 0 && err != nil {
		elog.Log(err)
	}
	s.collect(result, elog)
	result.finish(StatusFailed)
	s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
	s.recorder.ObserveBuildDuration(result.Duration)
	observability.ErrorContext(ctx, "Run failed", logfields.Count(elog.Len()))
	s.publish(ctx, result)
	return result, elog.Err()
}

// fail ends the run before any stage started.
func (s *DefaultService) fail(ctx context.Context, result *Result, err error) (*Result, error) {
	result.Errors = []error{err}
	if ctx.Err() != nil {
		result.finish(StatusCancelled)
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
		return result, ctx.Err()
	}
	result.finish(StatusFailed)
	s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
	observability.ErrorContext(ctx, "Run failed", logfields.Error(err))
	return result, err
}

func (s *DefaultService) collect(result *Result, elog *errlog.Log) {
	result.Errors, result.Warnings = nil, nil
	for _, e := range elog.Errors() {
		if errors.GetSeverity(e) == errors.SeverityWarning {
			result.Warnings = append(result.Warnings, e)
			continue
		}
		result.Errors = append(result.Errors, e)
	}
}

func (s *DefaultService) publish(ctx context.Context, result *Result) {
	event := &events.RunEvent{
		RunID:      result.RunID,
		Status:     string(result.Status),
		Pages:      result.Written,
		OutputDir:  result.OutputDir,
		Routes:     result.Routes,
		Compiled:   len(result.Decision.ToCompile),
		Cached:     len(result.Decision.Cached),
		DurationMS: result.Duration.Milliseconds(),
		Timestamp:  result.EndTime,
	}
	for _, e := range append(append([]error(nil), result.Errors...), result.Warnings...) {
		event.Errors = append(event.Errors, e.Error())
	}
	if err := s.publisher.PublishRun(ctx, event); err != nil {
		observability.WarnContext(ctx, "Failed to publish run event", logfields.Error(err))
	}
}

func failedOrigins(all, live []*route.Route) []string {
	alive := make(map[string]bool, len(live))
	for _, r := range live {
		alive[r.Origin] = true
	}
	var failed []string
	for _, r := range all {
		if !alive[r.Origin] {
			failed = append(failed, r.Origin)
		}
	}
	return failed
}

func hasFatal(err error) bool {
	for _, e := range errlog.Flatten(err) {
		if errors.GetSeverity(e) != errors.SeverityWarning {
			return true
		}
	}
	return false
}
