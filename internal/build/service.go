package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/routegen/internal/incremental"
	"git.home.luguber.info/inful/routegen/internal/manifest"
	"git.home.luguber.info/inful/routegen/internal/output"
)

// Service executes generation runs.
type Service interface {
	// Run executes the full pipeline and returns the outcome. The error is
	// the aggregate of every fatal failure, nil when Status is a success.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request holds the inputs of one run.
type Request struct {
	// Manifest maps route origins to compiled modules and dependency files.
	Manifest *manifest.Manifest

	// OutputDir is the root every permalink is resolved against.
	OutputDir string

	// Force classifies every route as needing compilation.
	Force bool
}

// Result is the outcome of a run.
type Result struct {
	RunID  string
	Status Status

	OutputDir string

	// Routes is the number of entries in the request.
	Routes int
	// Decision is the incremental-cache classification made at run start.
	Decision incremental.Decision
	// Failed lists origins dropped by a per-route stage failure.
	Failed []string

	// Pages is the number of pages generated before the duplicate check.
	Pages int
	// Written lists permalinks written to disk, sorted.
	Written []string

	Errors   []error
	Warnings []error

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Summary returns the printable run summary.
func (r *Result) Summary(maxListed int, color bool) output.Summary {
	return output.Summary{
		Written:   r.Written,
		OutputDir: r.OutputDir,
		Max:       maxListed,
		Color:     color,
	}
}

func (r *Result) finish(status Status) {
	r.Status = status
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// Status is the overall outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// IsSuccess returns true if the run completed without fatal errors.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
