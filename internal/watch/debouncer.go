// Package watch reruns the pipeline when route inputs change on disk or on
// a fixed schedule.
package watch

import (
	"context"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/routegen/internal/foundation/errors"
)

// Trigger describes why a rebuild runs.
type Trigger struct {
	Reason string
	// Force bypasses the incremental cache decision.
	Force bool
	// Requests is how many requests were coalesced into this rebuild.
	Requests int
}

// RebuildFunc performs one rebuild. Calls never overlap.
type RebuildFunc func(ctx context.Context, t Trigger)

// DebouncerConfig tunes request coalescing.
type DebouncerConfig struct {
	// QuietWindow is how long requests must stop arriving before a rebuild.
	QuietWindow time.Duration
	// MaxDelay caps how long a burst can postpone a rebuild.
	MaxDelay time.Duration
}

type request struct {
	reason string
	force  bool
}

// Debouncer coalesces bursts of rebuild requests into single rebuilds.
// Requests that arrive while a rebuild runs produce exactly one follow-up.
type Debouncer struct {
	cfg     DebouncerConfig
	rebuild RebuildFunc

	requests  chan request
	readyOnce sync.Once
	ready     chan struct{}

	mu      sync.Mutex
	pending *Trigger
}

// NewDebouncer validates cfg and returns a debouncer calling rebuild.
func NewDebouncer(cfg DebouncerConfig, rebuild RebuildFunc) (*Debouncer, error) {
	if rebuild == nil {
		return nil, ferrors.ValidationError("rebuild func is required").Build()
	}
	if cfg.QuietWindow <= 0 {
		return nil, ferrors.ValidationError("quiet window must be > 0").Build()
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * cfg.QuietWindow
	}
	return &Debouncer{
		cfg:      cfg,
		rebuild:  rebuild,
		requests: make(chan request, 64),
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once Run is accepting requests.
func (d *Debouncer) Ready() <-chan struct{} {
	return d.ready
}

// Request asks for a rebuild. It never blocks; when the queue is full the
// request is merged into the pending one.
func (d *Debouncer) Request(reason string, force bool) {
	select {
	case d.requests <- request{reason: reason, force: force}:
	default:
		d.merge(request{reason: reason, force: force})
	}
}

func (d *Debouncer) merge(r request) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	first := d.pending == nil
	if first {
		d.pending = &Trigger{}
	}
	d.pending.Reason = r.reason
	d.pending.Force = d.pending.Force || r.force
	d.pending.Requests++
	return first
}

func (d *Debouncer) take() (Trigger, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return Trigger{}, false
	}
	t := *d.pending
	d.pending = nil
	return t, true
}

// Run processes requests until ctx is done.
func (d *Debouncer) Run(ctx context.Context) error {
	if ctx == nil {
		return ferrors.ValidationError("context cannot be nil").Build()
	}
	d.readyOnce.Do(func() { close(d.ready) })

	quiet := time.NewTimer(time.Hour)
	quiet.Stop()
	maxWait := time.NewTimer(time.Hour)
	maxWait.Stop()
	defer quiet.Stop()
	defer maxWait.Stop()

	var quietC, maxC <-chan time.Time

	fire := func() {
		quietC, maxC = nil, nil
		quiet.Stop()
		maxWait.Stop()
		if t, ok := d.take(); ok {
			d.rebuild(ctx, t)
		}
		// Requests merged while the rebuild ran get one follow-up.
		if d.hasPending() {
			quiet.Reset(d.cfg.QuietWindow)
			quietC = quiet.C
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-d.requests:
			first := d.merge(r)
			quiet.Stop()
			quiet.Reset(d.cfg.QuietWindow)
			quietC = quiet.C
			if first {
				maxWait.Stop()
				maxWait.Reset(d.cfg.MaxDelay)
				maxC = maxWait.C
			}
		case <-quietC:
			fire()
		case <-maxC:
			fire()
		}
	}
}

func (d *Debouncer) hasPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
