// Package errlog collects the failures of one run. Errors with the same
// normalized message are kept once, so a broken shared dependency is
// reported a single time however many pages trip over it.
package errlog

import (
	"crypto/sha1" // #nosec G505 - dedup key, not a security boundary
	"encoding/hex"
	stderrors "errors"
	"log/slog"
	"strings"
	"sync"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
	"git.home.luguber.info/inful/routegen/internal/logfields"
)

// Log is safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	errs   []error
	logger *slog.Logger
}

// New creates an empty log.
func New() *Log {
	return &Log{seen: make(map[string]struct{}), logger: slog.Default()}
}

// WithLogger sets the logger used to echo each new distinct error.
func (l *Log) WithLogger(logger *slog.Logger) *Log {
	l.logger = logger
	return l
}

// Log records err. Joined errors and aggregates are flattened first. It
// reports whether anything new was added.
func (l *Log) Log(err error) bool {
	if err == nil {
		return false
	}
	added := false
	for _, e := range Flatten(err) {
		key := Key(e)
		l.mu.Lock()
		_, dup := l.seen[key]
		if !dup {
			l.seen[key] = struct{}{}
			l.errs = append(l.errs, e)
		}
		l.mu.Unlock()

		if !dup {
			added = true
			l.logger.Debug("Error logged", logfields.Error(e), slog.String("category", string(errors.GetCategory(e))))
		}
	}
	return added
}

// Len returns the number of distinct errors.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errs)
}

// Errors returns the distinct errors in the order first seen.
func (l *Log) Errors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs...)
}

// Err returns nil when nothing was logged, otherwise an *Aggregate.
func (l *Log) Err() error {
	errs := l.Errors()
	if len(errs) == 0 {
		return nil
	}
	return &Aggregate{errs: errs}
}

// HasFatal reports whether any logged error is not a warning.
func (l *Log) HasFatal() bool {
	for _, e := range l.Errors() {
		if errors.GetSeverity(e) != errors.SeverityWarning {
			return true
		}
	}
	return false
}

// Key is the dedup key of err: sha1 of its whitespace-collapsed message.
func Key(err error) string {
	normalized := strings.Join(strings.Fields(err.Error()), " ")
	sum := sha1.Sum([]byte(normalized)) // #nosec G401
	return hex.EncodeToString(sum[:])
}

// Flatten expands errors.Join results and aggregates into their members.
// Classified errors are leaves even when they wrap a cause.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if _, leaf := err.(*errors.ClassifiedError); leaf {
		return []error{err}
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range multi.Unwrap() {
			out = append(out, Flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// Aggregate is the failure of a run: every distinct error it logged.
type Aggregate struct {
	errs []error
}

// Error lists every message on its own bullet line.
func (a *Aggregate) Error() string {
	if len(a.errs) == 1 {
		return a.errs[0].Error()
	}
	var b strings.Builder
	for i, e := range a.errs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(e.Error())
	}
	return b.String()
}

// Unwrap exposes the members to errors.Is and errors.As.
func (a *Aggregate) Unwrap() []error { return a.errs }

// Errors returns the members.
func (a *Aggregate) Errors() []error { return append([]error(nil), a.errs...) }

// AsAggregate unwraps err to an *Aggregate.
func AsAggregate(err error) (*Aggregate, bool) {
	var agg *Aggregate
	ok := stderrors.As(err, &agg)
	return agg, ok
}
