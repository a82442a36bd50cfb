package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/routegen/internal/errlog"
	ferrors "git.home.luguber.info/inful/routegen/internal/foundation/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func id(s string) string { return s }

func TestStage_DropsFailuresKeepsSiblings(t *testing.T) {
	log := errlog.New()
	r := NewRunner(log, id)

	survivors, err := r.Stage(context.Background(), "import", []string{"a", "bad", "c"},
		func(_ context.Context, item string) error {
			if item == "bad" {
				return ferrors.ImportError(fmt.Sprintf("No module found at %q", item)).Build()
			}
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, survivors)
	require.Equal(t, 1, log.Len())
	require.True(t, ferrors.HasCategory(log.Err(), ferrors.CategoryImport))
}

func TestStage_BarrierWaitsForAll(t *testing.T) {
	var finished atomic.Int32
	r := NewRunner(errlog.New(), id)

	_, err := r.Stage(context.Background(), "slow", []string{"a", "b", "c"}, func(_ context.Context, item string) error {
		time.Sleep(time.Duration(len(item)) * 5 * time.Millisecond)
		finished.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, finished.Load())
}

func TestStage_ConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	r := NewRunner(errlog.New(), id, WithConcurrency(2))

	items := []string{"a", "b", "c", "d", "e", "f"}
	_, err := r.Stage(context.Background(), "limited", items, func(context.Context, string) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return nil
	})
	require.NoError(t, err)
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestStage_StrictHaltsAtBarrier(t *testing.T) {
	log := errlog.New()
	r := NewRunner(log, id, WithStrict(true))

	survivors, err := r.Stage(context.Background(), "gather", []string{"ok", "bad"}, func(_ context.Context, item string) error {
		if item == "bad" {
			return errors.New("bad: value returned from 'collection' must be iterable")
		}
		return nil
	})
	require.Error(t, err)
	require.Equal(t, []string{"ok"}, survivors)
	_, isAgg := errlog.AsAggregate(err)
	require.True(t, isAgg)
}

func TestStage_RecoversPanics(t *testing.T) {
	log := errlog.New()
	r := NewRunner(log, id)

	survivors, err := r.Stage(context.Background(), "generate", []string{"boom"}, func(context.Context, string) error {
		panic("template exploded")
	})
	require.NoError(t, err)
	require.Empty(t, survivors)
	require.True(t, ferrors.HasCategory(log.Err(), ferrors.CategoryInternal))
	require.Contains(t, log.Err().Error(), "boom: panic: template exploded")
}

func TestStage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(errlog.New(), id)
	survivors, err := r.Stage(ctx, "hash", []string{"a"}, func(context.Context, string) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, survivors)
}

func TestCollect(t *testing.T) {
	r := NewRunner(errlog.New(), id)
	survivors, values, err := Collect(context.Background(), r, "generate", []string{"a", "b", "x"},
		func(_ context.Context, item string) ([]int, error) {
			if item == "x" {
				return nil, errors.New("x failed")
			}
			return []int{len(item), len(item)}, nil
		})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, survivors)
	require.Equal(t, []int{1, 1, 1, 1}, values)
}

func TestRun_ResultsInInputOrder(t *testing.T) {
	r := NewRunner(errlog.New(), id)
	results := r.Run(context.Background(), "any", []string{"c", "b", "a"}, func(_ context.Context, item string) error {
		if item == "b" {
			return errors.New("b")
		}
		return nil
	})
	require.Len(t, results, 3)
	require.Equal(t, "c", results[0].Item)
	require.Error(t, results[1].Err)
	require.NoError(t, results[2].Err)
}
