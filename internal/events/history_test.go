package events

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistory_KeepsNewestFirst(t *testing.T) {
	h := NewHistory(2)
	require.Nil(t, h.Latest())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, h.PublishRun(context.Background(), &RunEvent{RunID: id}))
	}

	list := h.List()
	require.Len(t, list, 2)
	require.Equal(t, "c", list[0].RunID)
	require.Equal(t, "b", list[1].RunID)
	require.Equal(t, "c", h.Latest().RunID)

	_, ok := h.Get("a")
	require.False(t, ok, "evicted runs are gone")
	got, ok := h.Get("b")
	require.True(t, ok)
	require.Equal(t, "b", got.RunID)
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) PublishRun(context.Context, *RunEvent) error {
	f.calls++
	return stderrors.New("broker down")
}
func (f *failingPublisher) Close() error { return stderrors.New("close failed") }

func TestMulti_FansOutDespiteFailures(t *testing.T) {
	bad := &failingPublisher{}
	h := NewHistory(0)
	m := Multi{bad, h}

	err := m.PublishRun(context.Background(), &RunEvent{RunID: "r1"})
	require.ErrorContains(t, err, "broker down")
	require.Equal(t, 1, bad.calls)
	require.Equal(t, "r1", h.Latest().RunID)

	require.ErrorContains(t, m.Close(), "close failed")
}
