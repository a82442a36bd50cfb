package errlog

import (
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
)

func TestLog_DeduplicatesByNormalizedMessage(t *testing.T) {
	l := New()
	require.True(t, l.Log(stderrors.New("partial.html:  missing\tfile")))
	require.False(t, l.Log(stderrors.New("partial.html: missing file")))
	require.True(t, l.Log(stderrors.New("other")))
	require.False(t, l.Log(nil))

	require.Equal(t, 2, l.Len())
}

func TestLog_FlattensJoined(t *testing.T) {
	a := errors.RenderError("a").Build()
	b := errors.RenderError("b").Build()

	l := New()
	l.Log(stderrors.Join(a, b, a))
	require.Equal(t, 2, l.Len())

	err := l.Err()
	require.Error(t, err)
	require.ErrorIs(t, err, a)
	require.ErrorIs(t, err, b)
	require.True(t, errors.HasCategory(err, errors.CategoryRender))
	require.Equal(t, "• "+a.Error()+"\n• "+b.Error(), err.Error())

	agg, ok := AsAggregate(fmt.Errorf("run: %w", err))
	require.True(t, ok)
	require.Len(t, agg.Errors(), 2)
}

func TestLog_ErrNilWhenEmpty(t *testing.T) {
	require.NoError(t, New().Err())
}

func TestLog_SingleErrorMessage(t *testing.T) {
	l := New()
	l.Log(stderrors.New("only"))
	require.Equal(t, "only", l.Err().Error())
}

func TestLog_HasFatal(t *testing.T) {
	l := New()
	l.Log(errors.WriteError("not written").Build())
	require.False(t, l.HasFatal())
	l.Log(errors.ImportError("missing").Build())
	require.True(t, l.HasFatal())
}

func TestLog_Concurrent(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Log(fmt.Errorf("failure %d", i%10))
		}()
	}
	wg.Wait()
	require.Equal(t, 10, l.Len())
}
