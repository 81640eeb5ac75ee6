package sqlclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExecutor struct {
	name   string
	closed bool
}

func (s *stubExecutor) Query(context.Context, string, ...any) ([]Row, error) {
	return []Row{{"name": s.name}}, nil
}

func (s *stubExecutor) Batch(context.Context, []Statement) ([][]Row, error) {
	return [][]Row{}, nil
}

func (s *stubExecutor) Close() error {
	s.closed = true
	return nil
}

func TestHandleReset(t *testing.T) {
	var opened []*stubExecutor
	open := func() (Executor, error) {
		e := &stubExecutor{name: string(rune('a' + len(opened)))}
		opened = append(opened, e)
		return e, nil
	}

	h, err := NewHandle(open)
	require.NoError(t, err)

	rows, err := h.Query(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "a", rows[0].String("name"))

	require.NoError(t, h.Reset())
	assert.True(t, opened[0].closed)

	rows, err = h.Query(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "b", rows[0].String("name"))

	require.NoError(t, h.Close())
	assert.True(t, opened[1].closed)
}

func TestHandleResetKeepsPreviousOnFailure(t *testing.T) {
	first := &stubExecutor{name: "a"}
	calls := 0
	h, err := NewHandle(func() (Executor, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("bad credentials")
		}
		return first, nil
	})
	require.NoError(t, err)

	assert.Error(t, h.Reset())
	assert.False(t, first.closed)
	assert.Same(t, first, h.Executor())
}

func TestNewHandleFailsFast(t *testing.T) {
	_, err := NewHandle(func() (Executor, error) {
		return nil, errors.New("missing token")
	})
	assert.Error(t, err)
}
