package tokencache_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/aelexs/smsgateway/internal/tokencache"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// current reads the cell through an identity Modify.
func current[T any](t *testing.T, cell *tokencache.Cell[T]) T {
	t.Helper()
	got, err := tokencache.Modify(context.Background(), cell, func(_ context.Context, cur T) (T, T, error) {
		return cur, cur, nil
	})
	require.NoError(t, err)
	return got
}

func TestNew_HoldsInitialValue(t *testing.T) {
	cell := tokencache.New("initial")

	assert.Equal(t, "initial", current(t, cell))
}

func TestModify_StoresNextAndReturnsResult(t *testing.T) {
	cell := tokencache.New(1)

	result, err := tokencache.Modify(context.Background(), cell, func(_ context.Context, cur int) (int, string, error) {
		return cur + 1, "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 2, current(t, cell))
}

func TestModify_ErrorKeepsPreviousValue(t *testing.T) {
	cell := tokencache.New(1)
	boom := errors.New("refresh failed")

	_, err := tokencache.Modify(context.Background(), cell, func(_ context.Context, cur int) (int, int, error) {
		return 99, 0, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, current(t, cell))
}

func TestModify_SerializesConcurrentCallers(t *testing.T) {
	// Arrange: every caller increments only if it sees the stale value 0,
	// so exactly one of them should do the "refresh".
	cell := tokencache.New(0)
	var refreshes atomic.Int32
	var inside atomic.Int32

	g, ctx := errgroup.WithContext(context.Background())
	for range 10 {
		g.Go(func() error {
			_, err := tokencache.Modify(ctx, cell, func(_ context.Context, cur int) (int, int, error) {
				if inside.Add(1) != 1 {
					return cur, 0, errors.New("overlapping modify")
				}
				defer inside.Add(-1)
				if cur == 0 {
					refreshes.Add(1)
					time.Sleep(10 * time.Millisecond)
					return 1, 1, nil
				}
				return cur, cur, nil
			})
			return err
		})
	}

	// Act
	err := g.Wait()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestModify_WaiterHonoursContext(t *testing.T) {
	cell := tokencache.New(0)
	release := make(chan struct{})
	holding := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = tokencache.Modify(context.Background(), cell, func(_ context.Context, cur int) (int, int, error) {
			close(holding)
			<-release
			return cur, cur, nil
		})
	}()
	<-holding

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := tokencache.Modify(ctx, cell, func(_ context.Context, cur int) (int, int, error) {
		return cur, cur, nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-done
}
