package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "commission/pkg/domain-errors"
)

func TestShardedSerializesSameKey(t *testing.T) {
	l := NewSharded()
	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "proposal:p-1")
			if !assert.NoError(t, err) {
				return
			}
			if n := inside.Add(1); n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestShardedHonoursContext(t *testing.T) {
	l := NewSharded()
	unlock, err := l.Lock(context.Background(), "news:n-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "news:n-1")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestShardedUnlockIsIdempotent(t *testing.T) {
	l := NewSharded()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
	unlock()

	unlock, err = l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
}

func TestZeroValueSharded(t *testing.T) {
	var l Sharded
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
}
