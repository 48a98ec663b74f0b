package keyonlylocks

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_TryAcquire(t *testing.T) {
	var s Set
	release, ok := s.TryAcquire("a", "b")
	require.True(t, ok)
	assert.True(t, s.Held("a"))

	_, ok = s.TryAcquire("b", "c")
	assert.False(t, ok)
	assert.False(t, s.Held("c"), "partial acquisition is rolled back")

	release()
	release() // idempotent
	assert.False(t, s.Held("a"))
	assert.False(t, s.Held("b"))

	_, ok = s.TryAcquire("b", "c")
	assert.True(t, ok)
}

func TestSet_DuplicateKeys(t *testing.T) {
	var s Set
	release, ok := s.TryAcquire("x", "x")
	require.True(t, ok)
	release()
	assert.False(t, s.Held("x"))
}

func TestSet_OneWinner(t *testing.T) {
	var s Set
	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := s.TryAcquire("path"); ok {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}
