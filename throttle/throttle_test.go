package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketStore_Allow(t *testing.T) {
	s := NewBucketStore[string](context.Background(), time.Minute, time.Minute, zerolog.Nop())
	s.SetBucketGroup("render", &BucketConf{Burst: 2, Increment: 1, PeriodSec: 10})
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, s.Allow("render", "10.0.0.1", t0))
	assert.True(t, s.Allow("render", "10.0.0.1", t0))
	assert.False(t, s.Allow("render", "10.0.0.1", t0))
	// another caller has its own bucket
	assert.True(t, s.Allow("render", "10.0.0.2", t0))

	// one token back after one period
	assert.True(t, s.Allow("render", "10.0.0.1", t0.Add(10*time.Second)))
	assert.False(t, s.Allow("render", "10.0.0.1", t0.Add(11*time.Second)))

	assert.False(t, s.Allow("unknown", "10.0.0.1", t0))
}

func TestBucketStore_TakeRetryAfter(t *testing.T) {
	s := NewBucketStore[string](context.Background(), time.Minute, time.Minute, zerolog.Nop())
	s.SetBucketGroup("sign", &BucketConf{Burst: 1, Increment: 1, PeriodSec: 10})
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	ok, wait := s.Take("sign", "billing", t0)
	assert.True(t, ok)
	assert.Zero(t, wait)

	ok, wait = s.Take("sign", "billing", t0.Add(4*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 6*time.Second, wait)

	// refills never exceed the burst
	ok, _ = s.Take("sign", "billing", t0.Add(time.Hour))
	assert.True(t, ok)
	ok, _ = s.Take("sign", "billing", t0.Add(time.Hour))
	assert.False(t, ok)
}

func TestBucketStore_Cleanup(t *testing.T) {
	s := NewBucketStore[string](context.Background(), time.Minute, time.Minute, zerolog.Nop())
	s.SetBucketGroup("sign", &BucketConf{Burst: 1, Increment: 1})
	t0 := time.Now()
	s.Allow("sign", "a", t0)
	s.Allow("sign", "b", t0.Add(50*time.Second))

	assert.Equal(t, 1, s.Cleanup(t0.Add(90*time.Second)))
	_, ok := s.GetBucket("sign", "a")
	assert.False(t, ok)
	_, ok = s.GetBucket("sign", "b")
	assert.True(t, ok)
}

func TestBucketStore_Service(t *testing.T) {
	s := NewBucketStore[string](context.Background(), 10*time.Millisecond, time.Minute, zerolog.Nop())
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	s.Stop()
	select {
	case err := <-s.Done():
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bucket store did not stop")
	}
}
