package throttle

import (
	"sync"
	"time"
)

// Bucket holds the tokens of one caller within a group.
type Bucket struct {
	mu     sync.Mutex
	tokens int
	filled time.Time // start of the period the last refill landed in
	seen   time.Time
	conf   *BucketConf
}

func newBucket(conf *BucketConf, now time.Time) *Bucket {
	return &Bucket{tokens: conf.Burst, filled: now, seen: now, conf: conf}
}

// Take consumes one token. When the bucket is empty it reports how long until
// the next refill instead.
func (b *Bucket) Take(now time.Time) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seen = now
	period := b.conf.Period()
	if n := int(now.Sub(b.filled) / period); n > 0 {
		b.tokens = min(b.conf.Burst, b.tokens+n*b.conf.Increment)
		b.filled = b.filled.Add(time.Duration(n) * period)
	}
	if b.tokens > 0 {
		b.tokens--
		return true, 0
	}
	return false, b.filled.Add(period).Sub(now)
}

func (b *Bucket) idleSince() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seen
}

// BucketGroup - the buckets of every caller of one route group.
type BucketGroup[K comparable] struct {
	conf    *BucketConf
	buckets sync.Map // K -> *Bucket
}

func (g *BucketGroup[K]) GetBucket(id K) (*Bucket, bool) {
	v, ok := g.buckets.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Bucket), true
}

func (g *BucketGroup[K]) bucket(id K, now time.Time) *Bucket {
	if b, ok := g.GetBucket(id); ok {
		return b
	}
	v, _ := g.buckets.LoadOrStore(id, newBucket(g.conf, now))
	return v.(*Bucket)
}
