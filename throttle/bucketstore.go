// Package throttle rate-limits callers with token buckets grouped by route.
package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zeptools/gw-docs/svc"
)

// BucketStore maps route group -> caller -> bucket. Running it as a service
// sweeps out buckets left idle.
type BucketStore[K comparable] struct {
	Ctx       context.Context    // Service Context
	cancel    context.CancelFunc // Service Context CancelFunc
	state     int                // internal service state
	done      chan error         // Shutdown Error Channel
	sweepEach time.Duration
	idleTTL   time.Duration
	mu        sync.RWMutex
	groups    map[string]*BucketGroup[K]
	log       zerolog.Logger
}

// Ensure BucketStore implements svc.Service
var _ svc.Service = (*BucketStore[string])(nil)

func (s *BucketStore[K]) Name() string {
	return "ThrottleBucketStore"
}

// NewBucketStore sweeps every sweepEach and drops buckets idle for idleTTL.
func NewBucketStore[K comparable](parentCtx context.Context, sweepEach time.Duration, idleTTL time.Duration, log zerolog.Logger) *BucketStore[K] {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &BucketStore[K]{
		Ctx:       svcCtx,
		cancel:    svcCancel,
		state:     svc.StateREADY,
		done:      make(chan error, 1),
		sweepEach: sweepEach,
		idleTTL:   idleTTL,
		groups:    map[string]*BucketGroup[K]{},
		log:       log.With().Str("service", "throttle").Logger(),
	}
}

func (s *BucketStore[K]) Start() error {
	switch s.state {
	case svc.StateREADY:
	case svc.StateRUNNING:
		return fmt.Errorf("already started")
	default:
		return fmt.Errorf("cannot start. not ready")
	}
	s.state = svc.StateRUNNING
	go s.sweepLoop()
	s.log.Info().Dur("every", s.sweepEach).Dur("idle_ttl", s.idleTTL).Msg("[INFO][Throttle] sweeper started")
	return nil
}

func (s *BucketStore[K]) Stop() {
	if s.state != svc.StateRUNNING {
		s.log.Error().Msg("[ERROR][Throttle] cannot stop. not running")
		return
	}
	s.cancel()
	s.state = svc.StateSTOPPED
	s.log.Info().Msg("[INFO][Throttle] service stopped")
}

func (s *BucketStore[K]) Done() <-chan error {
	return s.done
}

func (s *BucketStore[K]) sweepLoop() {
	t := time.NewTicker(s.sweepEach)
	defer t.Stop()
	for {
		select {
		case <-s.Ctx.Done():
			s.done <- nil
			return
		case now := <-t.C:
			s.sweep(now)
		}
	}
}

func (s *BucketStore[K]) sweep(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("[PANIC] recovered in throttle sweep")
		}
	}()
	if n := s.Cleanup(now); n > 0 {
		s.log.Debug().Int("removed", n).Msg("[INFO][Throttle] idle buckets dropped")
	}
}

// SetBucketGroup installs or replaces the limits of a route group. Replacing
// resets every caller of the group.
func (s *BucketStore[K]) SetBucketGroup(group string, conf *BucketConf) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group] = &BucketGroup[K]{conf: conf}
}

func (s *BucketStore[K]) GetBucketGroup(group string) (*BucketGroup[K], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[group]
	return g, ok
}

func (s *BucketStore[K]) GetBucket(group string, caller K) (*Bucket, bool) {
	if g, ok := s.GetBucketGroup(group); ok {
		return g.GetBucket(caller)
	}
	return nil, false
}

// Take spends one token of caller in group. An unknown group always refuses,
// with no retry hint.
func (s *BucketStore[K]) Take(group string, caller K, now time.Time) (bool, time.Duration) {
	g, ok := s.GetBucketGroup(group)
	if !ok {
		return false, 0
	}
	return g.bucket(caller, now).Take(now)
}

func (s *BucketStore[K]) Allow(group string, caller K, now time.Time) bool {
	ok, _ := s.Take(group, caller, now)
	return ok
}

// Cleanup drops buckets idle for longer than the idle TTL and returns how
// many went.
func (s *BucketStore[K]) Cleanup(now time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, g := range s.groups {
		g.buckets.Range(func(k, v any) bool {
			if now.Sub(v.(*Bucket).idleSince()) > s.idleTTL {
				g.buckets.Delete(k)
				n++
			}
			return true
		})
	}
	return n
}
