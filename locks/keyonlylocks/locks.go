// Package keyonlylocks - non-blocking locks identified by a key only. A key is
// either held or free; acquiring a held key fails immediately instead of
// waiting.
package keyonlylocks

import (
	"sort"
	"sync"
)

// Set of held keys. The zero value is ready to use.
type Set struct {
	held sync.Map // map[string]struct{}
}

// TryAcquire takes all keys or none. On success the returned release func
// must be called exactly once, typically deferred so a panic still frees
// the keys.
func (s *Set) TryAcquire(keys ...string) (release func(), ok bool) {
	acquired, ok := AcquireLocks(&s.held, keys)
	if !ok {
		return nil, false
	}
	var once sync.Once
	return func() {
		once.Do(func() { ReleaseLocks(&s.held, acquired) })
	}, true
}

// Held reports whether key is currently held.
func (s *Set) Held(key string) bool {
	_, ok := s.held.Load(key)
	return ok
}

// AcquireLocks stores every key in lockStore. If one is already there the
// keys taken so far are rolled back and ok is false. Keys are taken in sorted
// order and duplicates are ignored.
func AcquireLocks(lockStore *sync.Map, keys []string) (acquired []string, ok bool) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for i, key := range sorted {
		if i > 0 && sorted[i-1] == key {
			continue
		}
		if _, loaded := lockStore.LoadOrStore(key, struct{}{}); loaded {
			ReleaseLocks(lockStore, acquired)
			return nil, false
		}
		acquired = append(acquired, key)
	}
	return acquired, true
}

// ReleaseLocks deletes keys from lockStore.
func ReleaseLocks(lockStore *sync.Map, keys []string) {
	for _, key := range keys {
		lockStore.Delete(key)
	}
}
