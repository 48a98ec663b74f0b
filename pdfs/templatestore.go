package pdfs

import (
	"sort"
	"sync"
)

// TemplateStore - keyed registry of page templates. T depends on the caller.
// Safe for concurrent readers once populated.
type TemplateStore[T any] struct {
	mu        sync.RWMutex
	templates map[string]T
}

func NewTemplateStore[T any]() *TemplateStore[T] {
	return &TemplateStore[T]{templates: make(map[string]T)}
}

func (s *TemplateStore[T]) Store(key string, template T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[key] = template
}

func (s *TemplateStore[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[key]
	return t, ok
}

func (s *TemplateStore[T]) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.templates, key)
}

// Keys in sorted order
func (s *TemplateStore[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.templates))
	for k := range s.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
