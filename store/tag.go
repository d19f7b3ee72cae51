package store

import (
	"fmt"
	"sync"
)

type table[T any] struct {
	mu   sync.RWMutex
	data map[EntityHandle]T
}

// Tag is a typed attribute. Values are only reachable through a Tag of the
// same type, so reads never need a runtime type switch at the call site.
type Tag[T any] struct {
	name string
	t    *table[T]
}

// NewTag registers a tag, or returns the existing one when a tag of the same
// name and type is already registered.
func NewTag[T any](s *Store, name string) (tag Tag[T], err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tags[name]; ok {
		t, ok := existing.(*table[T])
		if !ok {
			err = fmt.Errorf("%w: %q is %T", ErrTagType, name, existing)
			return
		}
		return Tag[T]{name: name, t: t}, nil
	}
	t := &table[T]{data: make(map[EntityHandle]T)}
	s.tags[name] = t
	return Tag[T]{name: name, t: t}, nil
}

func (tag Tag[T]) Name() string { return tag.name }

func (tag Tag[T]) Set(h EntityHandle, v T) {
	tag.t.mu.Lock()
	tag.t.data[h] = v
	tag.t.mu.Unlock()
}

func (tag Tag[T]) Get(h EntityHandle) (v T, err error) {
	tag.t.mu.RLock()
	v, ok := tag.t.data[h]
	tag.t.mu.RUnlock()
	if !ok {
		err = fmt.Errorf("%w: %q on %s", ErrNoAttribute, tag.name, h)
	}
	return
}

// Has reports whether h carries a value for this tag
func (tag Tag[T]) Has(h EntityHandle) bool {
	tag.t.mu.RLock()
	defer tag.t.mu.RUnlock()
	_, ok := tag.t.data[h]
	return ok
}

func (tag Tag[T]) SetMany(hs []EntityHandle, vs []T) error {
	if len(hs) != len(vs) {
		return fmt.Errorf("tag %q: %d entities but %d values", tag.name, len(hs), len(vs))
	}
	tag.t.mu.Lock()
	defer tag.t.mu.Unlock()
	for i, h := range hs {
		tag.t.data[h] = vs[i]
	}
	return nil
}

func (tag Tag[T]) GetMany(hs []EntityHandle) (vs []T, err error) {
	tag.t.mu.RLock()
	defer tag.t.mu.RUnlock()
	vs = make([]T, len(hs))
	for i, h := range hs {
		var ok bool
		if vs[i], ok = tag.t.data[h]; !ok {
			return nil, fmt.Errorf("%w: %q on %s", ErrNoAttribute, tag.name, h)
		}
	}
	return
}

// Len is the number of entities carrying this tag
func (tag Tag[T]) Len() int {
	tag.t.mu.RLock()
	defer tag.t.mu.RUnlock()
	return len(tag.t.data)
}
