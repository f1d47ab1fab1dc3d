package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/feedbackkit/internal/common"
	"github.com/dmitrijs2005/feedbackkit/internal/logging"
)

// Module is an in-memory cache of named values backed by a medium. The
// medium is read lazily on first use. With a nil medium the module is
// memory only.
//
// By default the whole map is persisted under Key. With Separate set each
// value is persisted under its own name instead.
type Module[T any] struct {
	medium   Medium
	key      string
	separate bool
	log      logging.Logger

	mu     sync.Mutex
	loaded bool
	cache  map[string]T
}

type ModuleOption func(*moduleOptions)

type moduleOptions struct {
	separate bool
	log      logging.Logger
}

// StoreSeparately persists each value under its own name.
func StoreSeparately() ModuleOption {
	return func(o *moduleOptions) { o.separate = true }
}

func WithModuleLogger(l logging.Logger) ModuleOption {
	return func(o *moduleOptions) { o.log = l }
}

func NewModule[T any](m Medium, key string, opts ...ModuleOption) *Module[T] {
	o := moduleOptions{log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Module[T]{
		medium:   m,
		key:      key,
		separate: o.separate,
		log:      o.log.With("storage_key", key),
		cache:    map[string]T{},
	}
}

func (s *Module[T]) IsLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// load must be called with mu held. Failures are logged and leave the
// cache empty; the module still counts as loaded.
func (s *Module[T]) load(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true

	if s.medium == nil {
		return
	}

	if s.separate {
		lister, ok := s.medium.(Lister)
		if !ok {
			return
		}
		names, err := lister.List(ctx)
		if err != nil {
			s.log.Error(ctx, "error listing persistent storage", "error", err)
			return
		}
		for _, name := range names {
			var v T
			found, err := Read(ctx, s.medium, name, &v)
			if err != nil {
				s.log.Error(ctx, "error loading data from persistent storage", "name", name, "error", err)
				continue
			}
			if found {
				s.cache[name] = v
			}
		}
		return
	}

	var all map[string]T
	found, err := Read(ctx, s.medium, s.key, &all)
	if err != nil {
		s.log.Error(ctx, "error loading data from persistent storage", "error", err)
		return
	}
	if found && all != nil {
		s.cache = all
	}
}

// CurrentData returns a copy of every cached value.
func (s *Module[T]) CurrentData(ctx context.Context) map[string]T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)

	out := make(map[string]T, len(s.cache))
	for k, v := range s.cache {
		out[k] = v
	}
	return out
}

func (s *Module[T]) Read(ctx context.Context, name string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)

	if v, ok := s.cache[name]; ok {
		return v, true
	}

	var zero T
	if s.medium == nil || !s.separate {
		return zero, false
	}

	var v T
	found, err := Read(ctx, s.medium, name, &v)
	if err != nil {
		s.log.Error(ctx, "error reading data from persistent storage", "name", name, "error", err)
		return zero, false
	}
	if !found {
		return zero, false
	}
	s.cache[name] = v
	return v, true
}

// Write updates the cache and persists it. The cache keeps the new value
// even when persisting fails.
func (s *Module[T]) Write(ctx context.Context, name string, value T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)

	s.cache[name] = value

	if s.medium == nil {
		return nil
	}
	if s.separate {
		return Write(ctx, s.medium, name, value)
	}
	return Write(ctx, s.medium, s.key, s.cache)
}

func (s *Module[T]) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)

	delete(s.cache, name)

	if s.medium == nil {
		return nil
	}
	if s.separate {
		return s.medium.Delete(ctx, name)
	}
	if len(s.cache) == 0 {
		return s.medium.Delete(ctx, s.key)
	}
	return Write(ctx, s.medium, s.key, s.cache)
}

// Clear drops every value from the cache and the medium.
func (s *Module[T]) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)

	names := make([]string, 0, len(s.cache))
	for k := range s.cache {
		names = append(names, k)
	}
	s.cache = map[string]T{}

	if s.medium == nil {
		return nil
	}
	if !s.separate {
		return s.medium.Delete(ctx, s.key)
	}

	var errs []error
	for _, name := range names {
		if err := s.medium.Delete(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return common.Generic("unable to clear storage", err)
	}
	return nil
}
