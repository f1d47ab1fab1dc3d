package storage

import (
	"context"
	"sort"

	"github.com/patrickmn/go-cache"

	"github.com/dmitrijs2005/feedbackkit/internal/common"
)

// MemoryMedium keeps values for the life of the process.
type MemoryMedium struct {
	c *cache.Cache
}

var (
	_ Medium = (*MemoryMedium)(nil)
	_ Lister = (*MemoryMedium)(nil)
)

func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{c: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryMedium) Read(_ context.Context, name string) ([]byte, error) {
	v, ok := m.c.Get(name)
	if !ok {
		return nil, common.ErrorNotFound
	}
	data := v.([]byte)
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryMedium) Write(_ context.Context, name string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)
	m.c.Set(name, stored, cache.NoExpiration)
	return nil
}

func (m *MemoryMedium) Delete(_ context.Context, name string) error {
	m.c.Delete(name)
	return nil
}

func (m *MemoryMedium) List(_ context.Context) ([]string, error) {
	items := m.c.Items()
	names := make([]string, 0, len(items))
	for k := range items {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}
