// Package searchindex keeps the searchable asset tags of definitions so
// hosts can find definitions by generated class, parent or status without
// loading their packages.
package searchindex

import (
	"context"
	"maps"
	"slices"
	"sync"

	"blueprintcore/internal/engine"
)

// Indexer stores registry tags keyed by definition path.
type Indexer interface {
	// Update replaces every tag stored for def.
	Update(ctx context.Context, def *engine.Definition) error
	// Remove drops all tags stored under path.
	Remove(ctx context.Context, path string) error
	// Tags returns the tags stored under path.
	Tags(ctx context.Context, path string) (map[string]string, bool, error)
	// Find returns the sorted paths whose tag equals value.
	Find(ctx context.Context, tag, value string) ([]string, error)
}

// Memory is an in-process Indexer.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]map[string]string)}
}

func (m *Memory) Update(_ context.Context, def *engine.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[def.PathName()] = def.RegistryTags()
	return nil
}

func (m *Memory) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, path)
	return nil
}

func (m *Memory) Tags(_ context.Context, path string) (map[string]string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tags, ok := m.entries[path]
	if !ok {
		return nil, false, nil
	}
	return maps.Clone(tags), true, nil
}

func (m *Memory) Find(_ context.Context, tag, value string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var paths []string
	for path, tags := range m.entries {
		if v, ok := tags[tag]; ok && v == value {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)
	return paths, nil
}
