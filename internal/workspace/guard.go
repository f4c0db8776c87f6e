package workspace

import (
	"sync"

	"blueprintcore/internal/diag"
)

// Guard records which definitions have a migration or regeneration in
// flight. A second Acquire for the same path fails until the first is
// released.
type Guard struct {
	mu         sync.Mutex
	inProgress map[string]bool
}

// Acquire claims path. The returned release must be called exactly once.
func (g *Guard) Acquire(path string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inProgress == nil {
		g.inProgress = make(map[string]bool)
	}
	if g.inProgress[path] {
		return nil, diag.Errorf(diag.ErrMigrationInProgress, path, "operation already in progress")
	}
	g.inProgress[path] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inProgress, path)
			g.mu.Unlock()
		})
	}, nil
}

// Held reports whether path is currently claimed.
func (g *Guard) Held(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inProgress[path]
}
