package regen

import "blueprintcore/internal/engine"

// Hierarchy returns def followed by every authored ancestor, nearest
// first, stopping at the first native type. The bool is false when any of
// them is in Error status or a parent could not be loaded.
func Hierarchy(def *engine.Definition, loader engine.DefinitionLoader) ([]*engine.Definition, bool) {
	chain := []*engine.Definition{def}
	ok := def.Status != engine.StatusError
	seen := map[*engine.Definition]bool{def: true}

	name := def.ParentName
	for name != "" {
		if loader == nil {
			break
		}
		parent, err := loader.LoadDefinition(name)
		if err != nil {
			return chain, false
		}
		if parent == nil || seen[parent] {
			break
		}
		seen[parent] = true
		chain = append(chain, parent)
		if parent.Status == engine.StatusError {
			ok = false
		}
		name = parent.ParentName
	}
	return chain, ok
}
