package migrate

import (
	"fmt"
	"slices"

	"blueprintcore/internal/engine"
)

// resolveAncestors walks the parent chain of def, nearest first, and stops
// after the first native type. Definitions along the way are loaded
// through the pipeline's loader.
func (p *Pipeline) resolveAncestors(def *engine.Definition) ([]string, error) {
	var chain []string
	seen := map[string]bool{def.Name: true}
	name := def.ParentName
	for name != "" {
		if seen[name] {
			return chain, fmt.Errorf("parent chain of %s loops at %s", def.Name, name)
		}
		seen[name] = true
		chain = append(chain, name)

		if _, ok := p.types.Lookup(name); ok {
			return chain, nil
		}
		parent, err := p.loader.LoadDefinition(name)
		if err != nil {
			return chain, fmt.Errorf("load parent %s: %w", name, err)
		}
		if parent == nil {
			return chain, fmt.Errorf("parent %s of %s not found", name, def.Name)
		}
		name = parent.ParentName
	}
	return chain, nil
}

// ancestors returns the cached chain, resolving it when the preload pass
// did not run.
func (p *Pipeline) ancestors(def *engine.Definition) []string {
	if len(def.Ancestors) > 0 || def.ParentName == "" {
		return def.Ancestors
	}
	chain, _ := p.resolveAncestors(def)
	return chain
}

// isActorType reports whether a type name, native or authored, derives
// from an actor type.
func (p *Pipeline) isActorType(name string) bool {
	seen := map[string]bool{}
	for name != "" && !seen[name] {
		seen[name] = true
		if _, ok := p.types.Lookup(name); ok {
			return p.types.IsActor(name)
		}
		def, err := p.loader.LoadDefinition(name)
		if err != nil || def == nil {
			return false
		}
		name = def.ParentName
	}
	return false
}

// ancestorDeclares reports whether any ancestor of def declares fn, either
// natively or as a function graph or event of an authored parent.
func (p *Pipeline) ancestorDeclares(def *engine.Definition, fn string) bool {
	for _, name := range p.ancestors(def) {
		if _, ok := p.types.Lookup(name); ok {
			return p.types.HasFunction(name, fn)
		}
		parent, err := p.loader.LoadDefinition(name)
		if err != nil || parent == nil {
			return false
		}
		if parent.FindFunctionGraph(fn) != nil || declaresEvent(parent, fn) {
			return true
		}
	}
	return false
}

func declaresEvent(def *engine.Definition, fn string) bool {
	for _, g := range def.UbergraphPages {
		for _, sub := range g.AppendAll(nil) {
			if slices.ContainsFunc(sub.Nodes, func(n *engine.Node) bool {
				return n != nil && n.Kind == engine.NodeEvent && n.MemberName == fn
			}) {
				return true
			}
		}
	}
	return false
}
