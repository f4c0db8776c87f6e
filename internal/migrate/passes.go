package migrate

import (
	"fmt"
	"slices"
	"strings"

	"blueprintcore/internal/engine"
	"blueprintcore/internal/version"

	"github.com/google/uuid"
)

// passes returns the migration passes in the order they must run. Later
// passes rely on earlier ones: the root template fixup assumes null graphs
// and stale breakpoints are already gone, and the parent chain conform
// needs the preloaded ancestors.
func passes() []Pass {
	return []Pass{
		{"clear-readonly-vars", version.VarsNotReadOnly, (*Pipeline).clearReadOnlyVars},
		{"assign-variable-guids", version.Always, (*Pipeline).assignVariableGUIDs},
		{"fix-actor-variable-flags", version.FixVariableFlags, (*Pipeline).fixActorVariableFlags},
		{"preload-ancestors", version.Always, (*Pipeline).preloadAncestors},
		{"purge-null-graphs", version.Always, (*Pipeline).purgeNullGraphs},
		{"remove-deprecated-graph", version.Always, (*Pipeline).removeDeprecatedGraph},
		{"remove-stale-breakpoints", version.Always, (*Pipeline).removeStaleBreakpoints},
		{"ensure-construction-script", version.Always, (*Pipeline).ensureConstructionScript},
		{"update-root-template", version.Always, (*Pipeline).updateRootTemplate},
		{"update-component-templates", version.Always, (*Pipeline).updateComponentTemplates},
		{"conform-parent-chain", version.Always, (*Pipeline).conformParentChain},
		{"backward-compat-nodes", version.Always, (*Pipeline).backwardCompatNodes},
		{"remove-invalid-struct-vars", version.Always, (*Pipeline).removeInvalidStructVars},
	}
}

// Older builds forced every exposed variable to read-only.
func (p *Pipeline) clearReadOnlyVars(def *engine.Definition) (bool, error) {
	changed := false
	for _, v := range def.Variables {
		if v != nil && v.Flags.Has(engine.FlagBlueprintReadOnly) {
			v.Flags &^= engine.FlagBlueprintReadOnly
			changed = true
		}
	}
	return changed, nil
}

func (p *Pipeline) assignVariableGUIDs(def *engine.Definition) (bool, error) {
	changed := false
	for _, v := range def.Variables {
		if v != nil && v.GUID == uuid.Nil {
			v.GUID = p.newID()
			changed = true
		}
	}
	return changed, nil
}

// Actor references cannot carry defaults across levels, so template
// editing is off for actor-typed variables and on for everything else.
func (p *Pipeline) fixActorVariableFlags(def *engine.Definition) (bool, error) {
	changed := false
	for _, v := range def.Variables {
		if v == nil {
			continue
		}
		actor := v.Type.Category == engine.PinObject && p.isActorType(v.Type.SubCategoryObject)
		before := v.Flags
		if actor {
			v.Flags |= engine.FlagDisableEditOnTemplate
		} else {
			v.Flags &^= engine.FlagDisableEditOnTemplate
		}
		changed = changed || v.Flags != before
	}
	return changed, nil
}

func (p *Pipeline) preloadAncestors(def *engine.Definition) (bool, error) {
	chain, err := p.resolveAncestors(def)
	if err != nil {
		return false, err
	}
	if slices.Equal(chain, def.Ancestors) {
		return false, nil
	}
	def.Ancestors = chain
	return true, nil
}

// Macro libraries used to keep their macros with the function graphs;
// those are moved over here as well.
func (p *Pipeline) purgeNullGraphs(def *engine.Definition) (bool, error) {
	changed := false
	purge := func(graphs []*engine.Graph) []*engine.Graph {
		kept := graphs[:0]
		for _, g := range graphs {
			if g == nil {
				changed = true
				continue
			}
			g.SubGraphs = purgeSub(g.SubGraphs, &changed)
			kept = append(kept, g)
		}
		return kept
	}
	def.UbergraphPages = purge(def.UbergraphPages)
	def.FunctionGraphs = purge(def.FunctionGraphs)
	def.MacroGraphs = purge(def.MacroGraphs)
	def.DelegateSignatureGraphs = purge(def.DelegateSignatureGraphs)

	ifaces := def.Interfaces[:0]
	for _, iface := range def.Interfaces {
		if iface == nil {
			changed = true
			continue
		}
		iface.Graphs = purge(iface.Graphs)
		ifaces = append(ifaces, iface)
	}
	def.Interfaces = ifaces

	if def.Type == engine.TypeMacroLibrary && len(def.FunctionGraphs) > 0 {
		def.MacroGraphs = append(def.MacroGraphs, def.FunctionGraphs...)
		def.FunctionGraphs = nil
		changed = true
	}
	return changed, nil
}

func purgeSub(graphs []*engine.Graph, changed *bool) []*engine.Graph {
	kept := graphs[:0]
	for _, g := range graphs {
		if g == nil {
			*changed = true
			continue
		}
		g.SubGraphs = purgeSub(g.SubGraphs, changed)
		kept = append(kept, g)
	}
	return kept
}

func (p *Pipeline) removeDeprecatedGraph(def *engine.Definition) (bool, error) {
	for i, g := range def.FunctionGraphs {
		if g != nil && g.Name == p.deprecatedGraph {
			def.FunctionGraphs = slices.Delete(def.FunctionGraphs, i, i+1)
			p.note(def, "remove-deprecated-graph", "removing %s from %s", p.deprecatedGraph, def.PathName())
			return true, nil
		}
	}
	return false, nil
}

func (p *Pipeline) removeStaleBreakpoints(def *engine.Definition) (bool, error) {
	changed := false
	def.Breakpoints = slices.DeleteFunc(def.Breakpoints, func(b *engine.Breakpoint) bool {
		stale := b == nil || def.FindNode(b.NodeID) == nil
		changed = changed || stale
		return stale
	})
	def.PinWatches = slices.DeleteFunc(def.PinWatches, func(w *engine.PinWatch) bool {
		stale := w == nil || def.FindNode(w.NodeID) == nil
		changed = changed || stale
		return stale
	})
	return changed, nil
}

func (p *Pipeline) ensureConstructionScript(def *engine.Definition) (bool, error) {
	if !p.types.SupportsConstructionScript(def, p.loader) {
		return false, nil
	}
	if scs := def.ConstructionScript; scs != nil {
		if scs.Transactional {
			return false, nil
		}
		scs.Transactional = true
		return true, nil
	}
	if def.Generated == nil {
		return false, fmt.Errorf("%s has no generated artifact to own a construction script", def.Name)
	}
	scs := engine.NewConstructionScript(def.Generated)
	def.ConstructionScript = scs
	def.Generated.ConstructionScript = scs
	return true, nil
}

// The scene root must name a scene template that still exists: a native
// root first, otherwise a root construction node.
func (p *Pipeline) updateRootTemplate(def *engine.Definition) (bool, error) {
	var candidates []*engine.SubobjectTemplate
	for _, t := range def.NativeComponents {
		if t != nil && !t.HasParent() && p.types.IsScene(t.Type) {
			candidates = append(candidates, t)
		}
	}
	for _, t := range def.ConstructionScript.RootNodes() {
		if p.types.IsScene(t.Type) {
			candidates = append(candidates, t)
		}
	}

	if def.RootTemplate != "" && slices.ContainsFunc(candidates, func(t *engine.SubobjectTemplate) bool {
		return t.Name == def.RootTemplate
	}) {
		return false, nil
	}
	root := ""
	if len(candidates) > 0 {
		root = candidates[0].Name
	}
	if root == def.RootTemplate {
		return false, nil
	}
	def.RootTemplate = root
	return true, nil
}

// Component templates must be non-nil, uniquely named, and owned by the
// definition (legacy) or its artifacts.
func (p *Pipeline) updateComponentTemplates(def *engine.Definition) (bool, error) {
	changed := false
	seen := map[string]bool{}
	def.ComponentTemplates = slices.DeleteFunc(def.ComponentTemplates, func(t *engine.SubobjectTemplate) bool {
		drop := t == nil || seen[t.Name] || !ownedByDefinition(t, def)
		if t != nil {
			seen[t.Name] = true
		}
		changed = changed || drop
		return drop
	})
	return changed, nil
}

func ownedByDefinition(t *engine.SubobjectTemplate, def *engine.Definition) bool {
	owner := t.Owner()
	switch {
	case owner == nil, owner == engine.Owner(def):
		return true
	case def.Generated != nil && owner == engine.Owner(def.Generated):
		return true
	case def.Skeleton != nil && owner == engine.Owner(def.Skeleton):
		return true
	}
	return false
}

const (
	missingParentFunction = "parent function not found: "
	missingOverride       = "overridden event not found in parent: "
)

// Calls to parent functions and implemented events must resolve against
// the ancestors, and implemented interfaces must have every required graph.
func (p *Pipeline) conformParentChain(def *engine.Definition) (bool, error) {
	changed := false
	for _, g := range def.AllGraphs() {
		for _, n := range g.Nodes {
			if n == nil {
				continue
			}
			var prefix string
			switch n.Kind {
			case engine.NodeCallParentFunction:
				prefix = missingParentFunction
			case engine.NodeEvent:
				prefix = missingOverride
			default:
				continue
			}
			want := ""
			if !p.ancestorDeclares(def, n.MemberName) {
				want = prefix + n.MemberName
			}
			switch {
			case want != "" && n.Error != want:
				n.Error = want
				changed = true
			case want == "" && strings.HasPrefix(n.Error, prefix):
				n.Error = ""
				changed = true
			}
		}
	}

	for _, iface := range def.Interfaces {
		if iface == nil {
			continue
		}
		info, ok := p.types.Lookup(iface.Name)
		if !ok || !info.Interface {
			p.note(def, "conform-parent-chain", "interface %s is not a known interface type", iface.Name)
			continue
		}
		for _, fn := range info.RequiredFunctions {
			if !slices.ContainsFunc(iface.Graphs, func(g *engine.Graph) bool { return g != nil && g.Name == fn }) {
				iface.Graphs = append(iface.Graphs, engine.NewGraph(fn))
				changed = true
			}
		}
	}
	return changed, nil
}

func (p *Pipeline) backwardCompatNodes(def *engine.Definition) (bool, error) {
	changed := false
	seen := map[*engine.Graph]bool{}
	for _, g := range def.AllGraphs() {
		if seen[g] {
			continue
		}
		seen[g] = true
		if p.schema.ConvertForBackwardCompatibility(g) {
			changed = true
		}
	}
	return changed, nil
}

// Struct-typed variables whose struct no longer exists are removed.
func (p *Pipeline) removeInvalidStructVars(def *engine.Definition) (bool, error) {
	changed := false
	def.Variables = slices.DeleteFunc(def.Variables, func(v *engine.Variable) bool {
		if v == nil {
			changed = true
			return true
		}
		if v.Type.Category != engine.PinStruct {
			return false
		}
		info, ok := p.types.Lookup(v.Type.SubCategoryObject)
		if ok && info.Struct && !info.Deprecated {
			return false
		}
		p.note(def, "remove-invalid-struct-vars", "removing variable %s of missing struct %s", v.Name, v.Type.SubCategoryObject)
		changed = true
		return true
	})
	return changed, nil
}
