package ownership

import (
	"fmt"
	"strings"

	"blueprintcore/internal/diag"
	"blueprintcore/internal/engine"
	"blueprintcore/internal/identity"
)

// AdoptResult describes a legacy ownership migration.
type AdoptResult struct {
	// Migrated is true when at least one template was still owned by the
	// definition. Unowned templates are claimed without counting.
	Migrated bool
	// Adopted lists every template that moved to the artifact.
	Adopted []*engine.SubobjectTemplate
	// Renamed maps old template names to the names they were given.
	Renamed map[string]string
	// Warnings are templates that could not get a deterministic name and
	// kept their old one.
	Warnings []string
}

// Adopt moves every template still declared as owned by def to art.
// Definitions saved before templates became editor-only own their
// templates directly. Component and native templates keep their names,
// timelines get the template suffix, and curves and construction nodes get
// a deterministic hashed name when it is free in art.
func Adopt(def *engine.Definition, art *engine.Artifact) AdoptResult {
	res := AdoptResult{Renamed: map[string]string{}}
	if def == nil || art == nil {
		return res
	}

	adopt := func(t *engine.SubobjectTemplate, name string, listed bool) {
		if t.Owner() != nil {
			res.Migrated = true
		}
		if name != t.Name {
			res.Renamed[t.Name] = name
			t.Name = name
		}
		if listed {
			art.AddTemplate(t)
		} else {
			t.SetOwner(art)
		}
		res.Adopted = append(res.Adopted, t)
	}
	hashed := func(t *engine.SubobjectTemplate) string {
		if t.Owner() == nil {
			return t.Name
		}
		name, ok := identity.UniqueName(t.Name, func(n string) bool { return nameFree(art, n) })
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("cannot generate a deterministic new name for %s in %s", t.Name, art.Name))
			return t.Name
		}
		return name
	}

	for _, list := range [][]*engine.SubobjectTemplate{def.NativeComponents, def.ComponentTemplates} {
		for _, t := range list {
			if t != nil && ownedBy(t, def) {
				adopt(t, t.Name, true)
			}
		}
	}
	for _, t := range def.Timelines {
		if t == nil || !ownedBy(t, def) {
			continue
		}
		name := t.Name
		if !strings.HasSuffix(name, engine.TimelineTemplateSuffix) {
			name = engine.TimelineTemplateName(name)
			if other := def.FindTimelineByVariableName(t.Name); other != nil && other != t {
				res.Warnings = append(res.Warnings, fmt.Sprintf("cannot rename timeline %s, %s already exists", t.Name, name))
				name = t.Name
			}
		}
		adopt(t, name, true)
	}
	for _, t := range def.Curves {
		if t != nil && ownedBy(t, def) {
			adopt(t, hashed(t), true)
		}
	}

	if scs := def.ConstructionScript; scs != nil {
		if owner := scs.Owner(); owner == nil || owner == engine.Owner(def) {
			scs.SetOwner(art)
			res.Migrated = res.Migrated || owner != nil
		}
		for _, n := range scs.Nodes {
			if n != nil && ownedBy(n, def) {
				old := n.Name
				adopt(n, hashed(n), false)
				if n.Name != old {
					renameParentRefs(scs.Nodes, old, n.Name)
				}
			}
		}
		art.ConstructionScript = scs
	}
	return res
}

// Report forwards the migration outcome to sink: one warning per unnamed
// template and the re-save warning when anything migrated.
func (r AdoptResult) Report(sink diag.Sink, def *engine.Definition) {
	for _, w := range r.Warnings {
		sink.Report(diag.Message{Severity: diag.Warning, Definition: def.PathName(), Text: w})
	}
	if r.Migrated {
		sink.Report(diag.Message{
			Severity:   diag.Warning,
			Definition: def.PathName(),
			Text:       fmt.Sprintf("%s has been migrated and requires re-saving to avoid import errors", def.Name),
		})
	}
}

// Transfer moves every template and the construction script from one
// artifact to another. It fails without changes when a name collides.
func Transfer(from, to *engine.Artifact) error {
	if from == nil || to == nil || from == to {
		return nil
	}
	for _, t := range from.Templates {
		if existing := to.FindTemplate(t.Name); existing != nil && existing != t {
			return diag.Errorf(diag.ErrRegenerationFailed, to.PathName(), "template %q already exists", t.Name)
		}
	}

	moving := append([]*engine.SubobjectTemplate(nil), from.Templates...)
	for _, t := range moving {
		from.RemoveTemplate(t)
		if to.FindTemplate(t.Name) == nil {
			to.AddTemplate(t)
		} else {
			t.SetOwner(to)
		}
	}
	if scs := from.ConstructionScript; scs != nil {
		if to.ConstructionScript == nil {
			to.ConstructionScript = scs
		}
		scs.SetOwner(to)
		for _, n := range scs.Nodes {
			if n != nil {
				n.SetOwner(to)
			}
		}
		from.ConstructionScript = nil
	}
	return nil
}

// ownedBy reports whether t is unclaimed or still declared as owned by def.
func ownedBy(t *engine.SubobjectTemplate, def *engine.Definition) bool {
	owner := t.Owner()
	return owner == nil || owner == engine.Owner(def)
}

func nameFree(art *engine.Artifact, name string) bool {
	if art.FindTemplate(name) != nil {
		return false
	}
	return art.ConstructionScript.FindNode(name) == nil
}

func renameParentRefs(nodes []*engine.SubobjectTemplate, old, name string) {
	for _, n := range nodes {
		if n != nil && n.ParentName == old {
			n.ParentName = name
		}
	}
}
