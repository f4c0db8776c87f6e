// Package ownership keeps sub-object templates attached to the artifact
// that owns them: parent references are reconciled against changed native
// layouts, legacy definition-owned templates are adopted by the generated
// artifact, and templates move between artifacts on regeneration.
package ownership

import "blueprintcore/internal/engine"

// Result lists what Repair did, by template name.
type Result struct {
	// Reparented templates had their parent rewritten to match the new
	// layout.
	Reparented []string
	// Orphaned templates are absent from the new layout. They are left
	// untouched for the caller to keep or remove.
	Orphaned []string
	// Dangling templates lost their parent because the new layout's parent
	// has no equivalent in the old layout.
	Dangling []string
}

// Changed reports whether any parent reference was rewritten.
func (r Result) Changed() bool {
	return len(r.Reparented) > 0 || len(r.Dangling) > 0
}

// Repair reconciles the parent references of old (the layout a definition
// was saved with) against current (the layout the native type declares
// now), matching entries by name. Only scene component templates take
// part; reg decides which types are scene types, and a nil reg treats every
// component template as one. Missing matches are expected and never an
// error.
func Repair(old, current []*engine.SubobjectTemplate, reg *engine.TypeRegistry) Result {
	var res Result

	newByName := make(map[string]*engine.SubobjectTemplate, len(current))
	for _, t := range current {
		if t != nil {
			newByName[t.Name] = t
		}
	}
	oldByName := make(map[string]*engine.SubobjectTemplate, len(old))
	for _, t := range old {
		if t != nil {
			oldByName[t.Name] = t
		}
	}

	for _, t := range old {
		if t == nil {
			continue
		}
		native, ok := newByName[t.Name]
		if !ok {
			res.Orphaned = append(res.Orphaned, t.Name)
			continue
		}
		if !isScene(t, reg) {
			continue
		}

		// the old parent's equivalent in the new layout, if any
		oldParent := ""
		if t.HasParent() {
			if _, ok := newByName[t.ParentName]; ok {
				oldParent = t.ParentName
			}
		}
		if oldParent == native.ParentName {
			continue
		}

		if !native.HasParent() {
			t.ParentName = ""
			res.Reparented = append(res.Reparented, t.Name)
			continue
		}
		if _, ok := oldByName[native.ParentName]; ok {
			t.ParentName = native.ParentName
			res.Reparented = append(res.Reparented, t.Name)
			continue
		}
		t.ParentName = ""
		res.Dangling = append(res.Dangling, t.Name)
	}
	return res
}

func isScene(t *engine.SubobjectTemplate, reg *engine.TypeRegistry) bool {
	if t.Kind != engine.KindComponent && t.Kind != engine.KindConstructionNode {
		return false
	}
	if reg == nil {
		return true
	}
	return reg.IsScene(t.Type)
}
