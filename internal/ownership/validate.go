package ownership

import (
	"fmt"

	"blueprintcore/internal/diag"
	"blueprintcore/internal/engine"
)

// Violation is one broken ownership rule on a template.
type Violation struct {
	Template string
	Err      error
}

func (v Violation) Error() string { return fmt.Sprintf("%s: %v", v.Template, v.Err) }

func (v Violation) Unwrap() error { return v.Err }

// Validate checks that every template of def is owned by art, that every
// declared parent resolves inside art, and that no parent chain loops.
func Validate(def *engine.Definition, art *engine.Artifact) []Violation {
	var out []Violation
	if art == nil {
		return []Violation{{Template: def.Name, Err: diag.Errorf(diag.ErrRegenerationFailed, def.PathName(), "no generated artifact")}}
	}

	for _, t := range def.AllTemplates() {
		if !t.OwnedBy(art) {
			owner := "<none>"
			if o := t.Owner(); o != nil {
				owner = o.PathName()
			}
			out = append(out, Violation{Template: t.Name, Err: diag.Errorf(diag.ErrRegenerationFailed, art.PathName(), "owned by %s", owner)})
		}
	}

	seen := map[string]bool{}
	for _, t := range owned(art) {
		if seen[t.Name] {
			out = append(out, Violation{Template: t.Name, Err: diag.Errorf(diag.ErrRegenerationFailed, art.PathName(), "duplicate template name")})
		}
		seen[t.Name] = true
	}

	byName := ownedByName(art)
	for _, t := range owned(art) {
		if !t.HasParent() {
			continue
		}
		if byName[t.ParentName] == nil {
			out = append(out, Violation{Template: t.Name, Err: diag.Errorf(diag.ErrDanglingReference, art.PathName(), "parent %q not found", t.ParentName)})
			continue
		}
		if loops(t, byName) {
			out = append(out, Violation{Template: t.Name, Err: diag.Errorf(diag.ErrDanglingReference, art.PathName(), "parent chain loops")})
		}
	}
	return out
}

// FixDangling clears every parent reference that does not resolve inside
// art and returns the names of the templates it changed.
func FixDangling(art *engine.Artifact) []string {
	if art == nil {
		return nil
	}
	byName := ownedByName(art)
	var fixed []string
	for _, t := range owned(art) {
		if t.HasParent() && byName[t.ParentName] == nil {
			t.ParentName = ""
			fixed = append(fixed, t.Name)
		}
	}
	return fixed
}

func owned(art *engine.Artifact) []*engine.SubobjectTemplate {
	all := append([]*engine.SubobjectTemplate(nil), art.Templates...)
	if art.ConstructionScript != nil {
		for _, n := range art.ConstructionScript.Nodes {
			if n != nil {
				all = append(all, n)
			}
		}
	}
	return all
}

func ownedByName(art *engine.Artifact) map[string]*engine.SubobjectTemplate {
	byName := map[string]*engine.SubobjectTemplate{}
	for _, t := range owned(art) {
		if _, ok := byName[t.Name]; !ok {
			byName[t.Name] = t
		}
	}
	return byName
}

func loops(t *engine.SubobjectTemplate, byName map[string]*engine.SubobjectTemplate) bool {
	visited := map[*engine.SubobjectTemplate]bool{t: true}
	for p := byName[t.ParentName]; p != nil; p = byName[p.ParentName] {
		if visited[p] {
			return p == t
		}
		visited[p] = true
		if !p.HasParent() {
			return false
		}
	}
	return false
}
