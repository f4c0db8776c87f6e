package regen

import (
	"fmt"

	"blueprintcore/internal/diag"
	"blueprintcore/internal/engine"
)

// RenameFlags modify Rename.
type RenameFlags int

const (
	// RenameTest only checks whether the rename would succeed.
	RenameTest RenameFlags = 1 << iota
	// RenameDoNotDirty renames without dirtying namespaces or regenerating.
	RenameDoNotDirty
)

// Rename renames def to newName and moves it to dest (the current
// namespace when dest is nil). The artifacts move first under their derived
// names. A collision on any of the three names fails with
// diag.ErrRenameCollision before anything changes. The definition keeps its
// identifier.
func (r *Regenerator) Rename(def *engine.Definition, newName string, dest *engine.Namespace, flags RenameFlags) error {
	src := def.Namespace
	if src == nil {
		return fmt.Errorf("rename %s: definition has no namespace", def.Name)
	}
	if dest == nil {
		dest = src
	}
	if newName == "" {
		return fmt.Errorf("rename %s: empty name", def.Name)
	}

	generated, skeleton := engine.ClassNames(newName)
	for _, check := range []struct {
		name string
		self engine.Object
	}{
		{newName, def},
		{generated, artifactObject(def.Generated)},
		{skeleton, artifactObject(def.Skeleton)},
	} {
		if dest.IsUniqueName(check.name) {
			continue
		}
		if dest.FindByName(check.name) != check.self {
			return diag.Errorf(diag.ErrRenameCollision, dest.Path, "%q already exists", check.name)
		}
	}
	if flags&RenameTest != 0 {
		return nil
	}

	srcDirty, destDirty := src.Dirty, dest.Dirty
	for _, art := range []*engine.Artifact{def.Generated, def.Skeleton} {
		if art == nil || art.Namespace != src {
			continue
		}
		name := generated
		if art.Skeleton {
			name = skeleton
		}
		if err := src.Rename(art, name, dest); err != nil {
			return fmt.Errorf("rename %s: %w", art.Name, err)
		}
	}
	if err := src.Rename(def, newName, dest); err != nil {
		return fmt.Errorf("rename %s: %w", def.Name, err)
	}

	if flags&RenameDoNotDirty != 0 {
		src.Dirty, dest.Dirty = srcDirty, destDirty
		return nil
	}
	if _, _, err := r.Regenerate(def, def.Generated); err != nil {
		return fmt.Errorf("rename %s: %w", newName, err)
	}
	return nil
}

// artifactObject avoids a typed nil inside the interface.
func artifactObject(a *engine.Artifact) engine.Object {
	if a == nil {
		return nil
	}
	return a
}
