package engine

import (
	"fmt"

	"blueprintcore/internal/diag"
)

// Namespace is a package: a path plus the uniquely named objects stored in
// it.
type Namespace struct {
	Path    string
	Objects []Object
	nameMap map[string]Object

	// Dirty is set when the namespace needs re-saving.
	Dirty bool
}

func NewNamespace(path string) *Namespace {
	return &Namespace{
		Path:    path,
		Objects: make([]Object, 0),
		nameMap: make(map[string]Object),
	}
}

// Add places obj in the namespace. Definitions and artifacts get their
// Namespace field pointed here. Adding a name that is already taken fails.
func (n *Namespace) Add(obj Object) error {
	if n.nameMap == nil {
		n.nameMap = make(map[string]Object)
	}
	name := obj.ObjectName()
	if existing, ok := n.nameMap[name]; ok && existing != obj {
		return diag.Errorf(diag.ErrRenameCollision, n.Path, "name %q already in use", name)
	}
	if _, ok := n.nameMap[name]; ok {
		return nil
	}
	n.Objects = append(n.Objects, obj)
	n.nameMap[name] = obj
	setNamespace(obj, n)
	return nil
}

// Remove takes obj out of the namespace.
func (n *Namespace) Remove(obj Object) {
	for i, o := range n.Objects {
		if o == obj {
			n.Objects = append(n.Objects[:i], n.Objects[i+1:]...)
			delete(n.nameMap, obj.ObjectName())
			if namespaceOf(obj) == n {
				setNamespace(obj, nil)
			}
			return
		}
	}
}

func (n *Namespace) FindByName(name string) Object {
	if n.nameMap == nil {
		return nil
	}
	return n.nameMap[name]
}

// IsUniqueName reports whether name is free in the namespace.
func (n *Namespace) IsUniqueName(name string) bool {
	return n.FindByName(name) == nil
}

// Definitions returns the definitions in insertion order.
func (n *Namespace) Definitions() []*Definition {
	var defs []*Definition
	for _, o := range n.Objects {
		if d, ok := o.(*Definition); ok {
			defs = append(defs, d)
		}
	}
	return defs
}

// FindDefinition returns the definition called name, or nil.
func (n *Namespace) FindDefinition(name string) *Definition {
	d, _ := n.FindByName(name).(*Definition)
	return d
}

// Rename moves obj to newName inside dest, which may be n itself. The
// rename fails without changes when newName is taken in dest.
func (n *Namespace) Rename(obj Object, newName string, dest *Namespace) error {
	if dest == nil {
		dest = n
	}
	if n.FindByName(obj.ObjectName()) != obj {
		return fmt.Errorf("rename %q: not in namespace %s", obj.ObjectName(), n.Path)
	}
	if existing := dest.FindByName(newName); existing != nil && existing != obj {
		return diag.Errorf(diag.ErrRenameCollision, dest.Path, "name %q already in use", newName)
	}
	n.Remove(obj)
	setName(obj, newName)
	if err := dest.Add(obj); err != nil {
		return fmt.Errorf("rename %q: %w", newName, err)
	}
	n.Dirty = true
	dest.Dirty = true
	return nil
}

func namespaceOf(obj Object) *Namespace {
	switch o := obj.(type) {
	case *Definition:
		return o.Namespace
	case *Artifact:
		return o.Namespace
	}
	return nil
}

func setNamespace(obj Object, ns *Namespace) {
	switch o := obj.(type) {
	case *Definition:
		o.Namespace = ns
	case *Artifact:
		o.Namespace = ns
	}
}

func setName(obj Object, name string) {
	switch o := obj.(type) {
	case *Definition:
		o.Name = name
	case *Artifact:
		o.Name = name
	case *SubobjectTemplate:
		o.Name = name
	}
}
