package engine

import (
	"fmt"
	"slices"
)

// TypeInfo describes a native type known to the host.
type TypeInfo struct {
	Name      string
	Super     string // empty for a root type
	Native    bool
	Actor     bool // the type is, or derives from, an actor type
	Scene     bool // component types with a transform
	Struct    bool
	Interface bool

	// Functions lists callable and overridable functions declared by the
	// type itself (not inherited).
	Functions []string

	// RequiredFunctions lists the graphs an implementer of an interface
	// type must provide.
	RequiredFunctions []string

	// Components is the native component layout declared by the type.
	Components []*SubobjectTemplate

	// Deprecated struct types can no longer be used as variable types.
	Deprecated bool
}

// TypeRegistry maps type names to their info. It is injected wherever type
// queries are needed; there is no process-wide registry.
type TypeRegistry struct {
	types map[string]TypeInfo
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]TypeInfo)}
}

// Register adds a type. Registering the same name twice panics.
func (r *TypeRegistry) Register(info TypeInfo) {
	if _, exists := r.types[info.Name]; exists {
		panic(fmt.Sprintf("type %q already registered", info.Name))
	}
	r.types[info.Name] = info
}

func (r *TypeRegistry) Lookup(name string) (TypeInfo, bool) {
	if r == nil {
		return TypeInfo{}, false
	}
	info, ok := r.types[name]
	return info, ok
}

// Names returns all registered type names, sorted.
func (r *TypeRegistry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Chain returns info for name and each of its registered supertypes,
// nearest first. The walk stops at an unknown name or a cycle.
func (r *TypeRegistry) Chain(name string) []TypeInfo {
	var chain []TypeInfo
	seen := map[string]bool{}
	for name != "" && !seen[name] {
		seen[name] = true
		info, ok := r.Lookup(name)
		if !ok {
			break
		}
		chain = append(chain, info)
		name = info.Super
	}
	return chain
}

// IsChildOf reports whether name is ancestor or derives from it.
func (r *TypeRegistry) IsChildOf(name, ancestor string) bool {
	for _, info := range r.Chain(name) {
		if info.Name == ancestor {
			return true
		}
	}
	return false
}

// IsActor reports whether any type in the chain is an actor type.
func (r *TypeRegistry) IsActor(name string) bool {
	for _, info := range r.Chain(name) {
		if info.Actor {
			return true
		}
	}
	return false
}

// IsScene reports whether name is a scene component type.
func (r *TypeRegistry) IsScene(name string) bool {
	for _, info := range r.Chain(name) {
		if info.Scene {
			return true
		}
	}
	return false
}

// HasFunction reports whether name or a supertype declares fn.
func (r *TypeRegistry) HasFunction(name, fn string) bool {
	for _, info := range r.Chain(name) {
		if slices.Contains(info.Functions, fn) {
			return true
		}
	}
	return false
}

// NativeLayout returns fresh, unowned copies of the native component
// layout of name, supertype components first.
func (r *TypeRegistry) NativeLayout(name string) []*SubobjectTemplate {
	chain := r.Chain(name)
	var layout []*SubobjectTemplate
	for i := len(chain) - 1; i >= 0; i-- {
		for _, c := range chain[i].Components {
			layout = append(layout, c.Clone())
		}
	}
	return layout
}

// NativeAncestor walks the parent chain of def through loader and returns
// the first native type it reaches, or "" when the chain breaks or loops.
func (r *TypeRegistry) NativeAncestor(def *Definition, loader DefinitionLoader) string {
	seen := map[string]bool{def.Name: true}
	for name := def.ParentName; name != "" && !seen[name]; {
		seen[name] = true
		if _, ok := r.Lookup(name); ok {
			return name
		}
		if loader == nil {
			return ""
		}
		parent, err := loader.LoadDefinition(name)
		if err != nil || parent == nil {
			return ""
		}
		name = parent.ParentName
	}
	return ""
}

// SupportsConstructionScript is true for normal and const definitions
// deriving from an actor type.
func (r *TypeRegistry) SupportsConstructionScript(def *Definition, loader DefinitionLoader) bool {
	if def.Type != TypeNormal && def.Type != TypeConst {
		return false
	}
	root := r.NativeAncestor(def, loader)
	return root != "" && r.IsActor(root)
}
