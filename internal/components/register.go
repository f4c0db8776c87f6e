package components

import "blueprintcore/internal/engine"

// Register adds every native class, component class, struct and interface
// to reg. Calling it twice on the same registry panics.
func Register(reg *engine.TypeRegistry) {
	for _, info := range nativeClasses() {
		reg.Register(info)
	}
	for _, ct := range componentTypes {
		super := "ActorComponent"
		if ct.Name != "SceneComponent" && ct.Scene {
			super = "SceneComponent"
		}
		reg.Register(engine.TypeInfo{Name: ct.Name, Super: super, Native: true, Scene: ct.Scene})
	}
	for _, info := range structTypes() {
		reg.Register(info)
	}
	for _, info := range interfaceTypes() {
		reg.Register(info)
	}
}

// NewRegistry returns a registry holding the full native catalogue.
func NewRegistry() *engine.TypeRegistry {
	reg := engine.NewTypeRegistry()
	Register(reg)
	return reg
}
