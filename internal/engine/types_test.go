package engine

import "testing"

func testRegistry() *TypeRegistry {
	reg := NewTypeRegistry()
	reg.Register(TypeInfo{Name: "Object", Native: true, Functions: []string{"BeginDestroy"}})
	reg.Register(TypeInfo{Name: "Actor", Super: "Object", Native: true, Actor: true,
		Functions:  []string{"BeginPlay", "Tick"},
		Components: []*SubobjectTemplate{NewTemplate("DefaultSceneRoot", KindComponent, "SceneComponent")},
	})
	reg.Register(TypeInfo{Name: "Pawn", Super: "Actor", Native: true,
		Components: []*SubobjectTemplate{NewTemplate("Camera", KindComponent, "Camera")},
	})
	return reg
}

func TestRegisterTypeDuplicate(t *testing.T) {
	reg := NewTypeRegistry()
	reg.Register(TypeInfo{Name: "Duplicate"})

	// Should panic on duplicate registration
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic on duplicate registration")
		}
	}()

	reg.Register(TypeInfo{Name: "Duplicate"})
}

func TestTypeRegistryIsChildOf(t *testing.T) {
	reg := testRegistry()

	if !reg.IsChildOf("Pawn", "Object") {
		t.Error("Pawn should derive from Object")
	}
	if !reg.IsChildOf("Pawn", "Pawn") {
		t.Error("A type is a child of itself")
	}
	if reg.IsChildOf("Actor", "Pawn") {
		t.Error("Actor should not derive from Pawn")
	}
	if !reg.IsActor("Pawn") {
		t.Error("Pawn should be an actor type")
	}
	if reg.IsActor("Object") {
		t.Error("Object should not be an actor type")
	}
}

func TestTypeRegistryChainCycle(t *testing.T) {
	reg := NewTypeRegistry()
	reg.Register(TypeInfo{Name: "A", Super: "B"})
	reg.Register(TypeInfo{Name: "B", Super: "A"})

	if chain := reg.Chain("A"); len(chain) != 2 {
		t.Errorf("Expected chain of 2, got %d", len(chain))
	}
}

func TestTypeRegistryHasFunction(t *testing.T) {
	reg := testRegistry()

	if !reg.HasFunction("Pawn", "BeginPlay") {
		t.Error("Pawn should inherit BeginPlay")
	}
	if reg.HasFunction("Object", "Tick") {
		t.Error("Object should not have Tick")
	}
}

func TestTypeRegistryNativeLayout(t *testing.T) {
	reg := testRegistry()

	layout := reg.NativeLayout("Pawn")
	if len(layout) != 2 {
		t.Fatalf("Expected 2 native components, got %d", len(layout))
	}
	if layout[0].Name != "DefaultSceneRoot" || layout[1].Name != "Camera" {
		t.Errorf("Expected supertype components first, got %s, %s", layout[0].Name, layout[1].Name)
	}

	// copies, not the registered prototypes
	info, _ := reg.Lookup("Actor")
	if layout[0] == info.Components[0] {
		t.Error("NativeLayout should return copies")
	}
}

func TestTypeRegistryNames(t *testing.T) {
	names := testRegistry().Names()
	if len(names) != 3 || names[0] != "Actor" || names[2] != "Pawn" {
		t.Errorf("Expected sorted names, got %v", names)
	}
}

type mapLoader map[string]*Definition

func (m mapLoader) LoadDefinition(name string) (*Definition, error) {
	return m[name], nil
}

func TestNativeAncestorThroughDefinitions(t *testing.T) {
	reg := testRegistry()
	base := NewDefinition("BaseDoor", "Pawn")
	door := NewDefinition("Door", "BaseDoor")
	loader := mapLoader{"BaseDoor": base}

	if got := reg.NativeAncestor(door, loader); got != "Pawn" {
		t.Errorf("Expected native ancestor Pawn, got %q", got)
	}
	if !reg.SupportsConstructionScript(door, loader) {
		t.Error("Door derives from an actor and should support a construction script")
	}

	door.Type = TypeInterface
	if reg.SupportsConstructionScript(door, loader) {
		t.Error("Interface definitions never get a construction script")
	}

	orphan := NewDefinition("Orphan", "Missing")
	if got := reg.NativeAncestor(orphan, loader); got != "" {
		t.Errorf("Expected no native ancestor for a broken chain, got %q", got)
	}

	loop := mapLoader{"A": NewDefinition("A", "B"), "B": NewDefinition("B", "A")}
	if got := reg.NativeAncestor(loop["A"], loop); got != "" {
		t.Errorf("Expected no native ancestor for a cycle, got %q", got)
	}

	obj := NewDefinition("Data", "Object")
	if reg.SupportsConstructionScript(obj, nil) {
		t.Error("Object-derived definitions should not support a construction script")
	}
}
