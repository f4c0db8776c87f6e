package ownership

import (
	"testing"

	"blueprintcore/internal/components"
	"blueprintcore/internal/engine"
)

func scene(name, parent string) *engine.SubobjectTemplate {
	t := engine.NewTemplate(name, engine.KindComponent, "SceneComponent")
	t.ParentName = parent
	return t
}

func TestRepairFollowsNativeReparent(t *testing.T) {
	old := []*engine.SubobjectTemplate{scene("A", ""), scene("B", "A")}
	current := []*engine.SubobjectTemplate{scene("A", ""), scene("B", "")}

	res := Repair(old, current, nil)

	if old[1].ParentName != "" {
		t.Errorf("Expected B parent cleared, got '%s'", old[1].ParentName)
	}
	if len(res.Reparented) != 1 || res.Reparented[0] != "B" {
		t.Errorf("Expected [B] reparented, got %v", res.Reparented)
	}
}

func TestRepairAdoptsNewNativeParent(t *testing.T) {
	old := []*engine.SubobjectTemplate{scene("Root", ""), scene("Capsule", ""), scene("Mesh", "Root")}
	current := []*engine.SubobjectTemplate{scene("Root", ""), scene("Capsule", ""), scene("Mesh", "Capsule")}

	Repair(old, current, nil)

	if old[2].ParentName != "Capsule" {
		t.Errorf("Expected Mesh parent 'Capsule', got '%s'", old[2].ParentName)
	}
}

func TestRepairDanglingWhenParentMissingFromOld(t *testing.T) {
	old := []*engine.SubobjectTemplate{scene("Mesh", "")}
	current := []*engine.SubobjectTemplate{scene("Capsule", ""), scene("Mesh", "Capsule")}

	res := Repair(old, current, nil)

	if old[0].ParentName != "" {
		t.Errorf("Expected no parent, got '%s'", old[0].ParentName)
	}
	if len(res.Dangling) != 1 || res.Dangling[0] != "Mesh" {
		t.Errorf("Expected [Mesh] dangling, got %v", res.Dangling)
	}
}

func TestRepairOrphansUntouched(t *testing.T) {
	orphan := scene("OldLight", "A")
	old := []*engine.SubobjectTemplate{scene("A", ""), orphan}
	current := []*engine.SubobjectTemplate{scene("A", "")}

	res := Repair(old, current, nil)

	if orphan.ParentName != "A" {
		t.Error("Orphan should not be modified")
	}
	if len(res.Orphaned) != 1 || res.Orphaned[0] != "OldLight" {
		t.Errorf("Expected [OldLight] orphaned, got %v", res.Orphaned)
	}
	if res.Changed() {
		t.Error("Nothing should be reported as changed")
	}
}

func TestRepairSkipsNonSceneComponents(t *testing.T) {
	reg := components.NewRegistry()
	body := engine.NewTemplate("Body", engine.KindComponent, "Rigidbody")
	body.ParentName = "A"
	old := []*engine.SubobjectTemplate{scene("A", ""), body}
	current := []*engine.SubobjectTemplate{scene("A", ""), engine.NewTemplate("Body", engine.KindComponent, "Rigidbody")}

	res := Repair(old, current, reg)

	if body.ParentName != "A" {
		t.Error("Non-scene template should be skipped")
	}
	if res.Changed() {
		t.Error("Expected no changes")
	}
}

func TestRepairIdempotent(t *testing.T) {
	old := []*engine.SubobjectTemplate{scene("A", ""), scene("B", "A")}
	current := []*engine.SubobjectTemplate{scene("A", ""), scene("B", "")}

	Repair(old, current, nil)
	res := Repair(old, current, nil)

	if res.Changed() {
		t.Errorf("Second repair should change nothing, got %+v", res)
	}
}
