package regen

import (
	"errors"
	"testing"

	"blueprintcore/internal/components"
	"blueprintcore/internal/diag"
	"blueprintcore/internal/engine"
	"blueprintcore/internal/identity"
)

// fakeCompiler builds an empty artifact per call, or fails when err is set.
type fakeCompiler struct {
	err   error
	calls int
	sum   string
}

func (c *fakeCompiler) Compile(def *engine.Definition) (*engine.Artifact, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return engine.NewArtifact("", def), nil
}

type skeletonCompiler struct{ fakeCompiler }

func (c *skeletonCompiler) CompileSkeleton(def *engine.Definition) (*engine.Artifact, error) {
	return engine.NewArtifact("", def), nil
}

type fingerprintCompiler struct{ fakeCompiler }

func (c *fingerprintCompiler) Fingerprint(def *engine.Definition) (string, error) {
	return c.sum, nil
}

func newRegenerator(t *testing.T, c Compiler) (*Regenerator, *diag.Log) {
	t.Helper()
	log := diag.NewLog("test", nil)
	r, err := New(Options{Compiler: c, Types: components.NewRegistry(), Sink: log})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r, log
}

func doorDefinition() *engine.Definition {
	ns := engine.NewNamespace("/Game/Door")
	def := engine.NewDefinition("Door", "Actor")
	ns.Add(def)
	root := engine.NewTemplate("DefaultSceneRoot", engine.KindComponent, "SceneComponent")
	mesh := engine.NewTemplate("Mesh", engine.KindComponent, "ModelRenderer")
	mesh.ParentName = "DefaultSceneRoot"
	handle := engine.NewTemplate("Handle", engine.KindComponent, "ModelRenderer")
	handle.ParentName = "Removed"
	def.NativeComponents = []*engine.SubobjectTemplate{root}
	def.ComponentTemplates = []*engine.SubobjectTemplate{mesh, handle}
	return def
}

func assertOwnedByCurrent(t *testing.T, def *engine.Definition) {
	t.Helper()
	for _, tmpl := range def.AllTemplates() {
		if !tmpl.OwnedBy(def.Generated) {
			t.Errorf("Template %s not owned by the authoritative artifact", tmpl.Name)
		}
	}
}

func TestRegenerateFirstTime(t *testing.T) {
	r, log := newRegenerator(t, &fakeCompiler{})
	def := doorDefinition()

	art, loaded, err := r.Regenerate(def, nil)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	if def.Generated != art || art.Name != "Door_C" {
		t.Errorf("Expected Door_C installed, got %v", def.Generated)
	}
	if def.Namespace.FindByName("Door_C") != art {
		t.Error("Artifact not added to namespace")
	}
	if def.Status != engine.StatusUpToDate {
		t.Errorf("Expected UpToDate, got %s", def.Status)
	}
	assertOwnedByCurrent(t, def)
	if def.ComponentTemplates[1].ParentName != "" {
		t.Error("Dangling parent should be cleared")
	}
	if log.Count(diag.Warning) != 1 {
		t.Errorf("Expected 1 dangling warning, got %v", log.Messages())
	}
	if def.ConstructionScript == nil || art.ConstructionScript != def.ConstructionScript {
		t.Error("Actor definitions should get a construction script")
	}
	if loaded[0] != engine.Object(art) {
		t.Error("First loaded object should be the artifact")
	}
}

func TestRegenerateTransfersFromPrevious(t *testing.T) {
	r, _ := newRegenerator(t, &fakeCompiler{})
	def := doorDefinition()
	first, _, _ := r.Regenerate(def, nil)

	var replaced Replacement
	r.Replaced.AddListener(func(rep Replacement) { replaced = rep })

	second, loaded, err := r.Regenerate(def, first)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	assertOwnedByCurrent(t, def)
	if len(first.Templates) != 0 {
		t.Errorf("Previous artifact should own nothing, owns %d", len(first.Templates))
	}
	if !first.Retired() || first.ReplacedBy != second {
		t.Error("Unpinned previous artifact should be retired")
	}
	if replaced.Old != first || replaced.New != second {
		t.Error("Replaced event not fired with old and new artifacts")
	}
	if def.Namespace.FindByName("Door_C") != second {
		t.Error("Namespace should hold the new artifact")
	}
	if len(loaded) != 1 {
		t.Errorf("Nothing should be adopted on the second pass, got %d objects", len(loaded))
	}
}

func TestRegeneratePinnedPreviousSurvives(t *testing.T) {
	r, _ := newRegenerator(t, &fakeCompiler{})
	def := doorDefinition()
	first, _, _ := r.Regenerate(def, nil)
	first.Pin()

	r.Regenerate(def, first)

	if first.Retired() {
		t.Error("Pinned artifact should wait for its last Unpin")
	}
	first.Unpin()
	if !first.Retired() {
		t.Error("Artifact should retire on last Unpin")
	}
}

func TestRegenerateCompileFailure(t *testing.T) {
	c := &fakeCompiler{}
	r, log := newRegenerator(t, c)
	def := doorDefinition()
	first, _, _ := r.Regenerate(def, nil)

	c.err = errors.New("node Foo does not resolve")
	art, loaded, err := r.Regenerate(def, first)

	if !errors.Is(err, diag.ErrRegenerationFailed) {
		t.Fatalf("Expected ErrRegenerationFailed, got %v", err)
	}
	if art != first || def.Generated != first || loaded != nil {
		t.Error("Previous artifact should stay authoritative")
	}
	if def.Status != engine.StatusError {
		t.Errorf("Expected Error, got %s", def.Status)
	}
	assertOwnedByCurrent(t, def)
	if log.Count(diag.Failure) != 1 {
		t.Errorf("Expected 1 failure message, got %d", log.Count(diag.Failure))
	}
}

func TestRegenerateAdoptsLegacyTemplates(t *testing.T) {
	r, log := newRegenerator(t, &fakeCompiler{})
	def := doorDefinition()
	def.ComponentTemplates = def.ComponentTemplates[:1]
	for _, tmpl := range def.AllTemplates() {
		tmpl.SetOwner(def)
	}
	swing := engine.NewTemplate("Swing", engine.KindTimeline, "Timeline")
	swing.SetOwner(def)
	def.Timelines = []*engine.SubobjectTemplate{swing}

	_, loaded, err := r.Regenerate(def, nil)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	assertOwnedByCurrent(t, def)
	if swing.Name != "Swing_Template" {
		t.Errorf("Expected 'Swing_Template', got '%s'", swing.Name)
	}
	if len(loaded) != 4 {
		t.Errorf("Expected artifact plus 3 adopted templates, got %d", len(loaded))
	}
	if log.Count(diag.Warning) != 1 {
		t.Errorf("Expected the re-save warning, got %v", log.Messages())
	}
}

func TestRegenerateDirtyMigrated(t *testing.T) {
	r, err := New(Options{Compiler: &fakeCompiler{}, Types: components.NewRegistry(), DirtyMigrated: true})
	if err != nil {
		t.Fatal(err)
	}
	def := doorDefinition()
	def.NativeComponents[0].SetOwner(def)

	r.Regenerate(def, nil)

	if !def.Namespace.Dirty {
		t.Error("Namespace should be dirty after a migration")
	}
}

func TestRegenerateSkeleton(t *testing.T) {
	r, _ := newRegenerator(t, &skeletonCompiler{})
	def := doorDefinition()

	_, loaded, err := r.Regenerate(def, nil)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	if def.Skeleton == nil || def.Skeleton.Name != "SKEL_Door_C" || !def.Skeleton.Skeleton {
		t.Fatalf("Expected SKEL_Door_C skeleton, got %v", def.Skeleton)
	}
	if len(def.Skeleton.Templates) != 0 {
		t.Error("Skeleton must not own templates")
	}
	if len(loaded) < 2 || loaded[1] != engine.Object(def.Skeleton) {
		t.Error("Skeleton should follow the artifact in the loaded objects")
	}

	old := def.Skeleton
	r.Regenerate(def, def.Generated)
	if !old.Retired() || def.Namespace.FindByName("SKEL_Door_C") != def.Skeleton {
		t.Error("Old skeleton should be replaced")
	}
}

func TestRegenerateIfNeeded(t *testing.T) {
	c := &fingerprintCompiler{}
	c.sum = "abc"
	r, _ := newRegenerator(t, c)
	def := doorDefinition()

	_, did, err := r.RegenerateIfNeeded(def)
	if err != nil || !did {
		t.Fatalf("First call should regenerate, got %v %v", did, err)
	}
	if def.Generated.Fingerprint != "abc" {
		t.Errorf("Expected fingerprint 'abc', got '%s'", def.Generated.Fingerprint)
	}

	_, did, _ = r.RegenerateIfNeeded(def)
	if did || c.calls != 1 {
		t.Errorf("Unchanged definition should be skipped, compiled %d times", c.calls)
	}

	c.sum = "def"
	_, did, _ = r.RegenerateIfNeeded(def)
	if !did || c.calls != 2 {
		t.Error("Changed fingerprint should regenerate")
	}
}

func TestRegenerateInstallCollision(t *testing.T) {
	r, _ := newRegenerator(t, &fakeCompiler{})
	def := doorDefinition()
	def.Namespace.Add(engine.NewDefinition("Door_C", "Actor"))

	_, _, err := r.Regenerate(def, nil)
	if !errors.Is(err, diag.ErrRegenerationFailed) {
		t.Errorf("Expected ErrRegenerationFailed, got %v", err)
	}
	if def.Generated != nil {
		t.Error("Nothing should be installed")
	}
}

func TestRegenerateRetryAfterFailedInstall(t *testing.T) {
	r, _ := newRegenerator(t, &fakeCompiler{})
	def := doorDefinition()
	for _, tmpl := range def.AllTemplates() {
		tmpl.SetOwner(def)
	}
	swing := engine.NewTemplate("Swing", engine.KindTimeline, "Timeline")
	swing.SetOwner(def)
	def.Timelines = []*engine.SubobjectTemplate{swing}
	curve := engine.NewTemplate("DoorCurve", engine.KindCurve, "CurveFloat")
	curve.SetOwner(def)
	def.Curves = []*engine.SubobjectTemplate{curve}
	handle := def.FindTemplateByName("Handle")

	blocker := engine.NewDefinition("Door_C", "Actor")
	def.Namespace.Add(blocker)
	if _, _, err := r.Regenerate(def, nil); err == nil {
		t.Fatal("Expected the install collision to fail")
	}

	for _, tmpl := range def.AllTemplates() {
		if !tmpl.OwnedBy(def) {
			t.Errorf("Expected %s to be owned by the definition again, got %v", tmpl.Name, tmpl.Owner())
		}
	}
	if swing.Name != "Swing" || curve.Name != "DoorCurve" {
		t.Errorf("Expected names to be restored, got %s and %s", swing.Name, curve.Name)
	}
	if handle.ParentName != "Removed" {
		t.Errorf("Expected parent 'Removed' to be restored, got '%s'", handle.ParentName)
	}
	if def.ConstructionScript != nil {
		t.Error("Expected no construction script after the failed attempt")
	}

	def.Namespace.Remove(blocker)
	if _, _, err := r.Regenerate(def, nil); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	assertOwnedByCurrent(t, def)
	if swing.Name != "Swing_Template" {
		t.Errorf("Expected 'Swing_Template', got '%s'", swing.Name)
	}
	if def.Status != engine.StatusUpToDate {
		t.Errorf("Expected UpToDate, got %s", def.Status)
	}
}

func TestRegenerateValidationFailureKeepsPrevious(t *testing.T) {
	r, _ := newRegenerator(t, &fakeCompiler{})
	def := doorDefinition()
	first, _, err := r.Regenerate(def, nil)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	duplicate := engine.NewTemplate("Mesh", engine.KindComponent, "ModelRenderer")
	def.ComponentTemplates = append(def.ComponentTemplates, duplicate)
	if _, _, err := r.Regenerate(def, first); !errors.Is(err, diag.ErrRegenerationFailed) {
		t.Fatalf("Expected ErrRegenerationFailed, got %v", err)
	}

	if def.Generated != first || first.Retired() {
		t.Error("Previous artifact should stay authoritative")
	}
	for _, name := range []string{"DefaultSceneRoot", "Mesh", "Handle"} {
		if tmpl := first.FindTemplate(name); tmpl == nil || !tmpl.OwnedBy(first) {
			t.Errorf("Expected %s to stay with the previous artifact", name)
		}
	}
	if duplicate.Owner() != nil {
		t.Errorf("Expected the rejected template to stay unowned, got %v", duplicate.Owner())
	}
	if first.ConstructionScript == nil || first.ConstructionScript.Owner() != engine.Owner(first) {
		t.Error("Expected the construction script to stay with the previous artifact")
	}
}

func TestRegenerateIfNeededRepairsOwnership(t *testing.T) {
	c := &fingerprintCompiler{}
	c.sum = "abc"
	r, _ := newRegenerator(t, c)
	def := doorDefinition()
	if _, _, err := r.RegenerateIfNeeded(def); err != nil {
		t.Fatalf("RegenerateIfNeeded failed: %v", err)
	}

	lamp := engine.NewTemplate("Lamp", engine.KindComponent, "PointLight")
	def.ComponentTemplates = append(def.ComponentTemplates, lamp)
	_, did, err := r.RegenerateIfNeeded(def)
	if err != nil || !did {
		t.Fatalf("Expected an unowned template to force regeneration, got %v %v", did, err)
	}
	if c.calls != 2 {
		t.Errorf("Expected 2 compiles, got %d", c.calls)
	}
	assertOwnedByCurrent(t, def)
}

func TestRegenerateKeepsVersionError(t *testing.T) {
	r, _ := newRegenerator(t, &fakeCompiler{})
	def := doorDefinition()
	def.SystemVersion = 1
	def.Status = engine.StatusError

	if _, _, err := r.Regenerate(def, nil); err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	if def.Status != engine.StatusError {
		t.Error("A failed version check keeps Error status")
	}
}

func TestRenameKeepsIdentity(t *testing.T) {
	r, _ := newRegenerator(t, &skeletonCompiler{})
	def := doorDefinition()
	id := identity.Assign(def)
	r.Regenerate(def, nil)

	if err := r.Rename(def, "Gate", nil, 0); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	ns := def.Namespace
	if def.Name != "Gate" || ns.FindByName("Gate") != def {
		t.Error("Definition not renamed")
	}
	if ns.FindByName("Gate_C") != def.Generated || ns.FindByName("SKEL_Gate_C") != def.Skeleton {
		t.Error("Artifacts not renamed")
	}
	if ns.FindByName("Door_C") != nil || ns.FindByName("SKEL_Door_C") != nil {
		t.Error("Old artifact names still taken")
	}
	if def.ID != id {
		t.Error("Identifier changed on rename")
	}
	if identity.Assign(def) != id {
		t.Error("Assign after rename must keep the original identifier")
	}
	assertOwnedByCurrent(t, def)
}

func TestRenameCollisionChangesNothing(t *testing.T) {
	r, _ := newRegenerator(t, &fakeCompiler{})
	def := doorDefinition()
	r.Regenerate(def, nil)
	ns := def.Namespace
	ns.Add(engine.NewArtifact("Gate_C", nil))
	art := def.Generated

	err := r.Rename(def, "Gate", nil, 0)
	if !errors.Is(err, diag.ErrRenameCollision) {
		t.Fatalf("Expected ErrRenameCollision, got %v", err)
	}
	if def.Name != "Door" || art.Name != "Door_C" || ns.FindByName("Door") != def {
		t.Error("Failed rename must leave everything in place")
	}
}

func TestRenameTestAndDoNotDirty(t *testing.T) {
	c := &fakeCompiler{}
	r, _ := newRegenerator(t, c)
	def := doorDefinition()
	r.Regenerate(def, nil)

	if err := r.Rename(def, "Gate", nil, RenameTest); err != nil {
		t.Fatalf("Test rename failed: %v", err)
	}
	if def.Name != "Door" {
		t.Error("RenameTest must not rename")
	}

	dest := engine.NewNamespace("/Game/Gate")
	if err := r.Rename(def, "Gate", dest, RenameDoNotDirty); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if def.Namespace != dest || def.Generated.Namespace != dest || def.Generated.Name != "Gate_C" {
		t.Error("Definition and artifact should move to the destination")
	}
	if dest.Dirty {
		t.Error("RenameDoNotDirty must not dirty the namespace")
	}
	if c.calls != 1 {
		t.Errorf("RenameDoNotDirty must not regenerate, compiled %d times", c.calls)
	}
}

func TestHierarchy(t *testing.T) {
	ns := engine.NewNamespace("/Game/Doors")
	base := engine.NewDefinition("BaseDoor", "Actor")
	mid := engine.NewDefinition("MidDoor", "BaseDoor")
	ns.Add(base)
	ns.Add(mid)
	def := engine.NewDefinition("Door", "MidDoor")

	chain, ok := Hierarchy(def, engine.Namespaces{ns})
	if !ok || len(chain) != 3 || chain[1] != mid || chain[2] != base {
		t.Fatalf("Expected [Door MidDoor BaseDoor], got %d entries ok=%v", len(chain), ok)
	}

	base.Status = engine.StatusError
	if _, ok := Hierarchy(def, engine.Namespaces{ns}); ok {
		t.Error("An ancestor in Error status should be reported")
	}
}
