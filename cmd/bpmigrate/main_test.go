package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"

	"blueprintcore/internal/asset"
	"blueprintcore/internal/config"
	"blueprintcore/internal/engine"
	"blueprintcore/internal/version"
)

func writeLegacyPackage(t *testing.T, dir string) string {
	t.Helper()
	ns := engine.NewNamespace("/Game/Doors")
	def := engine.NewDefinition("Door", "Actor")
	def.SchemaVersion = version.SkeletonTransient
	def.Variables = []*engine.Variable{engine.NewVariable("Speed", engine.PinType{Category: engine.PinFloat})}
	ns.Add(def)

	file := filepath.Join(dir, "Doors.bpkg")
	if err := asset.WriteFile(file, ns, asset.CompressionNone); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return file
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRunUnknownCommand(t *testing.T) {
	if _, err := runCLI(t, "frobnicate"); err == nil {
		t.Error("Expected error for unknown command")
	}
	if _, err := runCLI(t); err == nil {
		t.Error("Expected error when no command is given")
	}
	if _, err := runCLI(t, "--help"); err != nil {
		t.Errorf("Expected --help to succeed, got %v", err)
	}
}

func TestMigrateInPlace(t *testing.T) {
	file := writeLegacyPackage(t, t.TempDir())

	out, err := runCLI(t, "migrate", file)
	if err != nil {
		t.Fatalf("migrate failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ /Game/Doors.Door") {
		t.Errorf("Expected success line for Door, got:\n%s", out)
	}
	if !strings.Contains(out, "✅ Migrated 1 definition(s)") {
		t.Errorf("Expected summary line, got:\n%s", out)
	}

	ns, err := asset.ReadFile(file, nil)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	def := ns.FindDefinition("Door")
	if def.SchemaVersion != version.Latest {
		t.Errorf("Expected schema %d after migrate, got %d", version.Latest, def.SchemaVersion)
	}
	if def.Generated == nil {
		t.Error("Expected the generated class to be saved")
	}

	// A second run has nothing to migrate or regenerate.
	out, err = runCLI(t, "migrate", file)
	if err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
	if !strings.Contains(out, "(cached)") {
		t.Errorf("Expected the second run to be cached, got:\n%s", out)
	}
}

func TestMigrateToOutDir(t *testing.T) {
	file := writeLegacyPackage(t, t.TempDir())
	outDir := t.TempDir()

	if _, err := runCLI(t, "migrate", file, "--out", outDir); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "Doors.bpkg")); err != nil {
		t.Errorf("Expected migrated package in out dir: %v", err)
	}
}

func TestInspect(t *testing.T) {
	file := writeLegacyPackage(t, t.TempDir())

	out, err := runCLI(t, "inspect", file)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"package /Game/Doors", "/Game/Doors.Door", "schema:  3", "ParentClass:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestInspectPrintsWorldPositions(t *testing.T) {
	ns := engine.NewNamespace("/Game/Doors")
	def := engine.NewDefinition("Door", "Actor")
	art := engine.NewArtifact(def.GeneratedClassName(), def)
	def.Generated = art

	root := engine.NewTemplate("Frame", engine.KindComponent, "SceneComponent")
	root.Transform.Position = rl.Vector3{X: 5}
	hinge := engine.NewTemplate("Hinge", engine.KindComponent, "SceneComponent")
	hinge.ParentName = "Frame"
	hinge.Transform.Position = rl.Vector3{X: 1, Z: 2}
	def.ComponentTemplates = []*engine.SubobjectTemplate{root, hinge}
	art.AddTemplate(root)
	art.AddTemplate(hinge)
	ns.Add(def)
	ns.Add(art)

	file := filepath.Join(t.TempDir(), "Doors.bpkg")
	if err := asset.WriteFile(file, ns, asset.CompressionNone); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	out, err := runCLI(t, "inspect", file)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(out, "Hinge (SceneComponent) owned by /Game/Doors.Door_C under Frame at (6, 0, 2)") {
		t.Errorf("Expected Hinge world position (6, 0, 2), got:\n%s", out)
	}
}

func TestRename(t *testing.T) {
	file := writeLegacyPackage(t, t.TempDir())

	out, err := runCLI(t, "rename", file, "Door", "Gate", "--dry-run")
	if err != nil {
		t.Fatalf("dry-run rename failed: %v", err)
	}
	if !strings.Contains(out, "can be renamed") {
		t.Errorf("Expected dry-run message, got:\n%s", out)
	}

	if _, err := runCLI(t, "rename", file, "Door", "Gate"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	ns, err := asset.ReadFile(file, nil)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if ns.FindDefinition("Gate") == nil || ns.FindDefinition("Door") != nil {
		t.Error("Expected Door to be saved as Gate")
	}
	if ns.FindByName("Gate_C") == nil {
		t.Error("Expected the generated class to follow the rename")
	}

	if _, err := runCLI(t, "rename", file, "Missing", "Other"); err == nil {
		t.Error("Expected error renaming a missing definition")
	}
}

func TestRenameIntoNewPackage(t *testing.T) {
	dir := t.TempDir()
	file := writeLegacyPackage(t, dir)

	if _, err := runCLI(t, "rename", file, "Door", "Door", "--dest", "/Game/Gates"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	ns, err := asset.ReadFile(filepath.Join(dir, "Gates.bpkg"), nil)
	if err != nil {
		t.Fatalf("ReadFile of destination failed: %v", err)
	}
	if ns.Path != "/Game/Gates" || ns.FindDefinition("Door") == nil {
		t.Errorf("Expected Door in /Game/Gates, got path %s", ns.Path)
	}
}

func TestGenWritesAndCaches(t *testing.T) {
	file := writeLegacyPackage(t, t.TempDir())
	outDir := t.TempDir()

	out, err := runCLI(t, "gen", file, "--out", outDir)
	if err != nil {
		t.Fatalf("gen failed: %v\n%s", err, out)
	}
	src, err := os.ReadFile(filepath.Join(outDir, "Door_C.go"))
	if err != nil {
		t.Fatalf("Expected Door_C.go: %v", err)
	}
	if !strings.Contains(string(src), "type Door_C struct") {
		t.Errorf("Expected generated struct, got:\n%s", src)
	}

	out, err = runCLI(t, "gen", file, "--out", outDir)
	if err != nil {
		t.Fatalf("second gen failed: %v", err)
	}
	if !strings.Contains(out, "skipped 1 (cached)") {
		t.Errorf("Expected cached output, got:\n%s", out)
	}

	if _, err := runCLI(t, "gen", file); err == nil {
		t.Error("Expected error without --out")
	}
}

func TestGenAfterMigrate(t *testing.T) {
	file := writeLegacyPackage(t, t.TempDir())
	outDir := t.TempDir()

	if _, err := runCLI(t, "migrate", file); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	out, err := runCLI(t, "gen", file, "--out", outDir)
	if err != nil {
		t.Fatalf("gen after migrate failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "Door_C.go")); err != nil {
		t.Errorf("Expected Door_C.go after migrate: %v", err)
	}
}

func TestNeedsRegeneration(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "Door_C.go")

	if !needsRegeneration("abc", outputPath) {
		t.Error("Missing output should need regeneration")
	}
	if err := writeSource(outputPath, []byte("package generated\n"), "abc"); err != nil {
		t.Fatalf("writeSource failed: %v", err)
	}
	if needsRegeneration("abc", outputPath) {
		t.Error("Matching hash should not need regeneration")
	}
	if !needsRegeneration("def", outputPath) {
		t.Error("Changed fingerprint should need regeneration")
	}
	os.Remove(outputPath + ".hash")
	if !needsRegeneration("abc", outputPath) {
		t.Error("Missing hash file should need regeneration")
	}
}

func TestPackageFileName(t *testing.T) {
	cases := map[string]string{
		"/Game/Gates": "Gates.bpkg",
		"/":           "package.bpkg",
		"Doors":       "Doors.bpkg",
	}
	for path, want := range cases {
		if got := packageFileName(path); got != want {
			t.Errorf("packageFileName(%q): expected %q, got %q", path, want, got)
		}
	}
}
