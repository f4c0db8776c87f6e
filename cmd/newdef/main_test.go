package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"blueprintcore/internal/asset"
	"blueprintcore/internal/engine"
	"blueprintcore/internal/version"
)

func TestNewDefCreatesPackage(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	if err := run([]string{"Door", "--out", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "✅ Created") {
		t.Errorf("Expected creation message, got %q", stdout.String())
	}

	ns, err := asset.ReadFile(filepath.Join(dir, "Door.bpkg"), nil)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if ns.Path != "/Game/Door" {
		t.Errorf("Expected namespace /Game/Door, got %s", ns.Path)
	}
	def := ns.FindDefinition("Door")
	if def == nil {
		t.Fatal("Expected a Door definition")
	}
	if def.SchemaVersion != version.Latest {
		t.Errorf("Expected schema %d, got %d", version.Latest, def.SchemaVersion)
	}
	if !def.ID.IsValid() {
		t.Error("Expected a valid identifier")
	}
	if len(def.UbergraphPages) != 1 || def.UbergraphPages[0].Name != "EventGraph" {
		t.Errorf("Expected one EventGraph page, got %d pages", len(def.UbergraphPages))
	}
	if len(def.NativeComponents) == 0 {
		t.Error("Expected the Actor native layout")
	}
	for _, c := range def.NativeComponents {
		if !c.OwnedBy(def) {
			t.Errorf("Expected %s to be owned by Door", c.Name)
		}
	}
}

func TestNewDefRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	if err := run([]string{"Door", "--out", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := run([]string{"Door", "--out", dir}, &stdout, &stderr); err == nil {
		t.Error("Expected error when the package already exists")
	}
}

func TestNewDefRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	cases := [][]string{
		{"door", "--out", dir},
		{"Door", "--out", dir, "--parent", "NoSuchType"},
		{"Door", "--out", dir, "--compression", "gzip"},
		{"--out", dir},
	}
	for _, args := range cases {
		var stdout, stderr bytes.Buffer
		if err := run(args, &stdout, &stderr); err == nil {
			t.Errorf("Expected error for %v", args)
		}
	}
}

func TestNewPackageInterfaceHasNoEventGraph(t *testing.T) {
	ns, err := newPackage("Openable", "Object", engine.TypeInterface, "/Game/Openable")
	if err != nil {
		t.Fatalf("newPackage failed: %v", err)
	}
	def := ns.FindDefinition("Openable")
	if len(def.UbergraphPages) != 0 {
		t.Errorf("Expected no event graph for an interface, got %d", len(def.UbergraphPages))
	}
	if def.ConstructionScript != nil {
		t.Error("Expected no construction script for an interface")
	}
}
