package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"blueprintcore/internal/asset"
	"blueprintcore/internal/diag"
	"blueprintcore/internal/engine"
)

// runInspect prints a package as stored, without migrating it.
func runInspect(_ context.Context, e env, args []string) error {
	fs := subcommandFlags("inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("inspect: want exactly one package")
	}
	file := fs.Arg(0)

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read package: %w", err)
	}
	header, err := asset.ReadHeader(data)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	ns, err := asset.Decode(data, diag.Fallback{Logger: e.logger})
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	fmt.Fprintf(e.out, "%s: package %s (file version %d, %s, %d bytes)\n",
		file, ns.Path, header.FileVersion, header.Compression, header.UncompressedSize)
	for _, def := range ns.Definitions() {
		printDefinition(e, def)
	}
	return nil
}

func printDefinition(e env, def *engine.Definition) {
	fmt.Fprintf(e.out, "\n%s\n", def.PathName())
	fmt.Fprintf(e.out, "  id:      %s\n", def.ID)
	fmt.Fprintf(e.out, "  schema:  %d (system %d)\n", def.SchemaVersion, def.SystemVersion)

	tags := def.RegistryTags()
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(e.out, "  %-15s %s\n", name+":", tags[name])
	}

	fmt.Fprintf(e.out, "  variables: %d, graphs: %d\n", len(def.Variables), len(def.AllGraphs()))
	for _, t := range def.AllTemplates() {
		owner := "none"
		if o := t.Owner(); o != nil {
			owner = o.PathName()
		}
		parent := ""
		if t.HasParent() {
			parent = " under " + t.ParentName
		}
		// Only the generated class resolves parents, so legacy templates
		// owned by the definition print without a position.
		at := ""
		if art := def.Generated; art != nil && t.OwnedBy(art) {
			p := art.WorldTransform(t).Position
			at = fmt.Sprintf(" at (%g, %g, %g)", p.X, p.Y, p.Z)
		}
		fmt.Fprintf(e.out, "    %s %s (%s) owned by %s%s%s\n", t.Kind, t.Name, t.Type, owner, parent, at)
	}
}
