package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"blueprintcore/internal/engine"
	"blueprintcore/internal/workspace"
)

func runRename(ctx context.Context, e env, args []string) error {
	var destPath string
	var dryRun bool
	fs := subcommandFlags("rename")
	fs.StringVar(&destPath, "dest", "", "namespace path to move the definition into")
	fs.BoolVar(&dryRun, "dry-run", false, "only check that the rename would succeed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("rename: want <pkg> <definition> <new-name>")
	}
	file, name, newName := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	ws, err := e.workspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	pkg, err := ws.Process(ctx, file)
	if pkg == nil {
		return err
	}
	def := pkg.Namespace.FindDefinition(name)
	if def == nil {
		return fmt.Errorf("rename: %s has no definition %q", file, name)
	}

	var dest *workspace.Package
	if destPath != "" && destPath != pkg.Namespace.Path {
		dest = ws.Package(destPath)
		if dest == nil {
			destFile := filepath.Join(filepath.Dir(file), packageFileName(destPath))
			if dest, err = ws.Add(ctx, engine.NewNamespace(destPath), destFile); err != nil {
				return err
			}
		}
	}
	var destNS *engine.Namespace
	if dest != nil {
		destNS = dest.Namespace
	}

	oldPath := def.PathName()
	if err := ws.Rename(ctx, def, newName, destNS, dryRun); err != nil {
		fmt.Fprintf(e.out, "   ✗ %s: %v\n", oldPath, err)
		return err
	}
	if dryRun {
		fmt.Fprintf(e.out, "   ✓ %s can be renamed to %s\n", oldPath, newName)
		return nil
	}

	if err := ws.Save(ctx, pkg, ""); err != nil {
		return err
	}
	if dest != nil {
		if err := ws.Save(ctx, dest, ""); err != nil {
			return err
		}
	}
	fmt.Fprintf(e.out, "   ✓ %s → %s\n", oldPath, def.PathName())
	return nil
}

// packageFileName maps a namespace path such as /Game/Doors to Doors.bpkg.
func packageFileName(path string) string {
	base := path[strings.LastIndex(path, "/")+1:]
	if base == "" {
		base = "package"
	}
	return base + ".bpkg"
}
