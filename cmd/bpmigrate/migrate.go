package main

import (
	"context"
	"fmt"
	"path/filepath"

	"blueprintcore/internal/workspace"
)

func runMigrate(ctx context.Context, e env, args []string) error {
	var outDir string
	fs := subcommandFlags("migrate")
	fs.StringVar(&outDir, "out", "", "write migrated packages here instead of in place")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("migrate: no packages given")
	}

	ws, err := e.workspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	fmt.Fprintln(e.out, "🔧 Migrating packages...")
	migrated, failed := 0, 0
	for _, file := range fs.Args() {
		pkg, err := ws.Process(ctx, file)
		if pkg == nil {
			fmt.Fprintf(e.out, "   ✗ %s: %v\n", filepath.Base(file), err)
			failed++
			continue
		}
		for _, res := range pkg.Results {
			if res.Err != nil {
				fmt.Fprintf(e.out, "   ✗ %s: %v\n", res.Definition, res.Err)
				failed++
				continue
			}
			fmt.Fprintf(e.out, "   ✓ %s%s\n", res.Definition, describe(res))
			migrated++
		}

		target := file
		if outDir != "" {
			target = filepath.Join(outDir, filepath.Base(file))
		} else if !needsSave(pkg) {
			continue
		}
		if err := ws.Save(ctx, pkg, target); err != nil {
			return err
		}
	}

	fmt.Fprintf(e.out, "✅ Migrated %d definition(s)", migrated)
	if failed > 0 {
		fmt.Fprintf(e.out, ", %d failed\n", failed)
		return fmt.Errorf("%d definition(s) failed", failed)
	}
	fmt.Fprintln(e.out)
	return nil
}

func needsSave(pkg *workspace.Package) bool {
	if pkg.Namespace.Dirty {
		return true
	}
	for _, res := range pkg.Results {
		if res.Regenerated || (res.Migration != nil && res.Migration.Changed()) {
			return true
		}
	}
	return false
}

func describe(res *workspace.Result) string {
	s := ""
	if m := res.Migration; m != nil && m.FromVersion != m.ToVersion {
		s += fmt.Sprintf(" (schema %d → %d)", m.FromVersion, m.ToVersion)
	}
	if !res.Regenerated {
		s += " (cached)"
	}
	return s
}
