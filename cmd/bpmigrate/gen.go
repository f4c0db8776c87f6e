package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"blueprintcore/internal/engine"
	"blueprintcore/internal/regen"
)

// runGen writes the generated Go source of every definition. Files whose
// fingerprint matches the cached .hash file are left alone.
func runGen(ctx context.Context, e env, args []string) error {
	var outDir string
	fs := subcommandFlags("gen")
	fs.StringVar(&outDir, "out", "", "directory for generated sources (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if outDir == "" || fs.NArg() == 0 {
		return fmt.Errorf("gen: want <pkg>... --out dir")
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ws, err := e.workspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	fmt.Fprintln(e.out, "🔧 Generating sources...")
	generated, skipped, failed := 0, 0, 0
	for _, file := range fs.Args() {
		pkg, err := ws.Process(ctx, file)
		if pkg == nil {
			fmt.Fprintf(e.out, "   ✗ %s: %v\n", filepath.Base(file), err)
			failed++
			continue
		}
		for _, def := range pkg.Namespace.Definitions() {
			if res := pkg.Result(def.PathName()); res != nil && res.Err != nil {
				fmt.Fprintf(e.out, "   ✗ %s: %v\n", def.Name, res.Err)
				failed++
				continue
			}
			art := def.Generated
			if art == nil {
				fmt.Fprintf(e.out, "   ✗ %s: no generated class\n", def.Name)
				failed++
				continue
			}
			outputPath := filepath.Join(outDir, art.Name+".go")
			if !needsRegeneration(art.Fingerprint, outputPath) {
				skipped++
				continue
			}
			src, err := sourceOf(ws.Compiler(), def, art)
			if err != nil {
				fmt.Fprintf(e.out, "   ✗ %s: %v\n", art.Name, err)
				failed++
				continue
			}
			if err := writeSource(outputPath, src, art.Fingerprint); err != nil {
				fmt.Fprintf(e.out, "   ✗ %s: %v\n", art.Name, err)
				failed++
				continue
			}
			fmt.Fprintf(e.out, "   ✓ %s\n", art.Name)
			generated++
		}
	}

	if skipped > 0 {
		fmt.Fprintf(e.out, "✅ Generated %d, skipped %d (cached) in %s\n", generated, skipped, outDir)
	} else {
		fmt.Fprintf(e.out, "✅ Generated %d source(s) in %s\n", generated, outDir)
	}
	if failed > 0 {
		return fmt.Errorf("%d definition(s) failed", failed)
	}
	return nil
}

// sourceGenerator is implemented by compilers that can render source
// without installing a new artifact.
type sourceGenerator interface {
	Generate(def *engine.Definition) ([]byte, error)
}

// sourceOf returns the artifact's source. Artifacts loaded from disk carry
// no source, so it is rendered again when the compiler supports it.
func sourceOf(c regen.Compiler, def *engine.Definition, art *engine.Artifact) ([]byte, error) {
	if len(art.Source) > 0 {
		return art.Source, nil
	}
	if g, ok := c.(sourceGenerator); ok {
		return g.Generate(def)
	}
	return nil, fmt.Errorf("no generated source")
}

func writeSource(outputPath string, src []byte, fingerprint string) error {
	if err := os.WriteFile(outputPath, src, 0644); err != nil {
		return fmt.Errorf("failed to write source: %w", err)
	}
	if err := os.WriteFile(outputPath+".hash", []byte(fingerprint), 0644); err != nil {
		return fmt.Errorf("failed to write hash: %w", err)
	}
	return nil
}

func needsRegeneration(fingerprint, outputPath string) bool {
	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		return true
	}
	cached, err := os.ReadFile(outputPath + ".hash")
	if err != nil {
		return true
	}
	return string(cached) != fingerprint
}
