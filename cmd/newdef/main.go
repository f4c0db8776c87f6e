// newdef creates a package holding one empty definition at the current
// schema, ready to be edited and migrated.
//
// Usage:
//
//	newdef <Name> [--parent Actor] [--type Normal] [--namespace /Game/Name] [--out dir]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode"

	"github.com/spf13/pflag"

	"blueprintcore/internal/asset"
	"blueprintcore/internal/components"
	"blueprintcore/internal/engine"
	"blueprintcore/internal/identity"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var parent, typeName, namespace, outDir, compression string
	flagSet := pflag.NewFlagSet("newdef", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&parent, "parent", "Actor", "native type the definition derives from")
	flagSet.StringVar(&typeName, "type", engine.TypeNormal.String(), "definition type")
	flagSet.StringVar(&namespace, "namespace", "", "namespace path (default: /Game/<Name>)")
	flagSet.StringVar(&outDir, "out", ".", "directory for the package file")
	flagSet.StringVar(&compression, "compression", asset.CompressionZstd.String(), "payload compression: none, lz4 or zstd")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		fmt.Fprintf(stderr, "Usage: newdef <Name> [flags]\n%s", flagSet.FlagUsages())
		return fmt.Errorf("missing definition name")
	}

	name := flagSet.Arg(0)
	if name == "" || !unicode.IsUpper(rune(name[0])) {
		return fmt.Errorf("definition name must start with an uppercase letter")
	}
	tag, err := asset.ParseCompressionTag(compression)
	if err != nil {
		return err
	}
	if namespace == "" {
		namespace = "/Game/" + name
	}

	outPath := filepath.Join(outDir, name+".bpkg")
	if _, err := os.Stat(outPath); err == nil {
		return fmt.Errorf("%s already exists", outPath)
	}

	ns, err := newPackage(name, parent, engine.ParseDefinitionType(typeName), namespace)
	if err != nil {
		return err
	}
	if err := asset.WriteFile(outPath, ns, tag); err != nil {
		return fmt.Errorf("write package: %w", err)
	}

	def := ns.FindDefinition(name)
	fmt.Fprintf(stdout, "✅ Created %s\n", outPath)
	fmt.Fprintf(stdout, "   %s (%s, parent %s, id %s)\n", def.PathName(), def.Type, def.ParentName, def.ID)
	return nil
}

// newPackage builds a namespace holding a fresh definition of the given
// native parent, with the parent's component layout and an empty event
// graph.
func newPackage(name, parent string, defType engine.DefinitionType, path string) (*engine.Namespace, error) {
	types := components.NewRegistry()
	if _, ok := types.Lookup(parent); !ok {
		return nil, fmt.Errorf("unknown parent type %q", parent)
	}

	ns := engine.NewNamespace(path)
	def := engine.NewDefinition(name, parent)
	def.Type = defType
	if err := ns.Add(def); err != nil {
		return nil, err
	}
	identity.Assign(def)

	for _, t := range types.NativeLayout(parent) {
		t.SetOwner(def)
		def.NativeComponents = append(def.NativeComponents, t)
	}
	if defType != engine.TypeInterface && defType != engine.TypeMacroLibrary && defType != engine.TypeFunctionLibrary {
		def.UbergraphPages = []*engine.Graph{engine.NewGraph("EventGraph")}
	}
	if types.SupportsConstructionScript(def, nil) {
		def.ConstructionScript = engine.NewConstructionScript(def)
	}
	return ns, nil
}
