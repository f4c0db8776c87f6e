// Package compiler turns definitions into generated artifacts. The Go
// backend emits one Go source file per definition: a struct for the
// generated class with a field per member variable and a method per
// function graph, event and interface function.
package compiler

import (
	"errors"
	"fmt"
	"go/token"
	"slices"

	"blueprintcore/internal/engine"
)

// DefaultPackage is the package clause of generated sources.
const DefaultPackage = "generated"

// GoCompiler compiles definitions to Go source. The zero value is usable.
type GoCompiler struct {
	// Package is the package clause of generated files.
	Package string
}

func (c *GoCompiler) pkg() string {
	if c.Package == "" {
		return DefaultPackage
	}
	return c.Package
}

// Compile builds the authoritative artifact for def. Duplicate or invalid
// member names and nodes carrying errors fail the compile.
func (c *GoCompiler) Compile(def *engine.Definition) (*engine.Artifact, error) {
	cls := describe(def)
	if err := cls.check(def); err != nil {
		return nil, err
	}
	raw := cls.render(c.pkg())
	src, err := format(def.GeneratedClassName()+".go", raw)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", def.Name, err)
	}

	art := engine.NewArtifact(def.GeneratedClassName(), def)
	art.Properties = cls.properties
	art.Functions = cls.functions
	art.Source = src
	art.Fingerprint = fingerprint(raw)
	return art, nil
}

// CompileSkeleton builds the layout-only artifact. It never fails on graph
// errors so dependents can resolve members of a broken definition.
func (c *GoCompiler) CompileSkeleton(def *engine.Definition) (*engine.Artifact, error) {
	cls := describe(def)
	art := engine.NewArtifact(def.SkeletonClassName(), def)
	art.Skeleton = true
	art.Properties = cls.properties
	art.Functions = cls.functions
	return art, nil
}

// Fingerprint hashes the unformatted source def would compile to.
func (c *GoCompiler) Fingerprint(def *engine.Definition) (string, error) {
	return fingerprint(describe(def).render(c.pkg())), nil
}

// Generate returns the formatted source for def without building an
// artifact.
func (c *GoCompiler) Generate(def *engine.Definition) ([]byte, error) {
	art, err := c.Compile(def)
	if err != nil {
		return nil, err
	}
	return art.Source, nil
}

// class is the compiled shape of a definition.
type class struct {
	name       string
	super      string
	path       string
	properties []*engine.Variable
	functions  []engine.FunctionSignature
	nodes      []*engine.Node
}

func describe(def *engine.Definition) *class {
	cls := &class{
		name:  def.GeneratedClassName(),
		super: def.ParentName,
		path:  def.PathName(),
	}
	for _, v := range def.Variables {
		if v == nil {
			continue
		}
		cp := *v
		cls.properties = append(cls.properties, &cp)
	}

	for _, g := range def.FunctionGraphs {
		if g != nil {
			cls.functions = append(cls.functions, engine.FunctionSignature{Name: g.Name})
		}
	}
	for _, iface := range def.Interfaces {
		if iface == nil {
			continue
		}
		for _, g := range iface.Graphs {
			if g != nil {
				cls.functions = append(cls.functions, engine.FunctionSignature{Name: g.Name})
			}
		}
	}
	for _, page := range def.UbergraphPages {
		for _, g := range page.AppendAll(nil) {
			for _, n := range g.Nodes {
				if n != nil && n.Kind == engine.NodeEvent && n.MemberName != "" {
					cls.functions = append(cls.functions, engine.FunctionSignature{Name: n.MemberName, Event: true})
				}
			}
		}
	}

	for _, g := range def.AllGraphs() {
		for _, n := range g.Nodes {
			if n != nil {
				cls.nodes = append(cls.nodes, n)
			}
		}
	}
	return cls
}

func (cls *class) check(def *engine.Definition) error {
	var errs []error
	seen := map[string]string{}
	claim := func(name, what string) {
		if !token.IsIdentifier(name) || !token.IsExported(name) {
			errs = append(errs, fmt.Errorf("%s %q is not a valid exported identifier", what, name))
			return
		}
		if prev, ok := seen[name]; ok {
			errs = append(errs, fmt.Errorf("%s %q collides with %s", what, name, prev))
			return
		}
		seen[name] = what
	}

	// String is generated on every class.
	seen["String"] = "generated method"
	for _, v := range cls.properties {
		claim(v.Name, "variable")
	}
	for _, f := range cls.functions {
		claim(f.Name, "function")
	}
	for _, n := range cls.nodes {
		if n.Error != "" {
			errs = append(errs, fmt.Errorf("node %s: %s", n.ID, n.Error))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("compile %s: %w", def.Name, errors.Join(errs...))
	}
	return nil
}

// functionNames returns the method names in declaration order without
// duplicates.
func (cls *class) functionNames() []string {
	var names []string
	for _, f := range cls.functions {
		if !slices.Contains(names, f.Name) {
			names = append(names, f.Name)
		}
	}
	return names
}
