package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	"blueprintcore/internal/engine"
)

// render writes the unformatted source of cls. Imports are left out and
// filled in by format.
func (cls *class) render(pkg string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "// Code generated from %s. DO NOT EDIT.\n\n", cls.path)
	fmt.Fprintf(&b, "package %s\n\n", pkg)

	fmt.Fprintf(&b, "// %sParent is the class %s derives from.\n", cls.name, cls.name)
	fmt.Fprintf(&b, "const %sParent = %q\n\n", cls.name, cls.super)

	fmt.Fprintf(&b, "type %s struct {\n", cls.name)
	for _, v := range cls.properties {
		fmt.Fprintf(&b, "\t%s %s\n", v.Name, goType(v.Type))
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "func New%s() *%s {\n", cls.name, cls.name)
	fmt.Fprintf(&b, "\tc := &%s{}\n", cls.name)
	for _, v := range cls.properties {
		if lit, ok := literal(v); ok {
			fmt.Fprintf(&b, "\tc.%s = %s\n", v.Name, lit)
		}
	}
	b.WriteString("\treturn c\n}\n\n")

	for _, name := range cls.functionNames() {
		fmt.Fprintf(&b, "func (c *%s) %s() {}\n\n", cls.name, name)
	}

	fmt.Fprintf(&b, "func (c *%s) String() string {\n", cls.name)
	fmt.Fprintf(&b, "\treturn fmt.Sprintf(\"%s(%%s)\", %sParent)\n}\n", cls.name, cls.name)
	return []byte(b.String())
}

// format gofmts src and adds the imports it uses.
func format(filename string, src []byte) ([]byte, error) {
	return imports.Process(filename, src, &imports.Options{Comments: true, TabIndent: true, TabWidth: 8})
}

func goType(t engine.PinType) string {
	var base string
	switch t.Category {
	case engine.PinBool:
		base = "bool"
	case engine.PinInt:
		base = "int32"
	case engine.PinFloat:
		base = "float32"
	case engine.PinString, engine.PinName:
		base = "string"
	case engine.PinStruct:
		base = "map[string]any"
	default:
		base = "any"
	}
	if t.IsArray {
		return "[]" + base
	}
	return base
}

// literal returns the Go literal for a scalar default value.
func literal(v *engine.Variable) (string, bool) {
	if v.Default == "" || v.Type.IsArray {
		return "", false
	}
	switch v.Type.Category {
	case engine.PinBool:
		b, err := strconv.ParseBool(v.Default)
		return strconv.FormatBool(b), err == nil
	case engine.PinInt:
		n, err := strconv.ParseInt(v.Default, 10, 32)
		return strconv.FormatInt(n, 10), err == nil
	case engine.PinFloat:
		f, err := strconv.ParseFloat(v.Default, 32)
		return strconv.FormatFloat(f, 'g', -1, 32), err == nil
	case engine.PinString, engine.PinName:
		return strconv.Quote(v.Default), true
	}
	return "", false
}
