package engine

import (
	"fmt"
	"strings"

	"blueprintcore/internal/identity"
	"blueprintcore/internal/version"
)

// Status is the compile state of a definition.
type Status int

const (
	StatusUnknown Status = iota
	StatusUpToDate
	StatusDirty
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "Unknown"
	case StatusUpToDate:
		return "UpToDate"
	case StatusDirty:
		return "Dirty"
	case StatusError:
		return "Error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ParseStatus is the inverse of Status.String. Unknown names map to
// StatusUnknown.
func ParseStatus(s string) Status {
	for st := StatusUnknown; st <= StatusError; st++ {
		if st.String() == s {
			return st
		}
	}
	return StatusUnknown
}

// DefinitionType selects which features a definition supports.
type DefinitionType int

const (
	TypeNormal DefinitionType = iota
	TypeConst
	TypeMacroLibrary
	TypeInterface
	TypeFunctionLibrary
	TypeLevelScript
)

var definitionTypeNames = []string{"Normal", "Const", "MacroLibrary", "Interface", "FunctionLibrary", "LevelScript"}

func (t DefinitionType) String() string {
	if int(t) >= 0 && int(t) < len(definitionTypeNames) {
		return definitionTypeNames[t]
	}
	return fmt.Sprintf("DefinitionType(%d)", int(t))
}

// ParseDefinitionType is the inverse of DefinitionType.String. Unknown
// names map to TypeNormal.
func ParseDefinitionType(s string) DefinitionType {
	for i, name := range definitionTypeNames {
		if name == s {
			return DefinitionType(i)
		}
	}
	return TypeNormal
}

// TimelineTemplateSuffix is appended to a timeline variable name to form
// its template name.
const TimelineTemplateSuffix = "_Template"

// TimelineTemplateName maps a timeline variable name to its template name.
func TimelineTemplateName(variable string) string {
	return variable + TimelineTemplateSuffix
}

// TimelineVariableName maps a timeline template name back to its variable.
func TimelineVariableName(template string) string {
	return strings.TrimSuffix(template, TimelineTemplateSuffix)
}

// ClassNames returns the authoritative and skeleton artifact names for a
// definition called name.
func ClassNames(name string) (generated, skeleton string) {
	return name + "_C", "SKEL_" + name + "_C"
}

// Definition is the canonical, editable source of a generated class.
type Definition struct {
	Name          string
	Namespace     *Namespace
	SchemaVersion int
	SystemVersion int
	ID            identity.Identifier
	ParentName    string
	Type          DefinitionType
	Status        Status

	Variables               []*Variable
	UbergraphPages          []*Graph
	FunctionGraphs          []*Graph
	MacroGraphs             []*Graph
	DelegateSignatureGraphs []*Graph
	Interfaces              []*InterfaceDescription
	Breakpoints             []*Breakpoint
	PinWatches              []*PinWatch

	ComponentTemplates []*SubobjectTemplate
	Timelines          []*SubobjectTemplate
	Curves             []*SubobjectTemplate
	ConstructionScript *ConstructionScript
	RootTemplate       string

	// NativeComponents is the native component layout the definition was
	// saved against.
	NativeComponents []*SubobjectTemplate

	Generated *Artifact
	Skeleton  *Artifact

	// Ancestors is the resolved parent chain, nearest first, filled by the
	// ancestor preload pass.
	Ancestors []string
}

// NewDefinition creates a definition at the current schema.
func NewDefinition(name, parent string) *Definition {
	return &Definition{
		Name:          name,
		ParentName:    parent,
		SchemaVersion: version.Latest,
		SystemVersion: version.CurrentSystemVersion,
		Status:        StatusDirty,
	}
}

func (d *Definition) ObjectName() string { return d.Name }

// PathName is "<namespace path>.<name>", or just the name when unowned.
func (d *Definition) PathName() string {
	if d.Namespace == nil || d.Namespace.Path == "" {
		return d.Name
	}
	return d.Namespace.Path + "." + d.Name
}

func (d *Definition) Identifier() identity.Identifier { return d.ID }

func (d *Definition) SetIdentifier(id identity.Identifier) { d.ID = id }

func (d *Definition) StoredVersion() int { return d.SchemaVersion }

func (d *Definition) SetStoredVersion(v int) { d.SchemaVersion = v }

func (d *Definition) AuthoritativeArtifact() *Artifact { return d.Generated }

// GeneratedClassName is the name the authoritative artifact must carry.
func (d *Definition) GeneratedClassName() string {
	generated, _ := ClassNames(d.Name)
	return generated
}

// SkeletonClassName is the name the skeleton artifact must carry.
func (d *Definition) SkeletonClassName() string {
	_, skeleton := ClassNames(d.Name)
	return skeleton
}

// AllGraphs returns every non-nil graph the definition owns, including
// sub-graphs, in function, macro, ubergraph, delegate, interface order.
func (d *Definition) AllGraphs() []*Graph {
	var graphs []*Graph
	for _, g := range d.FunctionGraphs {
		graphs = g.AppendAll(graphs)
	}
	for _, g := range d.MacroGraphs {
		graphs = g.AppendAll(graphs)
	}
	for _, g := range d.UbergraphPages {
		graphs = g.AppendAll(graphs)
	}
	for _, g := range d.DelegateSignatureGraphs {
		graphs = g.AppendAll(graphs)
	}
	for _, iface := range d.Interfaces {
		if iface == nil {
			continue
		}
		for _, g := range iface.Graphs {
			graphs = g.AppendAll(graphs)
		}
	}
	return graphs
}

// FindNode searches all graphs for a node id.
func (d *Definition) FindNode(id string) *Node {
	for _, g := range d.AllGraphs() {
		for _, n := range g.Nodes {
			if n != nil && n.ID == id {
				return n
			}
		}
	}
	return nil
}

// FindVariable returns the member variable called name, or nil.
func (d *Definition) FindVariable(name string) *Variable {
	for _, v := range d.Variables {
		if v != nil && v.Name == name {
			return v
		}
	}
	return nil
}

// FindFunctionGraph returns the function graph called name, or nil.
func (d *Definition) FindFunctionGraph(name string) *Graph {
	for _, g := range d.FunctionGraphs {
		if g != nil && g.Name == name {
			return g
		}
	}
	return nil
}

// FindTemplateByName searches the component templates.
func (d *Definition) FindTemplateByName(name string) *SubobjectTemplate {
	return findTemplate(d.ComponentTemplates, name)
}

// FindTimelineByVariableName looks up a timeline by its variable name,
// falling back to legacy templates stored under the bare variable name.
func (d *Definition) FindTimelineByVariableName(variable string) *SubobjectTemplate {
	if t := findTemplate(d.Timelines, TimelineTemplateName(variable)); t != nil {
		return t
	}
	return findTemplate(d.Timelines, variable)
}

// AllTemplates returns every owned template: native components, component
// templates, timelines, curves, then construction nodes.
func (d *Definition) AllTemplates() []*SubobjectTemplate {
	var all []*SubobjectTemplate
	for _, list := range [][]*SubobjectTemplate{d.NativeComponents, d.ComponentTemplates, d.Timelines, d.Curves} {
		for _, t := range list {
			if t != nil {
				all = append(all, t)
			}
		}
	}
	if d.ConstructionScript != nil {
		for _, n := range d.ConstructionScript.Nodes {
			if n != nil {
				all = append(all, n)
			}
		}
	}
	return all
}

// RegistryTags returns the searchable asset tags of the definition.
func (d *Definition) RegistryTags() map[string]string {
	generated := "None"
	if d.Generated != nil {
		generated = fmt.Sprintf("Class'%s'", d.Generated.PathName())
	}
	return map[string]string{
		"GeneratedClass": generated,
		"ParentClass":    d.ParentName,
		"Type":           d.Type.String(),
		"Status":         d.Status.String(),
	}
}

func findTemplate(list []*SubobjectTemplate, name string) *SubobjectTemplate {
	for _, t := range list {
		if t != nil && t.Name == name {
			return t
		}
	}
	return nil
}
