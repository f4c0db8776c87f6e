package engine

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Transform is a template's placement relative to its parent.
type Transform struct {
	Position rl.Vector3
	Rotation rl.Vector3 // Euler angles in degrees
	Scale    rl.Vector3
}

// IdentityTransform has no offset, no rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: rl.Vector3{X: 1, Y: 1, Z: 1}}
}

// TemplateKind distinguishes the kinds of owned sub-object templates.
type TemplateKind int

const (
	KindComponent TemplateKind = iota
	KindTimeline
	KindCurve
	KindConstructionNode
)

func (k TemplateKind) String() string {
	switch k {
	case KindComponent:
		return "Component"
	case KindTimeline:
		return "Timeline"
	case KindCurve:
		return "Curve"
	case KindConstructionNode:
		return "ConstructionNode"
	default:
		return "Unknown"
	}
}

// SubobjectTemplate is a named, typed template owned by a definition
// (legacy layouts) or by its generated artifact.
type SubobjectTemplate struct {
	Name       string
	Kind       TemplateKind
	Type       string
	ParentName string // empty = no parent
	Transform  Transform
	Props      map[string]any

	owner Owner
}

// NewTemplate creates an unowned template with an identity transform.
func NewTemplate(name string, kind TemplateKind, typeName string) *SubobjectTemplate {
	return &SubobjectTemplate{
		Name:      name,
		Kind:      kind,
		Type:      typeName,
		Transform: IdentityTransform(),
	}
}

func (t *SubobjectTemplate) ObjectName() string { return t.Name }

// Owner returns the object the template is declared to belong to.
func (t *SubobjectTemplate) Owner() Owner { return t.owner }

// SetOwner changes the declared owner. Callers keep the owner's collections
// in sync; see Artifact.AddTemplate.
func (t *SubobjectTemplate) SetOwner(o Owner) { t.owner = o }

// OwnedBy reports whether the declared owner is o.
func (t *SubobjectTemplate) OwnedBy(o Owner) bool {
	return t.owner != nil && o != nil && t.owner == o
}

// HasParent reports whether the template declares a parent.
func (t *SubobjectTemplate) HasParent() bool {
	return t.ParentName != ""
}

// Clone returns an unowned copy. Props are copied shallowly.
func (t *SubobjectTemplate) Clone() *SubobjectTemplate {
	c := *t
	c.owner = nil
	if t.Props != nil {
		c.Props = make(map[string]any, len(t.Props))
		for k, v := range t.Props {
			c.Props[k] = v
		}
	}
	return &c
}

// ConstructionScript is the container of construction nodes. Each node is a
// template of KindConstructionNode whose ParentName names another node or a
// native component.
type ConstructionScript struct {
	Name          string
	Transactional bool
	Nodes         []*SubobjectTemplate

	owner Owner
}

// NewConstructionScript creates an empty, transactional container owned by o.
func NewConstructionScript(o Owner) *ConstructionScript {
	return &ConstructionScript{
		Name:          "SimpleConstructionScript",
		Transactional: true,
		owner:         o,
	}
}

func (s *ConstructionScript) ObjectName() string { return s.Name }

func (s *ConstructionScript) Owner() Owner { return s.owner }

func (s *ConstructionScript) SetOwner(o Owner) { s.owner = o }

// FindNode returns the node with the given name, or nil.
func (s *ConstructionScript) FindNode(name string) *SubobjectTemplate {
	if s == nil {
		return nil
	}
	for _, n := range s.Nodes {
		if n != nil && n.Name == name {
			return n
		}
	}
	return nil
}

// RootNodes returns the nodes that declare no parent.
func (s *ConstructionScript) RootNodes() []*SubobjectTemplate {
	if s == nil {
		return nil
	}
	var roots []*SubobjectTemplate
	for _, n := range s.Nodes {
		if n != nil && !n.HasParent() {
			roots = append(roots, n)
		}
	}
	return roots
}
