package engine

import rl "github.com/gen2brain/raylib-go/raylib"

// FunctionSignature is a compiled callable on an artifact.
type FunctionSignature struct {
	Name   string
	Event  bool
	Params []PinType
}

// Artifact is a generated class produced from a Definition. The
// authoritative artifact owns the definition's sub-object templates; the
// skeleton carries only the layout and never owns templates.
type Artifact struct {
	Name        string
	Namespace   *Namespace
	GeneratedBy *Definition
	SuperName   string
	Skeleton    bool

	Properties  []*Variable
	Functions   []FunctionSignature
	Source      []byte
	Fingerprint string

	Templates          []*SubobjectTemplate
	ConstructionScript *ConstructionScript

	// ReplacedBy is set once a newer artifact supersedes this one.
	ReplacedBy *Artifact

	// Replaced fires once from MarkReplaced.
	Replaced Event[*Artifact]

	pins    int
	retired bool
}

// NewArtifact creates an empty artifact generated by def.
func NewArtifact(name string, def *Definition) *Artifact {
	a := &Artifact{Name: name, GeneratedBy: def}
	if def != nil {
		a.Namespace = def.Namespace
		a.SuperName = def.ParentName
	}
	return a
}

func (a *Artifact) ObjectName() string { return a.Name }

// PathName is "<namespace path>.<name>", or just the name when unowned.
func (a *Artifact) PathName() string {
	if a.Namespace == nil || a.Namespace.Path == "" {
		return a.Name
	}
	return a.Namespace.Path + "." + a.Name
}

// AddTemplate appends t and makes the artifact its declared owner.
func (a *Artifact) AddTemplate(t *SubobjectTemplate) {
	t.SetOwner(a)
	a.Templates = append(a.Templates, t)
}

// RemoveTemplate drops t from the artifact. Its declared owner is cleared
// only if it still points here.
func (a *Artifact) RemoveTemplate(t *SubobjectTemplate) bool {
	for i, existing := range a.Templates {
		if existing == t {
			a.Templates = append(a.Templates[:i], a.Templates[i+1:]...)
			if t.OwnedBy(a) {
				t.SetOwner(nil)
			}
			return true
		}
	}
	return false
}

// FindTemplate returns the owned template called name, or nil.
func (a *Artifact) FindTemplate(name string) *SubobjectTemplate {
	return findTemplate(a.Templates, name)
}

// FindFunction returns the compiled function called name.
func (a *Artifact) FindFunction(name string) (FunctionSignature, bool) {
	for _, f := range a.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return FunctionSignature{}, false
}

// Pin keeps a replaced artifact alive for live instances still using it.
func (a *Artifact) Pin() { a.pins++ }

// Unpin releases a pin. A replaced artifact with no remaining pins is
// retired.
func (a *Artifact) Unpin() {
	if a.pins > 0 {
		a.pins--
	}
	if a.pins == 0 && a.ReplacedBy != nil {
		a.retired = true
	}
}

// Pins returns the number of live references.
func (a *Artifact) Pins() int { return a.pins }

// MarkReplaced records the successor and retires the artifact when nothing
// pins it.
func (a *Artifact) MarkReplaced(next *Artifact) {
	if a.ReplacedBy != nil {
		return
	}
	a.ReplacedBy = next
	if a.pins == 0 {
		a.retired = true
	}
	a.Replaced.Invoke(next)
}

// Retire marks the artifact as no longer usable regardless of pins.
func (a *Artifact) Retire() { a.retired = true }

func (a *Artifact) Retired() bool { return a.retired }

// WorldTransform composes t with its parents inside the artifact. Each
// local position is scaled and rotated by the accumulated parent transform;
// rotations add up and scales multiply. A missing parent or a cycle ends
// the chain.
func (a *Artifact) WorldTransform(t *SubobjectTemplate) Transform {
	chain := a.parentChain(t)
	world := chain[len(chain)-1].Transform
	for i := len(chain) - 2; i >= 0; i-- {
		local := chain[i].Transform
		offset := rl.Vector3Transform(rl.Vector3Multiply(local.Position, world.Scale), eulerMatrix(world.Rotation))
		world = Transform{
			Position: rl.Vector3Add(world.Position, offset),
			Rotation: rl.Vector3Add(world.Rotation, local.Rotation),
			Scale:    rl.Vector3Multiply(world.Scale, local.Scale),
		}
	}
	return world
}

// parentChain is t followed by its ancestors, nearest first. Parents are
// looked up among the owned templates and then the construction nodes.
func (a *Artifact) parentChain(t *SubobjectTemplate) []*SubobjectTemplate {
	chain := []*SubobjectTemplate{t}
	seen := map[*SubobjectTemplate]bool{t: true}
	for cur := t; cur.HasParent(); {
		p := a.FindTemplate(cur.ParentName)
		if p == nil && a.ConstructionScript != nil {
			p = a.ConstructionScript.FindNode(cur.ParentName)
		}
		if p == nil || seen[p] {
			break
		}
		seen[p] = true
		chain = append(chain, p)
		cur = p
	}
	return chain
}

// eulerMatrix rotates about X, then Y, then Z. Angles are in degrees.
func eulerMatrix(deg rl.Vector3) rl.Matrix {
	x := rl.MatrixRotateX(deg.X * rl.Deg2rad)
	y := rl.MatrixRotateY(deg.Y * rl.Deg2rad)
	z := rl.MatrixRotateZ(deg.Z * rl.Deg2rad)
	return rl.MatrixMultiply(rl.MatrixMultiply(x, y), z)
}
