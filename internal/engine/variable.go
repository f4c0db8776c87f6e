package engine

import "github.com/google/uuid"

// PropertyFlags is the flag set carried by a member variable.
type PropertyFlags uint64

const (
	FlagEdit PropertyFlags = 1 << iota
	FlagBlueprintVisible
	FlagBlueprintReadOnly
	FlagDisableEditOnTemplate
	FlagTransient
	FlagExposeOnSpawn
)

// Has reports whether all bits of f are set.
func (p PropertyFlags) Has(f PropertyFlags) bool {
	return p&f == f
}

// Pin categories used by variable types.
const (
	PinBool   = "bool"
	PinInt    = "int"
	PinFloat  = "float"
	PinString = "string"
	PinName   = "name"
	PinObject = "object"
	PinClass  = "class"
	PinStruct = "struct"
)

// PinType describes a variable's type. SubCategoryObject names the object
// class or struct for object, class and struct categories.
type PinType struct {
	Category          string
	SubCategoryObject string
	IsArray           bool
}

// Variable is an authored member variable of a definition.
type Variable struct {
	Name     string
	GUID     uuid.UUID // uuid.Nil when the variable has none yet
	Type     PinType
	Flags    PropertyFlags
	Category string
	Default  string
}

// NewVariable creates an editable, visible variable with no reference id.
func NewVariable(name string, t PinType) *Variable {
	return &Variable{
		Name:     name,
		Type:     t,
		Flags:    FlagEdit | FlagBlueprintVisible,
		Category: "Default",
	}
}
