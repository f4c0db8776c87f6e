package asset

import (
	"github.com/fxamacker/cbor/v2"

	"blueprintcore/internal/identity"
)

// Record types are the on-disk shape of a package. Fields added in later
// schema versions decode to their zero values from older files.

type packageRecord struct {
	Path        string             `cbor:"path"`
	Definitions []definitionRecord `cbor:"definitions"`
}

type definitionRecord struct {
	Name          string              `cbor:"name"`
	SchemaVersion int                 `cbor:"schema_version"`
	SystemVersion int                 `cbor:"system_version"`
	ID            identity.Identifier `cbor:"id"`
	Parent        string              `cbor:"parent"`
	Type          string              `cbor:"type"`
	Status        string              `cbor:"status,omitempty"`

	Variables   []variableRecord   `cbor:"variables,omitempty"`
	Graphs      []graphRecord      `cbor:"graphs,omitempty"`
	Interfaces  []interfaceRecord  `cbor:"interfaces,omitempty"`
	Breakpoints []breakpointRecord `cbor:"breakpoints,omitempty"`
	PinWatches  []pinWatchRecord   `cbor:"pin_watches,omitempty"`

	RootTemplate string `cbor:"root_template,omitempty"`

	// Subobjects holds template and construction script records, each
	// starting with a kind header.
	Subobjects []cbor.RawMessage `cbor:"subobjects,omitempty"`

	Generated *artifactRecord `cbor:"generated,omitempty"`

	// Skeleton is only present in files written before the skeleton became
	// transient.
	Skeleton string `cbor:"skeleton,omitempty"`
}

type variableRecord struct {
	Name     string `cbor:"name"`
	GUID     string `cbor:"guid,omitempty"`
	Category string `cbor:"category,omitempty"`
	Pin      string `cbor:"pin"`
	Sub      string `cbor:"pin_sub,omitempty"`
	Array    bool   `cbor:"array,omitempty"`
	Flags    uint64 `cbor:"flags"`
	Default  string `cbor:"default,omitempty"`
}

// Graph roles.
const (
	roleUbergraph = "ubergraph"
	roleFunction  = "function"
	roleMacro     = "macro"
	roleDelegate  = "delegate"
)

type graphRecord struct {
	Role      string        `cbor:"role,omitempty"`
	Name      string        `cbor:"name"`
	Schema    string        `cbor:"schema,omitempty"`
	Nodes     []nodeRecord  `cbor:"nodes,omitempty"`
	SubGraphs []graphRecord `cbor:"sub_graphs,omitempty"`
}

type nodeRecord struct {
	ID       string `cbor:"id"`
	Kind     int    `cbor:"kind"`
	Member   string `cbor:"member,omitempty"`
	Template string `cbor:"template,omitempty"`
	Legacy   bool   `cbor:"legacy,omitempty"`
	Error    string `cbor:"error,omitempty"`
}

type interfaceRecord struct {
	Name   string        `cbor:"name"`
	Graphs []graphRecord `cbor:"graphs,omitempty"`
}

type breakpointRecord struct {
	Node    string `cbor:"node"`
	Enabled bool   `cbor:"enabled"`
}

type pinWatchRecord struct {
	Node string `cbor:"node"`
	Pin  string `cbor:"pin"`
}

// Sub-object kinds.
const (
	kindNative             = "native"
	kindComponent          = "component"
	kindTimeline           = "timeline"
	kindCurve              = "curve"
	kindConstructionNode   = "construction_node"
	kindConstructionScript = "construction_script"
)

// Owner values.
const (
	ownerDefinition = "definition"
	ownerGenerated  = "generated"
)

type subobjectHeader struct {
	Kind string `cbor:"kind"`
}

type templateRecord struct {
	Kind     string         `cbor:"kind"`
	Name     string         `cbor:"name"`
	Type     string         `cbor:"type"`
	Parent   string         `cbor:"parent,omitempty"`
	Owner    string         `cbor:"owner,omitempty"`
	Position [3]float32     `cbor:"position"`
	Rotation [3]float32     `cbor:"rotation"`
	Scale    [3]float32     `cbor:"scale"`
	Props    map[string]any `cbor:"props,omitempty"`
}

type scriptRecord struct {
	Kind          string `cbor:"kind"`
	Name          string `cbor:"name"`
	Transactional bool   `cbor:"transactional"`
	Owner         string `cbor:"owner,omitempty"`
}

type artifactRecord struct {
	Name        string           `cbor:"name"`
	Super       string           `cbor:"super"`
	Fingerprint string           `cbor:"fingerprint,omitempty"`
	Functions   []functionRecord `cbor:"functions,omitempty"`
}

type functionRecord struct {
	Name  string `cbor:"name"`
	Event bool   `cbor:"event,omitempty"`
}
