package engine

// NodeKind classifies graph nodes the migration passes care about.
type NodeKind int

const (
	NodeGeneric NodeKind = iota
	NodeEvent
	NodeCallFunction
	NodeCallParentFunction
	NodeAddComponent
	NodeVariableGet
	NodeVariableSet
)

// Node is a single node in an editable graph.
type Node struct {
	ID         string
	Kind       NodeKind
	MemberName string      // function, event or variable the node refers to
	Template   TemplateRef // component template used by NodeAddComponent
	Legacy     bool        // needs backward-compatibility conversion
	Error      string      // non-empty when the node no longer resolves
}

// Graph is an editable graph page.
type Graph struct {
	Name      string
	Schema    string
	Nodes     []*Node
	SubGraphs []*Graph
}

// NewGraph creates an empty graph with the default schema.
func NewGraph(name string) *Graph {
	return &Graph{Name: name, Schema: "K2"}
}

// FindNode searches the graph and its sub-graphs for id.
func (g *Graph) FindNode(id string) *Node {
	if g == nil {
		return nil
	}
	for _, n := range g.Nodes {
		if n != nil && n.ID == id {
			return n
		}
	}
	for _, sub := range g.SubGraphs {
		if n := sub.FindNode(id); n != nil {
			return n
		}
	}
	return nil
}

// AppendAll appends g and every non-nil descendant to out.
func (g *Graph) AppendAll(out []*Graph) []*Graph {
	if g == nil {
		return out
	}
	out = append(out, g)
	for _, sub := range g.SubGraphs {
		out = sub.AppendAll(out)
	}
	return out
}

// InterfaceDescription records an implemented interface and the graphs that
// implement its functions.
type InterfaceDescription struct {
	Name   string
	Graphs []*Graph
}

// Breakpoint targets a node by id.
type Breakpoint struct {
	NodeID  string
	Enabled bool
}

// PinWatch watches one pin of a node.
type PinWatch struct {
	NodeID string
	Pin    string
}
