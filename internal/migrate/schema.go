package migrate

import "blueprintcore/internal/engine"

// GraphSchema converts nodes saved in an older graph format. It is called
// once per editable graph and reports whether it changed anything.
type GraphSchema interface {
	ConvertForBackwardCompatibility(g *engine.Graph) bool
}

// DefaultSchema converts legacy nodes by clearing their Legacy flag.
type DefaultSchema struct{}

func (DefaultSchema) ConvertForBackwardCompatibility(g *engine.Graph) bool {
	changed := false
	for _, n := range g.Nodes {
		if n != nil && n.Legacy {
			n.Legacy = false
			changed = true
		}
	}
	return changed
}
