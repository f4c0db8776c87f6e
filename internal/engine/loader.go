package engine

import "fmt"

// DefinitionLoader resolves a definition by name. Hosts use it to load
// parent definitions on demand; a name that is a native type must return
// (nil, nil).
type DefinitionLoader interface {
	LoadDefinition(name string) (*Definition, error)
}

// Namespaces is a DefinitionLoader over already loaded namespaces. The
// first namespace holding the name wins.
type Namespaces []*Namespace

func (ns Namespaces) LoadDefinition(name string) (*Definition, error) {
	for _, n := range ns {
		if d := n.FindDefinition(name); d != nil {
			return d, nil
		}
	}
	return nil, nil
}

// StrictLoader wraps a loader and a type registry: a name that is neither
// a native type nor a loadable definition is an error.
type StrictLoader struct {
	Loader DefinitionLoader
	Types  *TypeRegistry
}

func (s StrictLoader) LoadDefinition(name string) (*Definition, error) {
	if _, ok := s.Types.Lookup(name); ok {
		return nil, nil
	}
	d, err := s.Loader.LoadDefinition(name)
	if err != nil {
		return nil, fmt.Errorf("load definition %q: %w", name, err)
	}
	if d == nil {
		return nil, fmt.Errorf("load definition %q: not found", name)
	}
	return d, nil
}
