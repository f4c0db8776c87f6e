package engine

// TemplateRef is a serializable reference to a sub-object template by
// name. Graph nodes use it so that a reference survives the template moving
// from one artifact to the next.
//
// Example:
//
//	if t := node.Template.Get(def.Generated); t != nil {
//	    // use the component template...
//	}
type TemplateRef struct {
	Name string // empty = none
}

// Get resolves the reference against an artifact's templates and then its
// construction script. Returns nil if the reference is empty or the
// template does not exist.
func (r TemplateRef) Get(a *Artifact) *SubobjectTemplate {
	if r.Name == "" || a == nil {
		return nil
	}
	if t := a.FindTemplate(r.Name); t != nil {
		return t
	}
	return a.ConstructionScript.FindNode(r.Name)
}

// IsValid returns true if the reference names something.
// Note: This doesn't check if the template actually exists.
func (r TemplateRef) IsValid() bool {
	return r.Name != ""
}

// Set points the reference at t. Pass nil to clear it.
func (r *TemplateRef) Set(t *SubobjectTemplate) {
	if t == nil {
		r.Name = ""
	} else {
		r.Name = t.Name
	}
}

func (r *TemplateRef) Clear() {
	r.Name = ""
}
