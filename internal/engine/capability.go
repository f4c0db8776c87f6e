package engine

// Object is anything addressable by name inside a Namespace.
type Object interface {
	ObjectName() string
}

// Owner is an object that can hold sub-object templates.
type Owner interface {
	Object
	PathName() string
}

// Versionable is implemented by objects that carry a stored schema
// version.
type Versionable interface {
	StoredVersion() int
	SetStoredVersion(v int)
}

// Ownable is implemented by sub-objects with a declared owner.
type Ownable interface {
	Owner() Owner
	SetOwner(o Owner)
}

// Regeneratable is implemented by objects that produce a derived artifact.
type Regeneratable interface {
	AuthoritativeArtifact() *Artifact
}

// As queries v for capability T. Absence is a normal result.
//
//	if o, ok := engine.As[engine.Ownable](obj); ok {
//	    o.SetOwner(artifact)
//	}
func As[T any](v any) (T, bool) {
	typed, ok := v.(T)
	return typed, ok
}
