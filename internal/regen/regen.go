// Package regen rebuilds the generated artifact of a definition.
//
// Compilation itself is delegated to a Compiler. The regenerator wraps it
// with the ownership bookkeeping that keeps every sub-object template
// attached to the artifact currently in use: templates move from the
// previous artifact to the new one, legacy definition-owned templates are
// adopted, dangling parents are cleared, and the result is validated
// before it replaces the previous artifact.
package regen

import (
	"errors"
	"fmt"
	"log/slog"

	"blueprintcore/internal/diag"
	"blueprintcore/internal/engine"
	"blueprintcore/internal/ownership"
	"blueprintcore/internal/version"
)

// Compiler turns a definition into a fresh artifact. The artifact it
// returns must not own any templates yet.
type Compiler interface {
	Compile(def *engine.Definition) (*engine.Artifact, error)
}

// SkeletonCompiler is implemented by compilers that also produce the
// layout-only skeleton artifact.
type SkeletonCompiler interface {
	CompileSkeleton(def *engine.Definition) (*engine.Artifact, error)
}

// Fingerprinter is implemented by compilers that can tell whether a
// definition's source changed since the last compile.
type Fingerprinter interface {
	Fingerprint(def *engine.Definition) (string, error)
}

// Replacement is passed to Replaced listeners.
type Replacement struct {
	Definition *engine.Definition
	Old        *engine.Artifact // nil on first generation
	New        *engine.Artifact
}

// Options configures a Regenerator.
type Options struct {
	Compiler Compiler
	Types    *engine.TypeRegistry
	Loader   engine.DefinitionLoader
	Sink     diag.Sink
	Logger   *slog.Logger

	// DirtyMigrated marks the namespace dirty when legacy templates were
	// adopted, so the host re-saves it.
	DirtyMigrated bool
}

// Regenerator rebuilds artifacts.
type Regenerator struct {
	compiler      Compiler
	types         *engine.TypeRegistry
	loader        engine.DefinitionLoader
	sink          diag.Sink
	logger        *slog.Logger
	dirtyMigrated bool

	// Replaced fires whenever a new artifact becomes authoritative.
	Replaced engine.Event[Replacement]
}

func New(opts Options) (*Regenerator, error) {
	if opts.Compiler == nil {
		return nil, fmt.Errorf("regen: compiler is required")
	}
	if opts.Types == nil {
		return nil, fmt.Errorf("regen: type registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Regenerator{
		compiler:      opts.Compiler,
		types:         opts.Types,
		loader:        opts.Loader,
		sink:          diag.Or(opts.Sink, logger),
		logger:        logger,
		dirtyMigrated: opts.DirtyMigrated,
	}, nil
}

// Regenerate compiles def and installs the result as its authoritative
// artifact, replacing previous. On failure def is left in Error status,
// previous stays authoritative, and the error wraps
// diag.ErrRegenerationFailed. The returned objects are the ones created or
// adopted by this call.
func (r *Regenerator) Regenerate(def *engine.Definition, previous *engine.Artifact) (*engine.Artifact, []engine.Object, error) {
	art, err := r.compiler.Compile(def)
	if err == nil && art == nil {
		err = errors.New("compiler returned no artifact")
	}
	if err != nil {
		return previous, nil, r.fail(def, "compile failed", err)
	}
	art.Name = def.GeneratedClassName()
	art.GeneratedBy = def
	art.Skeleton = false
	if art.SuperName == "" {
		art.SuperName = def.ParentName
	}
	if r.fingerprintMissing(art) {
		fp, _ := engine.As[Fingerprinter](r.compiler)
		if sum, err := fp.Fingerprint(def); err == nil {
			art.Fingerprint = sum
		}
	}

	state := captureOwnership(def, previous)
	abort := func(text string, cause error) (*engine.Artifact, []engine.Object, error) {
		state.restore()
		art.Retire()
		return previous, nil, r.fail(def, text, cause)
	}

	if err := ownership.Transfer(previous, art); err != nil {
		return abort("template transfer failed", err)
	}
	adopted := ownership.Adopt(def, art)

	if art.ConstructionScript == nil && r.types.SupportsConstructionScript(def, r.loader) {
		if def.ConstructionScript == nil {
			def.ConstructionScript = engine.NewConstructionScript(art)
		}
		art.ConstructionScript = def.ConstructionScript
		art.ConstructionScript.SetOwner(art)
	}

	cleared := ownership.FixDangling(art)

	if violations := ownership.Validate(def, art); len(violations) > 0 {
		errs := make([]error, len(violations))
		for i, v := range violations {
			errs[i] = v
		}
		return abort("generated artifact failed validation", errors.Join(errs...))
	}

	if err := r.install(def, previous, art); err != nil {
		return abort("install failed", err)
	}
	for _, name := range cleared {
		r.sink.Report(diag.Message{
			Severity:   diag.Warning,
			Definition: def.PathName(),
			Text:       fmt.Sprintf("cleared unresolved parent of %s", name),
			Err:        diag.Errorf(diag.ErrDanglingReference, art.PathName(), "%s", name),
		})
	}
	loaded := []engine.Object{art}
	if skeleton := r.compileSkeleton(def); skeleton != nil {
		loaded = append(loaded, skeleton)
	}
	for _, t := range adopted.Adopted {
		loaded = append(loaded, t)
	}

	adopted.Report(r.sink, def)
	if adopted.Migrated && r.dirtyMigrated && def.Namespace != nil {
		def.Namespace.Dirty = true
	}

	if version.Check(def.SchemaVersion, def.SystemVersion) == nil {
		def.Status = engine.StatusUpToDate
	}
	if previous != nil {
		previous.MarkReplaced(art)
	}
	r.Replaced.Invoke(Replacement{Definition: def, Old: previous, New: art})
	r.logger.Debug("artifact regenerated",
		"definition", def.PathName(),
		"artifact", art.PathName(),
		"templates", len(art.Templates),
		"adopted", len(adopted.Adopted),
	)
	return art, loaded, nil
}

// RegenerateIfNeeded regenerates def unless its authoritative artifact is
// up to date, has an unchanged fingerprint and still owns every template
// of def. It reports whether it regenerated.
func (r *Regenerator) RegenerateIfNeeded(def *engine.Definition) (*engine.Artifact, bool, error) {
	current := def.Generated
	if fp, ok := engine.As[Fingerprinter](r.compiler); ok && current != nil && def.Status == engine.StatusUpToDate &&
		len(ownership.Validate(def, current)) == 0 {
		sum, err := fp.Fingerprint(def)
		if err == nil && sum != "" && sum == current.Fingerprint {
			return current, false, nil
		}
	}
	art, _, err := r.Regenerate(def, current)
	return art, err == nil, err
}

func (r *Regenerator) fingerprintMissing(art *engine.Artifact) bool {
	_, ok := engine.As[Fingerprinter](r.compiler)
	return ok && art.Fingerprint == ""
}

func (r *Regenerator) compileSkeleton(def *engine.Definition) *engine.Artifact {
	sc, ok := engine.As[SkeletonCompiler](r.compiler)
	if !ok {
		return nil
	}
	skeleton, err := sc.CompileSkeleton(def)
	if err != nil || skeleton == nil {
		r.sink.Report(diag.Message{
			Severity:   diag.Warning,
			Definition: def.PathName(),
			Text:       "skeleton compile failed, keeping previous skeleton",
			Err:        err,
		})
		return nil
	}
	skeleton.Name = def.SkeletonClassName()
	skeleton.GeneratedBy = def
	skeleton.Skeleton = true
	skeleton.Templates = nil

	old := def.Skeleton
	if ns := def.Namespace; ns != nil {
		if old != nil {
			ns.Remove(old)
		}
		if stale, ok := ns.FindByName(skeleton.Name).(*engine.Artifact); ok {
			ns.Remove(stale)
		}
		if err := ns.Add(skeleton); err != nil {
			r.sink.Report(diag.Message{Severity: diag.Warning, Definition: def.PathName(), Text: "skeleton not installed", Err: err})
			return nil
		}
	}
	def.Skeleton = skeleton
	if old != nil {
		old.MarkReplaced(skeleton)
	}
	return skeleton
}

// install makes art authoritative. A name held by anything other than an
// artifact fails before the namespace is touched.
func (r *Regenerator) install(def *engine.Definition, previous, art *engine.Artifact) error {
	if ns := def.Namespace; ns != nil {
		if existing := ns.FindByName(art.Name); existing != nil {
			if _, ok := existing.(*engine.Artifact); !ok {
				return diag.Errorf(diag.ErrRenameCollision, ns.Path, "name %q already in use", art.Name)
			}
		}
		if previous != nil {
			ns.Remove(previous)
		}
		if stale, ok := ns.FindByName(art.Name).(*engine.Artifact); ok {
			ns.Remove(stale)
		}
		if err := ns.Add(art); err != nil {
			return err
		}
	}
	def.Generated = art
	return nil
}

func (r *Regenerator) fail(def *engine.Definition, text string, cause error) error {
	def.Status = engine.StatusError
	err := diag.Wrap(diag.ErrRegenerationFailed, def.PathName(), cause)
	r.sink.Report(diag.Message{
		Severity:   diag.Failure,
		Definition: def.PathName(),
		Text:       text,
		Err:        err,
	})
	return err
}
