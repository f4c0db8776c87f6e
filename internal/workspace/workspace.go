// Package workspace ties the engine together for hosts: it loads package
// files, migrates and regenerates every definition in them, keeps the
// search index current, and writes packages back.
package workspace

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"blueprintcore/internal/asset"
	"blueprintcore/internal/compiler"
	"blueprintcore/internal/components"
	"blueprintcore/internal/config"
	"blueprintcore/internal/diag"
	"blueprintcore/internal/engine"
	"blueprintcore/internal/identity"
	"blueprintcore/internal/migrate"
	"blueprintcore/internal/ownership"
	"blueprintcore/internal/regen"
	"blueprintcore/internal/searchindex"
)

// Options configures a Workspace. Every field is optional.
type Options struct {
	Config   *config.Config
	Types    *engine.TypeRegistry
	Compiler regen.Compiler
	Index    searchindex.Indexer
	Logger   *slog.Logger
}

// Package is a loaded package file.
type Package struct {
	File      string
	Namespace *engine.Namespace
	Results   []*Result
}

// Result is what happened to one definition.
type Result struct {
	Definition  string
	Migration   *migrate.Report
	Repair      ownership.Result
	Regenerated bool
	Err         error
}

// Result returns the result recorded for the definition at path, or nil.
func (p *Package) Result(path string) *Result {
	for _, r := range p.Results {
		if r.Definition == path {
			return r
		}
	}
	return nil
}

func (p *Package) result(def *engine.Definition) *Result {
	if r := p.Result(def.PathName()); r != nil {
		return r
	}
	r := &Result{Definition: def.PathName()}
	p.Results = append(p.Results, r)
	return r
}

// Workspace holds loaded packages and the collaborators that act on them.
type Workspace struct {
	cfg         *config.Config
	types       *engine.TypeRegistry
	compiler    regen.Compiler
	index       searchindex.Indexer
	ownsIndex   bool
	pipeline    *migrate.Pipeline
	regenerator *regen.Regenerator
	log         *diag.Log
	logger      *slog.Logger
	guard       Guard

	packages  []*Package
	undoStack []renameUndo
}

// New builds a workspace. Without an explicit index it opens the SQLite
// index named by the config, or keeps one in memory.
func New(ctx context.Context, opts Options) (*Workspace, error) {
	w := &Workspace{
		cfg:      opts.Config,
		types:    opts.Types,
		compiler: opts.Compiler,
		index:    opts.Index,
		logger:   opts.Logger,
	}
	if w.cfg == nil {
		w.cfg = config.Default()
	}
	if w.types == nil {
		w.types = components.NewRegistry()
	}
	if w.compiler == nil {
		w.compiler = &compiler.GoCompiler{}
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	w.log = diag.NewLog("workspace", w.logger)

	var err error
	w.pipeline, err = migrate.New(migrate.Options{
		Types:           w.types,
		Loader:          w,
		Sink:            w.log,
		Logger:          w.logger,
		DeprecatedGraph: w.cfg.Migration.DeprecatedGraph,
		Disabled:        w.cfg.Migration.DisabledPasses,
	})
	if err != nil {
		return nil, err
	}
	w.regenerator, err = regen.New(regen.Options{
		Compiler:      w.compiler,
		Types:         w.types,
		Loader:        w,
		Sink:          w.log,
		Logger:        w.logger,
		DirtyMigrated: w.cfg.Migration.DirtyMigrated,
	})
	if err != nil {
		return nil, err
	}

	if w.index == nil {
		if path := w.cfg.Index.Path; path != "" {
			idx, err := searchindex.Open(ctx, searchindex.Config{Path: path, Logger: w.logger})
			if err != nil {
				return nil, err
			}
			w.index, w.ownsIndex = idx, true
		} else {
			w.index = searchindex.NewMemory()
		}
	}
	return w, nil
}

// Close releases the search index if the workspace opened it.
func (w *Workspace) Close() error {
	if c, ok := w.index.(io.Closer); ok && w.ownsIndex {
		return c.Close()
	}
	return nil
}

// Log returns the message log every operation reports to.
func (w *Workspace) Log() *diag.Log { return w.log }

// Index returns the search index.
func (w *Workspace) Index() searchindex.Indexer { return w.index }

// Types returns the type registry.
func (w *Workspace) Types() *engine.TypeRegistry { return w.types }

// Compiler returns the compiler used for regeneration.
func (w *Workspace) Compiler() regen.Compiler { return w.compiler }

// Guard returns the in-progress guard.
func (w *Workspace) Guard() *Guard { return &w.guard }

// Pipeline exposes the migration pipeline, mainly for its Migrated event.
func (w *Workspace) Pipeline() *migrate.Pipeline { return w.pipeline }

// Regenerator exposes the regenerator, mainly for its Replaced event.
func (w *Workspace) Regenerator() *regen.Regenerator { return w.regenerator }

// Packages returns the loaded packages in load order.
func (w *Workspace) Packages() []*Package { return slices.Clone(w.packages) }

// LoadDefinition resolves name across loaded packages. Native type names
// resolve to nil.
func (w *Workspace) LoadDefinition(name string) (*engine.Definition, error) {
	if _, ok := w.types.Lookup(name); ok {
		return nil, nil
	}
	for _, p := range w.packages {
		if d := p.Namespace.FindDefinition(name); d != nil {
			return d, nil
		}
	}
	return nil, nil
}

// Package returns the loaded package whose namespace path is path.
func (w *Workspace) Package(path string) *Package {
	for _, p := range w.packages {
		if p.Namespace.Path == path {
			return p
		}
	}
	return nil
}

// Add registers an in-memory namespace saved to file.
func (w *Workspace) Add(ctx context.Context, ns *engine.Namespace, file string) (*Package, error) {
	if existing := w.Package(ns.Path); existing != nil {
		return nil, fmt.Errorf("package %s already loaded from %s", ns.Path, existing.File)
	}
	pkg := &Package{File: file, Namespace: ns}
	w.packages = append(w.packages, pkg)
	for _, def := range ns.Definitions() {
		if err := w.index.Update(ctx, def); err != nil {
			return pkg, err
		}
	}
	return pkg, nil
}

// Load reads the package at file, assigns missing identifiers, migrates
// every definition and conforms saved native layouts. It does not
// regenerate; see Regenerate and Process.
func (w *Workspace) Load(ctx context.Context, file string) (*Package, error) {
	ns, err := asset.ReadFile(file, w.log)
	if err != nil {
		return nil, err
	}
	if ns.Path == "" {
		ns.Path = "/" + strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	pkg, err := w.Add(ctx, ns, file)
	if err != nil {
		return nil, err
	}

	for _, def := range ns.Definitions() {
		release, err := w.guard.Acquire(def.PathName())
		if err != nil {
			return pkg, err
		}
		res := pkg.result(def)
		identity.Assign(def)
		res.Migration = w.pipeline.Run(def)
		res.Repair = w.conform(def)
		if res.Migration.Changed() || res.Repair.Changed() {
			ns.Dirty = true
		}
		release()
		if err := w.index.Update(ctx, def); err != nil {
			return pkg, err
		}
	}
	w.logger.Info("package loaded", "file", file, "definitions", len(pkg.Results))
	return pkg, nil
}

// conform repairs the parents in def's saved native layout against the
// layout its native ancestor declares now.
func (w *Workspace) conform(def *engine.Definition) ownership.Result {
	if len(def.NativeComponents) == 0 {
		return ownership.Result{}
	}
	root := w.types.NativeAncestor(def, w)
	if root == "" {
		return ownership.Result{}
	}
	res := ownership.Repair(def.NativeComponents, w.types.NativeLayout(root), w.types)
	for _, name := range res.Dangling {
		w.log.Report(diag.Message{
			Severity:   diag.Warning,
			Definition: def.PathName(),
			Text:       fmt.Sprintf("native component %s lost its parent", name),
			Err:        diag.Errorf(diag.ErrDanglingReference, name, "parent not in saved layout"),
		})
	}
	for _, name := range res.Orphaned {
		w.log.Report(diag.Message{
			Severity:   diag.Note,
			Definition: def.PathName(),
			Text:       fmt.Sprintf("native component %s is no longer declared by %s", name, root),
		})
	}
	return res
}

// Regenerate rebuilds every definition in pkg, parents before children.
// Definitions whose fingerprint is unchanged are skipped. Failures are
// recorded per definition; the first one is returned.
func (w *Workspace) Regenerate(ctx context.Context, pkg *Package) error {
	defs := pkg.Namespace.Definitions()
	depth := make(map[*engine.Definition]int, len(defs))
	for _, def := range defs {
		chain, _ := regen.Hierarchy(def, w)
		depth[def] = len(chain)
	}
	slices.SortStableFunc(defs, func(a, b *engine.Definition) int { return depth[a] - depth[b] })

	var first error
	for _, def := range defs {
		res := pkg.result(def)
		if err := w.regenerate(def, res); err != nil && first == nil {
			first = err
		}
		if err := w.index.Update(ctx, def); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (w *Workspace) regenerate(def *engine.Definition, res *Result) error {
	release, err := w.guard.Acquire(def.PathName())
	if err != nil {
		res.Err = err
		return err
	}
	defer release()

	if _, ok := regen.Hierarchy(def, w); !ok && def.Status != engine.StatusError {
		err := diag.Errorf(diag.ErrRegenerationFailed, def.PathName(), "an ancestor has errors")
		def.Status = engine.StatusError
		w.log.Report(diag.Message{Severity: diag.Failure, Definition: def.PathName(), Text: "skipping regeneration", Err: err})
		res.Err = err
		return err
	}
	_, regenerated, err := w.regenerator.RegenerateIfNeeded(def)
	res.Regenerated = regenerated
	res.Err = err
	return err
}

// Process loads file and regenerates everything in it.
func (w *Workspace) Process(ctx context.Context, file string) (*Package, error) {
	pkg, err := w.Load(ctx, file)
	if err != nil {
		return pkg, err
	}
	return pkg, w.Regenerate(ctx, pkg)
}

// Save writes pkg to file, or to the file it was loaded from when file is
// empty, and clears the dirty flag.
func (w *Workspace) Save(ctx context.Context, pkg *Package, file string) error {
	if file == "" {
		file = pkg.File
	}
	if err := asset.WriteFile(file, pkg.Namespace, w.cfg.Compression()); err != nil {
		return err
	}
	pkg.Namespace.Dirty = false
	for _, def := range pkg.Namespace.Definitions() {
		if err := w.index.Update(ctx, def); err != nil {
			return err
		}
	}
	w.logger.Info("package saved", "file", file, "namespace", pkg.Namespace.Path)
	return nil
}

// Rename renames def into dest (its own package when nil). With dryRun it
// only checks for collisions. A successful rename can be undone.
func (w *Workspace) Rename(ctx context.Context, def *engine.Definition, newName string, dest *engine.Namespace, dryRun bool) error {
	if dryRun {
		return w.regenerator.Rename(def, newName, dest, regen.RenameTest)
	}
	state := renameUndo{def: def, oldName: def.Name, oldSpace: def.Namespace}
	err := w.rename(ctx, def, newName, dest)
	if def.Name != state.oldName || def.Namespace != state.oldSpace {
		w.pushUndo(state)
	}
	return err
}

func (w *Workspace) rename(ctx context.Context, def *engine.Definition, newName string, dest *engine.Namespace) error {
	oldPath := def.PathName()
	release, err := w.guard.Acquire(oldPath)
	if err != nil {
		return err
	}
	defer release()

	// A failed regeneration still leaves the definition renamed.
	renameErr := w.regenerator.Rename(def, newName, dest, 0)
	if def.PathName() == oldPath {
		return renameErr
	}
	for _, p := range w.packages {
		if r := p.Result(oldPath); r != nil {
			r.Definition = def.PathName()
		}
	}
	if err := w.index.Remove(ctx, oldPath); err != nil {
		return err
	}
	w.logger.Info("definition renamed", "from", oldPath, "to", def.PathName())
	if err := w.index.Update(ctx, def); err != nil {
		return err
	}
	return renameErr
}
