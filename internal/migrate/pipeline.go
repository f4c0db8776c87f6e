// Package migrate brings loaded definitions up to the current schema.
//
// A Pipeline runs a fixed, ordered list of repair passes over a
// definition. Each pass is gated on the definition's stored schema
// version, is idempotent, and fails alone: a failing or panicking pass is
// reported and skipped, and the remaining passes still run. Running the
// pipeline twice over the same definition changes nothing the second time.
package migrate

import (
	"fmt"
	"log/slog"
	"slices"

	"blueprintcore/internal/diag"
	"blueprintcore/internal/engine"
	"blueprintcore/internal/version"

	"github.com/google/uuid"
)

// DefaultDeprecatedGraph is the function graph removed on load unless the
// options name another one.
const DefaultDeprecatedGraph = "AutoConstructionScript"

// Options configures a Pipeline. Types is required; everything else has a
// usable default.
type Options struct {
	Types  *engine.TypeRegistry
	Loader engine.DefinitionLoader
	Schema GraphSchema

	Sink   diag.Sink
	Logger *slog.Logger

	// DeprecatedGraph is the exact name of the graph removed by the
	// remove-deprecated-graph pass.
	DeprecatedGraph string

	// Disabled lists pass names that never run.
	Disabled []string

	// NewID generates variable reference ids. Defaults to uuid.New.
	NewID func() uuid.UUID
}

// Outcome of one pass on one definition.
type Outcome int

const (
	// Unchanged means the pass ran and found nothing to do.
	Unchanged Outcome = iota
	// Applied means the pass ran and changed the definition.
	Applied
	// Gated means the stored version is past the pass threshold.
	Gated
	// Disabled means configuration turned the pass off.
	Disabled
	// Failed means the pass returned an error or panicked and was skipped.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Applied:
		return "applied"
	case Gated:
		return "gated"
	case Disabled:
		return "disabled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// PassResult is the outcome of one pass.
type PassResult struct {
	Name    string
	Outcome Outcome
	Err     error
}

// Report lists every pass in execution order.
type Report struct {
	Definition  string
	FromVersion int
	ToVersion   int
	VersionErr  error
	Passes      []PassResult
}

// Changed reports whether any pass changed the definition or the schema
// version was stamped forward.
func (r *Report) Changed() bool {
	if r.FromVersion != r.ToVersion {
		return true
	}
	for _, p := range r.Passes {
		if p.Outcome == Applied {
			return true
		}
	}
	return false
}

// Failures returns the passes that were skipped because they failed.
func (r *Report) Failures() []PassResult {
	var out []PassResult
	for _, p := range r.Passes {
		if p.Outcome == Failed {
			out = append(out, p)
		}
	}
	return out
}

// Pass is one migration step. Threshold is the first schema version that
// no longer needs it; version.Always runs on every load.
type Pass struct {
	Name      string
	Threshold int
	run       func(p *Pipeline, def *engine.Definition) (bool, error)
}

// Pipeline runs the migration passes.
type Pipeline struct {
	types           *engine.TypeRegistry
	loader          engine.DefinitionLoader
	schema          GraphSchema
	sink            diag.Sink
	logger          *slog.Logger
	deprecatedGraph string
	disabled        map[string]bool
	newID           func() uuid.UUID
	passes          []Pass

	// Migrated fires after every Run with its report.
	Migrated engine.Event[*Report]
}

// New builds a pipeline. Unknown names in opts.Disabled are an error.
func New(opts Options) (*Pipeline, error) {
	if opts.Types == nil {
		return nil, fmt.Errorf("migrate: type registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Pipeline{
		types:           opts.Types,
		loader:          opts.Loader,
		schema:          opts.Schema,
		sink:            diag.Or(opts.Sink, logger),
		logger:          logger,
		deprecatedGraph: opts.DeprecatedGraph,
		disabled:        map[string]bool{},
		newID:           opts.NewID,
		passes:          passes(),
	}
	if p.loader == nil {
		p.loader = engine.Namespaces(nil)
	}
	if p.schema == nil {
		p.schema = DefaultSchema{}
	}
	if p.deprecatedGraph == "" {
		p.deprecatedGraph = DefaultDeprecatedGraph
	}
	if p.newID == nil {
		p.newID = uuid.New
	}
	if issues := ValidateDisabled(opts.Disabled); len(issues) > 0 {
		return nil, fmt.Errorf("migrate: %s", issues[0])
	}
	for _, name := range opts.Disabled {
		p.disabled[name] = true
	}
	return p, nil
}

// PassNames returns the pass names in execution order.
func PassNames() []string {
	var names []string
	for _, pass := range passes() {
		names = append(names, pass.Name)
	}
	return names
}

// ValidateDisabled checks a list of pass names. Returns a list of
// human-readable issues; an empty list means every name is known.
func ValidateDisabled(names []string) []string {
	known := PassNames()
	var issues []string
	for index, name := range names {
		if !slices.Contains(known, name) {
			issues = append(issues, fmt.Sprintf("disabled_passes[%d] %q: unknown pass", index, name))
		}
	}
	return issues
}

// Run migrates def in place. A failed version check sets def's status to
// Error but the passes still run. Afterwards the schema version is stamped
// to version.Latest unless it was stored by a newer build.
func (p *Pipeline) Run(def *engine.Definition) *Report {
	stored := def.SchemaVersion
	report := &Report{Definition: def.PathName(), FromVersion: stored}

	if err := version.Check(def.SchemaVersion, def.SystemVersion); err != nil {
		report.VersionErr = diag.Wrap(diag.ErrVersionCheck, def.PathName(), err)
		def.Status = engine.StatusError
		p.sink.Report(diag.Message{
			Severity:   diag.Failure,
			Definition: def.PathName(),
			Text:       "version check failed",
			Err:        report.VersionErr,
		})
	}

	for _, pass := range p.passes {
		result := PassResult{Name: pass.Name}
		switch {
		case p.disabled[pass.Name]:
			result.Outcome = Disabled
		case !version.ShouldApply(stored, pass.Threshold):
			result.Outcome = Gated
		default:
			changed, err := p.runPass(pass, def)
			switch {
			case err != nil:
				result.Outcome = Failed
				result.Err = diag.Wrap(diag.ErrMigrationStepSkipped, pass.Name, err)
				p.sink.Report(diag.Message{
					Severity:   diag.Warning,
					Definition: def.PathName(),
					Pass:       pass.Name,
					Text:       "migration pass skipped",
					Err:        result.Err,
				})
			case changed:
				result.Outcome = Applied
			}
		}
		report.Passes = append(report.Passes, result)
	}

	if stored < version.Latest {
		def.SetStoredVersion(version.Latest)
	}
	report.ToVersion = def.SchemaVersion

	p.logger.Debug("definition migrated",
		"definition", report.Definition,
		"from", report.FromVersion,
		"to", report.ToVersion,
		"changed", report.Changed(),
		"failed", len(report.Failures()),
	)
	p.Migrated.Invoke(report)
	return report
}

func (p *Pipeline) runPass(pass Pass, def *engine.Definition) (changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			changed = false
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return pass.run(p, def)
}

func (p *Pipeline) note(def *engine.Definition, pass, format string, args ...any) {
	p.sink.Report(diag.Message{
		Severity:   diag.Note,
		Definition: def.PathName(),
		Pass:       pass,
		Text:       fmt.Sprintf(format, args...),
	})
}
