package migrate

import (
	"errors"
	"testing"

	"blueprintcore/internal/components"
	"blueprintcore/internal/diag"
	"blueprintcore/internal/engine"
	"blueprintcore/internal/version"

	"github.com/google/uuid"
)

type panicSchema struct{}

func (panicSchema) ConvertForBackwardCompatibility(g *engine.Graph) bool {
	panic("schema exploded")
}

func newPipeline(t *testing.T, opts Options) (*Pipeline, *diag.Log) {
	t.Helper()
	log := diag.NewLog("test", nil)
	if opts.Types == nil {
		opts.Types = components.NewRegistry()
	}
	opts.Sink = log
	if opts.NewID == nil {
		n := uint32(0)
		opts.NewID = func() uuid.UUID {
			n++
			var id uuid.UUID
			id[15] = byte(n)
			return id
		}
	}
	p, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p, log
}

// doorDefinition is an actor definition saved at schema 3.
func doorDefinition() *engine.Definition {
	ns := engine.NewNamespace("/Game/Door")
	def := engine.NewDefinition("Door", "Actor")
	ns.Add(def)
	def.SchemaVersion = 3
	def.Generated = engine.NewArtifact(def.GeneratedClassName(), def)
	ns.Add(def.Generated)

	open := engine.NewVariable("IsOpen", engine.PinType{Category: engine.PinBool})
	open.Flags |= engine.FlagBlueprintReadOnly
	def.Variables = []*engine.Variable{open}

	page := engine.NewGraph("EventGraph")
	page.Nodes = []*engine.Node{{ID: "begin", Kind: engine.NodeEvent, MemberName: "ReceiveBeginPlay"}}
	def.UbergraphPages = []*engine.Graph{page}
	return def
}

func TestPassOrder(t *testing.T) {
	want := []string{
		"clear-readonly-vars",
		"assign-variable-guids",
		"fix-actor-variable-flags",
		"preload-ancestors",
		"purge-null-graphs",
		"remove-deprecated-graph",
		"remove-stale-breakpoints",
		"ensure-construction-script",
		"update-root-template",
		"update-component-templates",
		"conform-parent-chain",
		"backward-compat-nodes",
		"remove-invalid-struct-vars",
	}
	got := PassNames()
	if len(got) != len(want) {
		t.Fatalf("Expected %d passes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Pass %d: expected %s, got %s", i+1, want[i], got[i])
		}
	}
}

func TestRunVersion3ClearsReadOnly(t *testing.T) {
	p, log := newPipeline(t, Options{})
	def := doorDefinition()

	report := p.Run(def)

	if def.Variables[0].Flags.Has(engine.FlagBlueprintReadOnly) {
		t.Error("Read-only flag should be cleared")
	}
	if def.Variables[0].GUID == uuid.Nil {
		t.Error("Variable should get a reference id")
	}
	if def.SchemaVersion != version.Latest {
		t.Errorf("Expected schema %d, got %d", version.Latest, def.SchemaVersion)
	}
	if report.FromVersion != 3 || report.ToVersion != version.Latest {
		t.Errorf("Expected 3 -> %d, got %d -> %d", version.Latest, report.FromVersion, report.ToVersion)
	}
	if report.Passes[0].Name != "clear-readonly-vars" || report.Passes[0].Outcome != Applied {
		t.Errorf("Expected clear-readonly-vars applied first, got %+v", report.Passes[0])
	}
	if len(report.Passes) != len(PassNames()) {
		t.Errorf("Expected %d results, got %d", len(PassNames()), len(report.Passes))
	}
	if log.Count(diag.Warning) != 0 {
		t.Errorf("Expected no warnings, got %v", log.Messages())
	}
}

func TestRunIsIdempotent(t *testing.T) {
	p, _ := newPipeline(t, Options{})
	def := doorDefinition()
	def.FunctionGraphs = []*engine.Graph{nil, engine.NewGraph(DefaultDeprecatedGraph)}
	def.Breakpoints = []*engine.Breakpoint{{NodeID: "gone"}}

	first := p.Run(def)
	if !first.Changed() {
		t.Fatal("First run should change the definition")
	}

	second := p.Run(def)
	for _, r := range second.Passes {
		if r.Outcome == Applied {
			t.Errorf("Pass %s changed on second run", r.Name)
		}
	}
	if second.Changed() {
		t.Error("Second run should report no change")
	}
}

func TestRunAtLatestGatesVersionedPasses(t *testing.T) {
	p, _ := newPipeline(t, Options{})
	def := doorDefinition()
	def.SchemaVersion = version.Latest

	report := p.Run(def)

	if !def.Variables[0].Flags.Has(engine.FlagBlueprintReadOnly) {
		t.Error("Read-only flag must survive at the latest schema")
	}
	if report.Passes[0].Outcome != Gated {
		t.Errorf("Expected clear-readonly-vars gated, got %s", report.Passes[0].Outcome)
	}
}

func TestRunVersionCheckFailureContinues(t *testing.T) {
	p, log := newPipeline(t, Options{})
	def := doorDefinition()
	def.SystemVersion = 1
	def.FunctionGraphs = []*engine.Graph{nil}

	report := p.Run(def)

	if !errors.Is(report.VersionErr, diag.ErrVersionCheck) {
		t.Errorf("Expected ErrVersionCheck, got %v", report.VersionErr)
	}
	if def.Status != engine.StatusError {
		t.Errorf("Expected status Error, got %s", def.Status)
	}
	if len(def.FunctionGraphs) != 0 {
		t.Error("Passes should still run after a failed version check")
	}
	if log.Count(diag.Failure) != 1 {
		t.Errorf("Expected 1 failure message, got %d", log.Count(diag.Failure))
	}
}

func TestRunFutureVersionNotStamped(t *testing.T) {
	p, _ := newPipeline(t, Options{})
	def := doorDefinition()
	def.SchemaVersion = version.Latest + 3

	p.Run(def)

	if def.SchemaVersion != version.Latest+3 {
		t.Errorf("Future schema should be kept, got %d", def.SchemaVersion)
	}
	if def.Status != engine.StatusError {
		t.Error("Future schema should fail the version check")
	}
}

func TestRunPanickingPassIsSkipped(t *testing.T) {
	p, log := newPipeline(t, Options{Schema: panicSchema{}})
	def := doorDefinition()

	report := p.Run(def)

	failures := report.Failures()
	if len(failures) != 1 || failures[0].Name != "backward-compat-nodes" {
		t.Fatalf("Expected backward-compat-nodes to fail, got %+v", failures)
	}
	if !errors.Is(failures[0].Err, diag.ErrMigrationStepSkipped) {
		t.Errorf("Expected ErrMigrationStepSkipped, got %v", failures[0].Err)
	}
	last := report.Passes[len(report.Passes)-1]
	if last.Name != "remove-invalid-struct-vars" || last.Outcome == Failed {
		t.Errorf("Later passes should still run, got %+v", last)
	}
	if def.Status == engine.StatusError {
		t.Error("A skipped pass must not set Error status")
	}
	if log.Count(diag.Warning) != 1 {
		t.Errorf("Expected 1 warning, got %d", log.Count(diag.Warning))
	}
}

func TestDisabledPass(t *testing.T) {
	p, _ := newPipeline(t, Options{Disabled: []string{"clear-readonly-vars"}})
	def := doorDefinition()

	report := p.Run(def)

	if report.Passes[0].Outcome != Disabled {
		t.Errorf("Expected disabled, got %s", report.Passes[0].Outcome)
	}
	if !def.Variables[0].Flags.Has(engine.FlagBlueprintReadOnly) {
		t.Error("Disabled pass should not run")
	}
}

func TestNewRejectsUnknownPass(t *testing.T) {
	_, err := New(Options{Types: components.NewRegistry(), Disabled: []string{"no-such-pass"}})
	if err == nil {
		t.Error("Expected error for unknown pass name")
	}
	if _, err := New(Options{}); err == nil {
		t.Error("Expected error without a type registry")
	}
}

func TestMigratedEvent(t *testing.T) {
	p, _ := newPipeline(t, Options{})
	var got *Report
	p.Migrated.AddListener(func(r *Report) { got = r })

	report := p.Run(doorDefinition())

	if got != report {
		t.Error("Migrated event should carry the run report")
	}
}
