package regen

import "blueprintcore/internal/engine"

// ownershipState is what a regeneration attempt may change on existing
// templates before it commits. Restoring it leaves def and previous as
// they were before the attempt.
type ownershipState struct {
	def      *engine.Definition
	previous *engine.Artifact

	templates     []templateState
	prevTemplates []*engine.SubobjectTemplate
	prevScript    *engine.ConstructionScript
	defScript     *engine.ConstructionScript
	scriptOwners  map[*engine.ConstructionScript]engine.Owner
}

type templateState struct {
	t      *engine.SubobjectTemplate
	name   string
	parent string
	owner  engine.Owner
}

func captureOwnership(def *engine.Definition, previous *engine.Artifact) *ownershipState {
	s := &ownershipState{
		def:          def,
		previous:     previous,
		defScript:    def.ConstructionScript,
		scriptOwners: map[*engine.ConstructionScript]engine.Owner{},
	}
	seen := map[*engine.SubobjectTemplate]bool{}
	record := func(list []*engine.SubobjectTemplate) {
		for _, t := range list {
			if t == nil || seen[t] {
				continue
			}
			seen[t] = true
			s.templates = append(s.templates, templateState{t: t, name: t.Name, parent: t.ParentName, owner: t.Owner()})
		}
	}
	recordScript := func(scs *engine.ConstructionScript) {
		if scs == nil {
			return
		}
		s.scriptOwners[scs] = scs.Owner()
		record(scs.Nodes)
	}

	record(def.AllTemplates())
	recordScript(def.ConstructionScript)
	if previous != nil {
		s.prevTemplates = append([]*engine.SubobjectTemplate(nil), previous.Templates...)
		s.prevScript = previous.ConstructionScript
		record(previous.Templates)
		recordScript(previous.ConstructionScript)
	}
	return s
}

func (s *ownershipState) restore() {
	for _, ts := range s.templates {
		ts.t.Name = ts.name
		ts.t.ParentName = ts.parent
		ts.t.SetOwner(ts.owner)
	}
	for scs, owner := range s.scriptOwners {
		scs.SetOwner(owner)
	}
	s.def.ConstructionScript = s.defScript
	if s.previous != nil {
		s.previous.Templates = s.prevTemplates
		s.previous.ConstructionScript = s.prevScript
	}
}
