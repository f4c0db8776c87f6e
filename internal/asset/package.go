// Package asset reads and writes package files: a small binary header
// followed by a compressed CBOR record of every definition in a namespace
// and its generated artifact.
//
// Decoding is tolerant of older files. Templates saved before they became
// editor-only are handed back owned by their definition, and a serialized
// skeleton from before the skeleton became transient is dropped.
package asset

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/google/uuid"

	"blueprintcore/internal/diag"
	"blueprintcore/internal/engine"
	"blueprintcore/internal/version"
)

func encodePayload(ns *engine.Namespace) ([]byte, error) {
	rec := packageRecord{Path: ns.Path}
	for _, def := range ns.Definitions() {
		dr, err := encodeDefinition(def)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", def.Name, err)
		}
		rec.Definitions = append(rec.Definitions, dr)
	}
	return marshal(rec)
}

func encodeDefinition(def *engine.Definition) (definitionRecord, error) {
	rec := definitionRecord{
		Name:          def.Name,
		SchemaVersion: def.SchemaVersion,
		SystemVersion: def.SystemVersion,
		ID:            def.ID,
		Parent:        def.ParentName,
		Type:          def.Type.String(),
		Status:        def.Status.String(),
		RootTemplate:  def.RootTemplate,
	}

	for _, v := range def.Variables {
		if v == nil {
			continue
		}
		vr := variableRecord{
			Name:     v.Name,
			Category: v.Category,
			Pin:      v.Type.Category,
			Sub:      v.Type.SubCategoryObject,
			Array:    v.Type.IsArray,
			Flags:    uint64(v.Flags),
			Default:  v.Default,
		}
		if v.GUID != uuid.Nil {
			vr.GUID = v.GUID.String()
		}
		rec.Variables = append(rec.Variables, vr)
	}

	for _, role := range []struct {
		name   string
		graphs []*engine.Graph
	}{
		{roleUbergraph, def.UbergraphPages},
		{roleFunction, def.FunctionGraphs},
		{roleMacro, def.MacroGraphs},
		{roleDelegate, def.DelegateSignatureGraphs},
	} {
		for _, g := range role.graphs {
			if g == nil {
				continue
			}
			gr := encodeGraph(g, map[*engine.Graph]bool{})
			gr.Role = role.name
			rec.Graphs = append(rec.Graphs, gr)
		}
	}
	for _, iface := range def.Interfaces {
		if iface == nil {
			continue
		}
		ir := interfaceRecord{Name: iface.Name}
		for _, g := range iface.Graphs {
			if g != nil {
				ir.Graphs = append(ir.Graphs, encodeGraph(g, map[*engine.Graph]bool{}))
			}
		}
		rec.Interfaces = append(rec.Interfaces, ir)
	}
	for _, bp := range def.Breakpoints {
		if bp != nil {
			rec.Breakpoints = append(rec.Breakpoints, breakpointRecord{Node: bp.NodeID, Enabled: bp.Enabled})
		}
	}
	for _, w := range def.PinWatches {
		if w != nil {
			rec.PinWatches = append(rec.PinWatches, pinWatchRecord{Node: w.NodeID, Pin: w.Pin})
		}
	}

	add := func(v any) error {
		raw, err := marshal(v)
		if err != nil {
			return err
		}
		rec.Subobjects = append(rec.Subobjects, raw)
		return nil
	}
	for _, list := range []struct {
		kind      string
		templates []*engine.SubobjectTemplate
	}{
		{kindNative, def.NativeComponents},
		{kindComponent, def.ComponentTemplates},
		{kindTimeline, def.Timelines},
		{kindCurve, def.Curves},
	} {
		for _, t := range list.templates {
			if t == nil {
				continue
			}
			if err := add(encodeTemplate(list.kind, t, def)); err != nil {
				return rec, fmt.Errorf("template %s: %w", t.Name, err)
			}
		}
	}
	if scs := def.ConstructionScript; scs != nil {
		sr := scriptRecord{
			Kind:          kindConstructionScript,
			Name:          scs.Name,
			Transactional: scs.Transactional,
			Owner:         ownerName(scs.Owner(), def),
		}
		if err := add(sr); err != nil {
			return rec, fmt.Errorf("construction script: %w", err)
		}
		for _, n := range scs.Nodes {
			if n == nil {
				continue
			}
			if err := add(encodeTemplate(kindConstructionNode, n, def)); err != nil {
				return rec, fmt.Errorf("construction node %s: %w", n.Name, err)
			}
		}
	}

	if art := def.Generated; art != nil {
		ar := &artifactRecord{Name: art.Name, Super: art.SuperName, Fingerprint: art.Fingerprint}
		for _, f := range art.Functions {
			ar.Functions = append(ar.Functions, functionRecord{Name: f.Name, Event: f.Event})
		}
		rec.Generated = ar
	}
	return rec, nil
}

func encodeGraph(g *engine.Graph, seen map[*engine.Graph]bool) graphRecord {
	seen[g] = true
	gr := graphRecord{Name: g.Name, Schema: g.Schema}
	for _, n := range g.Nodes {
		if n == nil {
			continue
		}
		gr.Nodes = append(gr.Nodes, nodeRecord{
			ID:       n.ID,
			Kind:     int(n.Kind),
			Member:   n.MemberName,
			Template: n.Template.Name,
			Legacy:   n.Legacy,
			Error:    n.Error,
		})
	}
	for _, sub := range g.SubGraphs {
		if sub != nil && !seen[sub] {
			gr.SubGraphs = append(gr.SubGraphs, encodeGraph(sub, seen))
		}
	}
	return gr
}

func encodeTemplate(kind string, t *engine.SubobjectTemplate, def *engine.Definition) templateRecord {
	tf := t.Transform
	return templateRecord{
		Kind:     kind,
		Name:     t.Name,
		Type:     t.Type,
		Parent:   t.ParentName,
		Owner:    ownerName(t.Owner(), def),
		Position: [3]float32{tf.Position.X, tf.Position.Y, tf.Position.Z},
		Rotation: [3]float32{tf.Rotation.X, tf.Rotation.Y, tf.Rotation.Z},
		Scale:    [3]float32{tf.Scale.X, tf.Scale.Y, tf.Scale.Z},
		Props:    t.Props,
	}
}

// ownerName maps a declared owner to its record value. Owners outside the
// definition and its generated artifact are not persisted.
func ownerName(o engine.Owner, def *engine.Definition) string {
	switch {
	case o == nil:
		return ""
	case o == engine.Owner(def):
		return ownerDefinition
	case def.Generated != nil && o == engine.Owner(def.Generated):
		return ownerGenerated
	}
	return ""
}

func decodePayload(data []byte, sink diag.Sink) (*engine.Namespace, error) {
	var rec packageRecord
	if err := unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse package: %w", err)
	}
	ns := engine.NewNamespace(rec.Path)
	for i := range rec.Definitions {
		dr := &rec.Definitions[i]
		def, err := decodeDefinition(dr, sink)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", dr.Name, err)
		}
		if err := ns.Add(def); err != nil {
			return nil, err
		}
		if def.Generated != nil {
			if err := ns.Add(def.Generated); err != nil {
				return nil, err
			}
		}
	}
	return ns, nil
}

func decodeDefinition(rec *definitionRecord, sink diag.Sink) (*engine.Definition, error) {
	def := &engine.Definition{
		Name:          rec.Name,
		SchemaVersion: rec.SchemaVersion,
		SystemVersion: rec.SystemVersion,
		ID:            rec.ID,
		ParentName:    rec.Parent,
		Type:          engine.ParseDefinitionType(rec.Type),
		Status:        engine.ParseStatus(rec.Status),
		RootTemplate:  rec.RootTemplate,
	}

	for _, vr := range rec.Variables {
		v := &engine.Variable{
			Name:     vr.Name,
			Type:     engine.PinType{Category: vr.Pin, SubCategoryObject: vr.Sub, IsArray: vr.Array},
			Flags:    engine.PropertyFlags(vr.Flags),
			Category: vr.Category,
			Default:  vr.Default,
		}
		if vr.GUID != "" {
			id, err := uuid.Parse(vr.GUID)
			if err != nil {
				return nil, fmt.Errorf("variable %s: %w", vr.Name, err)
			}
			v.GUID = id
		}
		def.Variables = append(def.Variables, v)
	}

	for _, gr := range rec.Graphs {
		g := decodeGraph(gr)
		switch gr.Role {
		case roleUbergraph:
			def.UbergraphPages = append(def.UbergraphPages, g)
		case roleMacro:
			def.MacroGraphs = append(def.MacroGraphs, g)
		case roleDelegate:
			def.DelegateSignatureGraphs = append(def.DelegateSignatureGraphs, g)
		default:
			def.FunctionGraphs = append(def.FunctionGraphs, g)
		}
	}
	for _, ir := range rec.Interfaces {
		iface := &engine.InterfaceDescription{Name: ir.Name}
		for _, gr := range ir.Graphs {
			iface.Graphs = append(iface.Graphs, decodeGraph(gr))
		}
		def.Interfaces = append(def.Interfaces, iface)
	}
	for _, br := range rec.Breakpoints {
		def.Breakpoints = append(def.Breakpoints, &engine.Breakpoint{NodeID: br.Node, Enabled: br.Enabled})
	}
	for _, wr := range rec.PinWatches {
		def.PinWatches = append(def.PinWatches, &engine.PinWatch{NodeID: wr.Node, Pin: wr.Pin})
	}

	if ar := rec.Generated; ar != nil {
		art := engine.NewArtifact(ar.Name, def)
		art.SuperName = ar.Super
		art.Fingerprint = ar.Fingerprint
		for _, fr := range ar.Functions {
			art.Functions = append(art.Functions, engine.FunctionSignature{Name: fr.Name, Event: fr.Event})
		}
		def.Generated = art
	}

	if rec.Skeleton != "" && version.ShouldApply(rec.SchemaVersion, version.SkeletonTransient) {
		sink.Report(diag.Message{
			Severity:   diag.Note,
			Definition: def.Name,
			Text:       fmt.Sprintf("dropping serialized skeleton %s", rec.Skeleton),
		})
	}

	legacy := version.ShouldApply(rec.SchemaVersion, version.EditorOnlyTemplates)
	for i, raw := range rec.Subobjects {
		if err := decodeSubobject(def, raw, legacy, sink); err != nil {
			return nil, fmt.Errorf("subobject %d: %w", i, err)
		}
	}
	return def, nil
}

func decodeGraph(gr graphRecord) *engine.Graph {
	g := &engine.Graph{Name: gr.Name, Schema: gr.Schema}
	for _, nr := range gr.Nodes {
		n := &engine.Node{
			ID:         nr.ID,
			Kind:       engine.NodeKind(nr.Kind),
			MemberName: nr.Member,
			Legacy:     nr.Legacy,
			Error:      nr.Error,
		}
		n.Template = engine.TemplateRef{Name: nr.Template}
		g.Nodes = append(g.Nodes, n)
	}
	for _, sub := range gr.SubGraphs {
		g.SubGraphs = append(g.SubGraphs, decodeGraph(sub))
	}
	return g
}

func decodeSubobject(def *engine.Definition, raw cbor.RawMessage, legacy bool, sink diag.Sink) error {
	var header subobjectHeader
	if err := unmarshal(raw, &header); err != nil {
		return err
	}

	if header.Kind == kindConstructionScript {
		var sr scriptRecord
		if err := unmarshal(raw, &sr); err != nil {
			return err
		}
		scs := constructionScript(def)
		if sr.Name != "" {
			scs.Name = sr.Name
		}
		scs.Transactional = sr.Transactional
		owner := resolveOwner(def, sr.Owner, legacy)
		scs.SetOwner(owner)
		if owner != nil && owner == engine.Owner(def.Generated) {
			def.Generated.ConstructionScript = scs
		}
		return nil
	}

	var kind engine.TemplateKind
	switch header.Kind {
	case kindNative, kindComponent:
		kind = engine.KindComponent
	case kindTimeline:
		kind = engine.KindTimeline
	case kindCurve:
		kind = engine.KindCurve
	case kindConstructionNode:
		kind = engine.KindConstructionNode
	default:
		sink.Report(diag.Message{
			Severity:   diag.Note,
			Definition: def.Name,
			Text:       fmt.Sprintf("skipping unknown subobject kind %q", header.Kind),
		})
		return nil
	}

	var tr templateRecord
	if err := unmarshal(raw, &tr); err != nil {
		return err
	}
	t := engine.NewTemplate(tr.Name, kind, tr.Type)
	t.ParentName = tr.Parent
	t.Transform.Position = vec(tr.Position)
	t.Transform.Rotation = vec(tr.Rotation)
	if tr.Scale != [3]float32{} {
		t.Transform.Scale = vec(tr.Scale)
	}
	t.Props = tr.Props

	owner := resolveOwner(def, tr.Owner, legacy)
	t.SetOwner(owner)
	art := def.Generated
	onArtifact := art != nil && owner == engine.Owner(art)

	switch header.Kind {
	case kindNative:
		def.NativeComponents = append(def.NativeComponents, t)
	case kindComponent:
		def.ComponentTemplates = append(def.ComponentTemplates, t)
	case kindTimeline:
		def.Timelines = append(def.Timelines, t)
	case kindCurve:
		def.Curves = append(def.Curves, t)
	case kindConstructionNode:
		scs := constructionScript(def)
		scs.Nodes = append(scs.Nodes, t)
		if onArtifact {
			art.ConstructionScript = scs
		}
		return nil
	}
	if onArtifact {
		art.AddTemplate(t)
	}
	return nil
}

// resolveOwner maps a record owner back to an object. Legacy files always
// give templates to the definition.
func resolveOwner(def *engine.Definition, owner string, legacy bool) engine.Owner {
	if legacy {
		return def
	}
	switch owner {
	case ownerDefinition:
		return def
	case ownerGenerated:
		if def.Generated != nil {
			return def.Generated
		}
	}
	return nil
}

func vec(v [3]float32) rl.Vector3 {
	return rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
}

func constructionScript(def *engine.Definition) *engine.ConstructionScript {
	if def.ConstructionScript == nil {
		def.ConstructionScript = engine.NewConstructionScript(nil)
	}
	return def.ConstructionScript
}
