// Package components is the catalogue of native types: the classes a
// definition can derive from, the component classes its templates can use,
// and the native component layout each class declares.
package components

import (
	"blueprintcore/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ComponentType is a native component class available to templates.
type ComponentType struct {
	Name     string
	Scene    bool // has a transform and can be parented
	Defaults func() map[string]any
}

// componentTypes lists every component class a template may use.
var componentTypes = []ComponentType{
	{"SceneComponent", true, noProps},
	{"ModelRenderer", true, modelRendererDefaults},
	{"BoxCollider", true, boxColliderDefaults},
	{"SphereCollider", true, sphereColliderDefaults},
	{"CapsuleComponent", true, capsuleDefaults},
	{"Rigidbody", false, rigidbodyDefaults},
	{"CharacterController", false, characterControllerDefaults},
	{"FPSController", false, fpsControllerDefaults},
	{"DirectionalLight", true, directionalLightDefaults},
	{"PointLight", true, pointLightDefaults},
	{"Camera", true, cameraDefaults},
	{"AudioSource", true, audioSourceDefaults},
	{"AudioListener", true, noProps},
	{"Timeline", false, timelineDefaults},
	{"CurveFloat", false, noProps},
}

// ComponentTypes returns the catalogue in declaration order.
func ComponentTypes() []ComponentType {
	out := make([]ComponentType, len(componentTypes))
	copy(out, componentTypes)
	return out
}

// NewComponent creates an unowned component template of typeName with the
// class defaults. Returns nil for an unknown class.
func NewComponent(name, typeName string) *engine.SubobjectTemplate {
	for _, ct := range componentTypes {
		if ct.Name != typeName {
			continue
		}
		kind := engine.KindComponent
		switch typeName {
		case "Timeline":
			kind = engine.KindTimeline
		case "CurveFloat":
			kind = engine.KindCurve
		}
		t := engine.NewTemplate(name, kind, typeName)
		t.Props = ct.Defaults()
		return t
	}
	return nil
}

func noProps() map[string]any { return map[string]any{} }

func modelRendererDefaults() map[string]any {
	// Default: 1x1x1 white cube
	return map[string]any{
		"meshType": "cube",
		"meshSize": []any{1.0, 1.0, 1.0},
		"color":    colorProp(rl.White),
	}
}

func boxColliderDefaults() map[string]any {
	return map[string]any{"size": vectorProp(rl.Vector3{X: 1, Y: 1, Z: 1}), "offset": vectorProp(rl.Vector3{})}
}

func sphereColliderDefaults() map[string]any {
	return map[string]any{"radius": 0.5, "offset": vectorProp(rl.Vector3{})}
}

func capsuleDefaults() map[string]any {
	return map[string]any{"height": 1.8, "radius": 0.4}
}

func rigidbodyDefaults() map[string]any {
	return map[string]any{
		"mass":           1.0,
		"bounciness":     0.5,
		"friction":       0.1,
		"angularDamping": 0.98, // slight damping each frame
		"useGravity":     true,
		"isKinematic":    false,
		"canSleep":       true,
	}
}

func characterControllerDefaults() map[string]any {
	return map[string]any{
		"height":     1.8,
		"radius":     0.4,
		"stepHeight": 0.4,
		"slopeLimit": 45.0,
		"useGravity": true,
		"gravity":    20.0,
	}
}

func fpsControllerDefaults() map[string]any {
	return map[string]any{
		"yaw":          -135.0,
		"pitch":        -30.0,
		"moveSpeed":    8.0,
		"lookSpeed":    0.1,
		"gravity":      20.0,
		"jumpStrength": 8.0,
		"eyeHeight":    5.0,
	}
}

func directionalLightDefaults() map[string]any {
	return map[string]any{
		"direction":      vectorProp(rl.Vector3Normalize(rl.Vector3{X: 0.35, Y: -1.0, Z: -0.35})),
		"color":          colorProp(rl.White),
		"intensity":      1.0,
		"ambientColor":   colorProp(rl.NewColor(25, 25, 25, 255)),
		"shadowDistance": 50.0,
	}
}

func pointLightDefaults() map[string]any {
	return map[string]any{"color": colorProp(rl.White), "intensity": 1.0, "radius": 10.0}
}

func cameraDefaults() map[string]any {
	return map[string]any{"fov": 45.0, "near": 0.1, "far": 1000.0, "isMain": false}
}

func audioSourceDefaults() map[string]any {
	return map[string]any{
		"volume":      1.0,
		"maxDistance": 50.0,
		"loop":        false,
		"playOnStart": false,
		"spatial":     true,
	}
}

func timelineDefaults() map[string]any {
	return map[string]any{"length": 5.0, "autoPlay": false, "loop": false}
}

func vectorProp(v rl.Vector3) []any {
	return []any{float64(v.X), float64(v.Y), float64(v.Z)}
}

func colorProp(c rl.Color) []any {
	return []any{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}
}
