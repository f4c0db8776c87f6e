package components

import (
	"blueprintcore/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// nativeClasses are the classes definitions derive from, root first.
func nativeClasses() []engine.TypeInfo {
	return []engine.TypeInfo{
		{Name: "Object", Native: true, Functions: []string{"ReceiveBeginDestroy"}},
		{Name: "Actor", Super: "Object", Native: true, Actor: true,
			Functions:  []string{"ReceiveBeginPlay", "ReceiveTick", "ReceiveEndPlay", "UserConstructionScript", "ReceiveHit"},
			Components: []*engine.SubobjectTemplate{native("DefaultSceneRoot", "SceneComponent", nil)},
		},
		{Name: "Pawn", Super: "Actor", Native: true, Actor: true,
			Functions: []string{"ReceivePossessed", "ReceiveUnpossessed"},
		},
		{Name: "Character", Super: "Pawn", Native: true, Actor: true,
			Functions: []string{"OnJumped", "OnLanded"},
			Components: []*engine.SubobjectTemplate{
				native("CapsuleComponent", "CapsuleComponent", nil),
				native("Mesh", "ModelRenderer", func(t *engine.SubobjectTemplate) {
					t.ParentName = "CapsuleComponent"
					t.Transform.Position = rl.Vector3{Y: -0.9}
				}),
				native("CharacterMovement", "CharacterController", nil),
			},
		},
		{Name: "PlayerController", Super: "Actor", Native: true, Actor: true,
			Functions: []string{"ReceivePossess"},
		},
		{Name: "LevelScriptActor", Super: "Actor", Native: true, Actor: true},
		{Name: "ActorComponent", Super: "Object", Native: true,
			Functions: []string{"ReceiveBeginPlay", "ReceiveTick"},
		},
		{Name: "BlueprintFunctionLibrary", Super: "Object", Native: true},
	}
}

// native builds a layout prototype from the catalogue defaults.
func native(name, typeName string, edit func(*engine.SubobjectTemplate)) *engine.SubobjectTemplate {
	t := NewComponent(name, typeName)
	if edit != nil {
		edit(t)
	}
	return t
}

func structTypes() []engine.TypeInfo {
	return []engine.TypeInfo{
		{Name: "Vector", Struct: true, Native: true},
		{Name: "Rotator", Struct: true, Native: true},
		{Name: "Transform", Struct: true, Native: true},
		{Name: "LinearColor", Struct: true, Native: true},
		{Name: "HitResult", Struct: true, Native: true},
		// removed from the runtime; variables of this type are dropped
		{Name: "LegacyKeyBinding", Struct: true, Native: true, Deprecated: true},
	}
}

func interfaceTypes() []engine.TypeInfo {
	return []engine.TypeInfo{
		{Name: "Interactable", Interface: true, Native: true, RequiredFunctions: []string{"Interact", "CanInteract"}},
		{Name: "Damageable", Interface: true, Native: true, RequiredFunctions: []string{"ApplyDamage"}},
	}
}
