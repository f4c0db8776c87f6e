// Package version holds the schema version stamps of stored definitions
// and the gate that decides which migrations apply to them.
package version

import (
	"fmt"
	"math"
)

// Schema versions. Each constant is the first version that no longer
// needs the migration named after it.
const (
	Initial = 1

	// EditorOnlyTemplates moved template ownership from the definition to
	// its generated artifact.
	EditorOnlyTemplates = 2

	// SkeletonTransient stopped serializing the skeleton artifact.
	SkeletonTransient = 3

	// VarsNotReadOnly stopped forcing exposed variables to read-only.
	VarsNotReadOnly = 5

	// ReferenceGUIDs introduced stable variable reference ids.
	ReferenceGUIDs = 6

	// FixVariableFlags stopped allowing template defaults on actor
	// references.
	FixVariableFlags = 7

	Latest = FixVariableFlags

	// Always gates passes that run on every load.
	Always = math.MaxInt32
)

// CurrentSystemVersion is the major version of the definition system.
// Definitions stored under an older major version load in Error status.
const CurrentSystemVersion = 2

// ShouldApply reports whether a step with the given threshold applies to
// data stored at stored. Malformed (negative) versions always migrate.
func ShouldApply(stored, threshold int) bool {
	if stored < 0 {
		return true
	}
	return stored < threshold
}

// Check validates stored stamps against this build.
func Check(storedSchema, storedSystem int) error {
	if storedSchema > Latest {
		return fmt.Errorf("schema version %d is newer than supported %d", storedSchema, Latest)
	}
	if storedSystem < CurrentSystemVersion {
		return fmt.Errorf("system version %d predates current %d", storedSystem, CurrentSystemVersion)
	}
	return nil
}
