package workspace

import (
	"context"
	"fmt"

	"blueprintcore/internal/engine"
)

const maxUndoStack = 50

// renameUndo captures enough to rename a definition back.
type renameUndo struct {
	def      *engine.Definition
	oldName  string
	oldSpace *engine.Namespace
}

func (w *Workspace) pushUndo(state renameUndo) {
	if len(w.undoStack) >= maxUndoStack {
		w.undoStack = w.undoStack[1:]
	}
	w.undoStack = append(w.undoStack, state)
}

// UndoDepth returns the number of renames that can be undone.
func (w *Workspace) UndoDepth() int { return len(w.undoStack) }

// Undo reverts the most recent rename. When the old name has been taken
// since, it fails and the rename stays on the stack.
func (w *Workspace) Undo(ctx context.Context) error {
	if len(w.undoStack) == 0 {
		return fmt.Errorf("undo: nothing to undo")
	}
	state := w.undoStack[len(w.undoStack)-1]
	err := w.rename(ctx, state.def, state.oldName, state.oldSpace)
	if state.def.Name == state.oldName && state.def.Namespace == state.oldSpace {
		w.undoStack = w.undoStack[:len(w.undoStack)-1]
		w.logger.Info("rename undone", "definition", state.def.PathName())
	}
	if err != nil {
		return fmt.Errorf("undo rename of %s: %w", state.def.Name, err)
	}
	return nil
}
