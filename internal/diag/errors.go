package diag

import (
	"errors"
	"fmt"
)

var (
	// ErrMigrationStepSkipped marks a migration pass that failed and was
	// skipped. Never fatal.
	ErrMigrationStepSkipped = errors.New("migration step skipped")

	// ErrRegenerationFailed marks a compile or ownership failure during
	// regeneration. The definition is left in Error status.
	ErrRegenerationFailed = errors.New("regeneration failed")

	// ErrRenameCollision means the rename target already exists in the
	// destination namespace. Nothing was changed.
	ErrRenameCollision = errors.New("rename collision")

	// ErrDanglingReference marks a parent reference that could not be
	// resolved inside its owner.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrVersionCheck means the stored schema or system version cannot be
	// loaded by this build.
	ErrVersionCheck = errors.New("version check failed")

	// ErrMigrationInProgress is returned when another pipeline already holds
	// the definition.
	ErrMigrationInProgress = errors.New("migration already in progress")
)

// Error carries one of the sentinel kinds above plus the subject it
// applies to (a definition path, pass name, or template name).
type Error struct {
	Kind    error
	Subject string
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Subject != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Subject)
	}
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Errorf builds an *Error of the given kind.
func Errorf(kind error, subject, format string, args ...any) error {
	return &Error{Kind: kind, Subject: subject, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around cause.
func Wrap(kind error, subject string, cause error) error {
	return &Error{Kind: kind, Subject: subject, Err: cause}
}
