// Package apperrors defines the failure taxonomy shared by the pipeline,
// the service layer and the HTTP handlers.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the caller must react to it.
type Kind string

const (
	Internal           Kind = "internal"
	InvalidInput       Kind = "invalid_input"
	NotFound           Kind = "not_found"
	ResolutionFailure  Kind = "resolution_failure"
	TranscriptFailure  Kind = "transcript_failure"
	TranslationFailure Kind = "translation_failure"
	GenerationFailure  Kind = "generation_failure"
	LivenessFailure    Kind = "liveness_failure"
	PersistenceFailure Kind = "persistence_failure"
	UploadFailure      Kind = "upload_failure"
)

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, apperrors.E(apperrors.NotFound, "", nil)) style checks work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// E builds a classified error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or Internal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
