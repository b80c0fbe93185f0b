// Package errors declares the error taxonomy of pipeline stages.
//
// Each fatal condition a stage can report is a distinct sentinel here,
// so that orchestrators and handlers decide abort-vs-continue with
// errors.Is, not by inspecting messages.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaMismatch: input dataset cannot be processed against the schema
	// (required column absent, empty dataset, or unrecoverable type conflict).
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrTransform: a row is malformed or out of the fitted transformer's contract.
	ErrTransform = errors.New("transform failed")

	// ErrEvaluation: matrix and label shapes do not line up.
	ErrEvaluation = errors.New("evaluation failed")

	// ErrArtifactNotFound: a persisted artifact this call depends on is missing.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrStageConflict: a stage's output already exists in the run directory.
	// Writes within a run are append-only.
	ErrStageConflict = errors.New("stage output already written")

	// ErrUpstreamUnavailable: the upstream data source could not serve the
	// export. Reported by the source collaborator, propagated unmodified.
	ErrUpstreamUnavailable = errors.New("upstream data source unavailable")

	// ErrMissing: no such run.
	ErrMissing = errors.New("missing")

	// ErrInvalidRunStateChanging: run status transition not allowed.
	ErrInvalidRunStateChanging = errors.New("cannot change run status")
)

// Of wraps sentinel with detail, keeping errors.Is(err, sentinel) true.
func Of(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
