// Package artifact defines the versioned, run-scoped store which holds
// every output of pipeline stages.
//
// A run directory is exclusive to one training run and never reused.
// Stage outputs are append-only: no stage's output is overwritten by a
// later write. The run record is the one mutable object of a live run;
// it is frozen once the run reaches a terminal status (enforced by
// pkg/domain/run, which owns the record's content).
package artifact

import (
	"context"
	"io"
)

// Fixed keys of stage outputs inside a run.
const (
	StageValidationReport = "validation/report.json"
	StageTransformer      = "transform/transformer.gob"
	StageModel            = "train/model.gob"
	StageMetrics          = "train/metrics.json"
)

type Store interface {
	// Write persists a stage output of a run and returns where it went
	// (a filesystem path or an object key; diagnostic, not a contract).
	//
	// A second Write to the same (run, stage) fails with
	// kerr.ErrStageConflict and leaves the first write untouched.
	Write(ctx context.Context, runId string, stage string, r io.Reader) (string, error)

	// Read opens a stage output.
	//
	// It fails with kerr.ErrArtifactNotFound when the run or the stage
	// output does not exist.
	Read(ctx context.Context, runId string, stage string) (io.ReadCloser, error)

	// PutRecord upserts the run record.
	PutRecord(ctx context.Context, runId string, r io.Reader) error

	// GetRecord opens the run record.
	//
	// It fails with kerr.ErrMissing when no such run is known.
	GetRecord(ctx context.Context, runId string) (io.ReadCloser, error)

	// Runs lists known run ids, ascending.
	//
	// Run ids sort chronologically (see domain.NewRunId), so the last
	// element is the newest run.
	Runs(ctx context.Context) ([]string, error)
}
