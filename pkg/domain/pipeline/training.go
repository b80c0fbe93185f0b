// Package pipeline orchestrates the training and prediction flows.
//
// Stages within a run execute strictly sequentially; a stage's failure
// aborts the run. Reruns always mint a new run: historical runs are
// immutable.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/tabweave/tabweave/pkg/artifact"
	"github.com/tabweave/tabweave/pkg/domain"
	"github.com/tabweave/tabweave/pkg/domain/dataset"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
	"github.com/tabweave/tabweave/pkg/domain/run"
	"github.com/tabweave/tabweave/pkg/domain/schema"
	"github.com/tabweave/tabweave/pkg/domain/train"
	"github.com/tabweave/tabweave/pkg/domain/transform"
	"github.com/tabweave/tabweave/pkg/hook"
	"github.com/tabweave/tabweave/pkg/xerrors"
)

type TrainingInterface interface {
	// Run executes the whole training pipeline once and returns the run.
	//
	// On failure, the returned *domain.Run (when not nil) names the
	// failed run: its partial directory is retained for inspection.
	Run(ctx context.Context) (*domain.Run, error)
}

// Training is the training-pipeline orchestrator:
// Ingest -> Validate -> Transform -> Train -> Persist -> Done,
// with Failed reachable from every stage.
type Training struct {
	// Source exports Collection as the raw dataset.
	Source     dataset.Source
	Collection string

	// Schema is the declared shape the dataset has to satisfy.
	Schema domain.Schema

	// Store receives every artifact of the run.
	Store artifact.Store

	// Train are the trainer's hyperparameters. Train.Seed also drives
	// the train/test split, so a rerun on the same data reproduces.
	Train train.Config

	// TestRatio is the held-out share of rows, in (0, 1).
	TestRatio float64

	// Tracker is notified when the run starts and again with the
	// finished run. Optional; its absence or failure never blocks the
	// pipeline.
	Tracker hook.Hook[domain.Run]

	// Logger defaults to log.Default().
	Logger *log.Logger

	// Now defaults to time.Now. Injected by tests.
	Now func() time.Time
}

var _ TrainingInterface = &Training{}

func (t *Training) logger() *log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.Default()
}

func (t *Training) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Training) Run(ctx context.Context) (*domain.Run, error) {
	registry := run.NewRegistry(t.Store)

	r := &domain.Run{
		Id:        domain.NewRunId(t.now()),
		Status:    domain.Ingesting,
		UpdatedAt: t.now(),
	}
	if err := registry.Save(ctx, r); err != nil {
		return nil, xerrors.Wrap(err)
	}
	t.logger().Printf("run %s: ingesting collection %s", r.Id, t.Collection)

	if tracker := t.Tracker; tracker != nil {
		if err := tracker.Before(*r); err != nil {
			// the tracker is optional by contract; report and move on
			t.logger().Printf("run %s: experiment tracker: %s", r.Id, err)
		}
	}

	ds, err := t.Source.Export(ctx, t.Collection)
	if err != nil {
		return t.fail(ctx, registry, r, "ingest", err)
	}

	// Validate
	if err := t.transit(ctx, registry, r, domain.Validating); err != nil {
		return t.fail(ctx, registry, r, "validate", err)
	}
	report, verr := schema.Validate(ds, t.Schema)

	// the report is audit evidence, wanted for failed runs too
	if buf, err := json.Marshal(report); err == nil {
		if _, err := t.Store.Write(ctx, r.Id, artifact.StageValidationReport, bytes.NewReader(buf)); err != nil && verr == nil {
			verr = err
		}
	}
	if verr != nil {
		return t.fail(ctx, registry, r, "validate", verr)
	}
	if !report.Pass {
		return t.fail(ctx, registry, r, "validate", kerr.Of(
			kerr.ErrSchemaMismatch,
			"%d column(s) failed validation", len(report.Failures()),
		))
	}
	for _, w := range report.Warnings {
		t.logger().Printf("run %s: drift on column %s: %s", r.Id, w.Column, w.Message)
	}

	// Transform
	if err := t.transit(ctx, registry, r, domain.Transforming); err != nil {
		return t.fail(ctx, registry, r, "transform", err)
	}
	trainDs, testDs := split(ds, t.TestRatio, t.Train.Seed)

	transformer, err := transform.Fit(trainDs, t.Schema)
	if err != nil {
		return t.fail(ctx, registry, r, "transform", err)
	}
	trainMatrix, err := transformer.Apply(trainDs)
	if err != nil {
		return t.fail(ctx, registry, r, "transform", err)
	}
	testMatrix, err := transformer.Apply(testDs)
	if err != nil {
		return t.fail(ctx, registry, r, "transform", err)
	}
	trainLabels, err := transformer.LabelVector(trainDs)
	if err != nil {
		return t.fail(ctx, registry, r, "transform", err)
	}
	testLabels, err := transformer.LabelVector(testDs)
	if err != nil {
		return t.fail(ctx, registry, r, "transform", err)
	}

	// Train
	if err := t.transit(ctx, registry, r, domain.Training); err != nil {
		return t.fail(ctx, registry, r, "train", err)
	}
	model, err := train.Train(trainMatrix, trainLabels, t.Train)
	if err != nil {
		return t.fail(ctx, registry, r, "train", err)
	}
	metrics, err := train.Evaluate(model, testMatrix, testLabels)
	if err != nil {
		return t.fail(ctx, registry, r, "train", err)
	}

	// Persist
	if err := t.transit(ctx, registry, r, domain.Persisting); err != nil {
		return t.fail(ctx, registry, r, "persist", err)
	}
	if err := t.persist(ctx, r.Id, transformer, model, metrics); err != nil {
		return t.fail(ctx, registry, r, "persist", err)
	}

	r.Metrics = &metrics
	if err := t.transit(ctx, registry, r, domain.Done); err != nil {
		return t.fail(ctx, registry, r, "persist", err)
	}
	t.logger().Printf(
		"run %s: done (accuracy=%.4f, f1=%.4f on %d test rows)",
		r.Id, metrics.Accuracy, metrics.F1, metrics.TestRows,
	)

	if tracker := t.Tracker; tracker != nil {
		if err := tracker.After(*r); err != nil {
			// the tracker is optional by contract; report and move on
			t.logger().Printf("run %s: experiment tracker: %s", r.Id, err)
		}
	}

	return r, nil
}

func (t *Training) persist(
	ctx context.Context,
	runId string,
	transformer *transform.Artifact,
	model *train.Model,
	metrics domain.MetricsReport,
) error {
	transformerBuf := bytes.NewBuffer(nil)
	if err := transformer.Encode(transformerBuf); err != nil {
		return err
	}
	if _, err := t.Store.Write(ctx, runId, artifact.StageTransformer, transformerBuf); err != nil {
		return err
	}

	modelBuf := bytes.NewBuffer(nil)
	if err := model.Encode(modelBuf); err != nil {
		return err
	}
	if _, err := t.Store.Write(ctx, runId, artifact.StageModel, modelBuf); err != nil {
		return err
	}

	metricsBuf, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	_, err = t.Store.Write(ctx, runId, artifact.StageMetrics, bytes.NewReader(metricsBuf))
	return err
}

func (t *Training) transit(ctx context.Context, registry *run.Registry, r *domain.Run, next domain.RunStatus) error {
	r.Status = next
	r.UpdatedAt = t.now()
	return registry.Save(ctx, r)
}

// fail moves r to Failed, keeping its partial artifacts for inspection.
func (t *Training) fail(ctx context.Context, registry *run.Registry, r *domain.Run, stage string, cause error) (*domain.Run, error) {
	t.logger().Printf("run %s: stage %s failed: %s", r.Id, stage, cause)

	r.Status = domain.Failed
	r.UpdatedAt = t.now()
	r.Exit = &domain.RunExit{Stage: stage, Message: cause.Error()}
	if err := registry.Save(ctx, r); err != nil {
		t.logger().Printf("run %s: record not saved: %s", r.Id, err)
	}

	return r, xerrors.WrapWithNote(fmt.Sprintf("stage %s, run %s", stage, r.Id), cause)
}

// split partitions rows in a deterministic seeded shuffle.
//
// Both parts keep at least one row whenever ds has two or more.
func split(ds *domain.Dataset, testRatio float64, seed int64) (trainDs, testDs *domain.Dataset) {
	n := ds.Len()
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	nTest := int(float64(n) * testRatio)
	if nTest < 1 && 1 < n {
		nTest = 1
	}
	if n-nTest < 1 {
		nTest = n - 1
	}

	testDs = &domain.Dataset{Source: ds.Source, Columns: ds.Columns}
	trainDs = &domain.Dataset{Source: ds.Source, Columns: ds.Columns}
	for nth, index := range perm {
		if nth < nTest {
			testDs.Rows = append(testDs.Rows, ds.Rows[index])
		} else {
			trainDs.Rows = append(trainDs.Rows, ds.Rows[index])
		}
	}
	return
}
