package pipeline

import (
	"context"
	"errors"

	"github.com/tabweave/tabweave/pkg/artifact"
	"github.com/tabweave/tabweave/pkg/domain"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
	"github.com/tabweave/tabweave/pkg/domain/schema"
	"github.com/tabweave/tabweave/pkg/domain/train"
	"github.com/tabweave/tabweave/pkg/domain/transform"
)

type PredictionInterface interface {
	// Predict classifies rows with the artifacts of the named run,
	// or of the newest completed run when runId is empty.
	//
	// It returns one prediction per input row, order-preserving, and
	// the run identity actually used.
	Predict(ctx context.Context, rows *domain.Dataset, runId string) ([]domain.Prediction, string, error)
}

// LatestResolver finds the run to predict with when the caller names none.
//
// Both *run.Registry and *run.Cache satisfy this.
type LatestResolver interface {
	LatestDone(ctx context.Context) (*domain.Run, error)
}

// Prediction loads a persisted transformer+model pair and applies them,
// in that fixed order, to new input rows.
//
// Artifacts of a completed run are immutable, so a Prediction may be
// shared by concurrent callers without coordination.
type Prediction struct {
	Store  artifact.Store
	Latest LatestResolver
}

var _ PredictionInterface = &Prediction{}

func (p *Prediction) Predict(ctx context.Context, rows *domain.Dataset, runId string) ([]domain.Prediction, string, error) {
	if runId == "" {
		r, err := p.Latest.LatestDone(ctx)
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return nil, "", kerr.Of(kerr.ErrArtifactNotFound, "no completed run to predict with")
			}
			return nil, "", err
		}
		runId = r.Id
	}

	transformer, err := p.loadTransformer(ctx, runId)
	if err != nil {
		return nil, runId, err
	}

	// incoming rows are checked against the schema frozen into the
	// transformer artifact, not whatever the schema file says today
	if _, err := schema.Validate(rows, transformer.Schema.DropLabel()); err != nil {
		return nil, runId, err
	}

	matrix, err := transformer.Apply(rows)
	if err != nil {
		return nil, runId, err
	}

	model, err := p.loadModel(ctx, runId)
	if err != nil {
		return nil, runId, err
	}
	scores, err := model.Scores(matrix)
	if err != nil {
		return nil, runId, err
	}

	predictions := make([]domain.Prediction, len(scores))
	for nth, score := range scores {
		class, confidence := 0, 1-score
		if 0.5 <= score {
			class, confidence = 1, score
		}
		predictions[nth] = domain.Prediction{
			Label: transformer.LabelName(class),
			Score: confidence,
		}
	}
	return predictions, runId, nil
}

func (p *Prediction) loadTransformer(ctx context.Context, runId string) (*transform.Artifact, error) {
	rc, err := p.Store.Read(ctx, runId, artifact.StageTransformer)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	transformer, err := transform.Decode(rc)
	if err != nil {
		return nil, kerr.Of(kerr.ErrArtifactNotFound, "transformer of run %s is broken: %s", runId, err)
	}
	return transformer, nil
}

func (p *Prediction) loadModel(ctx context.Context, runId string) (*train.Model, error) {
	rc, err := p.Store.Read(ctx, runId, artifact.StageModel)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	model, err := train.Decode(rc)
	if err != nil {
		return nil, kerr.Of(kerr.ErrArtifactNotFound, "model of run %s is broken: %s", runId, err)
	}
	return model, nil
}
