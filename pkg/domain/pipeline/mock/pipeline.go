package mock

import (
	"context"
	"errors"

	"github.com/tabweave/tabweave/pkg/domain"
	"github.com/tabweave/tabweave/pkg/domain/pipeline"
)

type TrainingInterface struct {
	Impl struct {
		Run func(ctx context.Context) (*domain.Run, error)
	}

	Calls struct {
		Run int
	}
}

func NewTraining() *TrainingInterface {
	return &TrainingInterface{}
}

var _ pipeline.TrainingInterface = &TrainingInterface{}

func (m *TrainingInterface) Run(ctx context.Context) (*domain.Run, error) {
	m.Calls.Run += 1
	if m.Impl.Run != nil {
		return m.Impl.Run(ctx)
	}
	panic(errors.New("it should not be called"))
}

type PredictionInterface struct {
	Impl struct {
		Predict func(ctx context.Context, rows *domain.Dataset, runId string) ([]domain.Prediction, string, error)
	}

	Calls struct {
		Predict []struct {
			Rows  *domain.Dataset
			RunId string
		}
	}
}

func NewPrediction() *PredictionInterface {
	return &PredictionInterface{}
}

var _ pipeline.PredictionInterface = &PredictionInterface{}

func (m *PredictionInterface) Predict(ctx context.Context, rows *domain.Dataset, runId string) ([]domain.Prediction, string, error) {
	m.Calls.Predict = append(m.Calls.Predict, struct {
		Rows  *domain.Dataset
		RunId string
	}{Rows: rows, RunId: runId})
	if m.Impl.Predict != nil {
		return m.Impl.Predict(ctx, rows, runId)
	}
	panic(errors.New("it should not be called"))
}
