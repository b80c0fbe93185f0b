package mock

import (
	"context"
	"errors"

	"github.com/tabweave/tabweave/pkg/domain"
	krun "github.com/tabweave/tabweave/pkg/domain/run"
)

type RunInterface struct {
	Impl struct {
		Get        func(ctx context.Context, runId string) (*domain.Run, error)
		Find       func(ctx context.Context, query krun.FindQuery) ([]domain.Run, error)
		LatestDone func(ctx context.Context) (*domain.Run, error)
	}

	Calls struct {
		Get        []string
		Find       []krun.FindQuery
		LatestDone int
	}
}

func New() *RunInterface {
	return &RunInterface{}
}

var _ krun.Interface = &RunInterface{}

func (m *RunInterface) Get(ctx context.Context, runId string) (*domain.Run, error) {
	m.Calls.Get = append(m.Calls.Get, runId)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, runId)
	}
	panic(errors.New("it should not be called"))
}

func (m *RunInterface) Find(ctx context.Context, query krun.FindQuery) ([]domain.Run, error) {
	m.Calls.Find = append(m.Calls.Find, query)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (m *RunInterface) LatestDone(ctx context.Context) (*domain.Run, error) {
	m.Calls.LatestDone += 1
	if m.Impl.LatestDone != nil {
		return m.Impl.LatestDone(ctx)
	}
	panic(errors.New("it should not be called"))
}
