// Package mem is an in-memory dataset source, for tests and fixtures.
package mem

import (
	"context"
	"errors"

	"github.com/tabweave/tabweave/pkg/domain"
	"github.com/tabweave/tabweave/pkg/domain/dataset"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
)

type Source struct {
	// Collections are served by name.
	Collections map[string]*domain.Dataset

	// Err, when set, fails every Export as if the upstream were down.
	Err error
}

var _ dataset.Source = &Source{}

func New(collections map[string]*domain.Dataset) *Source {
	return &Source{Collections: collections}
}

func (s *Source) Export(_ context.Context, name string) (*domain.Dataset, error) {
	if s.Err != nil {
		return nil, errors.Join(kerr.ErrUpstreamUnavailable, s.Err)
	}
	ds, ok := s.Collections[name]
	if !ok {
		return nil, kerr.Of(kerr.ErrUpstreamUnavailable, "no collection %s", name)
	}
	return ds, nil
}
