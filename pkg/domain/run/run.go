// Package run keeps run records: who ran, where it got to, and what came
// out. Records live next to the run's artifacts, in the same store.
package run

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/tabweave/tabweave/pkg/artifact"
	"github.com/tabweave/tabweave/pkg/domain"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
)

// FindQuery filters listed runs.
type FindQuery struct {
	// Status: when not empty, only runs in one of these statuses match.
	Status []domain.RunStatus
}

type Interface interface {
	// Get reads one run record.
	//
	// It fails with kerr.ErrMissing when no such run is known.
	Get(ctx context.Context, runId string) (*domain.Run, error)

	// Find lists run records matching query, in run-id (= chronological) order.
	Find(ctx context.Context, query FindQuery) ([]domain.Run, error)

	// LatestDone returns the newest run which reached Done.
	//
	// It fails with kerr.ErrMissing when no run has completed yet.
	LatestDone(ctx context.Context) (*domain.Run, error)
}

// Registry reads and writes run records through an artifact store.
type Registry struct {
	store artifact.Store
}

var _ Interface = &Registry{}

func NewRegistry(store artifact.Store) *Registry {
	return &Registry{store: store}
}

// Save upserts the record of r.
//
// Historical runs are immutable: once a stored record reached a terminal
// status, or when the update is not a legal status transition, Save fails
// with kerr.ErrInvalidRunStateChanging.
func (reg *Registry) Save(ctx context.Context, r *domain.Run) error {
	stored, err := reg.Get(ctx, r.Id)
	switch {
	case err == nil:
		if stored.Status != r.Status && !stored.Status.CanTransitTo(r.Status) {
			return kerr.Of(
				kerr.ErrInvalidRunStateChanging,
				"run %s: %s -> %s", r.Id, stored.Status, r.Status,
			)
		}
	case !errors.Is(err, kerr.ErrMissing):
		return err
	}

	buf, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return reg.store.PutRecord(ctx, r.Id, bytes.NewReader(buf))
}

func (reg *Registry) Get(ctx context.Context, runId string) (*domain.Run, error) {
	rec, err := reg.store.GetRecord(ctx, runId)
	if err != nil {
		return nil, err
	}
	defer rec.Close()

	r := &domain.Run{}
	if err := json.NewDecoder(rec).Decode(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (reg *Registry) Find(ctx context.Context, query FindQuery) ([]domain.Run, error) {
	runIds, err := reg.store.Runs(ctx)
	if err != nil {
		return nil, err
	}

	found := []domain.Run{}
	for _, runId := range runIds {
		r, err := reg.Get(ctx, runId)
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				// a run directory without a record yet; skip
				continue
			}
			return nil, err
		}
		if matches(query, r) {
			found = append(found, *r)
		}
	}
	return found, nil
}

func (reg *Registry) LatestDone(ctx context.Context) (*domain.Run, error) {
	runIds, err := reg.store.Runs(ctx)
	if err != nil {
		return nil, err
	}

	// newest first
	for nth := len(runIds) - 1; 0 <= nth; nth -= 1 {
		r, err := reg.Get(ctx, runIds[nth])
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				continue
			}
			return nil, err
		}
		if r.Status == domain.Done {
			return r, nil
		}
	}
	return nil, kerr.Of(kerr.ErrMissing, "no completed run")
}

func matches(query FindQuery, r *domain.Run) bool {
	if len(query.Status) == 0 {
		return true
	}
	for _, s := range query.Status {
		if r.Status == s {
			return true
		}
	}
	return false
}
