// Package dataset declares the upstream data collaborator: something
// which exports a named collection as a Dataset.
//
// Connection management, retries and credentials belong to the
// implementations' owners, not to the pipeline.
package dataset

import (
	"context"

	"github.com/tabweave/tabweave/pkg/domain"
)

type Source interface {
	// Export reads the whole named collection as a Dataset.
	//
	// It fails with kerr.ErrUpstreamUnavailable when the upstream store
	// cannot serve the export.
	Export(ctx context.Context, name string) (*domain.Dataset, error)
}
