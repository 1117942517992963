package ports

import (
	"context"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// RecordSource yields a complete set of question records from somewhere other
// than the remote store, such as a directory of markdown documents.
type RecordSource interface {
	// Records returns the records with their local ids. References between
	// records use the same local ids.
	Records(ctx context.Context) ([]domain.Record, error)
}
