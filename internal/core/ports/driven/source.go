package driven

import (
	"context"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

// MessageSource supplies raw member messages from the ingestion boundary.
// The core never fetches or caches itself; it consumes whatever batch the
// source hands over.
type MessageSource interface {
	// Fetch returns the full ordered batch of raw messages.
	Fetch(ctx context.Context) (*domain.RawBatch, error)
}

// MessageCache persists the last fetched raw batch so restarts and
// conditional requests can reuse it. Not on the question path.
type MessageCache interface {
	// Load returns the cached batch, or domain.ErrNotFound when empty.
	Load(ctx context.Context) (*domain.RawBatch, error)

	// Save replaces the cached batch.
	Save(ctx context.Context, batch *domain.RawBatch) error

	// Close releases resources.
	Close() error
}
