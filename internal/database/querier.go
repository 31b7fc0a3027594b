// internal/database/querier.go
package database

import (
	"context"
)

// Querier is the persistence interface consumed by the sync engine and the
// API layer. The engine's correctness depends only on these operations, not
// on the concrete storage technology behind them.
type Querier interface {
	FindByRemoteID(ctx context.Context, remoteID int64) (CatalogEntry, error)
	InsertEntry(ctx context.Context, arg InsertEntryParams) (CatalogEntry, error)
	UpdateEntry(ctx context.Context, arg UpdateEntryParams) (CatalogEntry, error)
	DeactivateEntry(ctx context.Context, id int64) error
	ListRemoteIDs(ctx context.Context) ([]int64, error)
	ListEntries(ctx context.Context, activeOnly bool) ([]CatalogEntry, error)
	SetEntryActive(ctx context.Context, id int64, active bool) (CatalogEntry, error)
}

var _ Querier = (*Queries)(nil)
