// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	custom_errors "github-catalog-sync/internal/errors"
	"github-catalog-sync/internal/model"
)

// repoFetcher is the slice of the paginated fetcher the syncer needs.
type repoFetcher interface {
	FetchAll(ctx context.Context, scope string) ([]model.RemoteRepository, model.RateLimit, error)
}

// Syncer is the public entry point of the synchronization engine: it wires
// the paginated fetcher and the reconciler together for one configured
// owner/organization scope.
type Syncer struct {
	fetcher    repoFetcher
	reconciler *Reconciler
	logger     *slog.Logger
	scope      string
	interval   time.Duration
}

// NewSyncer creates a Syncer for the given scope. An empty scope is
// rejected up front so a misconfigured deployment fails at startup, not on
// the first triggered sync.
func NewSyncer(fetcher repoFetcher, reconciler *Reconciler, logger *slog.Logger, scope string, interval time.Duration) (*Syncer, error) {
	if scope == "" {
		return nil, &custom_errors.ErrScopeNotConfigured{}
	}

	return &Syncer{
		fetcher:    fetcher,
		reconciler: reconciler,
		logger:     logger,
		scope:      scope,
		interval:   interval,
	}, nil
}

// RunSync performs one full synchronization: fetch the complete remote set,
// then reconcile it into the catalog. The catalog is never touched when
// fetching fails, so a failure partway through pagination cannot leave a
// partial update behind.
func (s *Syncer) RunSync(ctx context.Context) (model.SyncResult, error) {
	logger := s.logger.With("scope", s.scope)
	logger.Info("Starting repository sync")

	remote, rl, err := s.fetcher.FetchAll(ctx, s.scope)
	if err != nil {
		var rlErr *custom_errors.RateLimitError
		if errors.As(err, &rlErr) {
			logger.Warn("Sync rejected by upstream", "status", rlErr.Status,
				"remaining", rlErr.RateLimit.Remaining, "reset", rlErr.RateLimit.Reset)
		} else {
			logger.Error("Repository listing failed", "error", err)
		}
		return model.SyncResult{}, err
	}

	result := s.reconciler.Reconcile(ctx, remote)
	result.RateLimit = rl

	logger.Info("Repository sync finished",
		"inserted", result.Inserted,
		"updated", result.Updated,
		"deactivated", result.Deactivated,
		"failed", result.Failed,
	)
	return result, nil
}

// Start runs RunSync immediately and then on every tick until the context
// is cancelled. Sync errors are logged and the loop keeps going; the next
// tick is the retry.
func (s *Syncer) Start(ctx context.Context) {
	s.logger.Info("Starting background syncer", "scope", s.scope, "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if _, err := s.RunSync(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("Initial sync failed", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunSync(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("Scheduled sync failed", "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("Syncer shutting down", "reason", ctx.Err())
			return
		}
	}
}
