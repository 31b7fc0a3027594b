// internal/syncer/reconciler.go
package syncer

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github-catalog-sync/internal/database"
	"github-catalog-sync/internal/model"
)

// Reconciler diffs a freshly fetched remote set against the persisted
// catalog and applies inserts, updates and deactivations. A single bad
// record never aborts the run; its failure is recorded in the result.
type Reconciler struct {
	db             database.Querier
	logger         *slog.Logger
	newReposActive bool
}

// NewReconciler creates a Reconciler. newReposActive decides whether a
// newly discovered repository becomes visible immediately or waits for an
// operator to activate it.
func NewReconciler(db database.Querier, logger *slog.Logger, newReposActive bool) *Reconciler {
	return &Reconciler{db: db, logger: logger, newReposActive: newReposActive}
}

// Reconcile processes the remote set in its natural listing order, then
// deactivates every catalog entry whose remote identifier is absent from
// the set. Running it twice with an unchanged remote set inserts and
// deactivates nothing.
func (r *Reconciler) Reconcile(ctx context.Context, remote []model.RemoteRepository) model.SyncResult {
	var result model.SyncResult
	result.RateLimit = model.UnknownRateLimit()

	seen := make(map[int64]bool, len(remote))
	for _, repo := range remote {
		seen[repo.ID] = true
		if err := r.reconcileOne(ctx, repo, &result); err != nil {
			r.logger.Error("Failed to persist repository", "remote_id", repo.ID, "name", repo.Name, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, model.ItemError{
				RemoteID: repo.ID,
				Name:     repo.Name,
				Message:  err.Error(),
			})
		}
	}

	r.deactivateMissing(ctx, seen, &result)

	return result
}

// reconcileOne inserts or updates a single repository.
func (r *Reconciler) reconcileOne(ctx context.Context, repo model.RemoteRepository, result *model.SyncResult) error {
	existing, err := r.db.FindByRemoteID(ctx, repo.ID)

	if errors.Is(err, pgx.ErrNoRows) {
		active := r.newReposActive && !repo.Archived
		_, err := r.db.InsertEntry(ctx, database.InsertEntryParams{
			RemoteID:    repo.ID,
			Name:        repo.Name,
			FullName:    repo.FullName,
			Description: toSQLNullString(repo.Description),
			HTMLURL:     repo.HTMLURL,
			CloneURL:    repo.CloneURL,
			Language:    repo.LanguageOrUnknown(),
			Visibility:  repo.Visibility(),
			Active:      active,
		})
		if err != nil {
			return err
		}
		result.Inserted++
		return nil
	} else if err != nil {
		return err
	}

	_, err = r.db.UpdateEntry(ctx, database.UpdateEntryParams{
		ID:          existing.ID,
		Name:        repo.Name,
		FullName:    repo.FullName,
		Description: toSQLNullString(repo.Description),
		HTMLURL:     repo.HTMLURL,
		CloneURL:    repo.CloneURL,
		Language:    repo.LanguageOrUnknown(),
		Visibility:  repo.Visibility(),
	})
	if err != nil {
		return err
	}
	result.Updated++

	// Updates leave the active flag alone, except an upstream archive
	// forces the entry inactive regardless of prior state.
	if repo.Archived && existing.Active {
		if err := r.db.DeactivateEntry(ctx, existing.ID); err != nil {
			return err
		}
	}

	return nil
}

// deactivateMissing marks entries absent from the remote set inactive.
// This models upstream deletion without destroying the local record.
// Best-effort: individual failures are logged, not fatal.
func (r *Reconciler) deactivateMissing(ctx context.Context, seen map[int64]bool, result *model.SyncResult) {
	ids, err := r.db.ListRemoteIDs(ctx)
	if err != nil {
		r.logger.Error("Failed to list catalog remote ids, skipping deactivation pass", "error", err)
		return
	}

	for _, remoteID := range ids {
		if seen[remoteID] {
			continue
		}

		entry, err := r.db.FindByRemoteID(ctx, remoteID)
		if err != nil {
			r.logger.Error("Failed to load entry for deactivation", "remote_id", remoteID, "error", err)
			continue
		}
		if !entry.Active {
			continue
		}

		if err := r.db.DeactivateEntry(ctx, entry.ID); err != nil {
			r.logger.Error("Failed to deactivate entry", "remote_id", remoteID, "error", err)
			continue
		}
		r.logger.Info("Deactivated repository no longer present upstream",
			"remote_id", remoteID, "name", entry.FullName)
		result.Deactivated++
	}
}

func toSQLNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{
		String: *s,
		Valid:  *s != "",
	}
}
