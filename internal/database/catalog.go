// internal/database/catalog.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Conn and pgx.Tx, so the same
// queries run inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries is the pgx-backed implementation of Querier.
type Queries struct {
	db DBTX
}

// New returns a Queries bound to the given connection, pool or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const entryColumns = `id, remote_id, name, full_name, description, html_url,
	clone_url, language, visibility, active, etag, last_synced_at,
	created_at, updated_at`

func scanEntry(row pgx.Row) (CatalogEntry, error) {
	var e CatalogEntry
	err := row.Scan(
		&e.ID, &e.RemoteID, &e.Name, &e.FullName, &e.Description,
		&e.HTMLURL, &e.CloneURL, &e.Language, &e.Visibility, &e.Active,
		&e.ETag, &e.LastSyncedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// FindByRemoteID looks up the catalog entry for a GitHub repository ID.
// Returns pgx.ErrNoRows when the repository has never been observed.
func (q *Queries) FindByRemoteID(ctx context.Context, remoteID int64) (CatalogEntry, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM catalog_entries WHERE remote_id = $1`,
		remoteID,
	)
	return scanEntry(row)
}

// InsertEntry creates a catalog entry for a newly observed repository and
// stamps last_synced_at.
func (q *Queries) InsertEntry(ctx context.Context, arg InsertEntryParams) (CatalogEntry, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO catalog_entries
			(remote_id, name, full_name, description, html_url, clone_url,
			 language, visibility, active, last_synced_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		 RETURNING `+entryColumns,
		arg.RemoteID, arg.Name, arg.FullName, arg.Description, arg.HTMLURL,
		arg.CloneURL, arg.Language, arg.Visibility, arg.Active,
	)
	return scanEntry(row)
}

// UpdateEntry refreshes the mutable metadata of an existing entry and
// stamps last_synced_at. The active flag is not touched here.
func (q *Queries) UpdateEntry(ctx context.Context, arg UpdateEntryParams) (CatalogEntry, error) {
	row := q.db.QueryRow(ctx,
		`UPDATE catalog_entries SET
			name = $2, full_name = $3, description = $4, html_url = $5,
			clone_url = $6, language = $7, visibility = $8,
			last_synced_at = now(), updated_at = now()
		 WHERE id = $1
		 RETURNING `+entryColumns,
		arg.ID, arg.Name, arg.FullName, arg.Description, arg.HTMLURL,
		arg.CloneURL, arg.Language, arg.Visibility,
	)
	return scanEntry(row)
}

// DeactivateEntry clears the active flag. Entries are never hard-deleted so
// historical associations to the local ID survive upstream deletion.
func (q *Queries) DeactivateEntry(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx,
		`UPDATE catalog_entries SET active = false, updated_at = now() WHERE id = $1`,
		id,
	)
	return err
}

// ListRemoteIDs returns the remote identifier of every catalog entry.
func (q *Queries) ListRemoteIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.Query(ctx,
		`SELECT remote_id FROM catalog_entries ORDER BY remote_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListEntries returns catalog entries, optionally restricted to active ones.
func (q *Queries) ListEntries(ctx context.Context, activeOnly bool) ([]CatalogEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM catalog_entries`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY full_name`

	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SetEntryActive flips the active flag; this is the operator's explicit
// review/activation action exposed through the API.
func (q *Queries) SetEntryActive(ctx context.Context, id int64, active bool) (CatalogEntry, error) {
	row := q.db.QueryRow(ctx,
		`UPDATE catalog_entries SET active = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+entryColumns,
		id, active,
	)
	return scanEntry(row)
}
