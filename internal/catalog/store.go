package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lib/pq"

	apperrors "github.com/mediasearch/similarity-service/pkg/errors"
	"github.com/mediasearch/similarity-service/pkg/postgres"
)

// Store persists records in PostgreSQL. Genres are stored as a text[]
// column via pq.Array.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewStore creates a Store on the given client.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "catalog-store"),
	}
}

// EnsureSchema creates the records table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS records (
			id          BIGSERIAL PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			genres      TEXT[] NOT NULL DEFAULT '{}',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := s.db.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating records table: %w", err)
	}
	return nil
}

// List returns the full corpus ordered by id. The result is the read
// snapshot the rebuilder hands to the engine.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, title, description, genres, created_at FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, pq.Array(&r.Genres), &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// Get returns a single record by id, or ErrRecordNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	var r Record
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT id, title, description, genres, created_at FROM records WHERE id = $1`, id).
		Scan(&r.ID, &r.Title, &r.Description, pq.Array(&r.Genres), &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.ErrRecordNotFound, http.StatusNotFound, "record %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching record %d: %w", id, err)
	}
	return &r, nil
}

// Create inserts a record and fills in its generated id and timestamp.
func (s *Store) Create(ctx context.Context, r *Record) error {
	err := s.db.DB.QueryRowContext(ctx,
		`INSERT INTO records (title, description, genres)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		r.Title, r.Description, pq.Array(r.Genres)).
		Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	s.logger.Debug("record created", "record_id", r.ID, "title", r.Title)
	return nil
}

// CreateBatch inserts records in one transaction: either the whole batch
// lands or none of it. Generated ids and timestamps are filled in place.
func (s *Store) CreateBatch(ctx context.Context, records []Record) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO records (title, description, genres)
			 VALUES ($1, $2, $3)
			 RETURNING id, created_at`)
		if err != nil {
			return fmt.Errorf("preparing batch insert: %w", err)
		}
		defer stmt.Close()
		for i := range records {
			r := &records[i]
			if err := stmt.QueryRowContext(ctx, r.Title, r.Description, pq.Array(r.Genres)).
				Scan(&r.ID, &r.CreatedAt); err != nil {
				return fmt.Errorf("inserting record %q: %w", r.Title, err)
			}
		}
		return nil
	})
}

// Delete removes a record by id, failing with ErrRecordNotFound if no row
// matched.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.DB.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting record %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.Newf(apperrors.ErrRecordNotFound, http.StatusNotFound, "record %d", id)
	}
	s.logger.Debug("record deleted", "record_id", id)
	return nil
}

// Count returns the number of records in the catalog.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.DB.QueryRowContext(ctx, `SELECT count(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}
