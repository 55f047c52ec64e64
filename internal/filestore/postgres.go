package filestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const storeTimeout = 5 * time.Second

const recordColumns = "id, name, destination, storage_key, size_bytes, tags, description, version, created_at, updated_at, deleted_at"

// PostgresStore persists file records in PostgreSQL. Per-identity
// serialization comes from the unique (destination, name) index: the
// upsert is a single INSERT ... ON CONFLICT statement, so concurrent
// writers to one identity queue on the row while other identities
// proceed in parallel.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a metadata store over an established pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindActive(ctx context.Context, destination, name string) (FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	query := `
SELECT ` + recordColumns + `
FROM file_records
WHERE destination = $1 AND name = $2 AND deleted_at IS NULL;`

	return s.queryOne(ctx, query, destination, name)
}

func (s *PostgresStore) FindAny(ctx context.Context, destination, name string) (FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	query := `
SELECT ` + recordColumns + `
FROM file_records
WHERE destination = $1 AND name = $2;`

	return s.queryOne(ctx, query, destination, name)
}

// Upsert inserts a new record, bumps the version of an active one, or
// reactivates a soft-deleted one with a fresh version and created_at.
// The statement is atomic per identity.
func (s *PostgresStore) Upsert(ctx context.Context, rec FileRecord) (FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}

	query := `
INSERT INTO file_records (id, name, destination, storage_key, size_bytes, tags, description)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (destination, name) DO UPDATE SET
    size_bytes  = EXCLUDED.size_bytes,
    tags        = EXCLUDED.tags,
    description = EXCLUDED.description,
    version     = CASE WHEN file_records.deleted_at IS NULL THEN file_records.version + 1 ELSE 1 END,
    created_at  = CASE WHEN file_records.deleted_at IS NULL THEN file_records.created_at ELSE now() END,
    deleted_at  = NULL,
    updated_at  = now()
RETURNING ` + recordColumns + `;`

	row := s.pool.QueryRow(ctx, query,
		rec.ID,
		rec.Name,
		rec.Destination,
		rec.StorageKey,
		rec.SizeBytes,
		rec.Tags,
		rec.Description,
	)

	stored, err := scanRecord(row)
	if err != nil {
		return FileRecord{}, translatePgError("upsert file record", err)
	}
	return stored, nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, destination, name string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	query := `
UPDATE file_records
SET deleted_at = now(), updated_at = now()
WHERE destination = $1 AND name = $2 AND deleted_at IS NULL;`

	tag, err := s.pool.Exec(ctx, query, destination, name)
	if err != nil {
		return translatePgError("soft delete file record", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) HardDelete(ctx context.Context, destination, name string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	query := `DELETE FROM file_records WHERE destination = $1 AND name = $2;`

	tag, err := s.pool.Exec(ctx, query, destination, name)
	if err != nil {
		return translatePgError("hard delete file record", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter, key SortKey) ([]FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if !filter.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if filter.Destination != "" {
		args = append(args, filter.Destination)
		where = append(where, fmt.Sprintf("destination = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, strings.ToLower(strings.TrimSpace(filter.Tag)))
		where = append(where, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}

	query := "SELECT " + recordColumns + " FROM file_records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(key) + ";"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError("list file records", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file records: %w", err)
	}
	return records, nil
}

// Ping reports whether the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func orderClause(key SortKey) string {
	switch key {
	case SortByName:
		return "name ASC, destination ASC"
	case SortByUpdatedAt:
		return "updated_at DESC, name ASC"
	case SortBySize:
		return "size_bytes ASC, name ASC"
	default:
		return "created_at ASC, name ASC"
	}
}

func scanRecord(row pgx.Row) (FileRecord, error) {
	var rec FileRecord
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Destination,
		&rec.StorageKey,
		&rec.SizeBytes,
		&rec.Tags,
		&rec.Description,
		&rec.Version,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.DeletedAt,
	)
	return rec, err
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (FileRecord, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return FileRecord{}, translatePgError("get file record", err)
	}
	return rec, nil
}

func translatePgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization or deadlock failures mean another writer won
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%s: %w", op, ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
