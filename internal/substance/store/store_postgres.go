package store

import (
	"context"
	"database/sql"
	"fmt"

	"reglens/internal/substance/models"
	dErrors "reglens/pkg/domain-errors"
)

// PostgresStore persists status records in PostgreSQL. The table carries a
// unique constraint on (substance, country_code); writes rely on
// ON CONFLICT upsert semantics so concurrent cold requests for the same key
// settle last-write-wins without duplicates.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed status store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const lookupQuery = `
SELECT substance, country_code, access_status, reference_link, updated_at
FROM status_records
WHERE substance = $1
ORDER BY country_code`

const upsertQuery = `
INSERT INTO status_records (substance, country_code, access_status, reference_link, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (substance, country_code) DO UPDATE SET
	access_status = EXCLUDED.access_status,
	reference_link = EXCLUDED.reference_link,
	updated_at = EXCLUDED.updated_at`

// Lookup fetches all records for the key. Absent keys return an empty slice.
func (s *PostgresStore) Lookup(ctx context.Context, key models.NormalizedKey) ([]models.StatusRecord, error) {
	rows, err := s.db.QueryContext(ctx, lookupQuery, string(key))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "lookup status records")
	}
	defer rows.Close()

	records := []models.StatusRecord{}
	for rows.Next() {
		var (
			rec  models.StatusRecord
			link sql.NullString
		)
		if err := rows.Scan(&rec.Substance, &rec.CountryCode, &rec.Status, &link, &rec.UpdatedAt); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "scan status record")
		}
		rec.ReferenceLink = link.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "iterate status records")
	}
	return records, nil
}

// Upsert writes all records in one transaction. Empty input is a no-op.
func (s *PostgresStore) Upsert(ctx context.Context, records []models.StatusRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "begin upsert transaction")
	}
	defer tx.Rollback()

	for _, rec := range records {
		link := sql.NullString{String: rec.ReferenceLink, Valid: rec.ReferenceLink != ""}
		if _, err := tx.ExecContext(ctx, upsertQuery,
			string(rec.Substance), rec.CountryCode, string(rec.Status), link, rec.UpdatedAt,
		); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable,
				fmt.Sprintf("upsert status record %s/%s", rec.Substance, rec.CountryCode))
		}
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "commit upsert transaction")
	}
	return nil
}
