package store

import (
	"context"

	"reglens/internal/substance/models"
)

//go:generate mockgen -destination=../../../mocks/store_mock.go -package=mocks reglens/internal/substance/store StatusStore

// StatusStore is the cache of per-jurisdiction status records, keyed by
// normalized substance name.
//
// Lookup is an exact-match read: an absent key returns an empty slice and no
// error. Upsert is idempotent per (substance, country_code); writing the
// same pair twice leaves exactly one live record. Transport failures surface
// as unavailable domain errors.
type StatusStore interface {
	Lookup(ctx context.Context, key models.NormalizedKey) ([]models.StatusRecord, error)
	Upsert(ctx context.Context, records []models.StatusRecord) error
}
