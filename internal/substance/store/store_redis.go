package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"reglens/internal/substance/models"
	dErrors "reglens/pkg/domain-errors"
)

// Redis key prefix for status record sets.
const statusKeyPrefix = "status:"

// RedisStore keeps one JSON-encoded record set per normalized key. Suited to
// deployments that want cache semantics (optional TTL) without Postgres.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed status store. A zero ttl means records
// never expire.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Lookup returns the record set for the key, or an empty slice when absent.
func (s *RedisStore) Lookup(ctx context.Context, key models.NormalizedKey) ([]models.StatusRecord, error) {
	raw, err := s.client.Get(ctx, statusKeyPrefix+string(key)).Result()
	if errors.Is(err, redis.Nil) {
		return []models.StatusRecord{}, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "lookup status records")
	}

	var records []models.StatusRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		// A corrupt value is indistinguishable from no value for callers.
		return []models.StatusRecord{}, nil
	}
	return records, nil
}

// Upsert merges the records into the stored set per (substance,
// country_code), so repeated writes stay duplicate-free. Empty input is a
// no-op.
func (s *RedisStore) Upsert(ctx context.Context, records []models.StatusRecord) error {
	if len(records) == 0 {
		return nil
	}

	// Group by substance; each key holds its own record set.
	byKey := make(map[models.NormalizedKey][]models.StatusRecord)
	for _, rec := range records {
		byKey[rec.Substance] = append(byKey[rec.Substance], rec)
	}

	for key, incoming := range byKey {
		existing, err := s.Lookup(ctx, key)
		if err != nil {
			return err
		}

		merged := make(map[string]models.StatusRecord, len(existing)+len(incoming))
		for _, rec := range existing {
			merged[rec.CountryCode] = rec
		}
		for _, rec := range incoming {
			merged[rec.CountryCode] = rec
		}

		out := make([]models.StatusRecord, 0, len(merged))
		for _, rec := range merged {
			out = append(out, rec)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CountryCode < out[j].CountryCode })

		value, err := json.Marshal(out)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "encode status records")
		}
		if err := s.client.Set(ctx, statusKeyPrefix+string(key), value, s.ttl).Err(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "save status records")
		}
	}
	return nil
}
