package store

import (
	"context"
	"sort"
	"sync"

	"reglens/internal/substance/models"
)

// InMemoryStore keeps status records in process memory. Used in tests and
// when no external store is configured.
type InMemoryStore struct {
	mu sync.RWMutex
	// substance -> country code -> record
	records map[models.NormalizedKey]map[string]models.StatusRecord
}

// NewInMemory creates an empty in-memory status store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[models.NormalizedKey]map[string]models.StatusRecord),
	}
}

// Lookup returns all records for the key, sorted by country code.
// An absent key yields an empty slice.
func (s *InMemoryStore) Lookup(_ context.Context, key models.NormalizedKey) ([]models.StatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCountry, ok := s.records[key]
	if !ok {
		return []models.StatusRecord{}, nil
	}
	out := make([]models.StatusRecord, 0, len(byCountry))
	for _, rec := range byCountry {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CountryCode < out[j].CountryCode })
	return out, nil
}

// Upsert overwrites per (substance, country_code). Empty input is a no-op.
func (s *InMemoryStore) Upsert(_ context.Context, records []models.StatusRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		byCountry, ok := s.records[rec.Substance]
		if !ok {
			byCountry = make(map[string]models.StatusRecord)
			s.records[rec.Substance] = byCountry
		}
		byCountry[rec.CountryCode] = rec
	}
	return nil
}
