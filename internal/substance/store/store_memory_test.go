package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reglens/internal/substance/models"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func record(key, country string, status models.AccessStatus) models.StatusRecord {
	return models.StatusRecord{
		Substance:   models.NormalizedKey(key),
		CountryCode: country,
		Status:      status,
		UpdatedAt:   time.Now().UTC(),
	}
}

func (s *InMemoryStoreSuite) TestLookupAbsentKey() {
	records, err := s.store.Lookup(context.Background(), "mdma")
	s.NoError(err)
	s.NotNil(records)
	s.Empty(records)
}

func (s *InMemoryStoreSuite) TestUpsertAndLookup() {
	ctx := context.Background()
	err := s.store.Upsert(ctx, []models.StatusRecord{
		record("mdma", "US", models.StatusBanned),
		record("mdma", "DE", models.StatusLimitedAccessTrials),
	})
	s.Require().NoError(err)

	records, err := s.store.Lookup(ctx, "mdma")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	// Sorted by country code.
	s.Equal("DE", records[0].CountryCode)
	s.Equal("US", records[1].CountryCode)
}

func (s *InMemoryStoreSuite) TestUpsertIsIdempotent() {
	ctx := context.Background()
	set := []models.StatusRecord{record("mdma", "US", models.StatusBanned)}

	s.Require().NoError(s.store.Upsert(ctx, set))
	s.Require().NoError(s.store.Upsert(ctx, set))

	records, err := s.store.Lookup(ctx, "mdma")
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *InMemoryStoreSuite) TestUpsertOverwritesSamePair() {
	ctx := context.Background()
	s.Require().NoError(s.store.Upsert(ctx, []models.StatusRecord{record("mdma", "US", models.StatusBanned)}))

	updated := record("mdma", "US", models.StatusLimitedAccessTrials)
	updated.ReferenceLink = "https://example.org/trials"
	s.Require().NoError(s.store.Upsert(ctx, []models.StatusRecord{updated}))

	records, err := s.store.Lookup(ctx, "mdma")
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(models.StatusLimitedAccessTrials, records[0].Status)
	s.Equal("https://example.org/trials", records[0].ReferenceLink)
}

func (s *InMemoryStoreSuite) TestUpsertEmptyIsNoop() {
	s.NoError(s.store.Upsert(context.Background(), nil))
	s.NoError(s.store.Upsert(context.Background(), []models.StatusRecord{}))
}

func (s *InMemoryStoreSuite) TestKeysAreIsolated() {
	ctx := context.Background()
	s.Require().NoError(s.store.Upsert(ctx, []models.StatusRecord{record("mdma", "US", models.StatusBanned)}))

	records, err := s.store.Lookup(ctx, "lsd")
	s.Require().NoError(err)
	s.Empty(records)
}
