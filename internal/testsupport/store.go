package testsupport

import (
	"context"
	"testing"
	"time"

	"recallhub/internal/config"
	"recallhub/internal/recalls"
	"recallhub/internal/textutil"
)

// MustOpenStore opens a recalls.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *recalls.Store {
	t.Helper()

	store, err := recalls.Open(cfg)
	if err != nil {
		t.Fatalf("recalls.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Record builds a minimal valid recall record for tests. The mutate
// callback customizes identifier fields before keyword computation.
func Record(recallID, agency, name string, recallDate time.Time, mutate func(*recalls.Record)) *recalls.Record {
	record := &recalls.Record{
		RecallID:     recallID,
		ProductName:  name,
		SourceAgency: agency,
		RecallDate:   recallDate,
	}
	if mutate != nil {
		mutate(record)
	}
	record.SearchKeywords = textutil.KeywordBlob(
		record.ProductName, record.Brand, record.Manufacturer,
		record.ModelNumber, record.Description,
	)
	return record
}

// SeedRecord upserts a record built by Record and fails the test on error.
func SeedRecord(t testing.TB, store *recalls.Store, recallID, agency, name string, recallDate time.Time, mutate func(*recalls.Record)) *recalls.Record {
	t.Helper()

	record := Record(recallID, agency, name, recallDate, mutate)
	if _, err := store.UpsertByRecallID(context.Background(), record); err != nil {
		t.Fatalf("seed record %s: %v", recallID, err)
	}
	return record
}
