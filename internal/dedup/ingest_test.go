package dedup_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/outage-alert-service/internal/adapter/memstore"
	"github.com/couchcryptid/outage-alert-service/internal/dedup"
	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

type failingStore struct {
	domain.OutageStore
}

func (failingStore) SaveOutages(context.Context, []domain.Outage) ([]domain.SaveResult, error) {
	return nil, errors.New("disk full")
}

func TestIngest_Idempotent(t *testing.T) {
	store := memstore.New(nil)
	ing := dedup.NewIngester(store, slog.Default())
	ctx := context.Background()

	first, err := ing.Ingest(ctx, []domain.Outage{sampleOutage()})
	require.NoError(t, err)
	require.Len(t, first.New, 1)
	assert.Empty(t, first.Existing)

	second, err := ing.Ingest(ctx, []domain.Outage{sampleOutage()})
	require.NoError(t, err)
	assert.Empty(t, second.New)
	require.Len(t, second.Existing, 1)
	assert.Equal(t, first.New[0].ID, second.Existing[0].ID)

	all, err := store.UnnotifiedOutages(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIngest_ReorderedAddressesAreExisting(t *testing.T) {
	store := memstore.New(nil)
	ing := dedup.NewIngester(store, slog.Default())
	ctx := context.Background()

	_, err := ing.Ingest(ctx, []domain.Outage{sampleOutage()})
	require.NoError(t, err)

	reordered := sampleOutage()
	reordered.Addresses = []domain.AddressBlock{reordered.Addresses[1], reordered.Addresses[0]}
	res, err := ing.Ingest(ctx, []domain.Outage{reordered})
	require.NoError(t, err)
	assert.Empty(t, res.New)
	assert.Len(t, res.Existing, 1)
}

func TestIngest_DuplicateWithinBatch(t *testing.T) {
	store := memstore.New(nil)
	ing := dedup.NewIngester(store, slog.Default())

	res, err := ing.Ingest(context.Background(), []domain.Outage{sampleOutage(), sampleOutage()})
	require.NoError(t, err)
	assert.Len(t, res.New, 1)
	assert.Len(t, res.Existing, 1)
}

func TestIngest_AssignsHash(t *testing.T) {
	ing := dedup.NewIngester(memstore.New(nil), slog.Default())

	res, err := ing.Ingest(context.Background(), []domain.Outage{sampleOutage()})
	require.NoError(t, err)
	require.Len(t, res.New, 1)
	assert.Equal(t, dedup.ComputeHash(sampleOutage()), res.New[0].ContentHash)
	assert.NotZero(t, res.New[0].ID)
}

func TestIngest_Empty(t *testing.T) {
	ing := dedup.NewIngester(failingStore{}, slog.Default())

	res, err := ing.Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.New)
}

func TestIngest_StoreError(t *testing.T) {
	ing := dedup.NewIngester(failingStore{}, slog.Default())

	_, err := ing.Ingest(context.Background(), []domain.Outage{sampleOutage()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
