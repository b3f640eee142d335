package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

// Result splits an ingested batch by whether the store already knew the outage.
type Result struct {
	New      []domain.Outage
	Existing []domain.Outage
}

// Ingester hashes parsed outages and upserts them by hash.
type Ingester struct {
	store  domain.OutageStore
	logger *slog.Logger
}

// NewIngester creates an Ingester backed by store.
func NewIngester(store domain.OutageStore, logger *slog.Logger) *Ingester {
	return &Ingester{store: store, logger: logger}
}

// Ingest assigns content hashes and saves the batch. Outages whose hash is
// already stored come back as the stored row, never as a new one.
func (i *Ingester) Ingest(ctx context.Context, outages []domain.Outage) (Result, error) {
	if len(outages) == 0 {
		return Result{}, nil
	}

	hashed := make([]domain.Outage, len(outages))
	for idx, o := range outages {
		hashed[idx] = WithHash(o)
	}

	saved, err := i.store.SaveOutages(ctx, hashed)
	if err != nil {
		return Result{}, fmt.Errorf("save outages: %w", err)
	}

	var res Result
	for _, s := range saved {
		if s.Created {
			res.New = append(res.New, s.Outage)
			continue
		}
		res.Existing = append(res.Existing, s.Outage)
	}

	i.logger.Info("outages ingested",
		"total", len(saved),
		"new", len(res.New),
		"existing", len(res.Existing),
	)
	return res, nil
}
