package services

import (
	"context"

	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

// QueryRunner runs one search and returns the listings it found.
type QueryRunner interface {
	Run(ctx context.Context, query, location string) ([]models.ListingRecord, error)
}

// Aggregator runs several queries against one location and merges the
// results without duplicates.
type Aggregator struct {
	runner QueryRunner
	logger *utils.Logger
}

// NewAggregator creates an Aggregator over runner.
func NewAggregator(runner QueryRunner, logger *utils.Logger) *Aggregator {
	return &Aggregator{runner: runner, logger: logger}
}

// Aggregate runs each query in order. A failing query is logged and
// skipped; records from the others are still returned. The first record
// seen for a deduplication key wins.
func (a *Aggregator) Aggregate(ctx context.Context, queries []string, location string) []models.ListingRecord {
	seen := utils.NewKeySet()
	var result []models.ListingRecord

	for _, q := range queries {
		if ctx.Err() != nil {
			a.logger.Warn("[aggregate] Stopping before %q: %v", q, ctx.Err())
			break
		}

		a.logger.Info("[aggregate] Searching for: %s in %s", q, location)
		batch, err := a.runner.Run(ctx, q, location)
		if err != nil {
			a.logger.Error("[aggregate] Error scraping query %q: %v", q, err)
			continue
		}

		before := len(result)
		result = Merge(seen, result, batch)
		a.logger.Info("[aggregate] %q: %d listings, %d new (total %d)",
			q, len(batch), len(result)-before, len(result))
	}

	return result
}

// Merge appends the records of batch whose key is not yet in seen.
func Merge(seen *utils.KeySet, into, batch []models.ListingRecord) []models.ListingRecord {
	for _, r := range batch {
		if !seen.Add(r.Key()) {
			continue
		}
		into = append(into, r)
	}
	return into
}
