package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/codyseavey/sneaker-tracker/internal/analytics"
	"github.com/codyseavey/sneaker-tracker/internal/metrics"
	"github.com/codyseavey/sneaker-tracker/internal/models"
	"github.com/codyseavey/sneaker-tracker/internal/pipeline"
	"github.com/codyseavey/sneaker-tracker/internal/store"
)

// PortfolioService runs fetch -> pipeline -> aggregation for one owner.
// Nothing it derives is persisted; every call recomputes from fresh records.
type PortfolioService struct {
	fetcher     store.Fetcher
	collections *CollectionService
	topN        int
	logger      zerolog.Logger
}

// NewPortfolioService creates a portfolio service
func NewPortfolioService(fetcher store.Fetcher, collections *CollectionService, topN int, logger zerolog.Logger) *PortfolioService {
	if topN <= 0 {
		topN = analytics.DefaultTopN
	}
	return &PortfolioService{
		fetcher:     fetcher,
		collections: collections,
		topN:        topN,
		logger:      logger.With().Str("service", "portfolio").Logger(),
	}
}

// Items returns the owner's items narrowed and ordered by criteria.
func (p *PortfolioService) Items(ctx context.Context, ownerID string, criteria models.Criteria) ([]models.ItemView, error) {
	// Reject bad criteria before paying for a fetch
	if err := criteria.Validate(); err != nil {
		if errors.Is(err, models.ErrMalformedRule) {
			metrics.MalformedRulesTotal.WithLabelValues("query").Inc()
		}
		return nil, err
	}

	items, err := p.fetcher.FetchItems(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	metrics.PipelineItems.WithLabelValues("in").Observe(float64(len(items)))

	out, err := pipeline.Apply(ctx, items, criteria, p.collections.Lookup(ownerID, items))
	if err != nil {
		return nil, err
	}
	metrics.PipelineItems.WithLabelValues("out").Observe(float64(len(out)))
	return out, nil
}

// Analytics aggregates the owner's items after applying criteria. A topN of
// 0 uses the configured default.
func (p *PortfolioService) Analytics(ctx context.Context, ownerID string, criteria models.Criteria, topN int) (analytics.Snapshot, error) {
	items, err := p.Items(ctx, ownerID, criteria)
	if err != nil {
		return analytics.Snapshot{}, err
	}
	if topN <= 0 {
		topN = p.topN
	}

	start := time.Now()
	snap := analytics.Aggregate(items, analytics.Options{TopN: topN})
	metrics.AggregationDuration.Observe(time.Since(start).Seconds())

	p.logger.Debug().
		Str("owner", ownerID).
		Int("items", snap.ItemCount).
		Str("total_value", snap.TotalValue.StringFixed(2)).
		Msg("Portfolio aggregated")
	return snap, nil
}
