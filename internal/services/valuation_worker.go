package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/codyseavey/sneaker-tracker/internal/metrics"
	"github.com/codyseavey/sneaker-tracker/internal/models"
	"github.com/codyseavey/sneaker-tracker/internal/store"
)

// ValuationStatus reports the worker's last run
type ValuationStatus struct {
	LastRun       time.Time `json:"last_run"`
	OwnersValued  int       `json:"owners_valued"`
	OwnersFailed  int       `json:"owners_failed"`
	CheckInterval string    `json:"check_interval"`
}

// ValuationWorker periodically recomputes every owner's portfolio and
// publishes the totals as Prometheus gauges. Results are never persisted.
type ValuationWorker struct {
	store     *store.GormStore
	portfolio *PortfolioService
	interval  time.Duration
	logger    zerolog.Logger

	mu     sync.RWMutex
	status ValuationStatus
}

// NewValuationWorker creates a new valuation worker
func NewValuationWorker(st *store.GormStore, portfolio *PortfolioService, interval time.Duration, logger zerolog.Logger) *ValuationWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &ValuationWorker{
		store:     st,
		portfolio: portfolio,
		interval:  interval,
		logger:    logger.With().Str("worker", "valuation").Logger(),
		status:    ValuationStatus{CheckInterval: interval.String()},
	}
}

// Start runs a valuation immediately and then on every tick until ctx is done.
func (w *ValuationWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("Valuation worker started")

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Valuation worker stopping...")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce values every owner's full portfolio. A failing owner is logged and
// skipped; the others are still published.
func (w *ValuationWorker) RunOnce(ctx context.Context) ValuationStatus {
	status := ValuationStatus{LastRun: time.Now(), CheckInterval: w.interval.String()}

	if n, err := w.store.CountCatalogEntries(ctx); err == nil {
		metrics.CatalogEntriesTotal.Set(float64(n))
	}

	owners, err := w.store.ListOwners(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Valuation worker: failed to list owners")
		metrics.ValuationRunsTotal.WithLabelValues("failed").Inc()
		w.setStatus(status)
		return status
	}

	for _, owner := range owners {
		snap, err := w.portfolio.Analytics(ctx, owner, models.Criteria{}, 0)
		if err != nil {
			status.OwnersFailed++
			w.logger.Warn().Err(err).Str("owner", owner).Msg("Valuation worker: owner skipped")
			continue
		}
		status.OwnersValued++
		metrics.PortfolioItemsTotal.WithLabelValues(owner).Set(float64(snap.ItemCount))
		metrics.PortfolioValueUSD.WithLabelValues(owner).Set(snap.TotalValue.InexactFloat64())
		metrics.PortfolioGainPercent.WithLabelValues(owner).Set(snap.GainPercentage)
	}

	result := "success"
	if status.OwnersFailed > 0 {
		result = "partial"
	}
	metrics.ValuationRunsTotal.WithLabelValues(result).Inc()
	w.logger.Info().Int("owners", status.OwnersValued).Int("failed", status.OwnersFailed).Msg("Valuation run complete")

	w.setStatus(status)
	return status
}

// Status returns the outcome of the most recent run.
func (w *ValuationWorker) Status() ValuationStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

func (w *ValuationWorker) setStatus(s ValuationStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = s
}
