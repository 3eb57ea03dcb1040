package store

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/codyseavey/sneaker-tracker/internal/metrics"
	"github.com/codyseavey/sneaker-tracker/internal/models"
)

// LimitedFetcher wraps a Fetcher with a shared rate limit and a per-call
// timeout, and records fetch metrics. The engine itself never waits or
// retries; this is the collaborator's own policy.
type LimitedFetcher struct {
	next    Fetcher
	limiter *rate.Limiter
	timeout time.Duration
}

// NewLimitedFetcher wraps next. A perSecond of 0 disables rate limiting and a
// timeout of 0 disables the per-call deadline.
func NewLimitedFetcher(next Fetcher, perSecond float64, burst int, timeout time.Duration) *LimitedFetcher {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &LimitedFetcher{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
	}
}

// FetchItems implements Fetcher.
func (f *LimitedFetcher) FetchItems(ctx context.Context, ownerID string) ([]models.ItemView, error) {
	var items []models.ItemView
	err := f.do(ctx, "fetch_items", func(ctx context.Context) error {
		var err error
		items, err = f.next.FetchItems(ctx, ownerID)
		return err
	})
	return items, err
}

// FetchCollectionMembership implements Fetcher.
func (f *LimitedFetcher) FetchCollectionMembership(ctx context.Context, ids []string) (map[string]models.IDSet, error) {
	var out map[string]models.IDSet
	err := f.do(ctx, "fetch_collection_membership", func(ctx context.Context) error {
		var err error
		out, err = f.next.FetchCollectionMembership(ctx, ids)
		return err
	})
	return out, err
}

// FetchTagMembership implements Fetcher.
func (f *LimitedFetcher) FetchTagMembership(ctx context.Context, ids []string) (map[string]models.IDSet, error) {
	var out map[string]models.IDSet
	err := f.do(ctx, "fetch_tag_membership", func(ctx context.Context) error {
		var err error
		out, err = f.next.FetchTagMembership(ctx, ids)
		return err
	})
	return out, err
}

// FetchCollections implements Fetcher.
func (f *LimitedFetcher) FetchCollections(ctx context.Context, ownerID string, ids []string) ([]models.Collection, error) {
	var out []models.Collection
	err := f.do(ctx, "fetch_collections", func(ctx context.Context) error {
		var err error
		out, err = f.next.FetchCollections(ctx, ownerID, ids)
		return err
	})
	return out, err
}

// FetchTags implements Fetcher.
func (f *LimitedFetcher) FetchTags(ctx context.Context, ownerID string, ids []string) ([]models.Tag, error) {
	var out []models.Tag
	err := f.do(ctx, "fetch_tags", func(ctx context.Context) error {
		var err error
		out, err = f.next.FetchTags(ctx, ownerID, ids)
		return err
	})
	return out, err
}

func (f *LimitedFetcher) do(ctx context.Context, op string, call func(context.Context) error) error {
	start := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	if err := f.limiter.Wait(ctx); err != nil {
		metrics.FetchRequestsTotal.WithLabelValues(op, "failed").Inc()
		return &models.FetchError{Op: op, Err: err}
	}

	if err := call(ctx); err != nil {
		metrics.FetchRequestsTotal.WithLabelValues(op, "failed").Inc()
		return err
	}
	metrics.FetchRequestsTotal.WithLabelValues(op, "success").Inc()
	return nil
}
