// Package store is the record-fetch collaborator: it loads items and
// membership data from the database and records user edits.
package store

import (
	"context"

	"github.com/codyseavey/sneaker-tracker/internal/models"
)

// Fetcher loads the records the engine computes over. Failures are
// *models.FetchError values, so callers can tell them apart from an empty
// result with errors.Is(err, models.ErrFetchFailed).
type Fetcher interface {
	// FetchItems returns every item ownerID holds, denormalized with its
	// catalog entry and tags, oldest first.
	FetchItems(ctx context.Context, ownerID string) ([]models.ItemView, error)

	// FetchCollectionMembership returns the explicitly linked item ids of
	// each manual collection in ids, in one call.
	FetchCollectionMembership(ctx context.Context, ids []string) (map[string]models.IDSet, error)

	// FetchTagMembership returns the item ids carrying each tag in ids, in one call.
	FetchTagMembership(ctx context.Context, ids []string) (map[string]models.IDSet, error)

	// FetchCollections returns ownerID's collections among ids. Ids that are
	// missing or belong to another owner match models.ErrNotFound.
	FetchCollections(ctx context.Context, ownerID string, ids []string) ([]models.Collection, error)

	// FetchTags returns ownerID's tags among ids, with the same not-found rule.
	FetchTags(ctx context.Context, ownerID string, ids []string) ([]models.Tag, error)
}
