// Package pipeline narrows and orders item sets by Criteria.
//
// Steps always run in the same order: membership, ranges, sets (condition
// and delegated rule), for-sale flag, sort. Each step returns a new slice and
// leaves its input untouched.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/codyseavey/sneaker-tracker/internal/models"
	"github.com/codyseavey/sneaker-tracker/internal/rules"
)

// ErrNoLookup is returned when criteria name collections or tags but no
// membership lookup was supplied.
var ErrNoLookup = errors.New("membership criteria given without a lookup")

// MembershipLookup resolves collection and tag ids to the item ids they hold.
// Each method is called at most once per Apply with the full id list.
type MembershipLookup interface {
	FetchCollectionMembership(ctx context.Context, collectionIDs []string) (map[string]models.IDSet, error)
	FetchTagMembership(ctx context.Context, tagIDs []string) (map[string]models.IDSet, error)
}

// Apply runs every step over items. Empty criteria return an equal copy.
func Apply(ctx context.Context, items []models.ItemView, c models.Criteria, lookup MembershipLookup) ([]models.ItemView, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	out, err := FilterMembership(ctx, items, c, lookup)
	if err != nil {
		return nil, err
	}
	out = FilterRanges(out, c)
	out, err = FilterSets(out, c)
	if err != nil {
		return nil, err
	}
	out = FilterForSale(out, c.ForSale)
	return SortItems(out, c.Sort), nil
}

// FilterMembership keeps items belonging to any listed collection and to any
// listed tag. Collections and tags are each fetched in one batched call.
func FilterMembership(ctx context.Context, items []models.ItemView, c models.Criteria, lookup MembershipLookup) ([]models.ItemView, error) {
	if len(c.CollectionIDs) == 0 && len(c.TagIDs) == 0 {
		return clone(items), nil
	}
	if lookup == nil {
		return nil, ErrNoLookup
	}

	var inCollections, inTags models.IDSet
	if len(c.CollectionIDs) > 0 {
		byCollection, err := lookup.FetchCollectionMembership(ctx, c.CollectionIDs)
		if err != nil {
			return nil, fmt.Errorf("collection membership: %w", err)
		}
		inCollections = union(byCollection, c.CollectionIDs)
	}
	if len(c.TagIDs) > 0 {
		byTag, err := lookup.FetchTagMembership(ctx, c.TagIDs)
		if err != nil {
			return nil, fmt.Errorf("tag membership: %w", err)
		}
		inTags = union(byTag, c.TagIDs)
	}

	return keep(items, func(item models.ItemView) bool {
		if inCollections != nil && !inCollections.Has(item.ID) {
			return false
		}
		if inTags != nil && !inTags.Has(item.ID) {
			return false
		}
		return true
	}), nil
}

// FilterRanges applies the price (cost basis), wear count and purchase date
// ranges. Bounds are inclusive. Items without a purchase date fail a date range.
func FilterRanges(items []models.ItemView, c models.Criteria) []models.ItemView {
	if c.Price == nil && c.WearCount == nil && c.PurchaseDate == nil {
		return clone(items)
	}
	return keep(items, func(item models.ItemView) bool {
		if c.Price != nil && !c.Price.Contains(item.ResolvedCostBasis()) {
			return false
		}
		if c.WearCount != nil && !c.WearCount.Contains(item.WearCount) {
			return false
		}
		if c.PurchaseDate != nil {
			if item.PurchaseDate == nil || !c.PurchaseDate.Contains(*item.PurchaseDate) {
				return false
			}
		}
		return true
	})
}

// FilterSets keeps items whose condition is in the allowed set, then applies
// the delegated smart rule.
func FilterSets(items []models.ItemView, c models.Criteria) ([]models.ItemView, error) {
	out := clone(items)
	if len(c.Conditions) > 0 {
		allowed := make(map[models.Condition]struct{}, len(c.Conditions))
		for _, cond := range c.Conditions {
			allowed[cond] = struct{}{}
		}
		out = keep(out, func(item models.ItemView) bool {
			_, ok := allowed[item.Condition]
			return ok
		})
	}
	if c.Rule != nil {
		matcher, err := rules.NewMatcher(*c.Rule)
		if err != nil {
			return nil, err
		}
		out = keep(out, matcher.Match)
	}
	return out, nil
}

// FilterForSale applies the for-sale flag when it is present.
func FilterForSale(items []models.ItemView, forSale *bool) []models.ItemView {
	if forSale == nil {
		return clone(items)
	}
	want := *forSale
	return keep(items, func(item models.ItemView) bool {
		return item.ForSale == want
	})
}

func union(byID map[string]models.IDSet, ids []string) models.IDSet {
	out := models.NewIDSet()
	for _, id := range ids {
		for itemID := range byID[id] {
			out.Add(itemID)
		}
	}
	return out
}

func keep(items []models.ItemView, pred func(models.ItemView) bool) []models.ItemView {
	out := make([]models.ItemView, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

func clone(items []models.ItemView) []models.ItemView {
	out := make([]models.ItemView, len(items))
	copy(out, items)
	return out
}
