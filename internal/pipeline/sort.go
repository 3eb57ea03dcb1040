package pipeline

import (
	"sort"
	"time"

	"github.com/codyseavey/sneaker-tracker/internal/models"
)

// SortItems orders a copy of items by s. A nil sort keeps input order.
// The sort is stable in both directions: descending reverses the comparator,
// not the result, so equal keys keep their input order.
func SortItems(items []models.ItemView, s *models.Sort) []models.ItemView {
	out := clone(items)
	if s == nil || s.Key == "" {
		return out
	}

	cmp := comparator(s.Key)
	if cmp == nil {
		return out
	}
	desc := s.Direction == models.SortDesc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return cmp(out[j], out[i])
		}
		return cmp(out[i], out[j])
	})
	return out
}

func comparator(key models.SortKey) func(a, b models.ItemView) bool {
	switch key {
	case models.SortByDate:
		return func(a, b models.ItemView) bool {
			return purchaseInstant(a).Before(purchaseInstant(b))
		}
	case models.SortByValue:
		return func(a, b models.ItemView) bool {
			return a.ResolvedValue() < b.ResolvedValue()
		}
	case models.SortByCost:
		return func(a, b models.ItemView) bool {
			return a.ResolvedCostBasis() < b.ResolvedCostBasis()
		}
	case models.SortByWearCount:
		return func(a, b models.ItemView) bool {
			return a.WearCount < b.WearCount
		}
	}
	return nil
}

// purchaseInstant treats a missing purchase date as the earliest instant.
func purchaseInstant(item models.ItemView) time.Time {
	if item.PurchaseDate == nil {
		return time.Time{}
	}
	return *item.PurchaseDate
}
