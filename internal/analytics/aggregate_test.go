package analytics

import (
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/sneaker-tracker/internal/models"
)

func ptr[T any](v T) *T { return &v }

func item(id string, value, cost float64) models.ItemView {
	return models.ItemView{ID: id, EstimatedValue: ptr(value), PurchasePrice: ptr(cost)}
}

func assertDecimal(t *testing.T, expected string, got decimal.Decimal) {
	t.Helper()
	want, err := decimal.NewFromString(expected)
	require.NoError(t, err)
	assert.True(t, want.Equal(got), "expected %s, got %s", expected, got)
}

func performerIDs(ps []Performer) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ItemID
	}
	return out
}

func TestAggregate_Scenario(t *testing.T) {
	items := []models.ItemView{
		item("1", 500, 100),
		item("2", 300, 300),
		item("3", 50, 200),
	}

	snap := Aggregate(items, Options{})

	assertDecimal(t, "850", snap.TotalValue)
	assertDecimal(t, "600", snap.TotalInvestment)
	assertDecimal(t, "250", snap.TotalGain)
	assert.Equal(t, 41.67, snap.GainPercentage)
	assert.Equal(t, 3, snap.ItemCount)
	assert.Equal(t, 3, snap.RankedCount)

	require.Len(t, snap.TopPerformers, 3)
	assert.Equal(t, []string{"1", "2", "3"}, performerIDs(snap.TopPerformers))
	assert.Equal(t, 400.0, snap.TopPerformers[0].ROI)
	assert.Equal(t, 0.0, snap.TopPerformers[1].ROI)
	assert.Equal(t, -75.0, snap.TopPerformers[2].ROI)

	assert.Equal(t, "3", snap.WorstPerformers[0].ItemID)
	assert.Equal(t, 108.33, snap.ROIStats.Mean)
	assert.Equal(t, 0.0, snap.ROIStats.Median)
}

func TestAggregate_EmptyInput(t *testing.T) {
	snap := Aggregate(nil, Options{TopN: 3})
	assert.True(t, snap.TotalValue.IsZero())
	assert.True(t, snap.TotalGain.IsZero())
	assert.Equal(t, 0.0, snap.GainPercentage)
	assert.Empty(t, snap.TopPerformers)
	assert.Empty(t, snap.WorstPerformers)
	assert.Empty(t, snap.ByBrand)
	assert.Equal(t, ROIStats{}, snap.ROIStats)
}

func TestAggregate_ZeroInvestmentGuard(t *testing.T) {
	tests := []struct {
		name  string
		items []models.ItemView
	}{
		{"no cost data", []models.ItemView{{ID: "a", EstimatedValue: ptr(200.0)}}},
		{"gifted pair override", []models.ItemView{{ID: "a", EstimatedValue: ptr(200.0), PurchasePrice: ptr(150.0), CostBasis: ptr(0.0)}}},
		{"no value no cost", []models.ItemView{{ID: "a"}, {ID: "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Aggregate(tt.items, Options{})
			assert.True(t, snap.TotalInvestment.IsZero())
			assert.Equal(t, 0.0, snap.GainPercentage)
			assert.False(t, math.IsNaN(snap.GainPercentage))
			assert.Equal(t, 0, snap.RankedCount, "zero-cost items are not ranked")
		})
	}
}

func TestAggregate_GainIdentity(t *testing.T) {
	sets := [][]models.ItemView{
		{item("a", 0.1, 0.2), item("b", 0.2, 0.1)},
		{item("a", 199.99, 170), {ID: "b", RetailPrice: ptr(110.0)}, {ID: "c", CostBasis: ptr(45.5)}},
		{item("a", 1e6, 1), item("b", 1, 1e6)},
	}

	for i, items := range sets {
		t.Run(fmt.Sprintf("set %d", i), func(t *testing.T) {
			snap := Aggregate(items, Options{})
			assert.True(t, snap.TotalGain.Equal(snap.TotalValue.Sub(snap.TotalInvestment)))
		})
	}
}

func TestAggregate_CostBasisFallbackIsPerItem(t *testing.T) {
	items := []models.ItemView{
		{ID: "a", EstimatedValue: ptr(100.0), PurchasePrice: ptr(80.0), CostBasis: ptr(60.0)},
		{ID: "b", EstimatedValue: ptr(100.0), PurchasePrice: ptr(90.0)},
		{ID: "c", RetailPrice: ptr(120.0)},
	}
	snap := Aggregate(items, Options{})
	assertDecimal(t, "150", snap.TotalInvestment)
	assertDecimal(t, "320", snap.TotalValue)
}

func TestAggregate_PerformerTieBreaks(t *testing.T) {
	items := []models.ItemView{
		item("b", 200, 100), // +100%, gain 100
		item("a", 200, 100), // +100%, gain 100, wins on id
		item("c", 400, 200), // +100%, gain 200, wins on gain
		item("d", 50, 100),
	}
	snap := Aggregate(items, Options{TopN: 2})
	assert.Equal(t, []string{"c", "a"}, performerIDs(snap.TopPerformers))
	assert.Equal(t, []string{"d", "b"}, performerIDs(snap.WorstPerformers))
}

func TestAggregate_PerformerListsOverlapOnlyWhenShort(t *testing.T) {
	for count := 0; count <= 12; count++ {
		t.Run(fmt.Sprintf("%d items", count), func(t *testing.T) {
			items := make([]models.ItemView, count)
			for i := range items {
				items[i] = item(fmt.Sprintf("item-%02d", i), float64(100+i*13%7), float64(50+i))
			}
			n := 5
			snap := Aggregate(items, Options{TopN: n})

			top := map[string]bool{}
			for _, p := range snap.TopPerformers {
				top[p.ItemID] = true
			}
			overlap := 0
			union := map[string]bool{}
			for id := range top {
				union[id] = true
			}
			for _, p := range snap.WorstPerformers {
				union[p.ItemID] = true
				if top[p.ItemID] {
					overlap++
				}
			}

			if count >= 2*n {
				assert.Zero(t, overlap)
			} else {
				assert.Len(t, union, count, "short rankings are covered exactly")
			}
		})
	}
}

func TestAggregate_Listings(t *testing.T) {
	items := []models.ItemView{
		{ID: "a", ForSale: true, AskingPrice: ptr(250.0)},
		{ID: "b", ForSale: true},
		{ID: "c", AskingPrice: ptr(999.0)},
	}
	snap := Aggregate(items, Options{})
	assert.Equal(t, 2, snap.Listings.Count)
	assertDecimal(t, "250", snap.Listings.AskingTotal)
}
