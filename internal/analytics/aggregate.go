// Package analytics computes portfolio snapshots from a set of items.
// It performs no I/O; every figure is a pure function of the input slice.
package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/codyseavey/sneaker-tracker/internal/models"
)

// DefaultTopN is the performer list length used when Options.TopN is unset.
const DefaultTopN = 5

var hundred = decimal.NewFromInt(100)

// Options tunes one aggregation.
type Options struct {
	TopN int
}

// Snapshot is an ephemeral portfolio summary. It is never persisted.
type Snapshot struct {
	TotalValue      decimal.Decimal `json:"total_value"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	TotalGain       decimal.Decimal `json:"total_gain"`
	GainPercentage  float64         `json:"gain_percentage"`
	ItemCount       int             `json:"item_count"`
	RankedCount     int             `json:"ranked_count"`
	TopPerformers   []Performer     `json:"top_performers"`
	WorstPerformers []Performer     `json:"worst_performers"`
	ByBrand         []Bucket        `json:"by_brand"`
	ByCategory      []Bucket        `json:"by_category"`
	ByReleaseYear   []Bucket        `json:"by_release_year"`
	SizeRun         []Bucket        `json:"size_run"`
	ROIStats        ROIStats        `json:"roi_stats"`
	Listings        Listings        `json:"listings"`
}

// Listings summarizes the items currently marked for sale.
type Listings struct {
	Count       int             `json:"count"`
	AskingTotal decimal.Decimal `json:"asking_total"`
}

// valued pairs an item with its resolved amounts so the fallback chains run
// exactly once per item.
type valued struct {
	item  models.ItemView
	value decimal.Decimal
	cost  decimal.Decimal
}

// Aggregate builds a snapshot over items.
func Aggregate(items []models.ItemView, opts Options) Snapshot {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	rows := make([]valued, len(items))
	totalValue := decimal.Zero
	totalInvestment := decimal.Zero
	listings := Listings{AskingTotal: decimal.Zero}

	for i, item := range items {
		rows[i] = valued{
			item:  item,
			value: decimal.NewFromFloat(item.ResolvedValue()),
			cost:  decimal.NewFromFloat(item.ResolvedCostBasis()),
		}
		totalValue = totalValue.Add(rows[i].value)
		totalInvestment = totalInvestment.Add(rows[i].cost)

		if item.ForSale {
			listings.Count++
			if item.AskingPrice != nil {
				listings.AskingTotal = listings.AskingTotal.Add(decimal.NewFromFloat(*item.AskingPrice))
			}
		}
	}

	totalGain := totalValue.Sub(totalInvestment)
	ranked := rank(rows)
	top, worst := performers(ranked, topN)

	return Snapshot{
		TotalValue:      totalValue,
		TotalInvestment: totalInvestment,
		TotalGain:       totalGain,
		GainPercentage:  percent(totalGain, totalInvestment),
		ItemCount:       len(items),
		RankedCount:     len(ranked),
		TopPerformers:   top,
		WorstPerformers: worst,
		ByBrand:         byBrand(rows, totalValue),
		ByCategory:      byCategory(rows, totalValue),
		ByReleaseYear:   byReleaseYear(rows, totalValue),
		SizeRun:         sizeRun(rows, totalValue),
		ROIStats:        roiStats(ranked),
		Listings:        listings,
	}
}

// percent returns part/whole*100 rounded to two places, or 0 when whole is 0.
func percent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Mul(hundred).Div(whole).Round(2).InexactFloat64()
}
