package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Performer is one ranked item.
type Performer struct {
	ItemID       string          `json:"item_id"`
	Brand        string          `json:"brand"`
	Model        string          `json:"model"`
	Colorway     string          `json:"colorway"`
	CurrentValue decimal.Decimal `json:"current_value"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
	Gain         decimal.Decimal `json:"gain"`
	ROI          float64         `json:"roi"`

	roi decimal.Decimal
}

// rank orders items with a positive cost basis by ROI desc, then gain desc,
// then item id asc. Zero cost items have no defined ROI and are left out.
func rank(rows []valued) []Performer {
	ranked := make([]Performer, 0, len(rows))
	for _, r := range rows {
		if !r.cost.IsPositive() {
			continue
		}
		gain := r.value.Sub(r.cost)
		roi := gain.Mul(hundred).Div(r.cost)
		ranked = append(ranked, Performer{
			ItemID:       r.item.ID,
			Brand:        r.item.Brand,
			Model:        r.item.Model,
			Colorway:     r.item.Colorway,
			CurrentValue: r.value,
			CostBasis:    r.cost,
			Gain:         gain,
			ROI:          roi.Round(2).InexactFloat64(),
			roi:          roi,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if c := a.roi.Cmp(b.roi); c != 0 {
			return c > 0
		}
		if c := a.Gain.Cmp(b.Gain); c != 0 {
			return c > 0
		}
		return a.ItemID < b.ItemID
	})
	return ranked
}

// performers reads both lists off the single ranking: top from the head,
// worst from the tail with the weakest first. When fewer than 2n items are
// ranked the lists overlap and together cover the whole ranking.
func performers(ranked []Performer, n int) (top, worst []Performer) {
	k := min(n, len(ranked))
	top = make([]Performer, k)
	copy(top, ranked[:k])

	worst = make([]Performer, 0, k)
	for i := len(ranked) - 1; i >= len(ranked)-k; i-- {
		worst = append(worst, ranked[i])
	}
	return top, worst
}
