package models

// ValueSource names which field a resolved amount came from
type ValueSource string

const (
	SourceOverride      ValueSource = "override"
	SourcePurchasePrice ValueSource = "purchase_price"
	SourceEstimated     ValueSource = "estimated"
	SourceRetail        ValueSource = "retail"
	SourceNone          ValueSource = "none"
)

// ResolveCostBasis applies the cost basis fallback chain for one item:
// explicit override -> purchase price -> 0.
// A present override of 0 is honoured (gifted pairs have no cost).
func ResolveCostBasis(override, purchasePrice *float64) (float64, ValueSource) {
	if override != nil {
		return *override, SourceOverride
	}
	if purchasePrice != nil {
		return *purchasePrice, SourcePurchasePrice
	}
	return 0, SourceNone
}

// ResolveCurrentValue applies the valuation fallback chain for one item:
// catalog estimated value -> retail price -> 0.
func ResolveCurrentValue(estimated, retail *float64) (float64, ValueSource) {
	if estimated != nil {
		return *estimated, SourceEstimated
	}
	if retail != nil {
		return *retail, SourceRetail
	}
	return 0, SourceNone
}
