package models

import (
	"math"
	"time"
)

// SortKey selects the attribute the pipeline orders by
type SortKey string

const (
	SortByDate      SortKey = "date"       // purchase date
	SortByValue     SortKey = "value"      // resolved current value
	SortByCost      SortKey = "cost"       // resolved cost basis
	SortByWearCount SortKey = "wear_count" // wear count
)

// SortDirection is asc or desc
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort orders pipeline output. An empty Direction means ascending.
type Sort struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction"`
}

// PriceRange bounds an amount inclusively; either side may be open.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Contains reports whether v lies within the range.
func (r PriceRange) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// CountRange bounds an integer inclusively; either side may be open.
type CountRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// Contains reports whether v lies within the range.
func (r CountRange) Contains(v int) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// DateRange bounds a timestamp inclusively; either side may be open.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Contains reports whether t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// Criteria describes one filter/sort request. Every field is optional and an
// absent field places no constraint; it never means "exclude everything".
type Criteria struct {
	CollectionIDs []string    `json:"collection_ids,omitempty"`
	TagIDs        []string    `json:"tag_ids,omitempty"`
	Price         *PriceRange `json:"price,omitempty"` // on the resolved cost basis
	WearCount     *CountRange `json:"wear_count,omitempty"`
	PurchaseDate  *DateRange  `json:"purchase_date,omitempty"`
	Conditions    []Condition `json:"conditions,omitempty"`
	ForSale       *bool       `json:"for_sale,omitempty"`
	Rule          *SmartRule  `json:"rule,omitempty"`
	Sort          *Sort       `json:"sort,omitempty"`
}

// IsEmpty reports whether no field constrains or orders the items.
func (c Criteria) IsEmpty() bool {
	return len(c.CollectionIDs) == 0 &&
		len(c.TagIDs) == 0 &&
		c.Price == nil &&
		c.WearCount == nil &&
		c.PurchaseDate == nil &&
		len(c.Conditions) == 0 &&
		c.ForSale == nil &&
		c.Rule == nil &&
		c.Sort == nil
}

// Validate rejects contradictory ranges and unknown sort options.
// A smart rule carried in the criteria is validated as well.
func (c Criteria) Validate() error {
	if p := c.Price; p != nil && (!finite(p.Min) || !finite(p.Max)) {
		return criteriaError("price bounds must be finite numbers")
	}
	if p := c.Price; p != nil && p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		return criteriaError("price min %.2f exceeds max %.2f", *p.Min, *p.Max)
	}
	if w := c.WearCount; w != nil {
		if (w.Min != nil && *w.Min < 0) || (w.Max != nil && *w.Max < 0) {
			return criteriaError("wear count bounds must not be negative")
		}
		if w.Min != nil && w.Max != nil && *w.Min > *w.Max {
			return criteriaError("wear count min %d exceeds max %d", *w.Min, *w.Max)
		}
	}
	if d := c.PurchaseDate; d != nil && d.From != nil && d.To != nil && d.From.After(*d.To) {
		return criteriaError("purchase date range starts after it ends")
	}
	for _, cond := range c.Conditions {
		if !cond.IsValid() {
			return criteriaError("unknown condition %q", cond)
		}
	}
	if s := c.Sort; s != nil {
		switch s.Key {
		case SortByDate, SortByValue, SortByCost, SortByWearCount:
		default:
			return criteriaError("unknown sort key %q", s.Key)
		}
		switch s.Direction {
		case "", SortAsc, SortDesc:
		default:
			return criteriaError("unknown sort direction %q", s.Direction)
		}
	}
	if c.Rule != nil {
		if err := c.Rule.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func finite(v *float64) bool {
	return v == nil || !(math.IsNaN(*v) || math.IsInf(*v, 0))
}
