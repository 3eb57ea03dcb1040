package analytics

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// UnknownBucket holds items with no brand, category or size.
	UnknownBucket = "Unknown"
	// UnknownYear holds items whose release date is missing or unparseable.
	UnknownYear = "unknown"
)

// Bucket is one group of a diversification breakdown.
type Bucket struct {
	Key        string          `json:"key"`
	Count      int             `json:"count"`
	TotalValue decimal.Decimal `json:"total_value"`
	Percentage float64         `json:"percentage"` // share of portfolio value
}

// releaseLayouts are the date shapes catalog feeds are known to send.
var releaseLayouts = []string{"2006-01-02", time.RFC3339, "2006-01", "2006"}

func byBrand(rows []valued, total decimal.Decimal) []Bucket {
	buckets := group(rows, total, func(r valued) string { return orUnknown(r.item.Brand) })
	sortByValue(buckets)
	return buckets
}

func byCategory(rows []valued, total decimal.Decimal) []Bucket {
	buckets := group(rows, total, func(r valued) string { return orUnknown(r.item.Category) })
	sortByValue(buckets)
	return buckets
}

// byReleaseYear is ordered by year, most recent first, with the unknown
// bucket last. Recency matters more than value here.
func byReleaseYear(rows []valued, total decimal.Decimal) []Bucket {
	buckets := group(rows, total, func(r valued) string { return ReleaseYear(r.item.ReleaseDate) })
	sort.SliceStable(buckets, func(i, j int) bool {
		a, b := buckets[i].Key, buckets[j].Key
		if a == UnknownYear || b == UnknownYear {
			return b == UnknownYear && a != UnknownYear
		}
		ya, _ := strconv.Atoi(a)
		yb, _ := strconv.Atoi(b)
		return ya > yb
	})
	return buckets
}

// sizeRun counts pairs per size: numeric sizes ascending, then anything
// else lexically, with Unknown last.
func sizeRun(rows []valued, total decimal.Decimal) []Bucket {
	buckets := group(rows, total, func(r valued) string { return orUnknown(strings.TrimSpace(r.item.Size)) })
	sort.SliceStable(buckets, func(i, j int) bool {
		a, b := buckets[i].Key, buckets[j].Key
		if a == UnknownBucket || b == UnknownBucket {
			return b == UnknownBucket && a != UnknownBucket
		}
		fa, errA := strconv.ParseFloat(a, 64)
		fb, errB := strconv.ParseFloat(b, 64)
		switch {
		case errA == nil && errB == nil:
			return fa < fb
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return a < b
	})
	return buckets
}

// ReleaseYear extracts the four-digit year from a catalog release date,
// or UnknownYear when the date is empty or unparseable.
func ReleaseYear(release string) string {
	release = strings.TrimSpace(release)
	if release == "" {
		return UnknownYear
	}
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, release); err == nil {
			return strconv.Itoa(t.Year())
		}
	}
	return UnknownYear
}

// group buckets rows by key in first-seen order.
func group(rows []valued, total decimal.Decimal, key func(valued) string) []Bucket {
	index := make(map[string]int)
	buckets := make([]Bucket, 0)
	for _, r := range rows {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Key: k, TotalValue: decimal.Zero})
		}
		buckets[i].Count++
		buckets[i].TotalValue = buckets[i].TotalValue.Add(r.value)
	}
	for i := range buckets {
		buckets[i].Percentage = percent(buckets[i].TotalValue, total)
	}
	return buckets
}

// sortByValue orders by total value desc, then key asc.
func sortByValue(buckets []Bucket) {
	sort.Slice(buckets, func(i, j int) bool {
		if c := buckets[i].TotalValue.Cmp(buckets[j].TotalValue); c != 0 {
			return c > 0
		}
		return buckets[i].Key < buckets[j].Key
	})
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return UnknownBucket
	}
	return s
}
