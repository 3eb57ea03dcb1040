package handlers

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/sneaker-tracker/internal/models"
)

const queryDateLayout = "2006-01-02"

// ParseCriteria reads filter and sort criteria from the query string.
// List parameters accept repeated keys and comma-separated values.
// Absent parameters leave the matching criterion unset.
func ParseCriteria(c *gin.Context) (models.Criteria, error) {
	var criteria models.Criteria

	criteria.CollectionIDs = queryList(c, "collection_ids")
	criteria.TagIDs = queryList(c, "tag_ids")

	minPrice, err := queryFloat(c, "min_price")
	if err != nil {
		return criteria, err
	}
	maxPrice, err := queryFloat(c, "max_price")
	if err != nil {
		return criteria, err
	}
	if minPrice != nil || maxPrice != nil {
		criteria.Price = &models.PriceRange{Min: minPrice, Max: maxPrice}
	}

	minWear, err := queryInt(c, "min_wear")
	if err != nil {
		return criteria, err
	}
	maxWear, err := queryInt(c, "max_wear")
	if err != nil {
		return criteria, err
	}
	if minWear != nil || maxWear != nil {
		criteria.WearCount = &models.CountRange{Min: minWear, Max: maxWear}
	}

	from, err := queryDate(c, "purchased_from", false)
	if err != nil {
		return criteria, err
	}
	to, err := queryDate(c, "purchased_to", true)
	if err != nil {
		return criteria, err
	}
	if from != nil || to != nil {
		criteria.PurchaseDate = &models.DateRange{From: from, To: to}
	}

	for _, label := range queryList(c, "conditions") {
		cond, ok := models.ParseCondition(label)
		if !ok {
			return criteria, fmt.Errorf("%w: unknown condition %q", models.ErrInvalidCriteria, label)
		}
		criteria.Conditions = append(criteria.Conditions, cond)
	}

	if raw, ok := c.GetQuery("for_sale"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return criteria, fmt.Errorf("%w: for_sale must be true or false", models.ErrInvalidCriteria)
		}
		criteria.ForSale = &v
	}

	if raw := strings.TrimSpace(c.Query("rule")); raw != "" {
		rule, err := models.ParseSmartRule([]byte(raw))
		if err != nil {
			return criteria, err
		}
		criteria.Rule = &rule
	}

	if key := strings.TrimSpace(c.Query("sort")); key != "" {
		criteria.Sort = &models.Sort{
			Key:       models.SortKey(strings.ToLower(key)),
			Direction: models.SortDirection(strings.ToLower(strings.TrimSpace(c.Query("order")))),
		}
	}

	return criteria, criteria.Validate()
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %s must be a finite number", models.ErrInvalidCriteria, key)
	}
	return &v, nil
}

func queryInt(c *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", models.ErrInvalidCriteria, key)
	}
	return &v, nil
}

// queryDate accepts YYYY-MM-DD or RFC3339. A bare date used as an upper
// bound covers the whole day.
func queryDate(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(queryDateLayout, raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC3339", models.ErrInvalidCriteria, key)
	}
	return &t, nil
}
