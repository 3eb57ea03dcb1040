package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/sneaker-tracker/internal/models"
	"github.com/codyseavey/sneaker-tracker/internal/services"
	"github.com/codyseavey/sneaker-tracker/internal/smart"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func contextWithQuery(query string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/items?"+query, nil)
	return c
}

func TestParseCriteria_Empty(t *testing.T) {
	criteria, err := ParseCriteria(contextWithQuery(""))
	require.NoError(t, err)
	assert.True(t, criteria.IsEmpty())
}

func TestParseCriteria_AllParameters(t *testing.T) {
	q := url.Values{}
	q.Add("collection_ids", "c1,c2")
	q.Add("collection_ids", "c3")
	q.Set("tag_ids", " t1 , ")
	q.Set("min_price", "100")
	q.Set("max_price", "250.5")
	q.Set("min_wear", "0")
	q.Set("max_wear", "10")
	q.Set("purchased_from", "2024-01-01")
	q.Set("purchased_to", "2024-01-31")
	q.Set("conditions", "deadstock,VNDS")
	q.Set("for_sale", "true")
	q.Set("rule", `{"operator":"AND","conditions":[{"field":"brand","operator":"equals","value":"Nike"}]}`)
	q.Set("sort", "Value")
	q.Set("order", "DESC")

	criteria, err := ParseCriteria(contextWithQuery(q.Encode()))
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2", "c3"}, criteria.CollectionIDs)
	assert.Equal(t, []string{"t1"}, criteria.TagIDs)
	require.NotNil(t, criteria.Price)
	assert.Equal(t, 100.0, *criteria.Price.Min)
	assert.Equal(t, 250.5, *criteria.Price.Max)
	require.NotNil(t, criteria.WearCount)
	assert.Equal(t, 0, *criteria.WearCount.Min)
	assert.Equal(t, 10, *criteria.WearCount.Max)
	require.NotNil(t, criteria.PurchaseDate)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *criteria.PurchaseDate.From)
	assert.True(t, criteria.PurchaseDate.Contains(time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC)), "a bare upper date covers the whole day")
	assert.False(t, criteria.PurchaseDate.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []models.Condition{models.ConditionDeadstock, models.ConditionVNDS}, criteria.Conditions)
	require.NotNil(t, criteria.ForSale)
	assert.True(t, *criteria.ForSale)
	require.NotNil(t, criteria.Rule)
	assert.Len(t, criteria.Rule.Conditions, 1)
	assert.Equal(t, &models.Sort{Key: models.SortByValue, Direction: models.SortDesc}, criteria.Sort)
}

func TestParseCriteria_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"non-numeric price", "min_price=cheap", models.ErrInvalidCriteria},
		{"NaN price", "min_price=NaN", models.ErrInvalidCriteria},
		{"infinite price", "max_price=%2BInf", models.ErrInvalidCriteria},
		{"inverted price", "min_price=300&max_price=100", models.ErrInvalidCriteria},
		{"negative wear", "min_wear=-1", models.ErrInvalidCriteria},
		{"bad date", "purchased_from=yesterday", models.ErrInvalidCriteria},
		{"inverted dates", "purchased_from=2024-02-01&purchased_to=2024-01-01", models.ErrInvalidCriteria},
		{"unknown condition", "conditions=mint", models.ErrInvalidCriteria},
		{"bad for_sale", "for_sale=maybe", models.ErrInvalidCriteria},
		{"unknown sort key", "sort=popularity", models.ErrInvalidCriteria},
		{"unknown order", "sort=value&order=sideways", models.ErrInvalidCriteria},
		{"rule not json", "rule=brand%3DNike", models.ErrMalformedRule},
		{"rule inverted between", "rule=" + url.QueryEscape(`{"operator":"AND","conditions":[{"field":"value","operator":"between","value":[100,50]}]}`), models.ErrMalformedRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCriteria(contextWithQuery(tt.query))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&models.RuleError{Index: 0, Reason: "bad"}, http.StatusUnprocessableEntity},
		{models.ErrInvalidCriteria, http.StatusBadRequest},
		{services.ErrNotSmart, http.StatusBadRequest},
		{services.ErrRuleRequired, http.StatusUnprocessableEntity},
		{models.ErrNotFound, http.StatusNotFound},
		{&models.FetchError{Op: "fetch items", Err: errors.New("timeout")}, http.StatusServiceUnavailable},
		{smart.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}

func TestOwnerMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(Owner("default"))
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, ownerID(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, "default", w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(OwnerHeader, "alice")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "alice", w.Body.String())
}
