package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/sneaker-tracker/internal/database"
	"github.com/codyseavey/sneaker-tracker/internal/models"
	"github.com/codyseavey/sneaker-tracker/internal/smart"
	"github.com/codyseavey/sneaker-tracker/internal/store"
)

func ptr[T any](v T) *T { return &v }

var quiet = zerolog.New(io.Discard)

// flakyFetcher fails item or collection fetches on demand and otherwise
// defers to the store.
type flakyFetcher struct {
	store.Fetcher
	failItems       bool
	failCollections bool
}

func (f *flakyFetcher) FetchCollections(ctx context.Context, ownerID string, ids []string) ([]models.Collection, error) {
	if f.failCollections {
		return nil, &models.FetchError{Op: "fetch collections", Err: errors.New("database is closed")}
	}
	return f.Fetcher.FetchCollections(ctx, ownerID, ids)
}

func (f *flakyFetcher) FetchItems(ctx context.Context, ownerID string) ([]models.ItemView, error) {
	if f.failItems {
		return nil, &models.FetchError{Op: "fetch items", Err: errors.New("connection reset")}
	}
	return f.Fetcher.FetchItems(ctx, ownerID)
}

type fixture struct {
	store       *store.GormStore
	fetcher     *flakyFetcher
	collections *CollectionService
	portfolio   *PortfolioService
	items       map[string]*models.Item // by model name
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), "silent")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	st := store.NewGormStore(db)
	fetcher := &flakyFetcher{Fetcher: st}
	collections, err := NewCollectionService(st, fetcher, 16, quiet)
	require.NoError(t, err)

	f := &fixture{
		store:       st,
		fetcher:     fetcher,
		collections: collections,
		portfolio:   NewPortfolioService(fetcher, collections, 5, quiet),
		items:       map[string]*models.Item{},
	}
	f.seed(t)
	return f
}

func (f *fixture) seed(t *testing.T) {
	ctx := context.Background()
	catalog := []models.CatalogEntry{
		{ID: "aj1", Brand: "Jordan", Model: "AJ1 Chicago", Category: "Basketball", ReleaseDate: "2015-05-30", EstimatedValue: ptr(500.0)},
		{ID: "kobe6", Brand: "Nike", Model: "Kobe 6 Grinch", Category: "Basketball", ReleaseDate: "2020-12-24", EstimatedValue: ptr(300.0)},
		{ID: "peg", Brand: "Nike", Model: "Pegasus 40", Category: "Running", RetailPrice: ptr(50.0)},
	}
	for i := range catalog {
		require.NoError(t, f.store.UpsertCatalogEntry(ctx, &catalog[i]))
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []*models.Item{
		{OwnerID: "me", CatalogID: "aj1", PurchasePrice: ptr(100.0), Condition: models.ConditionVNDS, CreatedAt: base},
		{OwnerID: "me", CatalogID: "kobe6", PurchasePrice: ptr(300.0), Condition: models.ConditionDeadstock, CreatedAt: base.Add(time.Hour)},
		{OwnerID: "me", CatalogID: "peg", PurchasePrice: ptr(200.0), Condition: models.ConditionBeater, WearCount: 80, CreatedAt: base.Add(2 * time.Hour)},
		{OwnerID: "other", CatalogID: "aj1", PurchasePrice: ptr(90.0), CreatedAt: base},
	}
	for _, item := range items {
		require.NoError(t, f.store.CreateItem(ctx, item))
	}
	f.items["aj1"], f.items["kobe6"], f.items["peg"] = items[0], items[1], items[2]
}

func basketballRule() json.RawMessage {
	return json.RawMessage(`{"conditions":[{"field":"category","operator":"equals","value":"Basketball"}],"operator":"AND"}`)
}

func TestCreateCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: " Hoops ", IsSmart: true, Rule: basketballRule()})
	require.NoError(t, err)
	assert.Equal(t, "Hoops", c.Name)
	assert.JSONEq(t, `{"operator":"AND","conditions":[{"field":"category","operator":"equals","value":"Basketball"}]}`, c.RuleJSON)

	_, err = f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "Broken", IsSmart: true,
		Rule: json.RawMessage(`{"operator":"AND","conditions":[{"field":"value","operator":"between","value":[100,50]}]}`)})
	assert.True(t, errors.Is(err, models.ErrMalformedRule))

	_, err = f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "No rule", IsSmart: true})
	assert.True(t, errors.Is(err, models.ErrMalformedRule))

	_, err = f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "  "})
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	manual, err := f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "Grails", Rule: basketballRule()})
	require.NoError(t, err)
	assert.Empty(t, manual.RuleJSON, "manual collections ignore rules")
}

func TestSmartCollectionMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "Hoops", IsSmart: true, Rule: basketballRule()})
	require.NoError(t, err)

	_, m, err := f.collections.Members(ctx, "me", c.ID)
	require.NoError(t, err)
	assert.Equal(t, smart.StateResolved, m.State)
	require.Len(t, m.Items, 2)
	assert.Equal(t, f.items["aj1"].ID, m.Items[0].ID)
	assert.Equal(t, f.items["kobe6"].ID, m.Items[1].ID)

	f.fetcher.failItems = true
	_, m, err = f.collections.Members(ctx, "me", c.ID)
	assert.Equal(t, smart.StateUnavailable, m.State)
	assert.True(t, errors.Is(err, smart.ErrUnavailable))
	assert.True(t, errors.Is(err, models.ErrFetchFailed))
}

func TestManualCollectionMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "Grails"})
	require.NoError(t, err)
	require.NoError(t, f.collections.AddItem(ctx, "me", c.ID, f.items["peg"].ID))

	_, m, err := f.collections.Members(ctx, "me", c.ID)
	require.NoError(t, err)
	require.Len(t, m.Items, 1)
	assert.Equal(t, f.items["peg"].ID, m.Items[0].ID)

	smartOne, err := f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "Hoops", IsSmart: true, Rule: basketballRule()})
	require.NoError(t, err)
	assert.ErrorIs(t, f.collections.AddItem(ctx, "me", smartOne.ID, f.items["peg"].ID), ErrSmartCollection)

	_, err = f.collections.UpdateRule(ctx, "me", c.ID, basketballRule())
	assert.ErrorIs(t, err, ErrNotSmart)

	require.NoError(t, f.collections.RemoveItem(ctx, "me", c.ID, f.items["peg"].ID))
	_, m, err = f.collections.Members(ctx, "me", c.ID)
	require.NoError(t, err)
	assert.Empty(t, m.Items)
	assert.Equal(t, smart.StateResolved, m.State)
}

func TestUpdateRule_InvalidatesCachedRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "Hoops", IsSmart: true, Rule: basketballRule()})
	require.NoError(t, err)
	summary, err := f.collections.Summary(ctx, "me", c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ItemCount)

	// Make sure the stored version changes even on coarse clocks.
	time.Sleep(2 * time.Millisecond)
	_, err = f.collections.UpdateRule(ctx, "me", c.ID,
		json.RawMessage(`{"operator":"OR","conditions":[{"field":"brand","operator":"equals","value":"nike"}]}`))
	require.NoError(t, err)

	summary, err = f.collections.Summary(ctx, "me", c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ItemCount)
	assert.Equal(t, "350", summary.TotalValue.String())
}

// A collection's own summary and the pipeline+aggregate path over its
// membership must report the same total value.
func TestCollectionSummaryMatchesFilteredAggregate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hoops, err := f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "Hoops", IsSmart: true, Rule: basketballRule()})
	require.NoError(t, err)
	grails, err := f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "Grails"})
	require.NoError(t, err)
	require.NoError(t, f.collections.AddItem(ctx, "me", grails.ID, f.items["aj1"].ID))
	require.NoError(t, f.collections.AddItem(ctx, "me", grails.ID, f.items["peg"].ID))

	for _, c := range []*models.Collection{hoops, grails} {
		summary, err := f.collections.Summary(ctx, "me", c.ID)
		require.NoError(t, err)

		snap, err := f.portfolio.Analytics(ctx, "me", models.Criteria{CollectionIDs: []string{c.ID}}, 0)
		require.NoError(t, err)

		assert.True(t, summary.TotalValue.Equal(snap.TotalValue), "%s: %s != %s", c.Name, summary.TotalValue, snap.TotalValue)
		assert.Equal(t, summary.ItemCount, snap.ItemCount)
	}
}

func TestListCollections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "Hoops", IsSmart: true, Rule: basketballRule()})
	require.NoError(t, err)
	grails, err := f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "Grails"})
	require.NoError(t, err)
	require.NoError(t, f.collections.AddItem(ctx, "me", grails.ID, f.items["aj1"].ID))

	list, err := f.collections.List(ctx, "me")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Hoops", list[0].Name)
	assert.Equal(t, 2, list[0].ItemCount)
	assert.Equal(t, "800", list[0].TotalValue.String())
	require.NotNil(t, list[0].Rule)
	assert.Equal(t, 1, list[1].ItemCount)

	f.fetcher.failItems = true
	list, err = f.collections.List(ctx, "me")
	require.NoError(t, err)
	for _, s := range list {
		assert.Equal(t, smart.StateUnavailable, s.State)
	}

	empty, err := f.collections.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPortfolioAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.portfolio.Analytics(ctx, "me", models.Criteria{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "850", snap.TotalValue.String())
	assert.Equal(t, "600", snap.TotalInvestment.String())
	assert.Equal(t, "250", snap.TotalGain.String())
	assert.Equal(t, 41.67, snap.GainPercentage)
	assert.Equal(t, f.items["aj1"].ID, snap.TopPerformers[0].ItemID)
	assert.Equal(t, f.items["peg"].ID, snap.WorstPerformers[0].ItemID)

	_, err = f.portfolio.Analytics(ctx, "me", models.Criteria{CollectionIDs: []string{"missing"}}, 0)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	f.fetcher.failItems = true
	_, err = f.portfolio.Analytics(ctx, "me", models.Criteria{}, 0)
	assert.True(t, errors.Is(err, models.ErrFetchFailed))
}

func TestMembershipLookup_FailureAfterItemFetch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grails, err := f.collections.Create(ctx, "me", models.CreateCollectionRequest{Name: "Grails"})
	require.NoError(t, err)
	require.NoError(t, f.collections.AddItem(ctx, "me", grails.ID, f.items["aj1"].ID))

	f.fetcher.failCollections = true
	_, err = f.portfolio.Items(ctx, "me", models.Criteria{CollectionIDs: []string{grails.ID}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFetchFailed))
	assert.False(t, errors.Is(err, models.ErrNotFound))

	list, err := f.collections.List(ctx, "me")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, smart.StateUnavailable, list[0].State)
}

func TestMembershipLookup_TagsAreOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	theirs := &models.Tag{OwnerID: "other", Name: "grail"}
	require.NoError(t, f.store.CreateTag(ctx, theirs))
	mine := &models.Tag{OwnerID: "me", Name: "grail"}
	require.NoError(t, f.store.CreateTag(ctx, mine))
	require.NoError(t, f.store.AttachTag(ctx, "me", f.items["aj1"].ID, mine.ID))

	_, err := f.portfolio.Items(ctx, "me", models.Criteria{TagIDs: []string{theirs.ID}})
	assert.True(t, errors.Is(err, models.ErrNotFound), "another owner's tag is not a zero-match filter")

	items, err := f.portfolio.Items(ctx, "me", models.Criteria{TagIDs: []string{mine.ID}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, f.items["aj1"].ID, items[0].ID)
}

func TestPortfolioItems_RejectsBadCriteriaBeforeFetching(t *testing.T) {
	f := newFixture(t)
	f.fetcher.failItems = true

	bad := models.SmartRule{
		Operator:   models.CombinatorAnd,
		Conditions: []models.RuleCondition{{Field: models.FieldValue, Operator: models.OpBetween, Value: models.RangeOperand(100, 50)}},
	}
	_, err := f.portfolio.Items(context.Background(), "me", models.Criteria{Rule: &bad})
	assert.True(t, errors.Is(err, models.ErrMalformedRule))
	assert.False(t, errors.Is(err, models.ErrFetchFailed))
}

func TestValuationWorker_RunOnce(t *testing.T) {
	f := newFixture(t)
	w := NewValuationWorker(f.store, f.portfolio, time.Minute, quiet)

	status := w.RunOnce(context.Background())
	assert.Equal(t, 2, status.OwnersValued)
	assert.Zero(t, status.OwnersFailed)
	assert.Equal(t, status, w.Status())

	f.fetcher.failItems = true
	status = w.RunOnce(context.Background())
	assert.Equal(t, 2, status.OwnersFailed)
}
