package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/codyseavey/sneaker-tracker/internal/analytics"
	"github.com/codyseavey/sneaker-tracker/internal/metrics"
	"github.com/codyseavey/sneaker-tracker/internal/models"
	"github.com/codyseavey/sneaker-tracker/internal/pipeline"
	"github.com/codyseavey/sneaker-tracker/internal/smart"
	"github.com/codyseavey/sneaker-tracker/internal/store"
)

var (
	// ErrInvalidRequest is returned for requests that are well-formed JSON but
	// make no sense for the target record.
	ErrInvalidRequest = errors.New("invalid request")

	ErrNotSmart        = fmt.Errorf("%w: collection is not a smart collection", ErrInvalidRequest)
	ErrSmartCollection = fmt.Errorf("%w: smart collection membership is defined by its rule", ErrInvalidRequest)
	ErrRuleRequired    = fmt.Errorf("%w: a smart collection needs a rule", models.ErrMalformedRule)
)

// CollectionSummary is a collection with figures derived from its current
// membership. Smart and manual collections are summarized the same way.
type CollectionSummary struct {
	models.Collection
	Rule       *models.SmartRule `json:"rule,omitempty"`
	State      smart.State       `json:"state"`
	ItemCount  int               `json:"item_count"`
	TotalValue decimal.Decimal   `json:"total_value"`
}

// CollectionService manages manual and smart collections and resolves their
// membership for the pipeline.
type CollectionService struct {
	store    *store.GormStore
	fetcher  store.Fetcher
	resolver *smart.Resolver
	rules    *lru.Cache[string, models.SmartRule] // "id@updatedAt" -> parsed rule
	logger   zerolog.Logger
}

// NewCollectionService creates a collection service. Reads go through fetcher
// so they share its rate limit; writes go straight to st.
func NewCollectionService(st *store.GormStore, fetcher store.Fetcher, ruleCacheSize int, logger zerolog.Logger) (*CollectionService, error) {
	cache, err := lru.New[string, models.SmartRule](ruleCacheSize)
	if err != nil {
		return nil, fmt.Errorf("rule cache: %w", err)
	}
	return &CollectionService{
		store:    st,
		fetcher:  fetcher,
		resolver: smart.NewResolver(fetcher),
		rules:    cache,
		logger:   logger.With().Str("service", "collections").Logger(),
	}, nil
}

// Create stores a new collection. A smart collection's rule is validated and
// stored in canonical form.
func (s *CollectionService) Create(ctx context.Context, ownerID string, req models.CreateCollectionRequest) (*models.Collection, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}

	c := &models.Collection{
		OwnerID:     ownerID,
		Name:        name,
		Description: req.Description,
		IsSmart:     req.IsSmart,
	}
	if req.IsSmart {
		ruleJSON, err := canonicalRule(req.Rule)
		if err != nil {
			metrics.MalformedRulesTotal.WithLabelValues("create").Inc()
			return nil, err
		}
		c.RuleJSON = ruleJSON
	}

	if err := s.store.CreateCollection(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("collection_id", c.ID).Bool("smart", c.IsSmart).Msg("Collection created")
	return c, nil
}

// UpdateRule replaces a smart collection's rule.
func (s *CollectionService) UpdateRule(ctx context.Context, ownerID, id string, raw json.RawMessage) (*models.Collection, error) {
	c, err := s.store.GetCollection(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !c.IsSmart {
		return nil, ErrNotSmart
	}

	ruleJSON, err := canonicalRule(raw)
	if err != nil {
		metrics.MalformedRulesTotal.WithLabelValues("update").Inc()
		return nil, err
	}
	c.RuleJSON = ruleJSON
	if err := s.store.SaveCollection(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns one collection.
func (s *CollectionService) Get(ctx context.Context, ownerID, id string) (*models.Collection, error) {
	return s.store.GetCollection(ctx, ownerID, id)
}

// Delete removes a collection and its manual links. Items are untouched.
func (s *CollectionService) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteCollection(ctx, ownerID, id)
}

// AddItem links one of the owner's items to a manual collection.
func (s *CollectionService) AddItem(ctx context.Context, ownerID, collectionID, itemID string) error {
	if err := s.requireManual(ctx, ownerID, collectionID); err != nil {
		return err
	}
	if _, err := s.store.GetItem(ctx, ownerID, itemID); err != nil {
		return err
	}
	return s.store.AddCollectionItem(ctx, collectionID, itemID)
}

// RemoveItem unlinks an item from a manual collection.
func (s *CollectionService) RemoveItem(ctx context.Context, ownerID, collectionID, itemID string) error {
	if err := s.requireManual(ctx, ownerID, collectionID); err != nil {
		return err
	}
	return s.store.RemoveCollectionItem(ctx, collectionID, itemID)
}

func (s *CollectionService) requireManual(ctx context.Context, ownerID, collectionID string) error {
	c, err := s.store.GetCollection(ctx, ownerID, collectionID)
	if err != nil {
		return err
	}
	if c.IsSmart {
		return ErrSmartCollection
	}
	return nil
}

// Rule returns the parsed rule of a smart collection. Parsed rules are cached
// per collection version.
func (s *CollectionService) Rule(c *models.Collection) (models.SmartRule, error) {
	if !c.IsSmart {
		return models.SmartRule{}, ErrNotSmart
	}

	key := fmt.Sprintf("%s@%d", c.ID, c.UpdatedAt.UnixNano())
	if rule, ok := s.rules.Get(key); ok {
		metrics.RuleCacheHits.Inc()
		return rule, nil
	}
	metrics.RuleCacheMisses.Inc()

	rule, err := models.ParseSmartRule([]byte(c.RuleJSON))
	if err != nil {
		metrics.MalformedRulesTotal.WithLabelValues("stored").Inc()
		s.logger.Warn().Err(err).Str("collection_id", c.ID).Msg("Stored smart rule is malformed")
		return models.SmartRule{}, err
	}
	s.rules.Add(key, rule)
	return rule, nil
}

// Members resolves a collection's current items. Smart collections go through
// the resolver; manual ones through their explicit links.
func (s *CollectionService) Members(ctx context.Context, ownerID, id string) (*models.Collection, smart.Membership, error) {
	c, err := s.store.GetCollection(ctx, ownerID, id)
	if err != nil {
		return nil, smart.Membership{}, err
	}

	if c.IsSmart {
		rule, err := s.Rule(c)
		if err != nil {
			return c, smart.Membership{}, err
		}
		m, err := s.resolver.Membership(ctx, ownerID, rule)
		if errors.Is(err, smart.ErrUnavailable) {
			metrics.UnavailableMembershipsTotal.Inc()
		}
		return c, m, err
	}

	items, err := s.fetcher.FetchItems(ctx, ownerID)
	if err != nil {
		return c, s.unavailable(), fmt.Errorf("%w: %w", smart.ErrUnavailable, err)
	}
	members, err := pipeline.FilterMembership(ctx, items, models.Criteria{CollectionIDs: []string{c.ID}}, s.Lookup(ownerID, items))
	if err != nil {
		if errors.Is(err, models.ErrFetchFailed) {
			return c, s.unavailable(), fmt.Errorf("%w: %w", smart.ErrUnavailable, err)
		}
		return c, smart.Membership{}, err
	}
	return c, smart.Membership{State: smart.StateResolved, Items: members}, nil
}

// Summary returns one collection with its item count and total value.
func (s *CollectionService) Summary(ctx context.Context, ownerID, id string) (CollectionSummary, error) {
	c, m, err := s.Members(ctx, ownerID, id)
	if err != nil {
		return CollectionSummary{}, err
	}
	return s.summarize(c, m), nil
}

// List summarizes every collection of the owner from a single item fetch.
// When the items cannot be fetched each summary is marked unavailable.
func (s *CollectionService) List(ctx context.Context, ownerID string) ([]CollectionSummary, error) {
	collections, err := s.store.ListCollections(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(collections) == 0 {
		return []CollectionSummary{}, nil
	}

	out := make([]CollectionSummary, len(collections))
	items, err := s.fetcher.FetchItems(ctx, ownerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("owner", ownerID).Msg("Collection summaries unavailable")
		for i := range collections {
			out[i] = s.summarize(&collections[i], s.unavailable())
		}
		return out, nil
	}

	ids := make([]string, len(collections))
	for i, c := range collections {
		ids[i] = c.ID
	}
	byCollection, err := s.Lookup(ownerID, items).FetchCollectionMembership(ctx, ids)
	if err != nil && !errors.Is(err, models.ErrFetchFailed) {
		return nil, err
	}

	for i := range collections {
		c := &collections[i]
		if err != nil {
			out[i] = s.summarize(c, s.unavailable())
			continue
		}
		members := make([]models.ItemView, 0)
		for _, item := range items {
			if byCollection[c.ID].Has(item.ID) {
				members = append(members, item)
			}
		}
		out[i] = s.summarize(c, smart.Membership{State: smart.StateResolved, Items: members})
	}
	return out, nil
}

func (s *CollectionService) summarize(c *models.Collection, m smart.Membership) CollectionSummary {
	summary := CollectionSummary{Collection: *c, State: m.State, TotalValue: decimal.Zero}
	if c.IsSmart {
		if rule, err := s.Rule(c); err == nil {
			summary.Rule = &rule
		}
	}
	if m.State == smart.StateResolved {
		snap := analytics.Aggregate(m.Items, analytics.Options{})
		summary.ItemCount = snap.ItemCount
		summary.TotalValue = snap.TotalValue
	}
	return summary
}

func (s *CollectionService) unavailable() smart.Membership {
	metrics.UnavailableMembershipsTotal.Inc()
	return smart.Membership{State: smart.StateUnavailable}
}

// Lookup returns a pipeline membership lookup scoped to ownerID. Smart
// collections are resolved against items, the snapshot being filtered, so
// one pass never mixes two fetches.
func (s *CollectionService) Lookup(ownerID string, items []models.ItemView) pipeline.MembershipLookup {
	return &membershipLookup{svc: s, ownerID: ownerID, items: items}
}

type membershipLookup struct {
	svc     *CollectionService
	ownerID string
	items   []models.ItemView
}

func (l *membershipLookup) FetchCollectionMembership(ctx context.Context, ids []string) (map[string]models.IDSet, error) {
	collections, err := l.svc.fetcher.FetchCollections(ctx, l.ownerID, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.IDSet, len(collections))
	var manual []string
	for i := range collections {
		c := &collections[i]
		if !c.IsSmart {
			manual = append(manual, c.ID)
			continue
		}
		rule, err := l.svc.Rule(c)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", c.ID, err)
		}
		matched, err := smart.Resolve(rule, l.items)
		if err != nil {
			return nil, err
		}
		set := models.NewIDSet()
		for _, item := range matched {
			set.Add(item.ID)
		}
		out[c.ID] = set
	}

	if len(manual) > 0 {
		links, err := l.svc.fetcher.FetchCollectionMembership(ctx, manual)
		if err != nil {
			return nil, err
		}
		for id, set := range links {
			out[id] = set
		}
	}
	return out, nil
}

// FetchTagMembership only answers for tags the owner holds; another owner's
// tag id is not found rather than an empty set.
func (l *membershipLookup) FetchTagMembership(ctx context.Context, ids []string) (map[string]models.IDSet, error) {
	if _, err := l.svc.fetcher.FetchTags(ctx, l.ownerID, ids); err != nil {
		return nil, err
	}
	return l.svc.fetcher.FetchTagMembership(ctx, ids)
}

// canonicalRule validates raw and re-encodes it so stored rules share one shape.
func canonicalRule(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", ErrRuleRequired
	}
	rule, err := models.ParseSmartRule(raw)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(rule)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
