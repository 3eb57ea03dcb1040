// Package smart resolves smart collection membership.
package smart

import (
	"context"
	"errors"
	"fmt"

	"github.com/codyseavey/sneaker-tracker/internal/models"
	"github.com/codyseavey/sneaker-tracker/internal/rules"
)

// ErrUnavailable marks a membership that could not be resolved because the
// items could not be fetched. It is distinct from an empty membership.
var ErrUnavailable = errors.New("smart collection membership unavailable")

// State tells a resolved membership apart from one that could not be computed.
type State string

const (
	StateResolved    State = "resolved"
	StateUnavailable State = "unavailable"
)

// Membership is the outcome of resolving one rule for one owner.
type Membership struct {
	State State             `json:"state"`
	Items []models.ItemView `json:"items"`
}

// ItemFetcher loads every item an owner holds.
type ItemFetcher interface {
	FetchItems(ctx context.Context, ownerID string) ([]models.ItemView, error)
}

// Resolve returns the items matching rule in input order.
func Resolve(rule models.SmartRule, items []models.ItemView) ([]models.ItemView, error) {
	matcher, err := rules.NewMatcher(rule)
	if err != nil {
		return nil, err
	}
	out := make([]models.ItemView, 0, len(items))
	for _, item := range items {
		if matcher.Match(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Resolver fetches an owner's items and resolves rules against them.
type Resolver struct {
	fetcher ItemFetcher
}

// NewResolver creates a resolver over fetcher.
func NewResolver(fetcher ItemFetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Membership resolves rule over ownerID's current items. A malformed rule is
// rejected before any fetch. A failed fetch yields StateUnavailable and an
// error matching both ErrUnavailable and models.ErrFetchFailed.
func (r *Resolver) Membership(ctx context.Context, ownerID string, rule models.SmartRule) (Membership, error) {
	if err := rules.Validate(rule); err != nil {
		return Membership{}, err
	}

	items, err := r.fetcher.FetchItems(ctx, ownerID)
	if err != nil {
		return Membership{State: StateUnavailable}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	matched, err := Resolve(rule, items)
	if err != nil {
		return Membership{}, err
	}
	return Membership{State: StateResolved, Items: matched}, nil
}
