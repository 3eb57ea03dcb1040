package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item is a user's recorded holding of a catalog entry.
type Item struct {
	ID            string       `json:"id" gorm:"primaryKey"`
	OwnerID       string       `json:"owner_id" gorm:"not null;index"`
	CatalogID     string       `json:"catalog_id" gorm:"not null;index"`
	Catalog       CatalogEntry `json:"catalog" gorm:"foreignKey:CatalogID"`
	PurchasePrice *float64     `json:"purchase_price"`
	CostBasis     *float64     `json:"cost_basis"` // explicit override of the purchase price
	PurchaseDate  *time.Time   `json:"purchase_date"`
	Condition     Condition    `json:"condition" gorm:"default:'DS'"`
	Size          string       `json:"size"`
	WearCount     int          `json:"wear_count" gorm:"not null;default:0"`
	Location      string       `json:"location"`
	Notes         string       `json:"notes"`
	ForSale       bool         `json:"for_sale" gorm:"index"`
	AskingPrice   *float64     `json:"asking_price"`
	Tags          []Tag        `json:"tags" gorm:"many2many:item_tags"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// ItemView is the denormalized read shape the engine works on:
// the item plus the catalog fields a rule or criteria may address.
type ItemView struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	CatalogID      string     `json:"catalog_id"`
	Brand          string     `json:"brand"`
	Model          string     `json:"model"`
	Colorway       string     `json:"colorway"`
	Category       string     `json:"category"`
	ReleaseDate    string     `json:"release_date"`
	RetailPrice    *float64   `json:"retail_price"`
	EstimatedValue *float64   `json:"estimated_value"`
	PurchasePrice  *float64   `json:"purchase_price"`
	CostBasis      *float64   `json:"cost_basis"`
	PurchaseDate   *time.Time `json:"purchase_date"`
	Condition      Condition  `json:"condition"`
	Size           string     `json:"size"`
	WearCount      int        `json:"wear_count"`
	Location       string     `json:"location"`
	Notes          string     `json:"notes"`
	ForSale        bool       `json:"for_sale"`
	AskingPrice    *float64   `json:"asking_price"`
	Tags           []string   `json:"tags"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// View denormalizes the item with its preloaded catalog entry and tags.
// Tags are the catalog tags followed by the user's tag names, deduplicated
// case-insensitively.
func (i Item) View() ItemView {
	tags := make([]string, 0, len(i.Catalog.Tags)+len(i.Tags))
	seen := make(map[string]struct{}, cap(tags))
	add := func(name string) {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		tags = append(tags, name)
	}
	for _, t := range i.Catalog.Tags {
		add(t)
	}
	for _, t := range i.Tags {
		add(t.Name)
	}

	return ItemView{
		ID:             i.ID,
		OwnerID:        i.OwnerID,
		CatalogID:      i.CatalogID,
		Brand:          i.Catalog.Brand,
		Model:          i.Catalog.Model,
		Colorway:       i.Catalog.Colorway,
		Category:       i.Catalog.Category,
		ReleaseDate:    i.Catalog.ReleaseDate,
		RetailPrice:    i.Catalog.RetailPrice,
		EstimatedValue: i.Catalog.EstimatedValue,
		PurchasePrice:  i.PurchasePrice,
		CostBasis:      i.CostBasis,
		PurchaseDate:   i.PurchaseDate,
		Condition:      i.Condition,
		Size:           i.Size,
		WearCount:      i.WearCount,
		Location:       i.Location,
		Notes:          i.Notes,
		ForSale:        i.ForSale,
		AskingPrice:    i.AskingPrice,
		Tags:           tags,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

// ResolvedCostBasis returns the item's cost basis after the fallback chain.
func (v ItemView) ResolvedCostBasis() float64 {
	basis, _ := ResolveCostBasis(v.CostBasis, v.PurchasePrice)
	return basis
}

// ResolvedValue returns the item's current value after the fallback chain.
func (v ItemView) ResolvedValue() float64 {
	value, _ := ResolveCurrentValue(v.EstimatedValue, v.RetailPrice)
	return value
}

// IDSet is a set of record ids.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id.
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// AddItemRequest records a new holding
type AddItemRequest struct {
	CatalogID     string     `json:"catalog_id" binding:"required"`
	PurchasePrice *float64   `json:"purchase_price"`
	CostBasis     *float64   `json:"cost_basis"`
	PurchaseDate  *time.Time `json:"purchase_date"`
	Condition     string     `json:"condition"`
	Size          string     `json:"size"`
	WearCount     int        `json:"wear_count"`
	Location      string     `json:"location"`
	Notes         string     `json:"notes"`
	ForSale       bool       `json:"for_sale"`
	AskingPrice   *float64   `json:"asking_price"`
}

// UpdateItemRequest carries tracking updates; nil fields are left untouched
type UpdateItemRequest struct {
	CostBasis   *float64 `json:"cost_basis"`
	Condition   *string  `json:"condition"`
	Size        *string  `json:"size"`
	WearCount   *int     `json:"wear_count"`
	Location    *string  `json:"location"`
	Notes       *string  `json:"notes"`
	ForSale     *bool    `json:"for_sale"`
	AskingPrice *float64 `json:"asking_price"`
}
