package models

import (
	"time"
)

// CatalogEntry is canonical reference data for a model/colorway.
// The engine treats it as read-only.
type CatalogEntry struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	Brand          string    `json:"brand" gorm:"not null;index"`
	Model          string    `json:"model" gorm:"not null"`
	Colorway       string    `json:"colorway"`
	Category       string    `json:"category" gorm:"index"`
	ReleaseDate    string    `json:"release_date"` // as supplied by the catalog, may be partial or empty
	RetailPrice    *float64  `json:"retail_price"`
	EstimatedValue *float64  `json:"estimated_value"`
	Tags           []string  `json:"tags" gorm:"serializer:json"`
	Popularity     int       `json:"popularity"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UpsertCatalogRequest is the body accepted when recording a catalog entry
type UpsertCatalogRequest struct {
	ID             string   `json:"id" binding:"required"`
	Brand          string   `json:"brand" binding:"required"`
	Model          string   `json:"model" binding:"required"`
	Colorway       string   `json:"colorway"`
	Category       string   `json:"category"`
	ReleaseDate    string   `json:"release_date"`
	RetailPrice    *float64 `json:"retail_price"`
	EstimatedValue *float64 `json:"estimated_value"`
	Tags           []string `json:"tags"`
	Popularity     int      `json:"popularity"`
}

// Entry converts the request into a CatalogEntry.
func (r UpsertCatalogRequest) Entry() CatalogEntry {
	return CatalogEntry{
		ID:             r.ID,
		Brand:          r.Brand,
		Model:          r.Model,
		Colorway:       r.Colorway,
		Category:       r.Category,
		ReleaseDate:    r.ReleaseDate,
		RetailPrice:    r.RetailPrice,
		EstimatedValue: r.EstimatedValue,
		Tags:           r.Tags,
		Popularity:     r.Popularity,
	}
}
