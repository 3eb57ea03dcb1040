package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Collection groups items either by explicit links (manual) or by a smart rule.
type Collection struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	OwnerID     string    `json:"owner_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	IsSmart     bool      `json:"is_smart"`
	RuleJSON    string    `json:"-" gorm:"column:rule_json;type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (c *Collection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CollectionItem is an explicit manual membership link
type CollectionItem struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CollectionID string    `json:"collection_id" gorm:"not null;uniqueIndex:idx_collection_item"`
	ItemID       string    `json:"item_id" gorm:"not null;uniqueIndex:idx_collection_item;index"`
	AddedAt      time.Time `json:"added_at"`
}

// Tag is a user-defined label attached to items
type Tag struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	OwnerID   string    `json:"owner_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// CreateCollectionRequest creates a manual or smart collection.
// Rule is required when IsSmart is set and ignored otherwise.
type CreateCollectionRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	IsSmart     bool            `json:"is_smart"`
	Rule        json.RawMessage `json:"rule"`
}

// AddCollectionItemRequest links an item to a manual collection
type AddCollectionItemRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

// CreateTagRequest creates a tag
type CreateTagRequest struct {
	Name string `json:"name" binding:"required"`
}
