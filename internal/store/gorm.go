package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/sneaker-tracker/internal/models"
)

// GormStore implements Fetcher and the write side of the API over gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over an opened, migrated database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FetchItems implements Fetcher.
func (s *GormStore) FetchItems(ctx context.Context, ownerID string) ([]models.ItemView, error) {
	var items []models.Item
	err := s.db.WithContext(ctx).
		Preload("Catalog").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, &models.FetchError{Op: "fetch items", Err: err}
	}

	views := make([]models.ItemView, len(items))
	for i, item := range items {
		views[i] = item.View()
	}
	return views, nil
}

// FetchCollectionMembership implements Fetcher for manual collections.
// Every id must name an existing collection.
func (s *GormStore) FetchCollectionMembership(ctx context.Context, ids []string) (map[string]models.IDSet, error) {
	const op = "fetch collection membership"
	ids = dedupe(ids)
	out := emptySets(ids)
	if len(ids) == 0 {
		return out, nil
	}

	if err := s.requireAll(ctx, &models.Collection{}, ids); err != nil {
		return nil, &models.FetchError{Op: op, Err: err}
	}

	var links []models.CollectionItem
	if err := s.db.WithContext(ctx).Where("collection_id IN ?", ids).Find(&links).Error; err != nil {
		return nil, &models.FetchError{Op: op, Err: err}
	}
	for _, link := range links {
		out[link.CollectionID].Add(link.ItemID)
	}
	return out, nil
}

// FetchTagMembership implements Fetcher. Every id must name an existing tag.
func (s *GormStore) FetchTagMembership(ctx context.Context, ids []string) (map[string]models.IDSet, error) {
	const op = "fetch tag membership"
	ids = dedupe(ids)
	out := emptySets(ids)
	if len(ids) == 0 {
		return out, nil
	}

	if err := s.requireAll(ctx, &models.Tag{}, ids); err != nil {
		return nil, &models.FetchError{Op: op, Err: err}
	}

	var rows []struct {
		ItemID string
		TagID  string
	}
	err := s.db.WithContext(ctx).Table("item_tags").
		Select("item_id, tag_id").
		Where("tag_id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, &models.FetchError{Op: op, Err: err}
	}
	for _, row := range rows {
		out[row.TagID].Add(row.ItemID)
	}
	return out, nil
}

// FetchCollections implements Fetcher.
func (s *GormStore) FetchCollections(ctx context.Context, ownerID string, ids []string) ([]models.Collection, error) {
	found, err := s.GetCollections(ctx, ownerID, ids)
	if err != nil {
		return nil, &models.FetchError{Op: "fetch collections", Err: err}
	}
	return found, nil
}

// FetchTags implements Fetcher.
func (s *GormStore) FetchTags(ctx context.Context, ownerID string, ids []string) ([]models.Tag, error) {
	const op = "fetch tags"
	ids = dedupe(ids)
	var found []models.Tag
	if len(ids) == 0 {
		return found, nil
	}
	if err := s.db.WithContext(ctx).Where("owner_id = ? AND id IN ?", ownerID, ids).Find(&found).Error; err != nil {
		return nil, &models.FetchError{Op: op, Err: err}
	}
	if len(found) != len(ids) {
		return nil, &models.FetchError{Op: op, Err: fmt.Errorf("%w: one or more tags", models.ErrNotFound)}
	}
	return found, nil
}

// requireAll fails with ErrNotFound unless every id exists in model's table.
func (s *GormStore) requireAll(ctx context.Context, model any, ids []string) error {
	var found []string
	if err := s.db.WithContext(ctx).Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}
	have := models.NewIDSet(found...)
	for _, id := range ids {
		if !have.Has(id) {
			return fmt.Errorf("%w: %s", models.ErrNotFound, id)
		}
	}
	return nil
}

// Catalog

// UpsertCatalogEntry inserts entry or replaces the stored fields of an existing one.
func (s *GormStore) UpsertCatalogEntry(ctx context.Context, entry *models.CatalogEntry) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"brand", "model", "colorway", "category", "release_date",
			"retail_price", "estimated_value", "tags", "popularity", "updated_at",
		}),
	}).Create(entry).Error
}

// GetCatalogEntry returns one entry or ErrNotFound.
func (s *GormStore) GetCatalogEntry(ctx context.Context, id string) (*models.CatalogEntry, error) {
	var entry models.CatalogEntry
	if err := s.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "catalog entry %s", id)
	}
	return &entry, nil
}

// CountCatalogEntries returns the number of catalog entries.
func (s *GormStore) CountCatalogEntries(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.CatalogEntry{}).Count(&n).Error
	return n, err
}

// Items

// CreateItem records a new holding. The catalog entry must exist.
func (s *GormStore) CreateItem(ctx context.Context, item *models.Item) error {
	if _, err := s.GetCatalogEntry(ctx, item.CatalogID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

// GetItem returns an owner's item with its catalog entry and tags.
func (s *GormStore) GetItem(ctx context.Context, ownerID, id string) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).
		Preload("Catalog").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&item).Error
	if err != nil {
		return nil, notFound(err, "item %s", id)
	}
	return &item, nil
}

// SaveItem persists the item's own columns; associations are left alone.
func (s *GormStore) SaveItem(ctx context.Context, item *models.Item) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error
}

// IncrementWear adds n wears to an item and returns the updated item.
func (s *GormStore) IncrementWear(ctx context.Context, ownerID, id string, n int) (*models.Item, error) {
	result := s.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("wear_count", gorm.Expr("wear_count + ?", n))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: item %s", models.ErrNotFound, id)
	}
	return s.GetItem(ctx, ownerID, id)
}

// DeleteItem removes an item together with its collection and tag links.
func (s *GormStore) DeleteItem(ctx context.Context, ownerID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Item{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: item %s", models.ErrNotFound, id)
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.CollectionItem{}).Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM item_tags WHERE item_id = ?", id).Error
	})
}

// ListOwners returns every owner id that holds at least one item.
func (s *GormStore) ListOwners(ctx context.Context) ([]string, error) {
	var owners []string
	err := s.db.WithContext(ctx).Model(&models.Item{}).Distinct().Order("owner_id").Pluck("owner_id", &owners).Error
	return owners, err
}

// Collections

// CreateCollection stores a new collection.
func (s *GormStore) CreateCollection(ctx context.Context, c *models.Collection) error {
	return s.db.WithContext(ctx).Create(c).Error
}

// GetCollection returns an owner's collection or ErrNotFound.
func (s *GormStore) GetCollection(ctx context.Context, ownerID, id string) (*models.Collection, error) {
	var c models.Collection
	if err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&c).Error; err != nil {
		return nil, notFound(err, "collection %s", id)
	}
	return &c, nil
}

// GetCollections returns the owner's collections among ids. Missing or
// foreign ids are an ErrNotFound.
func (s *GormStore) GetCollections(ctx context.Context, ownerID string, ids []string) ([]models.Collection, error) {
	ids = dedupe(ids)
	var found []models.Collection
	if err := s.db.WithContext(ctx).Where("owner_id = ? AND id IN ?", ownerID, ids).Find(&found).Error; err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, fmt.Errorf("%w: one or more collections", models.ErrNotFound)
	}
	return found, nil
}

// ListCollections returns the owner's collections, oldest first.
func (s *GormStore) ListCollections(ctx context.Context, ownerID string) ([]models.Collection, error) {
	var out []models.Collection
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// SaveCollection persists changes to a loaded collection.
func (s *GormStore) SaveCollection(ctx context.Context, c *models.Collection) error {
	return s.db.WithContext(ctx).Save(c).Error
}

// DeleteCollection removes a collection and its manual links.
func (s *GormStore) DeleteCollection(ctx context.Context, ownerID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Collection{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: collection %s", models.ErrNotFound, id)
		}
		return tx.Where("collection_id = ?", id).Delete(&models.CollectionItem{}).Error
	})
}

// AddCollectionItem links an item to a manual collection. Linking twice is a no-op.
func (s *GormStore) AddCollectionItem(ctx context.Context, collectionID, itemID string) error {
	link := models.CollectionItem{CollectionID: collectionID, ItemID: itemID, AddedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}

// RemoveCollectionItem unlinks an item from a manual collection.
func (s *GormStore) RemoveCollectionItem(ctx context.Context, collectionID, itemID string) error {
	result := s.db.WithContext(ctx).
		Where("collection_id = ? AND item_id = ?", collectionID, itemID).
		Delete(&models.CollectionItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: item %s is not in collection %s", models.ErrNotFound, itemID, collectionID)
	}
	return nil
}

// Tags

// CreateTag stores a new tag.
func (s *GormStore) CreateTag(ctx context.Context, tag *models.Tag) error {
	return s.db.WithContext(ctx).Create(tag).Error
}

// GetTag returns an owner's tag or ErrNotFound.
func (s *GormStore) GetTag(ctx context.Context, ownerID, id string) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&tag).Error; err != nil {
		return nil, notFound(err, "tag %s", id)
	}
	return &tag, nil
}

// ListTags returns the owner's tags by name.
func (s *GormStore) ListTags(ctx context.Context, ownerID string) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("name ASC").Find(&tags).Error
	return tags, err
}

// AttachTag labels an owner's item with one of the owner's tags.
func (s *GormStore) AttachTag(ctx context.Context, ownerID, itemID, tagID string) error {
	item, tag, err := s.itemAndTag(ctx, ownerID, itemID, tagID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(item).Association("Tags").Append(tag)
}

// DetachTag removes a tag from an item.
func (s *GormStore) DetachTag(ctx context.Context, ownerID, itemID, tagID string) error {
	item, tag, err := s.itemAndTag(ctx, ownerID, itemID, tagID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(item).Association("Tags").Delete(tag)
}

func (s *GormStore) itemAndTag(ctx context.Context, ownerID, itemID, tagID string) (*models.Item, *models.Tag, error) {
	item, err := s.GetItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, nil, err
	}
	tag, err := s.GetTag(ctx, ownerID, tagID)
	if err != nil {
		return nil, nil, err
	}
	return item, tag, nil
}

// notFound maps gorm's missing-record error onto ErrNotFound.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", models.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func emptySets(ids []string) map[string]models.IDSet {
	out := make(map[string]models.IDSet, len(ids))
	for _, id := range ids {
		out[id] = models.NewIDSet()
	}
	return out
}
