package database

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/codyseavey/sneaker-tracker/internal/models"
)

// cleanupDuplicateCollectionItems removes duplicate manual membership links before the unique index is added.
// This runs BEFORE AutoMigrate to prevent constraint violations
func cleanupDuplicateCollectionItems(db *gorm.DB) error {
	if !db.Migrator().HasTable("collection_items") {
		return nil // No table, no duplicates to clean
	}

	// Keep the oldest link for each pair
	result := db.Exec(`
		DELETE FROM collection_items
		WHERE id NOT IN (
			SELECT MIN(id)
			FROM collection_items
			GROUP BY collection_id, item_id
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Info().Int64("rows", result.RowsAffected).Msg("Cleaned up duplicate collection_items entries")
	}
	return nil
}

// RunMigrations runs any custom data migrations after schema changes
func RunMigrations(db *gorm.DB) error {
	if err := migrateConditionLabels(db); err != nil {
		return err
	}
	if err := migrateWearCount(db); err != nil {
		return err
	}
	return nil
}

// migrateConditionLabels rewrites legacy free-form condition labels
// ("deadstock", "Brand New", "vnds") to the enumerated values.
// This is safe to run multiple times as it only touches rows with an unknown label.
func migrateConditionLabels(db *gorm.DB) error {
	var labels []string
	if err := db.Model(&models.Item{}).Distinct().Pluck("condition", &labels).Error; err != nil {
		return err
	}

	for _, label := range labels {
		if models.Condition(label).IsValid() {
			continue
		}
		normalized, ok := models.ParseCondition(label)
		if !ok {
			log.Warn().Str("condition", label).Msg("Unrecognized condition label, defaulting to DS")
			normalized = models.ConditionDeadstock
		}
		result := db.Model(&models.Item{}).Where("condition = ?", label).Update("condition", normalized)
		if result.Error != nil {
			log.Warn().Err(result.Error).Str("condition", label).Msg("Failed to migrate condition label")
			continue
		}
		log.Info().Str("from", label).Str("to", string(normalized)).Int64("rows", result.RowsAffected).Msg("Migrated condition label")
	}

	// Rows written before the column had a default
	db.Exec(`UPDATE items SET condition = 'DS' WHERE condition IS NULL`)
	return nil
}

// migrateWearCount backfills and clamps wear counts. The count is never negative.
func migrateWearCount(db *gorm.DB) error {
	result := db.Exec(`UPDATE items SET wear_count = 0 WHERE wear_count IS NULL OR wear_count < 0`)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Info().Int64("rows", result.RowsAffected).Msg("Backfilled wear_count")
	}
	return nil
}
