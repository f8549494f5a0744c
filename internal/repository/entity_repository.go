package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memoryai/internal/model"
)

type EntityRepository struct {
	db *gorm.DB
}

func NewEntityRepository(db *gorm.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// InsertIgnoreBatch inserts entities, silently skipping rows that collide
// with the (name, chunk_id) unique index. Re-ingesting the same chunk id is
// therefore idempotent.
func (r *EntityRepository) InsertIgnoreBatch(entities []model.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entities).Error
	if err != nil {
		return fmt.Errorf("insert entities batch failed: %w", err)
	}
	return nil
}

// DistinctByDocID returns the distinct (name, type) pairs observed anywhere
// in the document, ordered by name for determinism.
func (r *EntityRepository) DistinctByDocID(docID string) ([]model.Entity, error) {
	var entities []model.Entity
	err := r.db.Model(&model.Entity{}).
		Distinct("name", "entity_type").
		Where("doc_id = ?", docID).
		Order("name").
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("list entities by doc failed: %w", err)
	}
	return entities, nil
}

// ChunkIDsByName returns the distinct chunk ids an entity name appears in.
func (r *EntityRepository) ChunkIDsByName(name string, limit int) ([]string, error) {
	var chunkIDs []string
	err := r.db.Model(&model.Entity{}).
		Distinct("chunk_id").
		Where("name = ?", name).
		Order("chunk_id").
		Limit(limit).
		Pluck("chunk_id", &chunkIDs).Error
	if err != nil {
		return nil, fmt.Errorf("list chunk ids by entity failed: %w", err)
	}
	return chunkIDs, nil
}

func (r *EntityRepository) DeleteByDocID(docID string) error {
	if err := r.db.Where("doc_id = ?", docID).Delete(&model.Entity{}).Error; err != nil {
		return fmt.Errorf("delete entities by doc failed: %w", err)
	}
	return nil
}

// CountDistinctNames counts unique entity names across all documents.
func (r *EntityRepository) CountDistinctNames() (int64, error) {
	var count int64
	err := r.db.Model(&model.Entity{}).Distinct("name").Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count distinct entities failed: %w", err)
	}
	return count, nil
}
