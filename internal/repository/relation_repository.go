package repository

import (
	"fmt"

	"gorm.io/gorm"

	"memoryai/internal/model"
)

type RelationRepository struct {
	db *gorm.DB
}

func NewRelationRepository(db *gorm.DB) *RelationRepository {
	return &RelationRepository{db: db}
}

func (r *RelationRepository) CreateBatch(relations []model.Relation) error {
	if len(relations) == 0 {
		return nil
	}
	if err := r.db.Create(&relations).Error; err != nil {
		return fmt.Errorf("create relations batch failed: %w", err)
	}
	return nil
}

// ListByEntity returns relation rows touching the given entity name in either
// position. The graph is logically undirected; callers resolve the far end.
// Ordered by id so a fixed store state always lists in insertion order.
func (r *RelationRepository) ListByEntity(name string, limit int) ([]model.Relation, error) {
	var relations []model.Relation
	q := r.db.Where("entity_a = ? OR entity_b = ?", name, name).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&relations).Error; err != nil {
		return nil, fmt.Errorf("list relations by entity failed: %w", err)
	}
	return relations, nil
}

func (r *RelationRepository) DeleteByDocID(docID string) error {
	if err := r.db.Where("doc_id = ?", docID).Delete(&model.Relation{}).Error; err != nil {
		return fmt.Errorf("delete relations by doc failed: %w", err)
	}
	return nil
}

func (r *RelationRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Relation{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count relations failed: %w", err)
	}
	return count, nil
}
