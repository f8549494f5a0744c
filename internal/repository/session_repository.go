package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memoryai/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateIfAbsent inserts the session, doing nothing when the id already
// exists. Safe to call on every navigation request.
func (r *SessionRepository) CreateIfAbsent(session *model.Session) error {
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(session).Error
	if err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(id string) (*model.Session, error) {
	var session model.Session
	if err := r.db.Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return &session, nil
}

// UpdateContext persists the session's context window and last query.
func (r *SessionRepository) UpdateContext(session *model.Session) error {
	err := r.db.Model(&model.Session{}).
		Where("id = ?", session.ID).
		Updates(map[string]any{
			"context":    session.Context,
			"last_query": session.LastQuery,
		}).Error
	if err != nil {
		return fmt.Errorf("update session context failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Session{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count sessions failed: %w", err)
	}
	return count, nil
}
