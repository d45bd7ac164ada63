package costing

import (
	"context"
	"errors"
	"fmt"

	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/workflow"
	"gorm.io/gorm"
)

// Store persists chat sessions and their messages
type Store interface {
	Create(ctx context.Context, s *models.ChatSession) error
	Get(ctx context.Context, id string) (*models.ChatSession, error)
	// Append adds messages and saves the session row in one transaction
	Append(ctx context.Context, s *models.ChatSession, msgs ...models.ChatMessage) error
}

// GormStore is the Postgres-backed Store
type GormStore struct {
	DB *gorm.DB
}

func (g GormStore) Create(ctx context.Context, s *models.ChatSession) error {
	if err := g.DB.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}
	return nil
}

func (g GormStore) Get(ctx context.Context, id string) (*models.ChatSession, error) {
	var s models.ChatSession
	err := g.DB.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: chat session %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}
	return &s, nil
}

func (g GormStore) Append(ctx context.Context, s *models.ChatSession, msgs ...models.ChatMessage) error {
	return g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range msgs {
			msgs[i].SessionID = s.ID
			if err := tx.Create(&msgs[i]).Error; err != nil {
				return fmt.Errorf("failed to save chat message: %w", err)
			}
		}
		err := tx.Model(&models.ChatSession{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
			"title":        s.Title,
			"status":       s.Status,
			"state":        s.State,
			"quotation_no": s.QuotationNo,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update chat session: %w", err)
		}
		s.Messages = append(s.Messages, msgs...)
		return nil
	})
}
