package repository

import (
	"context"

	"github.com/straye-as/renewal-api/internal/domain"
	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByResident returns the conversation oldest first
func (r *ChatRepository) ListByResident(ctx context.Context, residentID uint) ([]domain.ChatMessage, error) {
	var msgs []domain.ChatMessage
	err := r.db.WithContext(ctx).
		Where("resident_id = ?", residentID).
		Order("timestamp ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}
