package repository

import (
	"context"

	"github.com/straye-as/renewal-api/internal/domain"
	"gorm.io/gorm"
)

// ActivityLogRepository persists the staff audit trail in the users store
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListRecent returns the newest entries, optionally for a single user (0 = all)
func (r *ActivityLogRepository) ListRecent(ctx context.Context, userID domain.UserID, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	query := r.db.WithContext(ctx).Model(&domain.ActivityLog{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	var logs []domain.ActivityLog
	err := query.Order("timestamp DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
