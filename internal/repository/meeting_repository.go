package repository

import (
	"context"
	"time"

	"github.com/straye-as/renewal-api/internal/domain"
	"gorm.io/gorm"
)

// MeetingRepository reads and writes the meetings store. Blocked slots and
// real meetings share the table, so every read states which it wants.
type MeetingRepository struct {
	db *gorm.DB
}

func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

func (r *MeetingRepository) Create(ctx context.Context, m *domain.Meeting) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// BlockedAt reports whether any blocked slot starts exactly at t
func (r *MeetingRepository) BlockedAt(ctx context.Context, t time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Meeting{}).
		Where("start_time = ? AND meeting_type = ?", t.UTC(), domain.MeetingTypeBlocked).
		Count(&count).Error
	return count > 0, err
}

// ListByUsers returns every calendar entry, blocked slots included, for the given users
func (r *MeetingRepository) ListByUsers(ctx context.Context, userIDs []domain.UserID) ([]domain.Meeting, error) {
	var meetings []domain.Meeting
	if len(userIDs) == 0 {
		return meetings, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("start_time ASC").
		Find(&meetings).Error
	return meetings, err
}

// ListTasks returns a user's real meetings with blocked slots filtered out
func (r *MeetingRepository) ListTasks(ctx context.Context, userID domain.UserID) ([]domain.Meeting, error) {
	var meetings []domain.Meeting
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND meeting_type <> ?", userID, domain.MeetingTypeBlocked).
		Order("start_time ASC").
		Find(&meetings).Error
	return meetings, err
}
