package repository

import (
	"context"
	"time"

	"github.com/straye-as/renewal-api/internal/domain"
	"gorm.io/gorm"
)

type StaffMessageRepository struct {
	db *gorm.DB
}

func NewStaffMessageRepository(db *gorm.DB) *StaffMessageRepository {
	return &StaffMessageRepository{db: db}
}

func (r *StaffMessageRepository) Create(ctx context.Context, msg *domain.StaffMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// History returns broadcasts plus everything sent to or by userID, oldest first.
// Messages whose attachment never made it to storage are hidden.
func (r *StaffMessageRepository) History(ctx context.Context, userID domain.UserID) ([]domain.StaffMessage, error) {
	var msgs []domain.StaffMessage
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? OR recipient_id = ? OR sender_id = ?", domain.BroadcastRecipient, userID, userID).
		Where("file_status IS NULL OR file_status <> ?", domain.DocumentStatusPending).
		Order("timestamp ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *StaffMessageRepository) MarkFileConfirmed(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&domain.StaffMessage{}).
		Where("id = ?", id).
		Update("file_status", domain.DocumentStatusConfirmed).Error
}

// ListStalePendingFiles returns messages whose attachment stayed pending past cutoff
func (r *StaffMessageRepository) ListStalePendingFiles(ctx context.Context, cutoff time.Time) ([]domain.StaffMessage, error) {
	var msgs []domain.StaffMessage
	err := r.db.WithContext(ctx).
		Where("file_status = ? AND timestamp < ?", domain.DocumentStatusPending, cutoff).
		Find(&msgs).Error
	return msgs, err
}

// DetachFile drops a failed attachment but keeps the message text
func (r *StaffMessageRepository) DetachFile(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&domain.StaffMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"file_name": "", "file_path": "", "file_status": ""}).Error
}

func (r *StaffMessageRepository) ReferencedFiles(ctx context.Context) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Model(&domain.StaffMessage{}).
		Where("file_path <> ''").
		Pluck("file_path", &paths).Error
	return paths, err
}

func (r *StaffMessageRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.StaffMessage{}, id).Error
}
