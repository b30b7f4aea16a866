package repository

import (
	"context"
	"time"

	"github.com/straye-as/renewal-api/internal/domain"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.ResidentDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) GetByFilePath(ctx context.Context, filePath string) (*domain.ResidentDocument, error) {
	var doc domain.ResidentDocument
	err := r.db.WithContext(ctx).First(&doc, "file_path = ?", filePath).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByResident returns confirmed documents, newest first
func (r *DocumentRepository) ListByResident(ctx context.Context, residentID uint) ([]domain.ResidentDocument, error) {
	var docs []domain.ResidentDocument
	err := r.db.WithContext(ctx).
		Where("resident_id = ? AND status = ?", residentID, domain.DocumentStatusConfirmed).
		Order("upload_date DESC").
		Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) MarkConfirmed(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&domain.ResidentDocument{}).
		Where("id = ?", id).
		Update("status", domain.DocumentStatusConfirmed).Error
}

// ListStalePending returns pending rows uploaded before cutoff
func (r *DocumentRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]domain.ResidentDocument, error) {
	var docs []domain.ResidentDocument
	err := r.db.WithContext(ctx).
		Where("status = ? AND upload_date < ?", domain.DocumentStatusPending, cutoff).
		Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.ResidentDocument{}, "id = ?", id).Error
}

// ReferencedFiles returns every stored file name with a document row, pending or not
func (r *DocumentRepository) ReferencedFiles(ctx context.Context) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Model(&domain.ResidentDocument{}).Pluck("file_path", &paths).Error
	return paths, err
}
