package repository

import (
	"context"

	"github.com/straye-as/renewal-api/internal/domain"
	"gorm.io/gorm"
)

type SecondaryOwnerRepository struct {
	db *gorm.DB
}

func NewSecondaryOwnerRepository(db *gorm.DB) *SecondaryOwnerRepository {
	return &SecondaryOwnerRepository{db: db}
}

func (r *SecondaryOwnerRepository) WithTx(tx *gorm.DB) *SecondaryOwnerRepository {
	return &SecondaryOwnerRepository{db: tx}
}

func (r *SecondaryOwnerRepository) Create(ctx context.Context, owner *domain.SecondaryOwner) error {
	return r.db.WithContext(ctx).Create(owner).Error
}

func (r *SecondaryOwnerRepository) ListByResident(ctx context.Context, residentID uint) ([]domain.SecondaryOwner, error) {
	var owners []domain.SecondaryOwner
	err := r.db.WithContext(ctx).
		Where("resident_id = ?", residentID).
		Order("id ASC").
		Find(&owners).Error
	return owners, err
}

// ExistsByName reports whether the resident already has an owner with exactly this name
func (r *SecondaryOwnerRepository) ExistsByName(ctx context.Context, residentID uint, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.SecondaryOwner{}).
		Where("resident_id = ? AND name = ?", residentID, name).
		Count(&count).Error
	return count > 0, err
}
