package repository

import (
	"context"

	"github.com/straye-as/renewal-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ComplexRepository struct {
	db *gorm.DB
}

func NewComplexRepository(db *gorm.DB) *ComplexRepository {
	return &ComplexRepository{db: db}
}

func (r *ComplexRepository) WithTx(tx *gorm.DB) *ComplexRepository {
	return &ComplexRepository{db: tx}
}

// EnsureExists inserts (project, complex) unless it is already registered
func (r *ComplexRepository) EnsureExists(ctx context.Context, projectName, complexName string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_name"}, {Name: "complex_name"}},
			DoNothing: true,
		}).
		Create(&domain.Complex{
			ProjectName: projectName,
			ComplexName: complexName,
			Status:      domain.StageOrganizing,
		}).Error
}

func (r *ComplexRepository) Create(ctx context.Context, c *domain.Complex) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ComplexRepository) Get(ctx context.Context, projectName, complexName string) (*domain.Complex, error) {
	var c domain.Complex
	err := r.db.WithContext(ctx).
		First(&c, "project_name = ? AND complex_name = ?", projectName, complexName).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ComplexRepository) ListByProject(ctx context.Context, projectName string) ([]domain.Complex, error) {
	var complexes []domain.Complex
	err := r.db.WithContext(ctx).
		Where("project_name = ?", projectName).
		Order("complex_name ASC").
		Find(&complexes).Error
	return complexes, err
}

func (r *ComplexRepository) ListByManager(ctx context.Context, managerID domain.UserID) ([]domain.Complex, error) {
	var complexes []domain.Complex
	err := r.db.WithContext(ctx).
		Where("manager_id = ?", managerID).
		Order("project_name ASC, complex_name ASC").
		Find(&complexes).Error
	return complexes, err
}

func (r *ComplexRepository) ListByLawyer(ctx context.Context, lawyerID domain.UserID) ([]domain.Complex, error) {
	var complexes []domain.Complex
	err := r.db.WithContext(ctx).
		Where("lawyer_id = ?", lawyerID).
		Order("project_name ASC, complex_name ASC").
		Find(&complexes).Error
	return complexes, err
}

func (r *ComplexRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.Complex{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes the complex and its residents in one transaction
func (r *ComplexRepository) Delete(ctx context.Context, projectName, complexName string) (int64, error) {
	var residents int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("project_name = ? AND complex_name = ?", projectName, complexName).
			Delete(&domain.Resident{})
		if res.Error != nil {
			return res.Error
		}
		residents = res.RowsAffected
		return tx.Where("project_name = ? AND complex_name = ?", projectName, complexName).
			Delete(&domain.Complex{}).Error
	})
	return residents, err
}

// ReferencedFiles returns every invitation and protocol file name in use
func (r *ComplexRepository) ReferencedFiles(ctx context.Context) ([]string, error) {
	var complexes []domain.Complex
	err := r.db.WithContext(ctx).
		Select("invitation_path", "protocol_path").
		Where("invitation_path <> '' OR protocol_path <> ''").
		Find(&complexes).Error
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(complexes)*2)
	for _, c := range complexes {
		if c.InvitationPath != "" {
			files = append(files, c.InvitationPath)
		}
		if c.ProtocolPath != "" {
			files = append(files, c.ProtocolPath)
		}
	}
	return files, nil
}
