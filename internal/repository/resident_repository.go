package repository

import (
	"context"

	"github.com/straye-as/renewal-api/internal/domain"
	"gorm.io/gorm"
)

type ResidentRepository struct {
	db *gorm.DB
}

func NewResidentRepository(db *gorm.DB) *ResidentRepository {
	return &ResidentRepository{db: db}
}

func (r *ResidentRepository) WithTx(tx *gorm.DB) *ResidentRepository {
	return &ResidentRepository{db: tx}
}

// WithTransaction executes fn within a transaction on the projects store
func (r *ResidentRepository) WithTransaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *ResidentRepository) Create(ctx context.Context, resident *domain.Resident) error {
	return r.db.WithContext(ctx).Omit("SecondaryOwners", "Documents", "ChatMessages").Create(resident).Error
}

// GetByID loads a resident with its secondary owners
func (r *ResidentRepository) GetByID(ctx context.Context, id uint) (*domain.Resident, error) {
	var resident domain.Resident
	err := r.db.WithContext(ctx).
		Preload("SecondaryOwners", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&resident, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &resident, nil
}

// FindByUnit looks up the resident holding (project, block, parcel, sub-parcel)
func (r *ResidentRepository) FindByUnit(ctx context.Context, projectName, block, parcel, subParcel string) (*domain.Resident, error) {
	var resident domain.Resident
	err := r.db.WithContext(ctx).
		Where("project_name = ? AND block = ? AND parcel = ? AND sub_parcel = ?", projectName, block, parcel, subParcel).
		First(&resident).Error
	if err != nil {
		return nil, err
	}
	return &resident, nil
}

func withOwners(db *gorm.DB) *gorm.DB {
	return db.Preload("SecondaryOwners", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

// ListByAddress returns the residents of one building ordered by apartment
func (r *ResidentRepository) ListByAddress(ctx context.Context, projectName, address string) ([]domain.Resident, error) {
	var residents []domain.Resident
	err := withOwners(r.db.WithContext(ctx)).
		Where("project_name = ? AND current_address = ?", projectName, address).
		Order("sub_parcel ASC").
		Find(&residents).Error
	return residents, err
}

// ListByComplex returns a complex's residents ordered by address then apartment
func (r *ResidentRepository) ListByComplex(ctx context.Context, projectName, complexName string) ([]domain.Resident, error) {
	var residents []domain.Resident
	err := withOwners(r.db.WithContext(ctx)).
		Where("project_name = ? AND complex_name = ?", projectName, complexName).
		Order("current_address ASC, sub_parcel ASC").
		Find(&residents).Error
	return residents, err
}

// ListForExport returns residents in spreadsheet order. An empty complex means the whole project.
func (r *ResidentRepository) ListForExport(ctx context.Context, projectName, complexName string) ([]domain.Resident, error) {
	query := r.db.WithContext(ctx).Where("project_name = ?", projectName)
	if complexName != "" {
		query = query.Where("complex_name = ?", complexName)
	}
	var residents []domain.Resident
	err := query.Order("complex_name ASC, current_address ASC, sub_parcel ASC").Find(&residents).Error
	return residents, err
}

func (r *ResidentRepository) ListByAssignedUser(ctx context.Context, userID domain.UserID) ([]domain.Resident, error) {
	var residents []domain.Resident
	err := r.db.WithContext(ctx).
		Where("assigned_user_id = ?", userID).
		Order("project_name ASC, current_address ASC, sub_parcel ASC").
		Find(&residents).Error
	return residents, err
}

// FindByPhoneSuffix returns the first resident whose phone ends with suffix
func (r *ResidentRepository) FindByPhoneSuffix(ctx context.Context, suffix string) (*domain.Resident, error) {
	var resident domain.Resident
	err := r.db.WithContext(ctx).
		Where("phone LIKE ?", "%"+suffix).
		Order("id ASC").
		First(&resident).Error
	if err != nil {
		return nil, err
	}
	return &resident, nil
}

// GetNames returns resident names keyed by id
func (r *ResidentRepository) GetNames(ctx context.Context, ids []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var residents []domain.Resident
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&residents).Error; err != nil {
		return nil, err
	}
	for _, res := range residents {
		out[res.ID] = res.Name
	}
	return out, nil
}

// UpdateFields applies updates and bumps the version. When expectedVersion is
// set the write only happens if the stored version still matches. The number
// of rows written is returned so callers can tell a stale version from success.
func (r *ResidentRepository) UpdateFields(ctx context.Context, id uint, expectedVersion *uint, updates map[string]interface{}) (int64, error) {
	updates["version"] = gorm.Expr("version + 1")
	query := r.db.WithContext(ctx).Model(&domain.Resident{}).Where("id = ?", id)
	if expectedVersion != nil {
		query = query.Where("version = ?", *expectedVersion)
	}
	result := query.Updates(updates)
	return result.RowsAffected, result.Error
}

// BuildingStatRow aggregates one building's signing progress
type BuildingStatRow struct {
	Address      string
	Total        int
	FullCount    int
	PartialCount int
}

// BuildingStats groups a complex's residents by current address
func (r *ResidentRepository) BuildingStats(ctx context.Context, projectName, complexName string) ([]BuildingStatRow, error) {
	var rows []BuildingStatRow
	err := r.db.WithContext(ctx).
		Model(&domain.Resident{}).
		Select(`current_address AS address,
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN lawyer_status = ? THEN 1 ELSE 0 END), 0) AS full_count,
			COALESCE(SUM(CASE WHEN lawyer_status = ? THEN 1 ELSE 0 END), 0) AS partial_count`,
			domain.LawyerStatusFullySigned, domain.LawyerStatusPartiallySigned).
		Where("project_name = ? AND complex_name = ?", projectName, complexName).
		Group("current_address").
		Order("current_address ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *ResidentRepository) CountByProject(ctx context.Context, projectName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Resident{}).Where("project_name = ?", projectName).Count(&count).Error
	return count, err
}
