package repository

import (
	"context"

	"github.com/straye-as/renewal-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// WithTx returns a copy bound to tx
func (r *ProjectRepository) WithTx(tx *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: tx}
}

// EnsureExists creates the project row if it is missing and leaves an existing one untouched
func (r *ProjectRepository) EnsureExists(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.Project{ProjectName: name, ProjectStatus: domain.StageOrganizing}).Error
}

func (r *ProjectRepository) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).First(&project, "project_name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).Order("project_name ASC").Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) Update(ctx context.Context, name string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("project_name = ?", name).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the project. Residents and complexes go with it through
// the declared cascades, and secondary owners and documents follow residents.
func (r *ProjectRepository) Delete(ctx context.Context, name string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Project{}, "project_name = ?", name)
	return result.RowsAffected, result.Error
}

// ProjectStatRow is one line of the per-project signing summary
type ProjectStatRow struct {
	ProjectName   string
	ProjectStatus domain.ProjectStage
	Total         int64
	Signed        int64
}

// Stats counts residents and fully signed residents per project
func (r *ProjectRepository) Stats(ctx context.Context) ([]ProjectStatRow, error) {
	var rows []ProjectStatRow
	err := r.db.WithContext(ctx).
		Table("projects_metadata AS p").
		Select(`p.project_name, p.project_status,
			COUNT(r.id) AS total,
			COALESCE(SUM(CASE WHEN r.lawyer_status = ? THEN 1 ELSE 0 END), 0) AS signed`,
			domain.LawyerStatusFullySigned).
		Joins("LEFT JOIN residents r ON r.project_name = p.project_name").
		Group("p.project_name, p.project_status").
		Order("p.project_name ASC").
		Scan(&rows).Error
	return rows, err
}
