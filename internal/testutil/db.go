package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/straye-as/renewal-api/internal/database"
	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbCounter int64

func memoryDSN(t *testing.T, store string) string {
	n := atomic.AddInt64(&dbCounter, 1)
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("file:%s_%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, store, n)
}

// SetupStores opens three isolated in-memory SQLite stores and migrates them.
// Every call gets fresh databases, so tests never see each other's rows.
func SetupStores(t *testing.T) *database.Stores {
	t.Helper()

	open := func(store string) *gorm.DB {
		db, err := database.OpenSQLite(memoryDSN(t, store))
		require.NoError(t, err)
		return db
	}
	stores := &database.Stores{
		Users:    open("users"),
		Projects: open("projects"),
		Meetings: open("meetings"),
	}
	require.NoError(t, database.AutoMigrate(stores))
	t.Cleanup(func() { _ = stores.Close() })
	return stores
}

// CreateProject inserts a project row
func CreateProject(t *testing.T, db *gorm.DB, name string) *domain.Project {
	t.Helper()
	p := &domain.Project{ProjectName: name, ProjectStatus: domain.StageOrganizing}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateComplex inserts a complex, creating its project when needed
func CreateComplex(t *testing.T, db *gorm.DB, project, complex string) *domain.Complex {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&domain.Project{}).Where("project_name = ?", project).Count(&count).Error)
	if count == 0 {
		CreateProject(t, db, project)
	}
	c := &domain.Complex{ProjectName: project, ComplexName: complex, Status: domain.StageOrganizing}
	require.NoError(t, db.Create(c).Error)
	return c
}

// ResidentOption customizes CreateResident
type ResidentOption func(*domain.Resident)

func WithLawyerStatus(s domain.LawyerStatus) ResidentOption {
	return func(r *domain.Resident) { r.LawyerStatus = s }
}

func WithStatus(s domain.WorkflowStatus) ResidentOption {
	return func(r *domain.Resident) { r.Status = s }
}

func WithAddress(addr string) ResidentOption {
	return func(r *domain.Resident) { r.CurrentAddress = addr }
}

func WithPhone(phone string) ResidentOption {
	return func(r *domain.Resident) { r.Phone = phone }
}

func WithAssignee(id domain.UserID) ResidentOption {
	return func(r *domain.Resident) { r.AssignedUserID = &id }
}

// CreateResident inserts a resident. The project must exist.
func CreateResident(t *testing.T, db *gorm.DB, project, complex, unit, name string, opts ...ResidentOption) *domain.Resident {
	t.Helper()
	r := &domain.Resident{
		ProjectName:          project,
		ComplexName:          complex,
		Block:                "0",
		Parcel:               "0",
		SubParcel:            unit,
		Name:                 name,
		CurrentAddress:       "Herzl 1",
		Status:               domain.WorkflowStatusNone,
		LawyerStatus:         domain.LawyerStatusNotHandled,
		RepresentationStatus: domain.RepresentationUnsigned,
		SourceType:           "manual",
		Version:              1,
	}
	for _, opt := range opts {
		opt(r)
	}
	require.NoError(t, db.Omit("SecondaryOwners", "Documents", "ChatMessages").Create(r).Error)
	return r
}

// CreateUser inserts a user with an already hashed password
func CreateUser(t *testing.T, db *gorm.DB, username string, role domain.Role, approved bool) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:   username,
		Password:   "not-a-real-hash",
		Role:       role,
		IsApproved: approved,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
