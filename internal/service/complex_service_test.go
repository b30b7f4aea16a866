package service_test

import (
	"context"
	"testing"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/mapper"
	"github.com/straye-as/renewal-api/internal/service"
	"github.com/straye-as/renewal-api/internal/storage"
	"github.com/straye-as/renewal-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userIDPtr(id uint) *domain.UserID {
	v := domain.UserID(id)
	return &v
}

func TestComplexService_UpdateComplex(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	manager := testutil.CreateUser(t, h.stores.Users, "mgr", domain.RoleManager, true)
	lawyer := testutil.CreateUser(t, h.stores.Users, "adv", domain.RoleLawyer, true)

	created, err := h.complexes.UpdateComplex(ctx, &domain.UpdateComplexRequest{
		ProjectName: "Gilo",
		ComplexName: "A",
		ManagerID:   userIDPtr(manager.ID),
	}, upload("invite.pdf", "v1"), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StageOrganizing, created.Status)
	assert.Contains(t, created.InvitationPath, "inv_")

	project, err := repositoryProject(h, "Gilo")
	require.NoError(t, err)
	assert.Equal(t, "Gilo", project.ProjectName)

	stage := domain.StageSigningConference
	updated, err := h.complexes.UpdateComplex(ctx, &domain.UpdateComplexRequest{
		ProjectName: "Gilo",
		ComplexName: "A",
		LawyerID:    userIDPtr(lawyer.ID),
		Status:      &stage,
	}, upload("invite2.pdf", "v2"), upload("protocol.pdf", "p"))
	require.NoError(t, err)

	// Fields that were not submitted keep their values
	require.NotNil(t, updated.ManagerID)
	assert.Equal(t, domain.UserID(manager.ID), *updated.ManagerID)
	assert.Equal(t, domain.UserID(lawyer.ID), *updated.LawyerID)
	assert.Equal(t, stage, updated.Status)
	assert.NotEqual(t, created.InvitationPath, updated.InvitationPath)
	assert.Contains(t, updated.ProtocolPath, "prot_")

	// The replaced invitation is removed from storage
	assert.Equal(t, []string{updated.InvitationPath}, storedNames(t, h, storage.KindInvitations))
	rc, err := h.documents.OpenFile(ctx, storage.KindInvitations, updated.InvitationPath)
	require.NoError(t, err)
	assert.Equal(t, "v2", readAll(t, rc))

	t.Run("invalid stage", func(t *testing.T) {
		bad := domain.ProjectStage("done")
		_, err := h.complexes.UpdateComplex(ctx, &domain.UpdateComplexRequest{ProjectName: "Gilo", ComplexName: "A", Status: &bad}, nil, nil)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("missing identity", func(t *testing.T) {
		_, err := h.complexes.UpdateComplex(ctx, &domain.UpdateComplexRequest{ProjectName: "Gilo"}, nil, nil)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func repositoryProject(h *harness, name string) (*domain.Project, error) {
	var p domain.Project
	err := h.stores.Projects.First(&p, "project_name = ?", name).Error
	return &p, err
}

func TestComplexService_ListComplexes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	agent := testutil.CreateUser(t, h.stores.Users, "agent", domain.RoleAgent, true)

	testutil.CreateComplex(t, h.stores.Projects, "Gilo", "A")
	assign(t, h, "Gilo", "A", map[string]interface{}{
		"agent_id":      agent.ID,
		"lawyer_id":     4242,
		"protocol_path": "prot_x_minutes.pdf",
	})

	list, err := h.complexes.ListComplexes(ctx, "Gilo")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "agent", list[0].Agent.Name)
	assert.Equal(t, mapper.NotAssigned, list[0].Lawyer.Name)
	assert.Equal(t, mapper.NotAssigned, list[0].Manager.Name)
	assert.Equal(t, "/download-complex-file/protocol/prot_x_minutes.pdf", list[0].ProtocolURL)

	empty, err := h.complexes.ListComplexes(ctx, "Unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestComplexService_Delete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.CreateComplex(t, h.stores.Projects, "Gilo", "A")
	testutil.CreateComplex(t, h.stores.Projects, "Gilo", "B")
	ra := testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "u1", "R")
	testutil.CreateResident(t, h.stores.Projects, "Gilo", "B", "u2", "R")
	require.NoError(t, h.stores.Projects.Create(&domain.SecondaryOwner{ResidentID: ra.ID, Name: "Partner"}).Error)

	countResidents := func() int64 {
		var n int64
		require.NoError(t, h.stores.Projects.Model(&domain.Resident{}).Count(&n).Error)
		return n
	}

	require.NoError(t, h.complexes.DeleteComplex(ctx, "Gilo", "A"))
	assert.EqualValues(t, 1, countResidents())

	var owners int64
	require.NoError(t, h.stores.Projects.Model(&domain.SecondaryOwner{}).Count(&owners).Error)
	assert.Zero(t, owners)

	assert.ErrorIs(t, h.complexes.DeleteComplex(ctx, "Gilo", "A"), service.ErrNotFound)

	require.NoError(t, h.complexes.DeleteProject(ctx, "Gilo"))
	assert.Zero(t, countResidents())
	assert.ErrorIs(t, h.complexes.DeleteProject(ctx, "Gilo"), service.ErrNotFound)
}

func TestComplexService_UpdateProjectStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testutil.CreateProject(t, h.stores.Projects, "Gilo")

	name := "Big signing"
	date := "2025-06-01"
	project, err := h.complexes.UpdateProjectStatus(ctx, &domain.UpdateProjectRequest{
		ProjectName:    "Gilo",
		ProjectStatus:  domain.StageBuildingPermit,
		ConferenceName: &name,
		ConferenceDate: &date,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageBuildingPermit, project.ProjectStatus)
	assert.Equal(t, name, project.ConferenceName)
	require.NotNil(t, project.ConferenceDate)
	assert.Equal(t, "2025-06-01", project.ConferenceDate.UTC().Format("2006-01-02"))

	_, err = h.complexes.UpdateProjectStatus(ctx, &domain.UpdateProjectRequest{ProjectName: "Gilo", ProjectStatus: "finished"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = h.complexes.UpdateProjectStatus(ctx, &domain.UpdateProjectRequest{ProjectName: "Nope", ProjectStatus: domain.StageHandover})
	assert.ErrorIs(t, err, service.ErrNotFound)
}
