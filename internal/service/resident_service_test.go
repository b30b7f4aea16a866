package service_test

import (
	"context"
	"testing"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/service"
	"github.com/straye-as/renewal-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func statusPtr(s domain.WorkflowStatus) *domain.WorkflowStatus { return &s }

func TestResidentService_UpdateResidentData_StatusLock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testutil.CreateComplex(t, h.stores.Projects, "Gilo", "A")

	for _, ls := range []domain.LawyerStatus{domain.LawyerStatusFullySigned, domain.LawyerStatusPartiallySigned} {
		t.Run(string(ls), func(t *testing.T) {
			r := testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "unit_"+string(ls), "Ruth",
				testutil.WithLawyerStatus(ls),
				testutil.WithStatus(domain.WorkflowStatusMeetingScheduled),
			)

			res, err := h.residentS.UpdateResidentData(ctx, &domain.UpdateResidentDataRequest{
				ID:     r.ID,
				Status: statusPtr(domain.WorkflowStatusRefused),
				Note:   strPtr("called twice"),
				Phone:  strPtr("0501111111"),
			})
			require.NoError(t, err)
			assert.True(t, res.StatusLocked)

			stored, err := h.residentS.Get(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.WorkflowStatusMeetingScheduled, stored.Status)
			assert.Equal(t, "called twice", stored.Note)
			assert.Equal(t, "0501111111", stored.Phone)
		})
	}

	t.Run("unsigned resident takes the new status", func(t *testing.T) {
		r := testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "unit_open", "Avi")

		res, err := h.residentS.UpdateResidentData(ctx, &domain.UpdateResidentDataRequest{
			ID:     r.ID,
			Status: statusPtr(domain.WorkflowStatusNoAnswer),
		})
		require.NoError(t, err)
		assert.False(t, res.StatusLocked)
		assert.Equal(t, domain.WorkflowStatusNoAnswer, res.Resident.Status)
	})

	t.Run("padded status is trimmed and not reported as locked", func(t *testing.T) {
		r := testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "unit_padded", "Noa")

		res, err := h.residentS.UpdateResidentData(ctx, &domain.UpdateResidentDataRequest{
			ID:     r.ID,
			Status: statusPtr(" " + domain.WorkflowStatusRefused + " "),
		})
		require.NoError(t, err)
		assert.False(t, res.StatusLocked)
		assert.Equal(t, "resident updated", res.Message)
		assert.Equal(t, domain.WorkflowStatusRefused, res.Resident.Status)
	})
}

func TestResidentService_UpdateResidentData_Fields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testutil.CreateComplex(t, h.stores.Projects, "Gilo", "A")
	r := testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "u1", "Ruth")
	require.NoError(t, h.stores.Projects.Model(&domain.Resident{}).Where("id = ?", r.ID).
		Update("warning_note", "from import").Error)

	renter := true
	rep := domain.RepresentationRefused
	res, err := h.residentS.UpdateResidentData(ctx, &domain.UpdateResidentDataRequest{
		ID:                          r.ID,
		IsRenter:                    &renter,
		TenantName:                  strPtr("Yossi"),
		RepresentationStatus:        &rep,
		RepresentationRefusalReason: strPtr("wants more"),
	})
	require.NoError(t, err)
	assert.True(t, res.Resident.IsRenter)
	assert.Equal(t, "Yossi", res.Resident.TenantName)
	assert.Equal(t, domain.RepresentationRefused, res.Resident.RepresentationStatus)
	assert.Equal(t, "from import", res.Resident.WarningNote)
	assert.Equal(t, domain.WorkflowStatusNone, res.Resident.Status)

	t.Run("invalid representation status", func(t *testing.T) {
		bad := domain.RepresentationStatus("maybe")
		_, err := h.residentS.UpdateResidentData(ctx, &domain.UpdateResidentDataRequest{ID: r.ID, RepresentationStatus: &bad})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("unknown resident", func(t *testing.T) {
		_, err := h.residentS.UpdateResidentData(ctx, &domain.UpdateResidentDataRequest{ID: 9999, Note: strPtr("x")})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestResidentService_UpdateResidentData_Version(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testutil.CreateComplex(t, h.stores.Projects, "Gilo", "A")
	r := testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "u1", "Ruth")

	current := r.Version
	res, err := h.residentS.UpdateResidentData(ctx, &domain.UpdateResidentDataRequest{ID: r.ID, Version: &current, Note: strPtr("first")})
	require.NoError(t, err)
	assert.Equal(t, current+1, res.Resident.Version)

	_, err = h.residentS.UpdateResidentData(ctx, &domain.UpdateResidentDataRequest{ID: r.ID, Version: &current, Note: strPtr("stale")})
	assert.ErrorIs(t, err, service.ErrVersionConflict)

	stored, err := h.residentS.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Note)

	// Without a version the legacy last-write-wins path applies
	_, err = h.residentS.UpdateResidentData(ctx, &domain.UpdateResidentDataRequest{ID: r.ID, Note: strPtr("second")})
	require.NoError(t, err)
}

func TestResidentService_LawyerUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testutil.CreateComplex(t, h.stores.Projects, "Gilo", "A")

	t.Run("fully signed forces contract_signed", func(t *testing.T) {
		r := testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "u1", "Ruth",
			testutil.WithLawyerStatus(domain.LawyerStatusPartiallySigned),
			testutil.WithStatus(domain.WorkflowStatusRefused),
		)

		updated, err := h.residentS.LawyerUpdate(ctx, &domain.LawyerUpdateRequest{
			ID:           r.ID,
			LawyerStatus: domain.LawyerStatusFullySigned,
		}, []*service.Upload{upload("contract.pdf", "signed pages")})
		require.NoError(t, err)
		assert.Equal(t, domain.LawyerStatusFullySigned, updated.LawyerStatus)
		assert.Equal(t, domain.WorkflowStatusContractSigned, updated.Status)

		docs, err := h.residentS.Documents(ctx, r.ID)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, domain.DocTypeSignedContractPart, docs[0].DocType)
		assert.Equal(t, domain.UploaderLawyer, docs[0].UploadedByRole)
		assert.Equal(t, domain.DocumentStatusConfirmed, docs[0].Status)
		assert.Contains(t, docs[0].FilePath, "signed_")

		rc, doc, err := h.documents.OpenResidentDocument(ctx, docs[0].FilePath)
		require.NoError(t, err)
		assert.Equal(t, "contract.pdf", doc.FileName)
		assert.Equal(t, "signed pages", readAll(t, rc))
	})

	t.Run("partial signing keeps the missing docs verbatim", func(t *testing.T) {
		r := testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "u2", "Avi",
			testutil.WithStatus(domain.WorkflowStatusMeetingScheduled))
		missing := domain.MissingDocs{Owners: []string{"Sara"}, Docs: []string{"id_copy", "tabu"}}

		updated, err := h.residentS.LawyerUpdate(ctx, &domain.LawyerUpdateRequest{
			ID:           r.ID,
			LawyerStatus: domain.LawyerStatusPartiallySigned,
			MissingDocs:  missing,
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.WorkflowStatusMeetingScheduled, updated.Status)
		assert.Equal(t, missing, updated.MissingDocs.Data())

		// An agent upload does not clear what the lawyer marked as missing
		_, err = h.residentS.UploadResidentDocument(ctx, r.ID, "id_copy", upload("id.jpg", "img"))
		require.NoError(t, err)
		again, err := h.residentS.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, missing, again.MissingDocs.Data())
	})

	t.Run("validation", func(t *testing.T) {
		_, err := h.residentS.LawyerUpdate(ctx, &domain.LawyerUpdateRequest{LawyerStatus: domain.LawyerStatusInProgress}, nil)
		assert.ErrorIs(t, err, service.ErrInvalidInput)

		_, err = h.residentS.LawyerUpdate(ctx, &domain.LawyerUpdateRequest{ID: 1, LawyerStatus: "signed-ish"}, nil)
		assert.ErrorIs(t, err, service.ErrInvalidInput)

		_, err = h.residentS.LawyerUpdate(ctx, &domain.LawyerUpdateRequest{ID: 9999, LawyerStatus: domain.LawyerStatusInProgress}, nil)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestResidentService_Reads(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testutil.CreateComplex(t, h.stores.Projects, "Gilo", "A")
	r1 := testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "b_2", "Second", testutil.WithAddress("Herzl 3"))
	testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "a_1", "First", testutil.WithAddress("Herzl 3"))
	testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "c_1", "Elsewhere", testutil.WithAddress("Jabotinsky 9"))
	require.NoError(t, h.stores.Projects.Create(&domain.SecondaryOwner{ResidentID: r1.ID, Name: "Partner"}).Error)

	list, err := h.residentS.ListByAddress(ctx, "Gilo", "Herzl 3")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "First", list[0].Name)
	assert.Equal(t, "Second", list[1].Name)
	require.Len(t, list[1].SecondaryOwners, 1)

	owners, err := h.residentS.SecondaryOwners(ctx, r1.ID)
	require.NoError(t, err)
	assert.Len(t, owners, 1)

	empty, err := h.residentS.ListByAddress(ctx, "Nowhere", "Herzl 3")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
