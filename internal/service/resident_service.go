package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ResidentService owns the resident status state machine: the agent edit
// with its workflow status lock and the lawyer signing path.
type ResidentService struct {
	residents *repository.ResidentRepository
	owners    *repository.SecondaryOwnerRepository
	docRepo   *repository.DocumentRepository
	documents *DocumentService
	logger    *zap.Logger
}

func NewResidentService(
	residents *repository.ResidentRepository,
	owners *repository.SecondaryOwnerRepository,
	docRepo *repository.DocumentRepository,
	documents *DocumentService,
	logger *zap.Logger,
) *ResidentService {
	return &ResidentService{
		residents: residents,
		owners:    owners,
		docRepo:   docRepo,
		documents: documents,
		logger:    logger,
	}
}

func (s *ResidentService) Get(ctx context.Context, id uint) (*domain.Resident, error) {
	resident, err := s.residents.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resident: %w", err)
	}
	return resident, nil
}

// ListByAddress returns one building's residents. An unknown building yields an empty list.
func (s *ResidentService) ListByAddress(ctx context.Context, projectName, address string) ([]domain.Resident, error) {
	residents, err := s.residents.ListByAddress(ctx, projectName, address)
	if err != nil {
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}
	if residents == nil {
		residents = []domain.Resident{}
	}
	return residents, nil
}

func (s *ResidentService) SecondaryOwners(ctx context.Context, residentID uint) ([]domain.SecondaryOwner, error) {
	owners, err := s.owners.ListByResident(ctx, residentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list secondary owners: %w", err)
	}
	if owners == nil {
		owners = []domain.SecondaryOwner{}
	}
	return owners, nil
}

// Documents lists a resident's confirmed documents
func (s *ResidentService) Documents(ctx context.Context, residentID uint) ([]domain.ResidentDocument, error) {
	docs, err := s.docRepo.ListByResident(ctx, residentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if docs == nil {
		docs = []domain.ResidentDocument{}
	}
	return docs, nil
}

// lockedStatus keeps the stored workflow status once the lawyer has signed.
// The condition is evaluated by the database inside the UPDATE itself, so a
// concurrent lawyer update cannot slip between a read and the write.
func lockedStatus(requested domain.WorkflowStatus) interface{} {
	return gorm.Expr("CASE WHEN lawyer_status IN (?, ?) THEN status ELSE ? END",
		domain.LawyerStatusPartiallySigned, domain.LawyerStatusFullySigned, requested)
}

// UpdateResidentData applies the agent edit. Every submitted field is written
// except the workflow status, which is kept as stored while the resident is
// partially or fully signed. warning_note has no update path at all.
func (s *ResidentService) UpdateResidentData(ctx context.Context, req *domain.UpdateResidentDataRequest) (*domain.UpdateResidentResult, error) {
	if req.ID == 0 {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if req.RepresentationStatus != nil && !req.RepresentationStatus.IsValid() {
		return nil, fmt.Errorf("%w: unknown representation status %q", ErrInvalidInput, *req.RepresentationStatus)
	}

	current, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	locked := false
	var requested domain.WorkflowStatus
	if req.Status != nil {
		requested = domain.WorkflowStatus(strings.TrimSpace(string(*req.Status)))
		if requested == "" {
			return nil, fmt.Errorf("%w: status cannot be empty", ErrInvalidInput)
		}
		updates["status"] = lockedStatus(requested)
		locked = current.LawyerStatus.IsSigned() && requested != current.Status
	}
	setString := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}
	setString("note", req.Note)
	setString("phone", req.Phone)
	setString("id_number", req.IDNumber)
	setString("tenant_name", req.TenantName)
	setString("tenant_phone", req.TenantPhone)
	setString("actual_address", req.ActualAddress)
	setString("representation_refusal_reason", req.RepresentationRefusalReason)
	setString("unsigned_owners", req.UnsignedOwners)
	if req.IsRenter != nil {
		updates["is_renter"] = *req.IsRenter
	}
	if req.RepresentationStatus != nil {
		updates["representation_status"] = *req.RepresentationStatus
	}

	rows, err := s.residents.UpdateFields(ctx, req.ID, req.Version, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update resident: %w", err)
	}
	if rows == 0 {
		if req.Version != nil {
			return nil, ErrVersionConflict
		}
		return nil, ErrNotFound
	}

	updated, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	// A lawyer update racing with this one can lock the status after our read
	locked = locked || (req.Status != nil && updated.Status != requested)

	if locked {
		s.logger.Info("workflow status locked by lawyer status",
			zap.Uint("resident_id", req.ID),
			zap.String("lawyer_status", string(updated.LawyerStatus)),
			zap.String("kept_status", string(updated.Status)),
		)
	}

	message := "resident updated"
	if locked {
		message = "resident updated; status is locked while the resident is signed"
	}
	return &domain.UpdateResidentResult{Message: message, Resident: updated, StatusLocked: locked}, nil
}

// LawyerUpdate stores the signed files, then writes the lawyer status and the
// missing documents record exactly as submitted. Reaching fully_signed forces
// the workflow status to contract_signed in the same write.
func (s *ResidentService) LawyerUpdate(ctx context.Context, req *domain.LawyerUpdateRequest, files []*Upload) (*domain.Resident, error) {
	if req.ID == 0 {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if !req.LawyerStatus.IsValid() {
		return nil, fmt.Errorf("%w: unknown lawyer status %q", ErrInvalidInput, req.LawyerStatus)
	}
	if _, err := s.Get(ctx, req.ID); err != nil {
		return nil, err
	}

	for _, f := range files {
		if _, err := s.documents.StoreResidentDocument(ctx, req.ID, domain.DocTypeSignedContractPart, domain.UploaderLawyer, PrefixSigned, f); err != nil {
			return nil, err
		}
	}

	missing := req.MissingDocs
	if missing.Owners == nil {
		missing.Owners = []string{}
	}
	if missing.Docs == nil {
		missing.Docs = []string{}
	}
	updates := map[string]interface{}{
		"lawyer_status":     req.LawyerStatus,
		"missing_docs_json": datatypes.NewJSONType(missing),
	}
	if req.LawyerStatus == domain.LawyerStatusFullySigned {
		updates["status"] = domain.WorkflowStatusContractSigned
	}

	rows, err := s.residents.UpdateFields(ctx, req.ID, nil, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update lawyer status: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	s.logger.Info("lawyer status updated",
		zap.Uint("resident_id", req.ID),
		zap.String("lawyer_status", string(req.LawyerStatus)),
		zap.Int("signed_files", len(files)),
	)
	return s.Get(ctx, req.ID)
}

// UploadResidentDocument attaches one agent-uploaded document. The missing
// documents record is left as the lawyer last wrote it.
func (s *ResidentService) UploadResidentDocument(ctx context.Context, residentID uint, docType string, up *Upload) (*domain.ResidentDocument, error) {
	docType = strings.TrimSpace(docType)
	if docType == "" {
		return nil, fmt.Errorf("%w: doc_type is required", ErrInvalidInput)
	}
	if _, err := s.Get(ctx, residentID); err != nil {
		return nil, err
	}
	return s.documents.StoreResidentDocument(ctx, residentID, docType, domain.UploaderAgent, PrefixDocument, up)
}
