package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/mapper"
	"github.com/straye-as/renewal-api/internal/repository"
	"github.com/straye-as/renewal-api/internal/storage"
	"go.uber.org/zap"
)

// ComplexService administers project and complex metadata and their attached
// invitation and protocol files.
type ComplexService struct {
	projects  *repository.ProjectRepository
	complexes *repository.ComplexRepository
	documents *DocumentService
	users     *UserResolver
	logger    *zap.Logger
}

func NewComplexService(
	projects *repository.ProjectRepository,
	complexes *repository.ComplexRepository,
	documents *DocumentService,
	users *UserResolver,
	logger *zap.Logger,
) *ComplexService {
	return &ComplexService{
		projects:  projects,
		complexes: complexes,
		documents: documents,
		users:     users,
		logger:    logger,
	}
}

func (s *ComplexService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// UpdateComplex creates the complex or changes only the submitted fields of
// an existing one. New attachment files replace the previous ones.
func (s *ComplexService) UpdateComplex(ctx context.Context, req *domain.UpdateComplexRequest, invitation, protocol *Upload) (*domain.Complex, error) {
	req.ProjectName = strings.TrimSpace(req.ProjectName)
	req.ComplexName = strings.TrimSpace(req.ComplexName)
	if req.ProjectName == "" || req.ComplexName == "" {
		return nil, fmt.Errorf("%w: project_name and complex_name are required", ErrInvalidInput)
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown project stage %q", ErrInvalidInput, *req.Status)
	}

	if err := s.projects.EnsureExists(ctx, req.ProjectName); err != nil {
		return nil, fmt.Errorf("failed to register project: %w", err)
	}

	var invitationName, protocolName string
	var err error
	if invitation != nil {
		if invitationName, err = s.documents.SaveFile(ctx, storage.KindInvitations, PrefixInvitation, invitation); err != nil {
			return nil, err
		}
	}
	if protocol != nil {
		if protocolName, err = s.documents.SaveFile(ctx, storage.KindProtocols, PrefixProtocol, protocol); err != nil {
			return nil, err
		}
	}

	existing, err := s.complexes.Get(ctx, req.ProjectName, req.ComplexName)
	if err != nil && !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get complex: %w", err)
	}

	if existing == nil {
		c := &domain.Complex{
			ProjectName:    req.ProjectName,
			ComplexName:    req.ComplexName,
			ManagerID:      req.ManagerID,
			LawyerID:       req.LawyerID,
			AgentID:        req.AgentID,
			Status:         domain.StageOrganizing,
			ConferenceDate: req.ConferenceDate,
			InvitationPath: invitationName,
			ProtocolPath:   protocolName,
		}
		if req.Status != nil {
			c.Status = *req.Status
		}
		if req.ConferenceName != nil {
			c.ConferenceName = *req.ConferenceName
		}
		if err := s.complexes.Create(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to create complex: %w", err)
		}
		s.logger.Info("complex created", zap.String("project", c.ProjectName), zap.String("complex", c.ComplexName))
		return c, nil
	}

	updates := map[string]interface{}{}
	if req.ManagerID != nil {
		updates["manager_id"] = *req.ManagerID
	}
	if req.LawyerID != nil {
		updates["lawyer_id"] = *req.LawyerID
	}
	if req.AgentID != nil {
		updates["agent_id"] = *req.AgentID
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.ConferenceName != nil {
		updates["conference_name"] = *req.ConferenceName
	}
	if req.ConferenceDate != nil {
		updates["conference_date"] = *req.ConferenceDate
	}
	if invitationName != "" {
		updates["invitation_path"] = invitationName
	}
	if protocolName != "" {
		updates["protocol_path"] = protocolName
	}
	if err := s.complexes.Update(ctx, existing.ID, updates); err != nil {
		return nil, fmt.Errorf("failed to update complex: %w", err)
	}

	if invitationName != "" {
		s.documents.DeleteFile(ctx, storage.KindInvitations, existing.InvitationPath)
	}
	if protocolName != "" {
		s.documents.DeleteFile(ctx, storage.KindProtocols, existing.ProtocolPath)
	}

	updated, err := s.complexes.Get(ctx, req.ProjectName, req.ComplexName)
	if err != nil {
		return nil, fmt.Errorf("failed to reload complex: %w", err)
	}
	return updated, nil
}

// ListComplexes returns the management view of a project's complexes with
// assignees resolved. Users that no longer exist show as not assigned.
func (s *ComplexService) ListComplexes(ctx context.Context, projectName string) ([]domain.ComplexManagementDTO, error) {
	complexes, err := s.complexes.ListByProject(ctx, projectName)
	if err != nil {
		return nil, fmt.Errorf("failed to list complexes: %w", err)
	}
	var refs []*domain.UserID
	for _, c := range complexes {
		refs = append(refs, c.ManagerID, c.LawyerID, c.AgentID)
	}
	users, err := s.users.ResolveMany(ctx, refs...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assignees: %w", err)
	}

	out := make([]domain.ComplexManagementDTO, len(complexes))
	for i := range complexes {
		out[i] = mapper.ToComplexManagementDTO(&complexes[i], users)
	}
	return out, nil
}

func (s *ComplexService) deleteAttachments(ctx context.Context, complexes []domain.Complex) {
	for _, c := range complexes {
		s.documents.DeleteFile(ctx, storage.KindInvitations, c.InvitationPath)
		s.documents.DeleteFile(ctx, storage.KindProtocols, c.ProtocolPath)
	}
}

// DeleteProject removes a project together with its complexes and residents
func (s *ComplexService) DeleteProject(ctx context.Context, name string) error {
	complexes, err := s.complexes.ListByProject(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to list complexes: %w", err)
	}
	rows, err := s.projects.Delete(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	s.deleteAttachments(ctx, complexes)
	s.logger.Info("project deleted", zap.String("project", name), zap.Int("complexes", len(complexes)))
	return nil
}

// DeleteComplex removes a complex and the residents filed under it
func (s *ComplexService) DeleteComplex(ctx context.Context, projectName, complexName string) error {
	c, err := s.complexes.Get(ctx, projectName, complexName)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get complex: %w", err)
	}
	residents, err := s.complexes.Delete(ctx, projectName, complexName)
	if err != nil {
		return fmt.Errorf("failed to delete complex: %w", err)
	}
	s.deleteAttachments(ctx, []domain.Complex{*c})
	s.logger.Info("complex deleted",
		zap.String("project", projectName),
		zap.String("complex", complexName),
		zap.Int64("residents", residents),
	)
	return nil
}

// UpdateProjectStatus moves a project to another stage and optionally sets its signing conference
func (s *ComplexService) UpdateProjectStatus(ctx context.Context, req *domain.UpdateProjectRequest) (*domain.Project, error) {
	if !req.ProjectStatus.IsValid() {
		return nil, fmt.Errorf("%w: unknown project stage %q", ErrInvalidInput, req.ProjectStatus)
	}
	updates := map[string]interface{}{"project_status": req.ProjectStatus}
	if req.ConferenceName != nil {
		updates["conference_name"] = strings.TrimSpace(*req.ConferenceName)
	}
	if req.ConferenceDate != nil {
		if strings.TrimSpace(*req.ConferenceDate) == "" {
			updates["conference_date"] = nil
		} else {
			date, err := ParseConferenceDate(*req.ConferenceDate)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			updates["conference_date"] = date
		}
	}

	if err := s.projects.Update(ctx, req.ProjectName, updates); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	s.logger.Info("project stage changed", zap.String("project", req.ProjectName), zap.String("stage", string(req.ProjectStatus)))

	project, err := s.projects.GetByName(ctx, req.ProjectName)
	if err != nil {
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}
	return project, nil
}

// ParseConferenceDate accepts a plain date or any calendar timestamp
func ParseConferenceDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	return domain.ParseCalendarTime(value)
}
