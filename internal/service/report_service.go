package service

import (
	"context"
	"fmt"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/mapper"
	"github.com/straye-as/renewal-api/internal/repository"
	"go.uber.org/zap"
)

// ReportService serves the role-scoped read models. Nothing here writes, and
// an unknown project or complex yields an empty result rather than an error.
type ReportService struct {
	projects  *repository.ProjectRepository
	complexes *repository.ComplexRepository
	residents *repository.ResidentRepository
	users     *UserResolver
	logger    *zap.Logger
}

func NewReportService(
	projects *repository.ProjectRepository,
	complexes *repository.ComplexRepository,
	residents *repository.ResidentRepository,
	users *UserResolver,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		projects:  projects,
		complexes: complexes,
		residents: residents,
		users:     users,
		logger:    logger,
	}
}

// ProjectStats returns each project's stage with its resident and fully signed counts
func (s *ReportService) ProjectStats(ctx context.Context) ([]domain.ProjectStatsDTO, error) {
	rows, err := s.projects.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute project stats: %w", err)
	}
	out := make([]domain.ProjectStatsDTO, len(rows))
	for i, row := range rows {
		out[i] = domain.ProjectStatsDTO{
			ProjectName:   row.ProjectName,
			ProjectStatus: row.ProjectStatus,
			StageLabel:    row.ProjectStatus.Label(),
			Total:         row.Total,
			Signed:        row.Signed,
		}
	}
	return out, nil
}

func (s *ReportService) buildingStats(ctx context.Context, c *domain.Complex) ([]domain.BuildingStatsDTO, error) {
	rows, err := s.residents.BuildingStats(ctx, c.ProjectName, c.ComplexName)
	if err != nil {
		return nil, fmt.Errorf("failed to compute building stats: %w", err)
	}
	out := make([]domain.BuildingStatsDTO, len(rows))
	for i, row := range rows {
		out[i] = domain.BuildingStatsDTO{
			Name:       row.Address,
			Total:      row.Total,
			FullPct:    mapper.Percent(row.FullCount, row.Total),
			PartialPct: mapper.Percent(row.PartialCount, row.Total),
		}
	}
	return out, nil
}

// ManagerStats returns per-building signing percentages for every complex the manager runs
func (s *ReportService) ManagerStats(ctx context.Context, managerID domain.UserID) ([]domain.ManagerComplexStatsDTO, error) {
	complexes, err := s.complexes.ListByManager(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list managed complexes: %w", err)
	}
	out := make([]domain.ManagerComplexStatsDTO, 0, len(complexes))
	for i := range complexes {
		c := &complexes[i]
		buildings, err := s.buildingStats(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ManagerComplexStatsDTO{
			ProjectName:    c.ProjectName,
			ComplexName:    c.ComplexName,
			Status:         c.Status,
			InvitationPath: c.InvitationPath,
			ProtocolPath:   c.ProtocolPath,
			BuildingsStats: buildings,
		})
	}
	return out, nil
}

// LawyerHierarchy nests the lawyer's residents as project, complex, address.
// Residents keep their address then apartment order.
func (s *ReportService) LawyerHierarchy(ctx context.Context, lawyerID domain.UserID) ([]domain.LawyerProjectDTO, error) {
	complexes, err := s.complexes.ListByLawyer(ctx, lawyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lawyer complexes: %w", err)
	}

	out := []domain.LawyerProjectDTO{}
	projectIdx := map[string]int{}
	for _, c := range complexes {
		residents, err := s.residents.ListByComplex(ctx, c.ProjectName, c.ComplexName)
		if err != nil {
			return nil, fmt.Errorf("failed to list complex residents: %w", err)
		}

		cx := domain.LawyerComplexDTO{ComplexName: c.ComplexName, Addresses: []domain.LawyerAddressDTO{}}
		for _, r := range residents {
			n := len(cx.Addresses)
			if n == 0 || cx.Addresses[n-1].Address != r.CurrentAddress {
				cx.Addresses = append(cx.Addresses, domain.LawyerAddressDTO{Address: r.CurrentAddress})
				n++
			}
			cx.Addresses[n-1].Residents = append(cx.Addresses[n-1].Residents, r)
		}

		idx, ok := projectIdx[c.ProjectName]
		if !ok {
			idx = len(out)
			projectIdx[c.ProjectName] = idx
			out = append(out, domain.LawyerProjectDTO{ProjectName: c.ProjectName, Complexes: []domain.LawyerComplexDTO{}})
		}
		out[idx].Complexes = append(out[idx].Complexes, cx)
	}
	return out, nil
}

// ComplexDetails returns the complex with its lawyer's name, or nil when it does not exist
func (s *ReportService) ComplexDetails(ctx context.Context, projectName, complexName string) (*domain.ComplexDetailsDTO, error) {
	c, err := s.complexes.Get(ctx, projectName, complexName)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get complex: %w", err)
	}
	dto := &domain.ComplexDetailsDTO{Complex: *c, LawyerName: mapper.NotAssigned}
	if c.LawyerID != nil {
		if u, ok := s.users.Resolve(ctx, *c.LawyerID); ok {
			dto.LawyerName = u.Username
		}
	}
	return dto, nil
}

// MyBuildings groups an agent's assigned residents by building with the fully signed share
func (s *ReportService) MyBuildings(ctx context.Context, agentID domain.UserID) ([]domain.MyBuildingDTO, error) {
	residents, err := s.residents.ListByAssignedUser(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned residents: %w", err)
	}

	type key struct{ project, complex, address string }
	out := []domain.MyBuildingDTO{}
	idx := map[key]int{}
	for _, r := range residents {
		k := key{r.ProjectName, r.ComplexName, r.CurrentAddress}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, domain.MyBuildingDTO{ProjectName: k.project, ComplexName: k.complex, Address: k.address})
		}
		out[i].Total++
		if r.LawyerStatus == domain.LawyerStatusFullySigned {
			out[i].Signed++
		}
	}
	for i := range out {
		out[i].FullPct = mapper.Percent(out[i].Signed, out[i].Total)
	}
	return out, nil
}
