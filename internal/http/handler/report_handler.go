package handler

import (
	"net/http"

	"github.com/straye-as/renewal-api/internal/service"
	"go.uber.org/zap"
)

// ReportHandler serves the role-scoped dashboards. Unknown projects and
// complexes produce empty payloads, never 404.
type ReportHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

func NewReportHandler(reportService *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// ProjectStats godoc
// @Summary Signing progress per project
// @Tags Reports
// @Produce json
// @Success 200 {array} domain.ProjectStatsDTO
// @Security BearerAuth
// @Router /project-stats [get]
func (h *ReportHandler) ProjectStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportService.ProjectStats(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// ManagerStats godoc
// @Summary Per-building progress for a manager's complexes
// @Tags Reports
// @Produce json
// @Param userId query int false "Manager ID, defaults to the caller"
// @Success 200 {array} domain.ManagerComplexStatsDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /manager/stats [get]
func (h *ReportHandler) ManagerStats(w http.ResponseWriter, r *http.Request) {
	managerID, ok := targetUserID(w, r)
	if !ok {
		return
	}
	stats, err := h.reportService.ManagerStats(r.Context(), managerID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// LawyerProjects godoc
// @Summary Project, complex and address tree of a lawyer's residents
// @Tags Lawyer
// @Produce json
// @Param userId query int false "Lawyer ID, defaults to the caller"
// @Success 200 {array} domain.LawyerProjectDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /lawyer/projects [get]
func (h *ReportHandler) LawyerProjects(w http.ResponseWriter, r *http.Request) {
	lawyerID, ok := targetUserID(w, r)
	if !ok {
		return
	}
	tree, err := h.reportService.LawyerHierarchy(r.Context(), lawyerID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tree)
}

// ComplexDetails godoc
// @Summary Complex metadata with the lawyer's name
// @Description Responds with null when the complex does not exist
// @Tags Reports
// @Produce json
// @Param project query string true "Project name"
// @Param complex query string true "Complex name"
// @Success 200 {object} domain.ComplexDetailsDTO
// @Security BearerAuth
// @Router /api/complex-details [get]
func (h *ReportHandler) ComplexDetails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	details, err := h.reportService.ComplexDetails(r.Context(), q.Get("project"), q.Get("complex"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, details)
}

// MyBuildings godoc
// @Summary Buildings with residents assigned to an agent
// @Tags Reports
// @Produce json
// @Param userId query int false "Agent ID, defaults to the caller"
// @Success 200 {array} domain.MyBuildingDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /my-buildings [get]
func (h *ReportHandler) MyBuildings(w http.ResponseWriter, r *http.Request) {
	agentID, ok := targetUserID(w, r)
	if !ok {
		return
	}
	buildings, err := h.reportService.MyBuildings(r.Context(), agentID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, buildings)
}
