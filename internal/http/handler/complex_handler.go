package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/service"
	"github.com/straye-as/renewal-api/internal/storage"
	"go.uber.org/zap"
)

// ComplexHandler serves project and complex administration
type ComplexHandler struct {
	complexService  *service.ComplexService
	documentService *service.DocumentService
	maxUploadBytes  int64
	logger          *zap.Logger
}

func NewComplexHandler(
	complexService *service.ComplexService,
	documentService *service.DocumentService,
	maxUploadBytes int64,
	logger *zap.Logger,
) *ComplexHandler {
	return &ComplexHandler{
		complexService:  complexService,
		documentService: documentService,
		maxUploadBytes:  maxUploadBytes,
		logger:          logger,
	}
}

// ListProjects godoc
// @Summary List projects
// @Tags Complexes
// @Produce json
// @Success 200 {array} domain.Project
// @Security BearerAuth
// @Router /api/projects [get]
func (h *ComplexHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.complexService.ListProjects(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

// ComplexesData godoc
// @Summary Complexes of a project with assignees resolved
// @Tags Complexes
// @Produce json
// @Param project query string true "Project name"
// @Success 200 {array} domain.ComplexManagementDTO
// @Security BearerAuth
// @Router /api/complexes-data [get]
func (h *ComplexHandler) ComplexesData(w http.ResponseWriter, r *http.Request) {
	complexes, err := h.complexService.ListComplexes(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complexes)
}

// formValue returns a pointer to the trimmed field value, or nil when the field
// was not submitted
func formValue(r *http.Request, field string) *string {
	values, ok := r.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return nil
	}
	v := strings.TrimSpace(values[0])
	return &v
}

func formUserID(r *http.Request, field string) (*domain.UserID, error) {
	v := formValue(r, field)
	if v == nil || *v == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(*v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a user id", field)
	}
	uid := domain.UserID(id)
	return &uid, nil
}

func parseUpdateComplexForm(r *http.Request) (*domain.UpdateComplexRequest, error) {
	req := &domain.UpdateComplexRequest{
		ProjectName: r.FormValue("project_name"),
		ComplexName: r.FormValue("complex_name"),
	}
	var err error
	if req.ManagerID, err = formUserID(r, "manager_id"); err != nil {
		return nil, err
	}
	if req.LawyerID, err = formUserID(r, "lawyer_id"); err != nil {
		return nil, err
	}
	if req.AgentID, err = formUserID(r, "agent_id"); err != nil {
		return nil, err
	}
	if v := formValue(r, "status"); v != nil && *v != "" {
		stage := domain.ProjectStage(*v)
		req.Status = &stage
	}
	req.ConferenceName = formValue(r, "conference_name")
	if v := formValue(r, "conference_date"); v != nil && *v != "" {
		date, err := service.ParseConferenceDate(*v)
		if err != nil {
			return nil, fmt.Errorf("conference_date is not a valid date")
		}
		req.ConferenceDate = &date
	}
	return req, nil
}

// UpdateComplex godoc
// @Summary Create or update a complex
// @Description Only submitted fields change on an existing complex. New invitation or protocol files replace the old ones.
// @Tags Complexes
// @Accept multipart/form-data
// @Produce json
// @Param project_name formData string true "Project name"
// @Param complex_name formData string true "Complex name"
// @Param manager_id formData int false "Manager user ID"
// @Param lawyer_id formData int false "Lawyer user ID"
// @Param agent_id formData int false "Agent user ID"
// @Param status formData string false "Project stage"
// @Param conference_name formData string false "Signing conference name"
// @Param conference_date formData string false "Signing conference date"
// @Param invitation formData file false "Invitation file"
// @Param protocol formData file false "Protocol file"
// @Success 200 {object} domain.Complex
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Router /api/update-complex [post]
func (h *ComplexHandler) UpdateComplex(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, h.maxUploadBytes) {
		return
	}
	req, err := parseUpdateComplexForm(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var closers []io.Closer
	defer func() { closeAll(closers) }()
	invitation, closer, err := formUpload(r, "invitation")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	closers = append(closers, closer)
	protocol, closer, err := formUpload(r, "protocol")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	closers = append(closers, closer)

	updated, err := h.complexService.UpdateComplex(r.Context(), req, invitation, protocol)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteProject godoc
// @Summary Delete a project with its complexes and residents
// @Tags Complexes
// @Accept json
// @Produce json
// @Param request body domain.DeleteProjectRequest true "Project"
// @Success 200 {object} domain.MessageResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /delete-project [post]
func (h *ComplexHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	var req domain.DeleteProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.complexService.DeleteProject(r.Context(), req.ProjectName); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "Project deleted")
}

// DeleteComplex godoc
// @Summary Delete a complex with its residents
// @Tags Complexes
// @Accept json
// @Produce json
// @Param request body domain.DeleteComplexRequest true "Complex"
// @Success 200 {object} domain.MessageResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /delete-complex [post]
func (h *ComplexHandler) DeleteComplex(w http.ResponseWriter, r *http.Request) {
	var req domain.DeleteComplexRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.complexService.DeleteComplex(r.Context(), req.ProjectName, req.ComplexName); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "Complex deleted")
}

// UpdateProject godoc
// @Summary Set a project's stage and signing conference
// @Tags Complexes
// @Accept json
// @Produce json
// @Param request body domain.UpdateProjectRequest true "Project status"
// @Success 200 {object} domain.Project
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /api/update-project [post]
func (h *ComplexHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	project, err := h.complexService.UpdateProjectStatus(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// DownloadComplexFile godoc
// @Summary Download a complex invitation or protocol
// @Tags Files
// @Produce octet-stream
// @Param kind path string true "invitation or protocol"
// @Param filename path string true "Stored file name"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /download-complex-file/{kind}/{filename} [get]
func (h *ComplexHandler) DownloadComplexFile(w http.ResponseWriter, r *http.Request) {
	kind, ok := storage.KindFromString(pathParam(r, "kind"))
	if !ok || (kind != storage.KindInvitations && kind != storage.KindProtocols) {
		respondWithError(w, http.StatusNotFound, "Unknown file kind")
		return
	}
	name := pathParam(r, "filename")
	rc, err := h.documentService.OpenFile(r.Context(), kind, name)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	streamFile(w, h.logger, rc, "", name)
}
