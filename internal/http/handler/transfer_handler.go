package handler

import (
	"net/http"
	"strings"

	"github.com/straye-as/renewal-api/internal/service"
	"go.uber.org/zap"
)

// TransferHandler serves spreadsheet import and export
type TransferHandler struct {
	importService  *service.ImportService
	exportService  *service.ExportService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewTransferHandler(
	importService *service.ImportService,
	exportService *service.ExportService,
	maxUploadBytes int64,
	logger *zap.Logger,
) *TransferHandler {
	return &TransferHandler{
		importService:  importService,
		exportService:  exportService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Upload godoc
// @Summary Import a resident spreadsheet
// @Description Every sheet is a complex. Rows are created or updated by street, house and apartment.
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param project formData string true "Project name"
// @Param file formData file true "xlsx workbook"
// @Success 200 {object} domain.ImportResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Router /upload [post]
func (h *TransferHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, h.maxUploadBytes) {
		return
	}
	project := strings.TrimSpace(r.FormValue("project"))
	if project == "" {
		respondWithError(w, http.StatusBadRequest, "project is required")
		return
	}
	up, closer, err := formUpload(r, "file")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if up == nil {
		respondWithError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer closer.Close()

	result, err := h.importService.Import(r.Context(), up.Reader, project)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ExportProject godoc
// @Summary Export a project's residents as xlsx
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param projectName path string true "Project name"
// @Param complex query string false "Limit to one complex"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError "No residents"
// @Security BearerAuth
// @Router /export-project/{projectName} [get]
func (h *TransferHandler) ExportProject(w http.ResponseWriter, r *http.Request) {
	file, err := h.exportService.ExportProject(r.Context(), pathParam(r, "projectName"), r.URL.Query().Get("complex"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("project exported", zap.String("file", file.FileName), zap.Int("rows", file.Rows))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", contentDisposition(file.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := file.Data.WriteTo(w); err != nil {
		h.logger.Warn("failed to write export", zap.String("file", file.FileName), zap.Error(err))
	}
}
