package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/service"
	"go.uber.org/zap"
)

// ResidentHandler serves the agent and lawyer views of a resident
type ResidentHandler struct {
	residentService *service.ResidentService
	documentService *service.DocumentService
	maxUploadBytes  int64
	logger          *zap.Logger
}

func NewResidentHandler(
	residentService *service.ResidentService,
	documentService *service.DocumentService,
	maxUploadBytes int64,
	logger *zap.Logger,
) *ResidentHandler {
	return &ResidentHandler{
		residentService: residentService,
		documentService: documentService,
		maxUploadBytes:  maxUploadBytes,
		logger:          logger,
	}
}

// UpdateResidentData godoc
// @Summary Update resident data
// @Description Agent edit of a resident. Omitted fields are left untouched. Once the lawyer status is partially or fully signed the workflow status is kept.
// @Tags Residents
// @Accept json
// @Produce json
// @Param request body domain.UpdateResidentDataRequest true "Fields to change"
// @Success 200 {object} domain.UpdateResidentResult
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Version conflict"
// @Security BearerAuth
// @Router /update-resident-data [post]
func (h *ResidentHandler) UpdateResidentData(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateResidentDataRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.residentService.UpdateResidentData(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ResidentsByAddress godoc
// @Summary List residents of a building
// @Tags Residents
// @Produce json
// @Param project query string true "Project name"
// @Param address query string true "Current address"
// @Success 200 {array} domain.Resident
// @Security BearerAuth
// @Router /residents-by-address [get]
func (h *ResidentHandler) ResidentsByAddress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	residents, err := h.residentService.ListByAddress(r.Context(), q.Get("project"), q.Get("address"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, residents)
}

// SecondaryOwners godoc
// @Summary List secondary owners of a resident
// @Tags Residents
// @Produce json
// @Param id path int true "Resident ID"
// @Success 200 {array} domain.SecondaryOwner
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /api/secondary-owners/{id} [get]
func (h *ResidentHandler) SecondaryOwners(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	owners, err := h.residentService.SecondaryOwners(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, owners)
}

// Documents godoc
// @Summary List a resident's documents
// @Tags Residents
// @Produce json
// @Param id path int true "Resident ID"
// @Success 200 {array} domain.ResidentDocument
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /api/residents/{id}/documents [get]
func (h *ResidentHandler) Documents(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	docs, err := h.residentService.Documents(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

// UploadResidentDoc godoc
// @Summary Upload a resident document
// @Tags Residents
// @Accept multipart/form-data
// @Produce json
// @Param resident_id formData int true "Resident ID"
// @Param doc_type formData string true "Document type"
// @Param doc formData file true "Document"
// @Success 201 {object} domain.ResidentDocument
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Router /upload-resident-doc [post]
func (h *ResidentHandler) UploadResidentDoc(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, h.maxUploadBytes) {
		return
	}
	residentID, err := strconv.ParseUint(r.FormValue("resident_id"), 10, 64)
	if err != nil || residentID == 0 {
		respondWithError(w, http.StatusBadRequest, "resident_id is required")
		return
	}
	up, closer, err := formUpload(r, "doc")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if up == nil {
		respondWithError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer closer.Close()

	doc, err := h.residentService.UploadResidentDocument(r.Context(), uint(residentID), r.FormValue("doc_type"), up)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

// LawyerUpdate godoc
// @Summary Record the lawyer's signing progress
// @Description Stores signed files, sets the lawyer status and the missing documents record. Fully signed also marks the contract as signed.
// @Tags Lawyer
// @Accept multipart/form-data
// @Produce json
// @Param id formData int true "Resident ID"
// @Param lawyer_status formData string true "Lawyer status"
// @Param missing_docs_json formData string false "JSON object {owners:[], docs:[]}"
// @Param signed_docs formData file false "Signed files (repeatable)"
// @Success 200 {object} domain.Resident
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Router /lawyer/update-resident [post]
func (h *ResidentHandler) LawyerUpdate(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, h.maxUploadBytes) {
		return
	}
	id, err := strconv.ParseUint(r.FormValue("id"), 10, 64)
	if err != nil || id == 0 {
		respondWithError(w, http.StatusBadRequest, "id is required")
		return
	}
	req := &domain.LawyerUpdateRequest{
		ID:           uint(id),
		LawyerStatus: domain.LawyerStatus(r.FormValue("lawyer_status")),
	}
	if raw := strings.TrimSpace(r.FormValue("missing_docs_json")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.MissingDocs); err != nil {
			respondWithError(w, http.StatusBadRequest, "missing_docs_json must be a JSON object with owners and docs")
			return
		}
	}

	var closers []io.Closer
	defer func() { closeAll(closers) }()
	var files []*service.Upload
	for _, header := range r.MultipartForm.File["signed_docs"] {
		up, closer, err := toUpload(header)
		if err != nil {
			respondServiceError(w, h.logger, err)
			return
		}
		closers = append(closers, closer)
		files = append(files, up)
	}

	resident, err := h.residentService.LawyerUpdate(r.Context(), req, files)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, resident)
}

// DownloadDoc godoc
// @Summary Download a resident document
// @Tags Files
// @Produce octet-stream
// @Param filename path string true "Stored file name"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /download-doc/{filename} [get]
func (h *ResidentHandler) DownloadDoc(w http.ResponseWriter, r *http.Request) {
	rc, doc, err := h.documentService.OpenResidentDocument(r.Context(), pathParam(r, "filename"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	streamFile(w, h.logger, rc, "", doc.FileName)
}
