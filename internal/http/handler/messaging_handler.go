package handler

import (
	"net/http"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/service"
	"github.com/straye-as/renewal-api/internal/storage"
	"go.uber.org/zap"
)

// MessagingHandler serves staff messaging and the resident chat log
type MessagingHandler struct {
	messagingService *service.MessagingService
	documentService  *service.DocumentService
	maxUploadBytes   int64
	logger           *zap.Logger
}

func NewMessagingHandler(
	messagingService *service.MessagingService,
	documentService *service.DocumentService,
	maxUploadBytes int64,
	logger *zap.Logger,
) *MessagingHandler {
	return &MessagingHandler{
		messagingService: messagingService,
		documentService:  documentService,
		maxUploadBytes:   maxUploadBytes,
		logger:           logger,
	}
}

// StaffUsers godoc
// @Summary Approved staff that can receive messages
// @Tags Messaging
// @Produce json
// @Success 200 {array} domain.StaffUserDTO
// @Security BearerAuth
// @Router /api/staff/users [get]
func (h *MessagingHandler) StaffUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.messagingService.StaffUsers(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// SendStaff godoc
// @Summary Send a staff message
// @Description The sender is the authenticated user. recipient_id "all" or 0 broadcasts to everyone.
// @Tags Messaging
// @Accept multipart/form-data
// @Produce json
// @Param recipient_id formData string true "User ID or all"
// @Param message formData string false "Message text"
// @Param file formData file false "Attachment"
// @Success 201 {object} domain.StaffMessage
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Router /api/staff/send [post]
func (h *MessagingHandler) SendStaff(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	if !parseMultipart(w, r, h.maxUploadBytes) {
		return
	}
	file, closer, err := formUpload(r, "file")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	msg, err := h.messagingService.SendStaff(r.Context(), caller.ID(), r.FormValue("recipient_id"), r.FormValue("message"), file)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// StaffHistory godoc
// @Summary Staff message history
// @Description Broadcasts plus messages sent to or by the user, oldest first
// @Tags Messaging
// @Produce json
// @Param userId query int false "User ID, defaults to the caller"
// @Success 200 {array} domain.StaffMessageDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /api/staff/history [get]
func (h *MessagingHandler) StaffHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := targetUserID(w, r)
	if !ok {
		return
	}
	history, err := h.messagingService.StaffHistory(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// StaffFile godoc
// @Summary Download a staff message attachment
// @Tags Files
// @Produce octet-stream
// @Param filename path string true "Stored file name"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /staff-files/{filename} [get]
func (h *MessagingHandler) StaffFile(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "filename")
	rc, err := h.documentService.OpenFile(r.Context(), storage.KindStaffFiles, name)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	streamFile(w, h.logger, rc, "", name)
}

// ChatHistory godoc
// @Summary Chat log of a resident
// @Tags Messaging
// @Produce json
// @Param residentId path int true "Resident ID"
// @Success 200 {array} domain.ChatMessage
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /api/chat/history/{residentId} [get]
func (h *MessagingHandler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	residentID, err := parseIDParam(r, "residentId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	history, err := h.messagingService.ChatHistory(r.Context(), residentID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// SendChat godoc
// @Summary Append an incoming message to a resident's chat log
// @Tags Messaging
// @Accept json
// @Produce json
// @Param request body domain.ChatSendRequest true "Message"
// @Success 201 {object} domain.ChatMessage
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /api/chat/send [post]
func (h *MessagingHandler) SendChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatSendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.messagingService.SendChat(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}
