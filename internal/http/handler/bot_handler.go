package handler

import (
	"encoding/json"
	"net/http"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/service"
	"go.uber.org/zap"
)

// BotHandler serves the chatbot integration. The bot expects the flat
// {error, message} body on failure.
type BotHandler struct {
	botService *service.BotService
	logger     *zap.Logger
}

func NewBotHandler(botService *service.BotService, logger *zap.Logger) *BotHandler {
	return &BotHandler{
		botService: botService,
		logger:     logger,
	}
}

func respondBotError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error("bot request failed", zap.Error(err))
	}
	respondJSON(w, status, domain.ErrorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
		Code:    status,
	})
}

func decodeBotRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{Error: "Bad Request", Message: "Invalid request body", Code: http.StatusBadRequest})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{Error: "Bad Request", Message: err.Error(), Code: http.StatusBadRequest})
		return false
	}
	return true
}

// NewLead godoc
// @Summary Capture a lead from the chatbot
// @Tags Bot
// @Accept json
// @Produce json
// @Param request body domain.NewLeadRequest true "Lead"
// @Success 200 {object} domain.BotAckResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /api/bot/new-lead [post]
func (h *BotHandler) NewLead(w http.ResponseWriter, r *http.Request) {
	var req domain.NewLeadRequest
	if !decodeBotRequest(w, r, &req) {
		return
	}
	lead, err := h.botService.NewLead(r.Context(), &req)
	if err != nil {
		respondBotError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, domain.BotAckResponse{Success: true, ID: lead.ID})
}

// ReportIssue godoc
// @Summary Open a support ticket from the chatbot
// @Tags Bot
// @Accept json
// @Produce json
// @Param request body domain.ReportIssueRequest true "Issue"
// @Success 200 {object} domain.BotAckResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /api/bot/report-issue [post]
func (h *BotHandler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	var req domain.ReportIssueRequest
	if !decodeBotRequest(w, r, &req) {
		return
	}
	ticket, err := h.botService.ReportIssue(r.Context(), &req)
	if err != nil {
		respondBotError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, domain.BotAckResponse{Success: true, ID: ticket.ID})
}

// CheckStatus godoc
// @Summary Look up a resident's signing status by phone
// @Description Matches the last nine digits of the phone number
// @Tags Bot
// @Accept json
// @Produce json
// @Param request body domain.CheckStatusRequest true "Phone"
// @Success 200 {object} domain.CheckStatusResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /api/bot/check-status [post]
func (h *BotHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckStatusRequest
	if !decodeBotRequest(w, r, &req) {
		return
	}
	resp, err := h.botService.CheckStatus(r.Context(), req.Phone)
	if err != nil {
		respondBotError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
