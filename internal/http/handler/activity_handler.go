package handler

import (
	"net/http"
	"strconv"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/service"
	"go.uber.org/zap"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// ActivityHandler exposes the staff audit trail
type ActivityHandler struct {
	activityService *service.ActivityService
	logger          *zap.Logger
}

// NewActivityHandler creates a new ActivityHandler instance
func NewActivityHandler(activityService *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// List godoc
// @Summary Recent staff activity
// @Description Admins see everyone unless userId is given. Other roles see their own entries.
// @Tags Activity
// @Produce json
// @Param userId query int false "Filter by user"
// @Param limit query int false "Maximum entries (max 500)" default(50)
// @Success 200 {array} domain.ActivityLog
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /api/activity [get]
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	// 0 lists everyone
	var userID domain.UserID
	if !caller.IsAdmin() || r.URL.Query().Get("userId") != "" {
		if userID, ok = targetUserID(w, r); !ok {
			return
		}
	}

	logs, err := h.activityService.List(r.Context(), userID, limit)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
