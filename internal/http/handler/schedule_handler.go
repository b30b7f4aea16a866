package handler

import (
	"net/http"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/service"
	"go.uber.org/zap"
)

// ScheduleHandler serves the calendar, tasks and blocked slots
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
	logger          *zap.Logger
}

func NewScheduleHandler(scheduleService *service.ScheduleService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		logger:          logger,
	}
}

// BlockTime godoc
// @Summary Block a calendar slot
// @Tags Schedule
// @Accept json
// @Produce json
// @Param request body domain.BlockTimeRequest true "Slot to block"
// @Success 201 {object} domain.Meeting
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /api/lawyer/block-time [post]
func (h *ScheduleHandler) BlockTime(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req domain.BlockTimeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !caller.CanActFor(req.UserID) {
		respondWithError(w, http.StatusForbidden, "Cannot block time for another user")
		return
	}

	meeting, err := h.scheduleService.BlockTime(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, meeting)
}

// AddTask godoc
// @Summary Add a task or meeting
// @Description Rejected with 409 when a blocked slot starts at exactly the same time
// @Tags Schedule
// @Accept json
// @Produce json
// @Param request body domain.AddTaskRequest true "Task"
// @Success 201 {object} domain.Meeting
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Slot is blocked"
// @Security BearerAuth
// @Router /api/add-task [post]
func (h *ScheduleHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req domain.AddTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !caller.CanActFor(req.UserID) {
		respondWithError(w, http.StatusForbidden, "Cannot add tasks for another user")
		return
	}

	meeting, err := h.scheduleService.AddTask(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, meeting)
}

// Meetings godoc
// @Summary Calendar events visible to the caller
// @Description Managers also see the meetings of the lawyers and agents on their complexes
// @Tags Schedule
// @Produce json
// @Success 200 {array} domain.CalendarEventDTO
// @Security BearerAuth
// @Router /api/meetings [get]
func (h *ScheduleHandler) Meetings(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	events, err := h.scheduleService.Calendar(r.Context(), caller)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// Tasks godoc
// @Summary Open tasks of a user
// @Tags Schedule
// @Produce json
// @Param userId query int false "User ID, defaults to the caller"
// @Success 200 {array} domain.CalendarEventDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /api/tasks [get]
func (h *ScheduleHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := targetUserID(w, r)
	if !ok {
		return
	}
	tasks, err := h.scheduleService.Tasks(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}
