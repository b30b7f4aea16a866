package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/straye-as/renewal-api/internal/auth"
	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/repository"
	"go.uber.org/zap"
)

// ActivityService records the staff audit trail
type ActivityService struct {
	repo   *repository.ActivityLogRepository
	logger *zap.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(repo *repository.ActivityLogRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{repo: repo, logger: logger}
}

// Record stores one entry for the authenticated user in ctx. Requests without
// a staff user (bot calls, anonymous) are not recorded. Failures are logged only.
func (s *ActivityService) Record(ctx context.Context, actionType, description string) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok || userCtx.Service {
		return
	}
	entry := &domain.ActivityLog{
		UserID:      userCtx.ID(),
		ActionType:  actionType,
		Description: description,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record activity",
			zap.Uint("user_id", userCtx.UserID),
			zap.String("action", actionType),
			zap.Error(err),
		)
	}
}

// RecordRequest records a mutating request by method and route
func (s *ActivityService) RecordRequest(r *http.Request, status int) {
	action := strings.ToLower(r.Method)
	desc := fmt.Sprintf("%s %s -> %d", r.Method, r.URL.Path, status)
	s.Record(r.Context(), action, desc)
}

// List returns recent entries, optionally for one user (0 = everyone)
func (s *ActivityService) List(ctx context.Context, userID domain.UserID, limit int) ([]domain.ActivityLog, error) {
	logs, err := s.repo.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	if logs == nil {
		logs = []domain.ActivityLog{}
	}
	return logs, nil
}
