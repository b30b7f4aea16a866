package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/straye-as/renewal-api/internal/auth"
	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/mapper"
	"github.com/straye-as/renewal-api/internal/repository"
	"go.uber.org/zap"
)

// DefaultMeetingType is used when a task is added without a type
const DefaultMeetingType domain.MeetingType = "meeting"

// ScheduleService manages calendar entries. Blocked slots and real meetings
// share the meetings store; a task is refused only when a blocked slot starts
// at exactly the same instant.
type ScheduleService struct {
	meetings  *repository.MeetingRepository
	complexes *repository.ComplexRepository
	residents *repository.ResidentRepository
	logger    *zap.Logger
}

func NewScheduleService(
	meetings *repository.MeetingRepository,
	complexes *repository.ComplexRepository,
	residents *repository.ResidentRepository,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{meetings: meetings, complexes: complexes, residents: residents, logger: logger}
}

// BlockTime records an unavailability slot for a lawyer
func (s *ScheduleService) BlockTime(ctx context.Context, req *domain.BlockTimeRequest) (*domain.Meeting, error) {
	start, err := domain.ParseCalendarTime(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	reason := strings.TrimSpace(req.Reason)
	m := &domain.Meeting{
		UserID:      domain.UserID(req.UserID),
		Title:       "Blocked: " + reason,
		StartTime:   start,
		MeetingType: domain.MeetingTypeBlocked,
	}
	if err := s.meetings.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to block time: %w", err)
	}
	s.logger.Info("time blocked", zap.Uint("user_id", req.UserID), zap.Time("start", start))
	return m, nil
}

// AddTask inserts a meeting unless a blocked slot starts at the same instant
func (s *ScheduleService) AddTask(ctx context.Context, req *domain.AddTaskRequest) (*domain.Meeting, error) {
	start, err := domain.ParseCalendarTime(req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	meetingType := domain.MeetingType(strings.TrimSpace(req.MeetingType))
	if meetingType == "" {
		meetingType = DefaultMeetingType
	}
	if meetingType == domain.MeetingTypeBlocked {
		return nil, fmt.Errorf("%w: use block-time to block a slot", ErrInvalidInput)
	}

	blocked, err := s.meetings.BlockedAt(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocked slots: %w", err)
	}
	if blocked {
		return nil, ErrSlotBlocked
	}

	m := &domain.Meeting{
		ResidentID:  req.ResidentID,
		UserID:      domain.UserID(req.UserID),
		Title:       strings.TrimSpace(req.Title),
		StartTime:   start,
		MeetingType: meetingType,
	}
	if err := s.meetings.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to add task: %w", err)
	}
	return m, nil
}

// calendarUsers returns whose meetings a user sees. Managers also see the
// lawyers and agents assigned to the complexes they manage.
func (s *ScheduleService) calendarUsers(ctx context.Context, userID domain.UserID, role domain.Role) ([]domain.UserID, error) {
	ids := []domain.UserID{userID}
	if role != domain.RoleManager {
		return ids, nil
	}
	complexes, err := s.complexes.ListByManager(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list managed complexes: %w", err)
	}
	seen := map[domain.UserID]bool{userID: true}
	for _, c := range complexes {
		for _, id := range []*domain.UserID{c.LawyerID, c.AgentID} {
			if id != nil && !seen[*id] {
				seen[*id] = true
				ids = append(ids, *id)
			}
		}
	}
	return ids, nil
}

func (s *ScheduleService) toEvents(ctx context.Context, meetings []domain.Meeting) ([]domain.CalendarEventDTO, error) {
	var residentIDs []uint
	for _, m := range meetings {
		if m.ResidentID != nil {
			residentIDs = append(residentIDs, *m.ResidentID)
		}
	}
	names, err := s.residents.GetNames(ctx, residentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve resident names: %w", err)
	}

	events := make([]domain.CalendarEventDTO, len(meetings))
	for i := range meetings {
		name := ""
		if id := meetings[i].ResidentID; id != nil {
			name = names[*id]
		}
		events[i] = mapper.ToCalendarEvent(&meetings[i], name)
	}
	return events, nil
}

// Calendar returns every entry visible to the caller, blocked slots included
func (s *ScheduleService) Calendar(ctx context.Context, caller *auth.UserContext) ([]domain.CalendarEventDTO, error) {
	ids, err := s.calendarUsers(ctx, caller.ID(), caller.Role)
	if err != nil {
		return nil, err
	}
	meetings, err := s.meetings.ListByUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	return s.toEvents(ctx, meetings)
}

// Tasks returns a user's real meetings
func (s *ScheduleService) Tasks(ctx context.Context, userID domain.UserID) ([]domain.CalendarEventDTO, error) {
	meetings, err := s.meetings.ListTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return s.toEvents(ctx, meetings)
}
