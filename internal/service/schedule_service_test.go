package service_test

import (
	"context"
	"testing"

	"github.com/straye-as/renewal-api/internal/auth"
	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/service"
	"github.com/straye-as/renewal-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleService_BlockedSlotConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	const lawyer = 7

	blocked, err := h.schedule.BlockTime(ctx, &domain.BlockTimeRequest{
		UserID:    lawyer,
		StartTime: "2025-03-10T10:00",
		Reason:    "court",
	})
	require.NoError(t, err)
	assert.Equal(t, "Blocked: court", blocked.Title)
	assert.True(t, blocked.IsBlocked())

	t.Run("exact start is rejected", func(t *testing.T) {
		_, err := h.schedule.AddTask(ctx, &domain.AddTaskRequest{UserID: lawyer, Title: "Signing", DueDate: "2025-03-10T10:00:00Z"})
		assert.ErrorIs(t, err, service.ErrSlotBlocked)
	})

	t.Run("one minute later is accepted", func(t *testing.T) {
		m, err := h.schedule.AddTask(ctx, &domain.AddTaskRequest{UserID: lawyer, Title: "Signing", DueDate: "2025-03-10T10:01"})
		require.NoError(t, err)
		assert.Equal(t, service.DefaultMeetingType, m.MeetingType)
	})

	t.Run("block type cannot be added as a task", func(t *testing.T) {
		_, err := h.schedule.AddTask(ctx, &domain.AddTaskRequest{UserID: lawyer, Title: "x", DueDate: "2025-03-11T10:00", MeetingType: "blocked"})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("unparseable time", func(t *testing.T) {
		_, err := h.schedule.AddTask(ctx, &domain.AddTaskRequest{UserID: lawyer, Title: "x", DueDate: "next tuesday"})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestScheduleService_CalendarAndTasks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	testutil.CreateComplex(t, h.stores.Projects, "Gilo", "A")
	resident := testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "u1", "Ruth")

	manager := testutil.CreateUser(t, h.stores.Users, "manager", domain.RoleManager, true)
	lawyer := testutil.CreateUser(t, h.stores.Users, "lawyer", domain.RoleLawyer, true)
	other := testutil.CreateUser(t, h.stores.Users, "other", domain.RoleLawyer, true)

	lawyerID := domain.UserID(lawyer.ID)
	managerID := domain.UserID(manager.ID)
	require.NoError(t, h.stores.Projects.Model(&domain.Complex{}).
		Where("project_name = ? AND complex_name = ?", "Gilo", "A").
		Updates(map[string]interface{}{"manager_id": managerID, "lawyer_id": lawyerID}).Error)

	_, err := h.schedule.BlockTime(ctx, &domain.BlockTimeRequest{UserID: lawyer.ID, StartTime: "2025-03-10 09:00", Reason: "vacation"})
	require.NoError(t, err)
	_, err = h.schedule.AddTask(ctx, &domain.AddTaskRequest{ResidentID: &resident.ID, UserID: lawyer.ID, Title: "Signing", DueDate: "2025-03-10 11:00"})
	require.NoError(t, err)
	_, err = h.schedule.AddTask(ctx, &domain.AddTaskRequest{UserID: manager.ID, Title: "Board", DueDate: "2025-03-09 08:00"})
	require.NoError(t, err)
	_, err = h.schedule.AddTask(ctx, &domain.AddTaskRequest{UserID: other.ID, Title: "Unrelated", DueDate: "2025-03-09 08:00"})
	require.NoError(t, err)

	t.Run("tasks hide blocked slots and name the resident", func(t *testing.T) {
		tasks, err := h.schedule.Tasks(ctx, lawyerID)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Signing - Ruth", tasks[0].Title)
		assert.Equal(t, domain.MeetingType("meeting"), tasks[0].ExtendedProps.Type)
	})

	t.Run("lawyer calendar includes blocked slots", func(t *testing.T) {
		events, err := h.schedule.Calendar(ctx, &auth.UserContext{UserID: lawyer.ID, Role: domain.RoleLawyer})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, domain.MeetingTypeBlocked, events[0].ExtendedProps.Type)
	})

	t.Run("manager sees own and assigned users' meetings", func(t *testing.T) {
		events, err := h.schedule.Calendar(ctx, &auth.UserContext{UserID: manager.ID, Role: domain.RoleManager})
		require.NoError(t, err)
		require.Len(t, events, 3)
		for _, e := range events {
			assert.NotEqual(t, "Unrelated", e.Title)
		}
		assert.Equal(t, "Board", events[0].Title)
	})
}
