package mapper_test

import (
	"testing"
	"time"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/mapper"
	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, mapper.Percent(0, 0))
	assert.Equal(t, 50, mapper.Percent(2, 4))
	assert.Equal(t, 33, mapper.Percent(1, 3))
	assert.Equal(t, 67, mapper.Percent(2, 3))
	assert.Equal(t, 100, mapper.Percent(5, 5))
}

func TestToAssignee(t *testing.T) {
	users := map[uint]domain.User{4: {ID: 4, Username: "rina"}}
	present := domain.UserID(4)
	deleted := domain.UserID(9)

	assert.Equal(t, "rina", mapper.ToAssignee(&present, users).Name)
	assert.Equal(t, mapper.NotAssigned, mapper.ToAssignee(&deleted, users).Name)
	assert.Equal(t, mapper.NotAssigned, mapper.ToAssignee(nil, users).Name)
}

func TestToCalendarEvent(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := &domain.Meeting{ID: 1, Title: "Visit", StartTime: start, MeetingType: "meeting", UserID: 2}

	ev := mapper.ToCalendarEvent(m, "Dana")
	assert.Equal(t, "Visit - Dana", ev.Title)
	assert.Equal(t, start, ev.Start)
	assert.Equal(t, domain.MeetingType("meeting"), ev.ExtendedProps.Type)

	assert.Equal(t, "Visit", mapper.ToCalendarEvent(m, "").Title)
}

func TestToStaffMessageDTO(t *testing.T) {
	msg := &domain.StaffMessage{ID: 3, SenderID: 8, FilePath: "staff_x_a b.pdf"}

	dto := mapper.ToStaffMessageDTO(msg, map[uint]domain.User{})
	assert.Equal(t, mapper.UnknownSender, dto.SenderName)
	assert.Equal(t, "/staff-files/staff_x_a%20b.pdf", dto.FileURL)

	dto = mapper.ToStaffMessageDTO(msg, map[uint]domain.User{8: {Username: "yossi"}})
	assert.Equal(t, "yossi", dto.SenderName)
}

func TestToUserDTO_DropsPassword(t *testing.T) {
	dto := mapper.ToUserDTO(&domain.User{ID: 1, Username: "a", Password: "hash", Role: domain.RoleAdmin})
	assert.Equal(t, "a", dto.Username)
	assert.Equal(t, domain.RoleAdmin, dto.Role)
}
