package mapper

import (
	"math"
	"net/url"

	"github.com/straye-as/renewal-api/internal/domain"
)

// NotAssigned is shown for an empty or dangling user reference
const NotAssigned = "Not assigned"

// UnknownSender is shown when a staff message's sender no longer exists
const UnknownSender = "Unknown"

// ToUserDTO converts User to UserDTO, dropping the password hash
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:                 user.ID,
		Username:           user.Username,
		Role:               user.Role,
		Phone:              user.Phone,
		Email:              user.Email,
		IsApproved:         user.IsApproved,
		MustChangePassword: user.MustChangePassword,
		CreatedAt:          user.CreatedAt,
	}
}

func ToStaffUserDTO(user *domain.User) domain.StaffUserDTO {
	return domain.StaffUserDTO{ID: user.ID, Username: user.Username, Role: user.Role}
}

// ToCalendarEvent converts a meeting. residentName is appended to the title when known.
func ToCalendarEvent(m *domain.Meeting, residentName string) domain.CalendarEventDTO {
	title := m.Title
	if residentName != "" {
		title += " - " + residentName
	}
	return domain.CalendarEventDTO{
		ID:    m.ID,
		Title: title,
		Start: m.StartTime.UTC(),
		ExtendedProps: domain.CalendarEventProps{
			Type:       m.MeetingType,
			ResidentID: m.ResidentID,
			UserID:     m.UserID,
		},
	}
}

// ToStaffMessageDTO resolves the sender name, falling back to UnknownSender
func ToStaffMessageDTO(m *domain.StaffMessage, users map[uint]domain.User) domain.StaffMessageDTO {
	name := UnknownSender
	if u, ok := users[uint(m.SenderID)]; ok {
		name = u.Username
	}
	dto := domain.StaffMessageDTO{
		ID:          m.ID,
		SenderID:    m.SenderID,
		SenderName:  name,
		RecipientID: m.RecipientID,
		Message:     m.Message,
		FileName:    m.FileName,
		Timestamp:   m.Timestamp,
	}
	if m.FilePath != "" {
		dto.FileURL = "/staff-files/" + url.PathEscape(m.FilePath)
	}
	return dto
}

// ToAssignee resolves a weak user reference for display
func ToAssignee(id *domain.UserID, users map[uint]domain.User) domain.AssigneeDTO {
	if id == nil {
		return domain.AssigneeDTO{Name: NotAssigned}
	}
	if u, ok := users[uint(*id)]; ok {
		return domain.AssigneeDTO{ID: id, Name: u.Username}
	}
	return domain.AssigneeDTO{ID: id, Name: NotAssigned}
}

// ComplexFileURL builds the public download link for an invitation or protocol
func ComplexFileURL(kind, name string) string {
	if name == "" {
		return ""
	}
	return "/download-complex-file/" + kind + "/" + url.PathEscape(name)
}

func ToComplexManagementDTO(c *domain.Complex, users map[uint]domain.User) domain.ComplexManagementDTO {
	return domain.ComplexManagementDTO{
		ID:             c.ID,
		ProjectName:    c.ProjectName,
		ComplexName:    c.ComplexName,
		Status:         c.Status,
		StageLabel:     c.Status.Label(),
		ConferenceName: c.ConferenceName,
		ConferenceDate: c.ConferenceDate,
		Manager:        ToAssignee(c.ManagerID, users),
		Lawyer:         ToAssignee(c.LawyerID, users),
		Agent:          ToAssignee(c.AgentID, users),
		InvitationURL:  ComplexFileURL("invitation", c.InvitationPath),
		ProtocolURL:    ComplexFileURL("protocol", c.ProtocolPath),
	}
}

// Percent returns part/total as a rounded integer percentage, 0 when total is 0
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
