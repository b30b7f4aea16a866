package domain

import "time"

// ErrorResponse is the legacy flat error body still used by the bot endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

// MessageResponse is the body of most mutating endpoints
type MessageResponse struct {
	Message string `json:"message"`
}

// Auth

type UserDTO struct {
	ID                 uint      `json:"id"`
	Username           string    `json:"username"`
	Role               Role      `json:"role"`
	Phone              string    `json:"phone,omitempty"`
	Email              string    `json:"email,omitempty"`
	IsApproved         bool      `json:"is_approved"`
	MustChangePassword bool      `json:"must_change_password"`
	CreatedAt          time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Message string  `json:"message"`
	User    UserDTO `json:"user"`
	Token   string  `json:"token"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone" validate:"max=30"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type ForgotPasswordRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

// ForgotPasswordResponse carries DebugPass only when the deployment opts in
type ForgotPasswordResponse struct {
	Message   string `json:"message"`
	Method    string `json:"method"`
	DebugPass string `json:"debugPass,omitempty"`
}

type ChangePasswordRequest struct {
	UserID      uint   `json:"userId" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type AddUserRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required"`
	Phone    string `json:"phone" validate:"max=30"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type ApproveUserRequest struct {
	ID   uint `json:"id" validate:"required"`
	Role Role `json:"role" validate:"required"`
}

type DeleteUserRequest struct {
	ID uint `json:"id" validate:"required"`
}

// Residents

// UpdateResidentDataRequest is the agent edit. Nil fields are left untouched.
// Version, when present, makes the write conditional.
type UpdateResidentDataRequest struct {
	ID                          uint                  `json:"id" validate:"required"`
	Version                     *uint                 `json:"version,omitempty"`
	Status                      *WorkflowStatus       `json:"status,omitempty"`
	Note                        *string               `json:"note,omitempty"`
	Phone                       *string               `json:"phone,omitempty"`
	IDNumber                    *string               `json:"id_number,omitempty"`
	IsRenter                    *bool                 `json:"is_renter,omitempty"`
	TenantName                  *string               `json:"tenant_name,omitempty"`
	TenantPhone                 *string               `json:"tenant_phone,omitempty"`
	ActualAddress               *string               `json:"actual_address,omitempty"`
	RepresentationStatus        *RepresentationStatus `json:"representation_status,omitempty"`
	RepresentationRefusalReason *string               `json:"representation_refusal_reason,omitempty"`
	UnsignedOwners              *string               `json:"unsigned_owners,omitempty"`
}

// LawyerUpdateRequest is decoded from the multipart lawyer form
type LawyerUpdateRequest struct {
	ID           uint
	LawyerStatus LawyerStatus
	MissingDocs  MissingDocs
}

// UpdateResidentResult reports whether the workflow status lock kicked in
type UpdateResidentResult struct {
	Message      string    `json:"message"`
	Resident     *Resident `json:"resident"`
	StatusLocked bool      `json:"status_locked"`
}

// Scheduling

type BlockTimeRequest struct {
	UserID    uint   `json:"user_id" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	Reason    string `json:"reason" validate:"max=255"`
}

type AddTaskRequest struct {
	ResidentID  *uint  `json:"resident_id,omitempty"`
	UserID      uint   `json:"user_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=500"`
	DueDate     string `json:"due_date" validate:"required"`
	MeetingType string `json:"meeting_type" validate:"max=30"`
}

type CalendarEventProps struct {
	Type       MeetingType `json:"type"`
	ResidentID *uint       `json:"resident_id,omitempty"`
	UserID     UserID      `json:"user_id"`
}

// CalendarEventDTO is shaped for calendar widgets
type CalendarEventDTO struct {
	ID            uint               `json:"id"`
	Title         string             `json:"title"`
	Start         time.Time          `json:"start"`
	ExtendedProps CalendarEventProps `json:"extendedProps"`
}

// Reports

type ProjectStatsDTO struct {
	ProjectName   string       `json:"project_name"`
	ProjectStatus ProjectStage `json:"project_status"`
	StageLabel    string       `json:"stage_label"`
	Total         int64        `json:"total"`
	Signed        int64        `json:"signed"`
}

type BuildingStatsDTO struct {
	Name       string `json:"name"`
	Total      int    `json:"total"`
	FullPct    int    `json:"full_pct"`
	PartialPct int    `json:"partial_pct"`
}

type ManagerComplexStatsDTO struct {
	ProjectName    string             `json:"project_name"`
	ComplexName    string             `json:"complex_name"`
	Status         ProjectStage       `json:"status"`
	InvitationPath string             `json:"invitation_path,omitempty"`
	ProtocolPath   string             `json:"protocol_path,omitempty"`
	BuildingsStats []BuildingStatsDTO `json:"buildings_stats"`
}

type LawyerAddressDTO struct {
	Address   string     `json:"address"`
	Residents []Resident `json:"residents"`
}

type LawyerComplexDTO struct {
	ComplexName string             `json:"complex_name"`
	Addresses   []LawyerAddressDTO `json:"addresses"`
}

type LawyerProjectDTO struct {
	ProjectName string             `json:"project_name"`
	Complexes   []LawyerComplexDTO `json:"complexes"`
}

// AssigneeDTO is a resolved weak user reference
type AssigneeDTO struct {
	ID   *UserID `json:"id"`
	Name string  `json:"name"`
}

type ComplexManagementDTO struct {
	ID             uint         `json:"id"`
	ProjectName    string       `json:"project_name"`
	ComplexName    string       `json:"complex_name"`
	Status         ProjectStage `json:"status"`
	StageLabel     string       `json:"stage_label"`
	ConferenceName string       `json:"conference_name,omitempty"`
	ConferenceDate *time.Time   `json:"conference_date,omitempty"`
	Manager        AssigneeDTO  `json:"manager"`
	Lawyer         AssigneeDTO  `json:"lawyer"`
	Agent          AssigneeDTO  `json:"agent"`
	InvitationURL  string       `json:"invitation_url,omitempty"`
	ProtocolURL    string       `json:"protocol_url,omitempty"`
}

type ComplexDetailsDTO struct {
	Complex
	LawyerName string `json:"lawyerName"`
}

type MyBuildingDTO struct {
	ProjectName string `json:"project_name"`
	ComplexName string `json:"complex_name"`
	Address     string `json:"address"`
	Total       int    `json:"total"`
	Signed      int    `json:"signed"`
	FullPct     int    `json:"full_pct"`
}

// Complex administration

// UpdateComplexRequest is decoded from multipart form fields. Nil means "not submitted".
type UpdateComplexRequest struct {
	ProjectName    string
	ComplexName    string
	ManagerID      *UserID
	LawyerID       *UserID
	AgentID        *UserID
	Status         *ProjectStage
	ConferenceName *string
	ConferenceDate *time.Time
}

type UpdateProjectRequest struct {
	ProjectName    string       `json:"project_name" validate:"required"`
	ProjectStatus  ProjectStage `json:"project_status" validate:"required"`
	ConferenceName *string      `json:"conference_name,omitempty"`
	ConferenceDate *string      `json:"conference_date,omitempty"`
}

type DeleteProjectRequest struct {
	ProjectName string `json:"project_name" validate:"required"`
}

type DeleteComplexRequest struct {
	ProjectName string `json:"project_name" validate:"required"`
	ComplexName string `json:"complex_name" validate:"required"`
}

type ImportResultDTO struct {
	Message string `json:"message"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
}

// Messaging

type StaffUserDTO struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type StaffMessageDTO struct {
	ID          uint      `json:"id"`
	SenderID    UserID    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	RecipientID UserID    `json:"recipient_id"`
	Message     string    `json:"message"`
	FileName    string    `json:"file_name,omitempty"`
	FileURL     string    `json:"file_url,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type ChatSendRequest struct {
	ResidentID uint   `json:"resident_id" validate:"required"`
	Message    string `json:"message" validate:"required"`
	SenderName string `json:"sender_name" validate:"max=255"`
}

// Bot

type NewLeadRequest struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"required,max=30"`
	City     string `json:"city" validate:"max=100"`
	Source   string `json:"source" validate:"max=50"`
}

type ReportIssueRequest struct {
	Phone       string `json:"phone" validate:"required,max=30"`
	Category    string `json:"category" validate:"max=100"`
	Description string `json:"description" validate:"required"`
}

type CheckStatusRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type BotResidentStatus struct {
	Name         string       `json:"name"`
	ProjectName  string       `json:"project_name"`
	Address      string       `json:"address"`
	LawyerStatus LawyerStatus `json:"lawyer_status"`
	MissingDocs  MissingDocs  `json:"missing_docs"`
}

type CheckStatusResponse struct {
	Found bool               `json:"found"`
	Reply string             `json:"reply"`
	Data  *BotResidentStatus `json:"data,omitempty"`
}

// BotAckResponse acknowledges a bot write
type BotAckResponse struct {
	Success bool `json:"success"`
	ID      uint `json:"id"`
}
