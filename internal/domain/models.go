package domain

import (
	"time"

	"gorm.io/datatypes"
)

// UserID is a weak reference to a row in the users store. Nothing guarantees
// the user still exists, so consumers resolve it explicitly.
type UserID uint

// BroadcastRecipient addresses a staff message to every user
const BroadcastRecipient UserID = 0

// Role is the access role of a staff user
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleLawyer  Role = "lawyer"
	// RoleAgent is stored as "user" for compatibility with existing accounts
	RoleAgent Role = "user"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleLawyer, RoleAgent:
		return true
	}
	return false
}

// User is a staff account stored in the users store
type User struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Username           string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Password           string    `gorm:"not null" json:"-"`
	Role               Role      `gorm:"type:varchar(20);not null;default:user" json:"role"`
	Phone              string    `gorm:"type:varchar(30)" json:"phone"`
	Email              string    `gorm:"type:varchar(255);index" json:"email"`
	IsApproved         bool      `gorm:"not null;default:false" json:"is_approved"`
	MustChangePassword bool      `gorm:"not null;default:false" json:"must_change_password"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ActivityLog records a mutating request made by a staff user
type ActivityLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      UserID    `gorm:"index" json:"user_id"`
	ActionType  string    `gorm:"type:varchar(100);not null" json:"action_type"`
	Description string    `gorm:"type:text" json:"description"`
	Timestamp   time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

// Project is keyed by its name and created implicitly by the first import
type Project struct {
	ProjectName    string       `gorm:"primaryKey;type:varchar(255)" json:"project_name"`
	ProjectStatus  ProjectStage `gorm:"type:varchar(40);not null;default:organizing" json:"project_status"`
	ConferenceName string       `gorm:"type:varchar(255)" json:"conference_name,omitempty"`
	ConferenceDate *time.Time   `json:"conference_date,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	Residents []Resident `gorm:"foreignKey:ProjectName;references:ProjectName;constraint:OnDelete:CASCADE" json:"-"`
	Complexes []Complex  `gorm:"foreignKey:ProjectName;references:ProjectName;constraint:OnDelete:CASCADE" json:"-"`
}

func (Project) TableName() string { return "projects_metadata" }

// Complex groups buildings within a project and carries the staff assignment
type Complex struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	ProjectName    string       `gorm:"type:varchar(255);not null;uniqueIndex:idx_complex_identity,priority:1" json:"project_name"`
	ComplexName    string       `gorm:"type:varchar(255);not null;uniqueIndex:idx_complex_identity,priority:2" json:"complex_name"`
	ManagerID      *UserID      `gorm:"index" json:"manager_id"`
	LawyerID       *UserID      `gorm:"index" json:"lawyer_id"`
	AgentID        *UserID      `gorm:"index" json:"agent_id"`
	Status         ProjectStage `gorm:"type:varchar(40);not null;default:organizing" json:"status"`
	ConferenceName string       `gorm:"type:varchar(255)" json:"conference_name,omitempty"`
	ConferenceDate *time.Time   `json:"conference_date,omitempty"`
	InvitationPath string       `gorm:"type:varchar(500)" json:"invitation_path,omitempty"`
	ProtocolPath   string       `gorm:"type:varchar(500)" json:"protocol_path,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (Complex) TableName() string { return "complexes_metadata" }

// MissingDocs is the lawyer-supplied record of what is still outstanding for
// a partially signed resident. It is persisted exactly as submitted and is
// never recomputed from uploads.
type MissingDocs struct {
	Owners []string `json:"owners"`
	Docs   []string `json:"docs"`
}

// IsEmpty reports whether nothing is outstanding
func (m MissingDocs) IsEmpty() bool {
	return len(m.Owners) == 0 && len(m.Docs) == 0
}

// Resident is a unit titleholder targeted for signature collection.
// (ProjectName, Block, Parcel, SubParcel) is unique. Spreadsheet imports put
// the synthetic street_house_apartment key in SubParcel with Block and Parcel "0".
type Resident struct {
	ID                          uint                            `gorm:"primaryKey" json:"id"`
	ProjectName                 string                          `gorm:"type:varchar(255);not null;uniqueIndex:idx_resident_unit,priority:1" json:"project_name"`
	ComplexName                 string                          `gorm:"type:varchar(255);index" json:"complex_name"`
	Block                       string                          `gorm:"type:varchar(50);not null;default:'0';uniqueIndex:idx_resident_unit,priority:2" json:"block"`
	Parcel                      string                          `gorm:"type:varchar(50);not null;default:'0';uniqueIndex:idx_resident_unit,priority:3" json:"parcel"`
	SubParcel                   string                          `gorm:"type:varchar(255);not null;uniqueIndex:idx_resident_unit,priority:4" json:"sub_parcel"`
	Floor                       string                          `gorm:"type:varchar(20)" json:"floor"`
	Name                        string                          `gorm:"type:varchar(255)" json:"name"`
	Phone                       string                          `gorm:"type:varchar(30);index" json:"phone"`
	IDNumber                    string                          `gorm:"column:id_number;type:varchar(30)" json:"id_number"`
	Email                       string                          `gorm:"type:varchar(255)" json:"email"`
	Status                      WorkflowStatus                  `gorm:"type:varchar(50);not null;default:none" json:"status"`
	Note                        string                          `gorm:"type:text" json:"note"`
	RepresentationStatus        RepresentationStatus            `gorm:"type:varchar(30);not null;default:unsigned" json:"representation_status"`
	RepresentationRefusalReason string                          `gorm:"type:text" json:"representation_refusal_reason"`
	UnsignedOwners              string                          `gorm:"type:text" json:"unsigned_owners"`
	LawyerStatus                LawyerStatus                    `gorm:"type:varchar(30);not null;default:not_handled;index" json:"lawyer_status"`
	MissingDocs                 datatypes.JSONType[MissingDocs] `gorm:"column:missing_docs_json" json:"missing_docs_json"`
	IsRenter                    bool                            `gorm:"not null;default:false" json:"is_renter"`
	TenantName                  string                          `gorm:"type:varchar(255)" json:"tenant_name"`
	TenantPhone                 string                          `gorm:"type:varchar(30)" json:"tenant_phone"`
	WarningNote                 string                          `gorm:"type:text" json:"warning_note"`
	ActualAddress               string                          `gorm:"type:varchar(500)" json:"actual_address"`
	CurrentAddress              string                          `gorm:"type:varchar(500);index" json:"current_address"`
	SourceType                  string                          `gorm:"type:varchar(30)" json:"source_type"`
	AssignedUserID              *UserID                         `gorm:"index" json:"assigned_user_id"`
	// Version increments on every write and backs conditional updates
	Version   uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SecondaryOwners []SecondaryOwner   `gorm:"foreignKey:ResidentID;constraint:OnDelete:CASCADE" json:"secondary_owners,omitempty"`
	Documents       []ResidentDocument `gorm:"foreignKey:ResidentID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
	ChatMessages    []ChatMessage      `gorm:"foreignKey:ResidentID;constraint:OnDelete:CASCADE" json:"-"`
}

// SecondaryOwner is an additional titleholder on the same unit as a resident
type SecondaryOwner struct {
	ID                   uint                 `gorm:"primaryKey" json:"id"`
	ResidentID           uint                 `gorm:"not null;index" json:"resident_id"`
	Name                 string               `gorm:"type:varchar(255);not null" json:"name"`
	Phone                string               `gorm:"type:varchar(30)" json:"phone"`
	IDNumber             string               `gorm:"column:id_number;type:varchar(30)" json:"id_number"`
	LawyerStatus         LawyerStatus         `gorm:"type:varchar(30);not null;default:not_handled" json:"lawyer_status"`
	RepresentationStatus RepresentationStatus `gorm:"type:varchar(30);not null;default:unsigned" json:"representation_status"`
	DocChecklist         datatypes.JSONMap    `gorm:"column:doc_checklist" json:"doc_checklist"`
	CreatedAt            time.Time            `json:"created_at"`
}

// DocumentStatus tracks whether the stored file behind a document row is known to exist
type DocumentStatus string

const (
	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusConfirmed DocumentStatus = "confirmed"
)

// UploaderRole identifies who attached a resident document
type UploaderRole string

const (
	UploaderLawyer UploaderRole = "lawyer"
	UploaderAgent  UploaderRole = "agent"
)

// DocTypeSignedContractPart tags every file in a lawyer's signed batch
const DocTypeSignedContractPart = "signed_contract_part"

// ResidentDocument links an uploaded file to a resident
type ResidentDocument struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ResidentID     uint           `gorm:"not null;index" json:"resident_id"`
	FileName       string         `gorm:"type:varchar(500);not null" json:"file_name"`
	FilePath       string         `gorm:"type:varchar(500);not null;uniqueIndex" json:"file_path"`
	DocType        string         `gorm:"type:varchar(100)" json:"doc_type"`
	UploadedByRole UploaderRole   `gorm:"type:varchar(20)" json:"uploaded_by_role"`
	Status         DocumentStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	UploadDate     time.Time      `gorm:"autoCreateTime" json:"upload_date"`
}

// ChatMessage is bot/system correspondence attached to a resident
type ChatMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ResidentID uint      `gorm:"not null;index" json:"resident_id"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Direction  string    `gorm:"type:varchar(20);not null;default:incoming" json:"direction"`
	SenderName string    `gorm:"type:varchar(255)" json:"sender_name"`
	Timestamp  time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

// StaffMessage is a flat inter-staff message. RecipientID 0 means everyone.
type StaffMessage struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SenderID    UserID         `gorm:"not null;index" json:"sender_id"`
	RecipientID UserID         `gorm:"not null;index" json:"recipient_id"`
	Message     string         `gorm:"type:text" json:"message"`
	FileName    string         `gorm:"type:varchar(500)" json:"file_name,omitempty"`
	FilePath    string         `gorm:"type:varchar(500);index" json:"file_path,omitempty"`
	FileStatus  DocumentStatus `gorm:"type:varchar(20)" json:"-"`
	IsRead      bool           `gorm:"not null;default:false" json:"is_read"`
	Timestamp   time.Time      `gorm:"autoCreateTime;index" json:"timestamp"`
}

// MeetingType distinguishes real meetings from lawyer-declared blocked slots
type MeetingType string

// MeetingTypeBlocked marks an unavailability window rather than a meeting
const MeetingTypeBlocked MeetingType = "blocked"

// Meeting lives in the meetings store. ResidentID and UserID point into the
// other stores and are not enforced by foreign keys.
type Meeting struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ResidentID  *uint       `gorm:"index" json:"resident_id"`
	UserID      UserID      `gorm:"not null;index" json:"user_id"`
	Title       string      `gorm:"type:varchar(500)" json:"title"`
	StartTime   time.Time   `gorm:"not null;index" json:"start_time"`
	MeetingType MeetingType `gorm:"type:varchar(30);not null;index" json:"meeting_type"`
	CreatedAt   time.Time   `json:"created_at"`
}

// IsBlocked reports whether the entry is a blocked slot
func (m *Meeting) IsBlocked() bool {
	return m.MeetingType == MeetingTypeBlocked
}

// Lead is a prospective client captured by the chat bot
type Lead struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"type:varchar(255)" json:"full_name"`
	Phone     string    `gorm:"type:varchar(30)" json:"phone"`
	City      string    `gorm:"type:varchar(100)" json:"city"`
	Source    string    `gorm:"type:varchar(50);not null;default:bot" json:"source"`
	Status    string    `gorm:"type:varchar(30);not null;default:new" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SupportTicket is an issue reported by a resident through the bot
type SupportTicket struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ResidentPhone string    `gorm:"type:varchar(30);index" json:"resident_phone"`
	Category      string    `gorm:"type:varchar(100)" json:"category"`
	Description   string    `gorm:"type:text" json:"description"`
	Status        string    `gorm:"type:varchar(30);not null;default:open" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
