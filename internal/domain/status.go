package domain

import (
	"fmt"
	"strings"
	"time"
)

// LawyerStatus is the legal-review state of a titleholder
type LawyerStatus string

const (
	LawyerStatusNotHandled      LawyerStatus = "not_handled"
	LawyerStatusInProgress      LawyerStatus = "in_progress"
	LawyerStatusPartiallySigned LawyerStatus = "partially_signed"
	LawyerStatusFullySigned     LawyerStatus = "fully_signed"
)

var lawyerStatusLabels = map[LawyerStatus]string{
	LawyerStatusNotHandled:      "לא טופל",
	LawyerStatusInProgress:      "בטיפול",
	LawyerStatusPartiallySigned: "חתם חלקית",
	LawyerStatusFullySigned:     "חתם באופן מלא",
}

// IsValid reports whether s is a known lawyer status
func (s LawyerStatus) IsValid() bool {
	_, ok := lawyerStatusLabels[s]
	return ok
}

// IsSigned reports whether any signature has been collected. A signed
// resident's workflow status is locked against agent edits.
func (s LawyerStatus) IsSigned() bool {
	return s == LawyerStatusPartiallySigned || s == LawyerStatusFullySigned
}

// Label returns the Hebrew display label
func (s LawyerStatus) Label() string {
	if l, ok := lawyerStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// WorkflowStatus is the agent-facing contact state of a resident. The set is
// open; the constants below are the values the UI offers.
type WorkflowStatus string

const (
	WorkflowStatusNone             WorkflowStatus = "none"
	WorkflowStatusNoAnswer         WorkflowStatus = "no_answer"
	WorkflowStatusInProgress       WorkflowStatus = "in_progress"
	WorkflowStatusMeetingScheduled WorkflowStatus = "meeting_scheduled"
	WorkflowStatusRefused          WorkflowStatus = "refused"
	WorkflowStatusContractSigned   WorkflowStatus = "contract_signed"
)

var workflowStatusLabels = map[WorkflowStatus]string{
	WorkflowStatusNone:             "ללא סטטוס",
	WorkflowStatusNoAnswer:         "אין מענה",
	WorkflowStatusInProgress:       "בטיפול",
	WorkflowStatusMeetingScheduled: "נקבעה פגישה",
	WorkflowStatusRefused:          "מסרב",
	WorkflowStatusContractSigned:   "חתם על חוזה",
}

// Label returns the Hebrew display label, or the raw value for custom statuses
func (s WorkflowStatus) Label() string {
	if l, ok := workflowStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// RepresentationStatus tracks whether a resident signed on the tenants' representation
type RepresentationStatus string

const (
	RepresentationUnsigned        RepresentationStatus = "unsigned"
	RepresentationRefused         RepresentationStatus = "refused"
	RepresentationPartiallySigned RepresentationStatus = "partially_signed"
	RepresentationFullySigned     RepresentationStatus = "fully_signed"
)

var representationLabels = map[RepresentationStatus]string{
	RepresentationUnsigned:        "לא חתם",
	RepresentationRefused:         "סירב",
	RepresentationPartiallySigned: "חתם חלקית",
	RepresentationFullySigned:     "חתם",
}

func (s RepresentationStatus) IsValid() bool {
	_, ok := representationLabels[s]
	return ok
}

func (s RepresentationStatus) Label() string {
	if l, ok := representationLabels[s]; ok {
		return l
	}
	return string(s)
}

// ProjectStage is one of the twelve urban-renewal milestones, in order
type ProjectStage string

const (
	StageOrganizing             ProjectStage = "organizing"
	StageTenantLawyerSelection  ProjectStage = "tenant_lawyer_selection"
	StageDeveloperTender        ProjectStage = "developer_tender"
	StageLegalNegotiation       ProjectStage = "legal_negotiation"
	StageSigningConference      ProjectStage = "signing_conference"
	StageZoningSubmission       ProjectStage = "zoning_submission"
	StageZoningApproval         ProjectStage = "zoning_approval"
	StageBuildingPermit         ProjectStage = "building_permit"
	StageBankGuarantees         ProjectStage = "bank_guarantees"
	StageTenantEvacuation       ProjectStage = "tenant_evacuation"
	StageDemolitionConstruction ProjectStage = "demolition_construction"
	StageHandover               ProjectStage = "handover"
)

// ProjectStages lists the milestones in order
var ProjectStages = []ProjectStage{
	StageOrganizing,
	StageTenantLawyerSelection,
	StageDeveloperTender,
	StageLegalNegotiation,
	StageSigningConference,
	StageZoningSubmission,
	StageZoningApproval,
	StageBuildingPermit,
	StageBankGuarantees,
	StageTenantEvacuation,
	StageDemolitionConstruction,
	StageHandover,
}

var stageLabels = map[ProjectStage]string{
	StageOrganizing:             "התארגנות",
	StageTenantLawyerSelection:  "בחירת עו\"ד דיירים",
	StageDeveloperTender:        "מכרז יזמים",
	StageLegalNegotiation:       "משא ומתן משפטי",
	StageSigningConference:      "כנס חתימות",
	StageZoningSubmission:       "הגשת תב\"ע",
	StageZoningApproval:         "אישור תב\"ע",
	StageBuildingPermit:         "היתר בנייה",
	StageBankGuarantees:         "ערבויות בנקאיות",
	StageTenantEvacuation:       "פינוי דיירים",
	StageDemolitionConstruction: "הריסה ובנייה",
	StageHandover:               "מסירה",
}

func (s ProjectStage) IsValid() bool {
	_, ok := stageLabels[s]
	return ok
}

func (s ProjectStage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// UnknownOccupantName is stored when a spreadsheet row carries an address but no name
const UnknownOccupantName = "דייר לא ידוע"

var calendarTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseCalendarTime accepts the timestamp shapes calendar clients send.
// Values without a zone are read as UTC and the result is always UTC, so two
// submissions of the same slot compare equal.
func ParseCalendarTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range calendarTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %q", value)
}
