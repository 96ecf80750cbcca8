package models

import (
	"strings"
	"time"
)

// LabRequestStatus is a step of the lab workflow.
type LabRequestStatus string

const (
	LabPending         LabRequestStatus = "PENDING"
	LabSampleCollected LabRequestStatus = "SAMPLE_COLLECTED"
	LabCompleted       LabRequestStatus = "COMPLETED"
)

// Valid reports whether s is a known lab status.
func (s LabRequestStatus) Valid() bool {
	return s.Priority() >= 0
}

// Priority is the lab queue order of the status, -1 if unknown.
func (s LabRequestStatus) Priority() int {
	switch s {
	case LabPending:
		return 0
	case LabSampleCollected:
		return 1
	case LabCompleted:
		return 2
	}
	return -1
}

// LabRequest is a doctor's order for one or more lab tests.
type LabRequest struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	Code              string           `gorm:"size:32;uniqueIndex:idx_lab_requests_code;not null" json:"code"`
	DoctorUserID      string           `gorm:"size:36;index;not null" json:"doctorUserId"`
	PatientUserID     *string          `gorm:"size:36;index" json:"patientUserId,omitempty"`
	AppointmentID     *uint            `gorm:"index" json:"appointmentId,omitempty"`
	PatientName       string           `gorm:"size:200;not null" json:"patientName"`
	Status            LabRequestStatus `gorm:"size:20;not null;index;default:'PENDING'" json:"status"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	SampleCollectedAt *time.Time       `json:"sampleCollectedAt,omitempty"`
	CompletedAt       *time.Time       `gorm:"index" json:"completedAt,omitempty"`
	TechnicianUserID  *string          `gorm:"size:36" json:"technicianUserId,omitempty"`
	TechnicianName    *string          `gorm:"size:200" json:"technicianName,omitempty"`

	Tests []LabRequestTest `gorm:"foreignKey:LabRequestID;constraint:OnDelete:CASCADE" json:"tests"`
}

// IndexLabRequestCode is the unique index on LabRequest.Code.
const IndexLabRequestCode = "idx_lab_requests_code"

// LabRequestTest is a single requested test and, once entered, its result.
// Names are unique per request, compared case-sensitively, when the request
// is built; there is no unique index on them.
type LabRequestTest struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	LabRequestID  uint      `gorm:"not null;index" json:"labRequestId"`
	TestName      string    `gorm:"size:100;not null" json:"testName"`
	ResultValue   *string   `gorm:"type:text" json:"resultValue,omitempty"`
	ResultRemarks *string   `gorm:"type:text" json:"resultRemarks,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasResult reports whether a non-blank value or remark has been recorded.
func (t *LabRequestTest) HasResult() bool {
	return nonBlank(t.ResultValue) || nonBlank(t.ResultRemarks)
}

func nonBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
