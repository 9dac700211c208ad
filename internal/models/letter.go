package models

import (
	"strings"
	"time"

	"desa-portal/internal/utils"

	"gorm.io/datatypes"
)

// LetterStatus is the lifecycle state of a letter request
type LetterStatus string

const (
	StatusPending    LetterStatus = "PENDING"
	StatusProcessing LetterStatus = "PROCESSING"
	StatusApproved   LetterStatus = "APPROVED"
	StatusRejected   LetterStatus = "REJECTED"
	StatusCompleted  LetterStatus = "COMPLETED"
)

// AllLetterStatuses lists every status in lifecycle order
var AllLetterStatuses = []LetterStatus{
	StatusPending,
	StatusProcessing,
	StatusApproved,
	StatusRejected,
	StatusCompleted,
}

// ParseLetterStatus accepts a status name in any case
func ParseLetterStatus(s string) (LetterStatus, bool) {
	status := LetterStatus(strings.ToUpper(strings.TrimSpace(s)))
	return status, status.Valid()
}

func (s LetterStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// Approvable reports whether a request in this status may still be approved
// or rejected.
func (s LetterStatus) Approvable() bool {
	switch s {
	case StatusPending, StatusProcessing:
		return true
	case StatusApproved, StatusRejected, StatusCompleted:
		return false
	}
	return false
}

// Issued reports whether the letter has been issued and may be verified.
func (s LetterStatus) Issued() bool {
	switch s {
	case StatusApproved, StatusCompleted:
		return true
	case StatusPending, StatusProcessing, StatusRejected:
		return false
	}
	return false
}

// CanTransitionTo reports whether an administrator may move a request from s
// to next. Keeping the same status is allowed so notes can be edited.
func (s LetterStatus) CanTransitionTo(next LetterStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusApproved || next == StatusRejected
	case StatusProcessing:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusCompleted
	case StatusRejected, StatusCompleted:
		return false
	}
	return false
}

// TempLetterNumberPrefix marks a letter number that has not been assigned yet
const TempLetterNumberPrefix = "TEMP-"

// IsTempLetterNumber reports whether n is a placeholder letter number
func IsTempLetterNumber(n string) bool {
	return strings.HasPrefix(n, TempLetterNumberPrefix)
}

// LetterTemplate is an administrator-authored letter skeleton
type LetterTemplate struct {
	ID          string                                     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Code        string                                     `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string                                     `gorm:"type:varchar(255);not null" json:"name"`
	Description string                                     `gorm:"type:text" json:"description"`
	Template    string                                     `gorm:"type:text;not null" json:"template"`
	Fields      datatypes.JSONSlice[utils.FieldDefinition] `json:"fields"`
	IsActive    bool                                       `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time                                  `json:"createdAt"`
	UpdatedAt   time.Time                                  `json:"updatedAt"`
}

func (LetterTemplate) TableName() string {
	return "letter_templates"
}

// Field returns the definition for key, if the template declares one
func (t *LetterTemplate) Field(key string) (utils.FieldDefinition, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return utils.FieldDefinition{}, false
}

// LetterRequest is a citizen's application for a letter
type LetterRequest struct {
	ID               string                       `gorm:"type:varchar(36);primaryKey" json:"id"`
	NomorSurat       string                       `gorm:"type:varchar(191);not null;index" json:"nomorSurat"`
	Status           LetterStatus                 `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Purpose          string                       `gorm:"type:text;not null" json:"purpose"`
	FormData         datatypes.JSONType[FormData] `json:"formData"`
	VerificationCode *string                      `gorm:"type:varchar(191);uniqueIndex" json:"verificationCode"`
	ApprovedAt       *time.Time                   `json:"approvedAt"`
	ApproverID       *string                      `gorm:"type:varchar(36);index" json:"approverId"`
	Notes            string                       `gorm:"type:text" json:"notes"`
	PdfURL           string                       `gorm:"type:text" json:"pdfUrl,omitempty"`
	PdfPath          string                       `gorm:"type:text" json:"pdfPath,omitempty"`
	PendudukID       string                       `gorm:"type:varchar(36);not null;index" json:"pendudukId"`
	TemplateID       string                       `gorm:"type:varchar(36);not null;index" json:"templateId"`
	CreatedAt        time.Time                    `json:"createdAt"`
	UpdatedAt        time.Time                    `json:"updatedAt"`

	// Relations
	Penduduk *Penduduk       `gorm:"foreignKey:PendudukID" json:"penduduk,omitempty"`
	Template *LetterTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
	Approver *User           `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
}

func (LetterRequest) TableName() string {
	return "letter_requests"
}

// Data returns the typed form data, never nil
func (r *LetterRequest) Data() FormData {
	data := r.FormData.Data()
	if data == nil {
		return FormData{}
	}
	return data
}
