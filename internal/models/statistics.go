package models

import "time"

// EventType represents the type of statistical event
type EventType string

const (
	EventLetterSubmitted EventType = "letter_submitted"
	EventLetterApproved  EventType = "letter_approved"
	EventLetterRejected  EventType = "letter_rejected"
	EventLetterVerified  EventType = "letter_verified"
)

// Statistics counts one event type per template per day.
// An empty TemplateID holds the village-wide total.
type Statistics struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	EventType  EventType `gorm:"type:varchar(50);not null;uniqueIndex:idx_stat_event_template_date" json:"eventType"`
	TemplateID string    `gorm:"type:varchar(36);not null;default:'';uniqueIndex:idx_stat_event_template_date" json:"templateId,omitempty"`
	Date       time.Time `gorm:"type:date;not null;uniqueIndex:idx_stat_event_template_date" json:"date"`
	Count      int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Statistics) TableName() string {
	return "statistics"
}

// LetterStatistics is the dashboard summary of the letter service
type LetterStatistics struct {
	ByStatus       map[LetterStatus]int64 `json:"byStatus"`
	TotalRequests  int64                  `json:"totalRequests"`
	TotalSubmitted int64                  `json:"totalSubmitted"`
	TotalApproved  int64                  `json:"totalApproved"`
	TotalRejected  int64                  `json:"totalRejected"`
	TotalVerified  int64                  `json:"totalVerified"`
	Daily          []TimeSeriesData       `json:"daily,omitempty"`
}

// TimeSeriesPoint represents a single point in time-based statistics
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// TimeSeriesData represents time-based statistics for a specific event type
type TimeSeriesData struct {
	EventType  EventType         `json:"eventType"`
	DataPoints []TimeSeriesPoint `json:"dataPoints"`
	Total      int64             `json:"total"`
}
