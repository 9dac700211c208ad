package models

import "time"

// ActivityLog records one handled HTTP request
type ActivityLog struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Method       string    `gorm:"type:varchar(10);not null;index" json:"method"`
	Path         string    `gorm:"type:varchar(255);not null;index" json:"path"`
	UserAgent    string    `gorm:"type:text" json:"userAgent"`
	IPAddress    string    `gorm:"type:varchar(45)" json:"ipAddress"`
	RequestBody  string    `gorm:"type:text" json:"requestBody,omitempty"`
	QueryParams  string    `gorm:"type:text" json:"queryParams,omitempty"`
	StatusCode   int       `gorm:"not null" json:"statusCode"`
	ResponseTime int64     `gorm:"not null" json:"responseTime"`
	UserID       string    `gorm:"type:varchar(36);index" json:"userId,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
