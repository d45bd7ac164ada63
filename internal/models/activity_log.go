package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog records every mutation proxied to the upstream API
type ActivityLog struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       string         `gorm:"index" json:"userId"`
	UserName     string         `json:"userName"`
	Action       string         `gorm:"not null;index" json:"action"` // ratequery.create, quotation.approve, ...
	EntityType   string         `gorm:"index" json:"entityType"`
	EntityID     string         `gorm:"index" json:"entityId"`
	Payload      datatypes.JSON `json:"payload,omitempty"`
	Status       string         `gorm:"default:'success'" json:"status"` // success, failed
	ErrorMessage string         `json:"errorMessage,omitempty"`
	IPAddress    string         `json:"ipAddress,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"createdAt"`
}

// TableName specifies the table name for ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_logs"
}
