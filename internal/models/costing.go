package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Chat session statuses
const (
	ChatStatusActive   = "active"
	ChatStatusComplete = "complete"
)

// ChatSession is one AI costing conversation. State holds the structured
// costing fields collected so far.
type ChatSession struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string         `gorm:"index;not null" json:"userId"`
	Title       string         `json:"title"`
	Status      string         `gorm:"default:'active'" json:"status"`
	State       datatypes.JSON `json:"state"`
	QuotationNo string         `json:"quotationNo,omitempty"`
	Messages    []ChatMessage  `gorm:"foreignKey:SessionID" json:"messages,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for ChatSession model
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatMessage is one turn of a costing conversation
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"type:uuid;index;not null" json:"sessionId"`
	Role      string    `gorm:"not null" json:"role"` // user, assistant
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_messages"
}
