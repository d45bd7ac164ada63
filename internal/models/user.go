package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles recognised by the approval and rate-query workflows
const (
	RoleAdmin        = "admin"
	RoleKAM          = "kam"
	RolePurchase     = "purchase"
	RoleOperations   = "operations"
	RoleHOD          = "hod"
	RoleVerticalHead = "vertical_head"
)

// UserAuth represents a dashboard user and the upstream identity their
// requests are made under.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type UserAuth struct {
	ID               string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username         string     `gorm:"unique;not null" json:"username"`
	Password         string     `gorm:"not null" json:"-"`
	Email            string     `gorm:"unique;not null" json:"email"`
	Name             string     `json:"name,omitempty"`
	Role             string     `gorm:"default:'kam'" json:"role"`
	Department       string     `json:"department,omitempty"`
	UpstreamUserID   int64      `gorm:"not null" json:"upstreamUserId"`
	CompanyID        string     `json:"companyId"`
	ProductionUnitID string     `json:"productionUnitId"`
	Fyear            string     `json:"fyear"`
	IsActive         bool       `gorm:"default:true" json:"isActive"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for UserAuth model
func (UserAuth) TableName() string {
	return "user_auths"
}
