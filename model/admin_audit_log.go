package model

import (
	"time"

	"gorm.io/datatypes"
)

// AdminAuditLog records administrative actions, most importantly cascade
// deletions, with a JSON summary of what was removed.
type AdminAuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	AdminID    uint           `gorm:"not null;index" json:"admin_id"`
	Action     string         `gorm:"type:varchar(100);not null" json:"action"` // e.g. "department_delete"
	Resource   string         `gorm:"type:varchar(100)" json:"resource"`        // e.g. "departments"
	ResourceID uint           `json:"resource_id"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	IPAddress  string         `gorm:"type:varchar(45)" json:"ip_address"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
