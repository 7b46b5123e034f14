package model

import (
	"time"
)

// Faculty is a teaching member of a department. Each faculty row wraps
// exactly one User (and through it one external identity record).
type Faculty struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DepartmentID uint      `gorm:"not null;index" json:"department_id"`
	UserID       uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Designation  string    `gorm:"type:varchar(100)" json:"designation"` // e.g. "Assistant Professor"
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
