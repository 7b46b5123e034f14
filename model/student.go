package model

import (
	"time"
)

// Student is an enrolled learner, scoped to a department/batch pairing. Each
// student row wraps exactly one User (and through it one external identity
// record).
type Student struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	DepartmentBatchID uint      `gorm:"not null;index" json:"department_batch_id"`
	UserID            uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	RollNumber        string    `gorm:"type:varchar(50);not null" json:"roll_number"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
