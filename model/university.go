package model

import (
	"time"
)

// University is the tenant root. Every aggregate in the system hangs off a
// university, and every administrative action is scoped to one.
type University struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"` // e.g. "AKTU", "DU"
	Location  string    `gorm:"type:varchar(255)" json:"location"`
	Website   string    `gorm:"type:varchar(255)" json:"website"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Departments []Department `gorm:"foreignKey:UniversityID" json:"departments,omitempty"`
	Batches     []Batch      `gorm:"foreignKey:UniversityID" json:"batches,omitempty"`
}

// UniAdministration links a user to a university-level administrative role.
type UniAdministration struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UniversityID uint      `gorm:"not null;index" json:"university_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Role         string    `gorm:"type:varchar(20);default:'admin'" json:"role"` // owner, admin
	CreatedAt    time.Time `json:"created_at"`
}
