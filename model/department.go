package model

import (
	"time"
)

// Department is an academic unit under a university. It owns courses and
// faculty, and is linked to batches through DepartmentBatch rows.
type Department struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UniversityID uint      `gorm:"not null;index" json:"university_id"`
	Name         string    `gorm:"not null" json:"name"`
	Code         string    `gorm:"type:varchar(50);not null" json:"code"` // e.g. "CSE", "ECE"
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Courses []Course  `gorm:"foreignKey:DepartmentID" json:"courses,omitempty"`
	Faculty []Faculty `gorm:"foreignKey:DepartmentID" json:"faculty,omitempty"`
}

// DepartmentGroup is the department-wide discussion group, created alongside
// the department (1:1).
type DepartmentGroup struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DepartmentID uint      `gorm:"not null;uniqueIndex" json:"department_id"`
	Name         string    `gorm:"not null" json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}
