package model

import (
	"time"
)

// Course is a subject of study owned by a department. Teaching happens in
// classrooms, each of which pairs the course with a batch.
type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DepartmentID uint      `gorm:"not null;index" json:"department_id"`
	Name         string    `gorm:"not null" json:"name"`
	Code         string    `gorm:"type:varchar(50);not null" json:"code"` // e.g. "CS301"
	Credits      int       `gorm:"default:4" json:"credits"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Classrooms []Classroom `gorm:"foreignKey:CourseID" json:"classrooms,omitempty"`
}
