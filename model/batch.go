package model

import (
	"time"
)

// Batch is an admission-year cohort under a university. Batches cut across
// departments; the DepartmentBatch junction pins a batch to a department and
// scopes students to that pairing.
type Batch struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UniversityID uint      `gorm:"not null;index" json:"university_id"`
	Name         string    `gorm:"not null" json:"name"` // e.g. "2024-2028"
	StartYear    int       `gorm:"not null" json:"start_year"`
	EndYear      int       `gorm:"not null" json:"end_year"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BatchGroup is the batch-wide discussion group, created alongside the batch
// (1:1).
type BatchGroup struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BatchID   uint      `gorm:"not null;uniqueIndex" json:"batch_id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DepartmentBatch is the Department x Batch junction. Student records are
// scoped to one of these rows, not to the department or batch directly.
type DepartmentBatch struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DepartmentID uint      `gorm:"not null;index:idx_department_batch,unique" json:"department_id"`
	BatchID      uint      `gorm:"not null;index:idx_department_batch,unique" json:"batch_id"`
	CreatedAt    time.Time `json:"created_at"`

	// Relationships
	Students []Student `gorm:"foreignKey:DepartmentBatchID" json:"students,omitempty"`
}
