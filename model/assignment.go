package model

import (
	"time"
)

// Assignment is graded work posted to a classroom. It is announced through an
// assignment-type thread (1:1) and collects one submission per student.
type Assignment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ClassroomID uint       `gorm:"not null;index" json:"classroom_id"`
	ThreadID    uint       `gorm:"not null;uniqueIndex" json:"thread_id"`
	Title       string     `gorm:"not null" json:"title"`
	MaxPoints   int        `gorm:"default:100" json:"max_points"`
	DueAt       *time.Time `json:"due_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relationships
	Submissions []Submission `gorm:"foreignKey:AssignmentID" json:"submissions,omitempty"`
}

// Submission is a student's answer to an assignment.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;index:idx_assignment_student,unique" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;index:idx_assignment_student,unique" json:"student_id"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	Grade        *float64   `json:"grade"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	GradedAt     *time.Time `json:"graded_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relationships
	Attachments []SubmissionAttachment `gorm:"foreignKey:SubmissionID" json:"attachments,omitempty"`
}

// SubmissionAttachment is a file attached to a submission.
type SubmissionAttachment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	FileName     string    `gorm:"not null" json:"file_name"`
	StorageKey   string    `gorm:"not null" json:"storage_key"`
	ContentType  string    `gorm:"type:varchar(100)" json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}
