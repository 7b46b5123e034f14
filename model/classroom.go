package model

import (
	"time"
)

// Classroom is one offering of a course to a batch: the unit students enroll
// in and faculty teach. Threads, posts and assignments all live under it.
type Classroom struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	BatchID   uint      `gorm:"not null;index" json:"batch_id"`
	Name      string    `gorm:"not null" json:"name"`
	Section   string    `gorm:"type:varchar(10)" json:"section"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Teachers    []ClassroomTeacher `gorm:"foreignKey:ClassroomID" json:"teachers,omitempty"`
	Enrollments []Enrollment       `gorm:"foreignKey:ClassroomID" json:"enrollments,omitempty"`
	Threads     []ClassroomThread  `gorm:"foreignKey:ClassroomID" json:"threads,omitempty"`
	Assignments []Assignment       `gorm:"foreignKey:ClassroomID" json:"assignments,omitempty"`
}

// ClassroomTeacher assigns a user to a classroom as instructor or TA.
type ClassroomTeacher struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClassroomID uint      `gorm:"not null;index" json:"classroom_id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Role        string    `gorm:"type:varchar(20);default:'teacher'" json:"role"` // teacher, ta
	CreatedAt   time.Time `json:"created_at"`
}

// Enrollment places a student in a classroom.
type Enrollment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClassroomID uint      `gorm:"not null;index:idx_classroom_student,unique" json:"classroom_id"`
	StudentID   uint      `gorm:"not null;index:idx_classroom_student,unique" json:"student_id"`
	CreatedAt   time.Time `json:"created_at"`
}
