package model

import (
	"time"
)

// ClassroomThread types
const (
	ThreadTypeDiscussion = "discussion"
	ThreadTypeAssignment = "assignment"
)

// ClassroomThread is a discussion or assignment thread inside a classroom.
// The main post is the thread body; replies are further ClassroomPost rows.
// When Type is "assignment" exactly one Assignment row points back at the
// thread.
type ClassroomThread struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClassroomID uint      `gorm:"not null;index" json:"classroom_id"`
	Type        string    `gorm:"type:varchar(20);default:'discussion'" json:"type"`
	Title       string    `gorm:"not null" json:"title"`
	MainPostID  *uint     `gorm:"index" json:"main_post_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Posts []ClassroomPost `gorm:"foreignKey:ThreadID" json:"posts,omitempty"`
}

// ClassroomPost is a post inside a classroom thread.
type ClassroomPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"not null;index" json:"thread_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"` // user id
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Attachments []ClassroomPostAttachment `gorm:"foreignKey:PostID" json:"attachments,omitempty"`
}

// ClassroomPostAttachment is a file attached to a classroom post. The blob
// itself lives in object storage under StorageKey.
type ClassroomPostAttachment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"not null;index" json:"post_id"`
	FileName    string    `gorm:"not null" json:"file_name"`
	StorageKey  string    `gorm:"not null" json:"storage_key"`
	ContentType string    `gorm:"type:varchar(100)" json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}
