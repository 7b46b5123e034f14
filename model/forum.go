package model

import (
	"time"
)

// Forum is a university-wide discussion board created by a user. Its threads
// are the campus discussion system, parallel to classroom threads.
type Forum struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UniversityID uint      `gorm:"not null;index" json:"university_id"`
	CreatorID    uint      `gorm:"not null;index" json:"creator_id"` // user id
	Name         string    `gorm:"not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Threads []Thread `gorm:"foreignKey:ForumID" json:"threads,omitempty"`
}

// Thread is a discussion thread inside a forum. Like classroom threads, the
// main post is the thread body.
type Thread struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ForumID    uint      `gorm:"not null;index" json:"forum_id"`
	Title      string    `gorm:"not null" json:"title"`
	MainPostID *uint     `gorm:"index" json:"main_post_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Posts []ThreadPost `gorm:"foreignKey:ThreadID" json:"posts,omitempty"`
}

// ThreadPost is a post inside a forum thread.
type ThreadPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"not null;index" json:"thread_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"` // user id
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Attachments []ThreadPostAttachment `gorm:"foreignKey:PostID" json:"attachments,omitempty"`
}

// ThreadPostAttachment is a file attached to a forum post.
type ThreadPostAttachment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"not null;index" json:"post_id"`
	FileName    string    `gorm:"not null" json:"file_name"`
	StorageKey  string    `gorm:"not null" json:"storage_key"`
	ContentType string    `gorm:"type:varchar(100)" json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}
