package model

import (
	"time"
)

// CustomGroup is a user-created group (study group, club, project team).
type CustomGroup struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UniversityID uint      `gorm:"not null;index" json:"university_id"`
	CreatorID    uint      `gorm:"not null;index" json:"creator_id"` // user id
	Name         string    `gorm:"not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `json:"created_at"`

	// Relationships
	Members []CustomGroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

// CustomGroupMember is a user's membership in a custom group.
type CustomGroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;index:idx_group_member,unique" json:"group_id"`
	UserID    uint      `gorm:"not null;index:idx_group_member,unique" json:"user_id"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
	CreatedAt time.Time `json:"created_at"`
}
