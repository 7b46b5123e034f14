package model

import (
	"time"
)

// User is the local mirror of an account held by the external identity
// provider. Credentials live with the provider; this row anchors everything
// the person authors inside the application (posts, forums, groups, teaching
// assignments), which is why deleting one is the last relational step of a
// faculty/student cascade.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UniversityID uint      `gorm:"not null;index" json:"university_id"`
	IdentityID   string    `gorm:"uniqueIndex;not null" json:"identity_id"` // id of the external identity record
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"not null" json:"name"`
	Role         string    `gorm:"type:varchar(20);default:'student'" json:"role"` // admin, faculty, student
	TokenVersion int       `gorm:"default:0" json:"-"`                             // increment to invalidate all sessions
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
