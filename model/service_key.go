package model

import (
	"time"
)

// ServiceKey is a machine credential for server-to-server callers, currently
// only the identity provider's webhook deliveries. The raw key is shown once
// at creation; only the bcrypt hash is stored.
type ServiceKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"not null;uniqueIndex" json:"name"`
	KeyHash    string     `gorm:"not null" json:"-"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}
