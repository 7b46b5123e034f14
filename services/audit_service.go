package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/campusgrid/campus-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditService records administrative actions
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log writes one audit row. details is marshaled to JSON; an audit failure
// is logged but never fails the action it records.
func (s *AuditService) Log(ctx context.Context, adminID uint, action, resource string, resourceID uint, details interface{}, ip string) {
	var payload datatypes.JSON
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			log.Printf("audit: failed to marshal details for %s: %v", action, err)
		} else {
			payload = datatypes.JSON(data)
		}
	}

	entry := model.AdminAuditLog{
		AdminID:    adminID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    payload,
		IPAddress:  ip,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("audit: failed to record %s on %s/%d: %v", action, resource, resourceID, err)
	}
}
