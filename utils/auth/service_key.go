package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/campusgrid/campus-api/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidServiceKey = errors.New("invalid service key")

// ServiceKeyManager issues and verifies machine credentials for
// server-to-server callers (the identity provider's webhooks).
type ServiceKeyManager struct {
	db *gorm.DB
}

// NewServiceKeyManager creates a new service key manager
func NewServiceKeyManager(db *gorm.DB) *ServiceKeyManager {
	return &ServiceKeyManager{db: db}
}

// Issue creates a named service key and returns the raw secret. The secret is
// only available at creation time; the database stores a bcrypt hash.
func (m *ServiceKeyManager) Issue(ctx context.Context, name string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	secret := "sk_" + hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	key := model.ServiceKey{
		Name:    name,
		KeyHash: string(hash),
	}
	if err := m.db.WithContext(ctx).Create(&key).Error; err != nil {
		return "", err
	}

	return secret, nil
}

// Verify checks a presented secret against every stored key and stamps the
// matching key's last-used time.
func (m *ServiceKeyManager) Verify(ctx context.Context, secret string) (*model.ServiceKey, error) {
	var keys []model.ServiceKey
	if err := m.db.WithContext(ctx).Find(&keys).Error; err != nil {
		return nil, err
	}

	for i := range keys {
		if bcrypt.CompareHashAndPassword([]byte(keys[i].KeyHash), []byte(secret)) == nil {
			now := time.Now()
			m.db.WithContext(ctx).
				Model(&keys[i]).
				Update("last_used_at", &now)
			return &keys[i], nil
		}
	}

	return nil, ErrInvalidServiceKey
}
