package webhook

import (
	"errors"
	"log"

	"github.com/campusgrid/campus-api/model"
	"github.com/campusgrid/campus-api/services/cascade"
	"github.com/campusgrid/campus-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// IdentityWebhookHandler receives provider-initiated events. The only event
// acted on is account deletion: when the provider removes an account, the
// mirrored faculty/student record and everything under it is cascaded away.
type IdentityWebhookHandler struct {
	db      *gorm.DB
	cascade *cascade.Service
}

// NewIdentityWebhookHandler creates a new identity webhook handler
func NewIdentityWebhookHandler(db *gorm.DB, cascadeSvc *cascade.Service) *IdentityWebhookHandler {
	return &IdentityWebhookHandler{db: db, cascade: cascadeSvc}
}

// IdentityEvent is the provider's webhook payload
type IdentityEvent struct {
	Event      string `json:"event"`
	IdentityID string `json:"identity_id"`
}

// HandleEvent handles POST /api/v1/webhooks/identity
func (h *IdentityWebhookHandler) HandleEvent(c *fiber.Ctx) error {
	var event IdentityEvent
	if err := c.BodyParser(&event); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if event.IdentityID == "" {
		return response.BadRequest(c, "identity_id is required")
	}

	if event.Event != "user.deleted" {
		// Unhandled events are acknowledged so the provider stops retrying.
		return response.SuccessWithMessage(c, "Event ignored", nil)
	}

	var user model.User
	err := h.db.Where("identity_id = ?", event.IdentityID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Already gone locally. The provider may redeliver events.
			return response.SuccessWithMessage(c, "User already removed", nil)
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	kind, wrapperID, err := h.resolveWrapper(user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to resolve user record")
	}
	if kind == "" {
		// Admins and other unwrapped users are not cascade roots; their
		// removal is a manual operation.
		return response.SuccessWithMessage(c, "User is not a faculty or student record", nil)
	}

	summary, err := h.cascade.Delete(c.Context(), kind, wrapperID, user.UniversityID)
	if err != nil {
		var cleanup *cascade.CleanupError
		switch {
		case errors.Is(err, cascade.ErrNotFound):
			return response.SuccessWithMessage(c, "User already removed", nil)
		case errors.As(err, &cleanup):
			// The provider-side record is already gone, so a leftover
			// identity id in the cleanup error is expected and harmless.
			log.Printf("webhook: cascade cleanup incomplete for identity %s: %v", event.IdentityID, err)
			return response.SuccessWithMessage(c, "User removed", summary)
		default:
			return response.InternalServerError(c, "Failed to remove user")
		}
	}

	return response.SuccessWithMessage(c, "User removed", summary)
}

// resolveWrapper finds the faculty or student row wrapping the user, if any
func (h *IdentityWebhookHandler) resolveWrapper(userID uint) (cascade.Kind, uint, error) {
	var faculty model.Faculty
	err := h.db.Where("user_id = ?", userID).First(&faculty).Error
	if err == nil {
		return cascade.KindFaculty, faculty.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", 0, err
	}

	var student model.Student
	err = h.db.Where("user_id = ?", userID).First(&student).Error
	if err == nil {
		return cascade.KindStudent, student.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", 0, err
	}

	return "", 0, nil
}
