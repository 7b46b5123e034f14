package faculty

import (
	"errors"
	"strconv"

	"github.com/campusgrid/campus-api/model"
	"github.com/campusgrid/campus-api/services"
	"github.com/campusgrid/campus-api/services/cascade"
	"github.com/campusgrid/campus-api/services/identity"
	"github.com/campusgrid/campus-api/utils/cache"
	"github.com/campusgrid/campus-api/utils/middleware"
	"github.com/campusgrid/campus-api/utils/response"
	"github.com/campusgrid/campus-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// FacultyHandler handles faculty-related requests
type FacultyHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	cascade   *cascade.Service
	identity  *identity.Client
	audit     *services.AuditService
	cache     *cache.RedisCache
}

// NewFacultyHandler creates a new faculty handler
func NewFacultyHandler(db *gorm.DB, cascadeSvc *cascade.Service, identityClient *identity.Client, auditSvc *services.AuditService, cacheClient *cache.RedisCache) *FacultyHandler {
	return &FacultyHandler{
		db:        db,
		validator: validation.NewValidator(),
		cascade:   cascadeSvc,
		identity:  identityClient,
		audit:     auditSvc,
		cache:     cacheClient,
	}
}

// CreateFacultyRequest represents the request body for creating a faculty member
type CreateFacultyRequest struct {
	DepartmentID uint   `json:"department_id" validate:"required,gt=0"`
	Email        string `json:"email" validate:"required,email"`
	Name         string `json:"name" validate:"required,min=2,max=255"`
	Designation  string `json:"designation" validate:"omitempty,max=100"`
}

// UpdateFacultyRequest represents the request body for updating a faculty member
type UpdateFacultyRequest struct {
	Name        string `json:"name" validate:"omitempty,min=2,max=255"`
	Designation string `json:"designation" validate:"omitempty,max=100"`
}

// tenantFaculty scopes faculty queries to the caller's university through the
// owning department.
func (h *FacultyHandler) tenantFaculty(universityID uint) *gorm.DB {
	return h.db.Model(&model.Faculty{}).
		Joins("JOIN departments ON departments.id = faculties.department_id").
		Where("departments.university_id = ?", universityID)
}

// ListFaculty handles GET /api/v1/faculty
func (h *FacultyHandler) ListFaculty(c *fiber.Ctx) error {
	universityID, ok := middleware.GetUniversityID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	query := h.tenantFaculty(universityID).Preload("User")
	if deptID := c.Query("department_id"); deptID != "" {
		query = query.Where("faculties.department_id = ?", deptID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count faculty")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var faculty []model.Faculty
	if err := query.Order("faculties.id ASC").Limit(limit).Offset(offset).Find(&faculty).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch faculty")
	}

	return response.Paginated(c, faculty, pagination)
}

// GetFaculty handles GET /api/v1/faculty/:id
func (h *FacultyHandler) GetFaculty(c *fiber.Ctx) error {
	universityID, ok := middleware.GetUniversityID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id := c.Params("id")

	var faculty model.Faculty
	err := h.tenantFaculty(universityID).Preload("User").Where("faculties.id = ?", id).First(&faculty).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Faculty member not found")
		}
		return response.InternalServerError(c, "Failed to fetch faculty member")
	}

	return response.Success(c, faculty)
}

// CreateFaculty handles POST /api/v1/faculty. The identity provider account is
// provisioned first; the local rows are only written once the provider has
// accepted the account.
func (h *FacultyHandler) CreateFaculty(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateFacultyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var dept model.Department
	err := h.db.Where("id = ? AND university_id = ?", req.DepartmentID, user.UniversityID).First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.BadRequest(c, "Department does not exist")
		}
		return response.InternalServerError(c, "Failed to fetch department")
	}

	var existing int64
	h.db.Model(&model.User{}).Where("email = ?", req.Email).Count(&existing)
	if existing > 0 {
		return response.Conflict(c, "A user with this email already exists")
	}

	account, err := h.identity.CreateUser(c.Context(), identity.CreateAccountRequest{
		Email: req.Email,
		Name:  req.Name,
		Role:  "faculty",
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to provision identity account")
	}

	var faculty model.Faculty
	err = h.db.Transaction(func(tx *gorm.DB) error {
		newUser := model.User{
			UniversityID: user.UniversityID,
			IdentityID:   account.ID,
			Email:        req.Email,
			Name:         req.Name,
			Role:         "faculty",
		}
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}
		faculty = model.Faculty{
			DepartmentID: dept.ID,
			UserID:       newUser.ID,
			Designation:  req.Designation,
		}
		if err := tx.Create(&faculty).Error; err != nil {
			return err
		}
		faculty.User = newUser
		return nil
	})
	if err != nil {
		// The local write failed after the provider accepted the account.
		// Remove the orphaned provider record so a retry can reuse the email.
		h.identity.ReleaseAccount(c.Context(), account.ID)
		return response.InternalServerError(c, "Failed to create faculty member")
	}

	h.audit.Log(c.Context(), user.ID, "faculty_create", "faculties", faculty.ID, req, c.IP())
	return response.Created(c, faculty)
}

// UpdateFaculty handles PUT /api/v1/faculty/:id
func (h *FacultyHandler) UpdateFaculty(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid faculty id")
	}

	var req UpdateFacultyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var faculty model.Faculty
	err = h.tenantFaculty(user.UniversityID).Preload("User").Where("faculties.id = ?", id).First(&faculty).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Faculty member not found")
		}
		return response.InternalServerError(c, "Failed to fetch faculty member")
	}

	if req.Designation != "" {
		if err := h.db.Model(&faculty).Update("designation", req.Designation).Error; err != nil {
			return response.InternalServerError(c, "Failed to update faculty member")
		}
	}
	if req.Name != "" {
		if err := h.db.Model(&model.User{}).Where("id = ?", faculty.UserID).Update("name", req.Name).Error; err != nil {
			return response.InternalServerError(c, "Failed to update faculty member")
		}
		faculty.User.Name = req.Name
		// Keep the provider-side record in sync; a failure here is not fatal.
		h.identity.UpdateUser(c.Context(), faculty.User.IdentityID, identity.CreateAccountRequest{
			Email: faculty.User.Email,
			Name:  req.Name,
			Role:  faculty.User.Role,
		})
	}

	h.audit.Log(c.Context(), user.ID, "faculty_update", "faculties", faculty.ID, req, c.IP())
	return response.Success(c, faculty)
}

// DeleteFaculty handles DELETE /api/v1/faculty/:id
func (h *FacultyHandler) DeleteFaculty(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid faculty id")
	}

	summary, err := h.cascade.Delete(c.Context(), cascade.KindFaculty, uint(id), user.UniversityID)
	if err != nil {
		var cleanup *cascade.CleanupError
		switch {
		case errors.Is(err, cascade.ErrNotFound):
			return response.NotFound(c, "Faculty member not found")
		case errors.As(err, &cleanup):
			h.audit.Log(c.Context(), user.ID, "faculty_delete", "faculties", uint(id), summary, c.IP())
			return response.SuccessWithMessage(c,
				"Faculty member deleted, but the linked account could not be removed; verify it separately", summary)
		default:
			return response.InternalServerError(c, "Failed to delete faculty member")
		}
	}

	h.audit.Log(c.Context(), user.ID, "faculty_delete", "faculties", uint(id), summary, c.IP())
	return response.SuccessWithMessage(c, "Faculty member deleted", summary)
}
