package department

import (
	"errors"
	"strconv"
	"time"

	"github.com/campusgrid/campus-api/model"
	"github.com/campusgrid/campus-api/services"
	"github.com/campusgrid/campus-api/services/cascade"
	"github.com/campusgrid/campus-api/utils/cache"
	"github.com/campusgrid/campus-api/utils/middleware"
	"github.com/campusgrid/campus-api/utils/response"
	"github.com/campusgrid/campus-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DepartmentHandler handles department-related requests
type DepartmentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	cascade   *cascade.Service
	audit     *services.AuditService
	cache     *cache.RedisCache
}

// NewDepartmentHandler creates a new department handler
func NewDepartmentHandler(db *gorm.DB, cascadeSvc *cascade.Service, auditSvc *services.AuditService, cacheClient *cache.RedisCache) *DepartmentHandler {
	return &DepartmentHandler{
		db:        db,
		validator: validation.NewValidator(),
		cascade:   cascadeSvc,
		audit:     auditSvc,
		cache:     cacheClient,
	}
}

// CreateDepartmentRequest represents the request body for creating a department
type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,min=2,max=255"`
	Code string `json:"code" validate:"required,min=2,max=50"`
}

// UpdateDepartmentRequest represents the request body for updating a department
type UpdateDepartmentRequest struct {
	Name string `json:"name" validate:"omitempty,min=2,max=255"`
	Code string `json:"code" validate:"omitempty,min=2,max=50"`
}

// ListDepartments handles GET /api/v1/departments
func (h *DepartmentHandler) ListDepartments(c *fiber.Ctx) error {
	universityID, ok := middleware.GetUniversityID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := c.Query("search", "")

	query := h.db.Model(&model.Department{}).Where("university_id = ?", universityID)
	if search != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count departments")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var departments []model.Department
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&departments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch departments")
	}

	return response.Paginated(c, departments, pagination)
}

// GetDepartment handles GET /api/v1/departments/:id
func (h *DepartmentHandler) GetDepartment(c *fiber.Ctx) error {
	universityID, ok := middleware.GetUniversityID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id := c.Params("id")
	cacheKey := cache.TenantKeyPrefix(universityID) + "department:" + id

	if h.cache != nil {
		var cached model.Department
		if err := h.cache.GetJSON(c.Context(), cacheKey, &cached); err == nil {
			return response.Success(c, cached)
		}
	}

	var department model.Department
	err := h.db.Preload("Courses").
		Where("id = ? AND university_id = ?", id, universityID).
		First(&department).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Department not found")
		}
		return response.InternalServerError(c, "Failed to fetch department")
	}

	if h.cache != nil {
		h.cache.SetJSON(c.Context(), cacheKey, department, 5*time.Minute)
	}

	return response.Success(c, department)
}

// CreateDepartment handles POST /api/v1/departments
func (h *DepartmentHandler) CreateDepartment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	department := model.Department{
		UniversityID: user.UniversityID,
		Name:         req.Name,
		Code:         req.Code,
	}

	// The department group is created in the same transaction so the 1:1
	// pairing always holds.
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&department).Error; err != nil {
			return err
		}
		group := model.DepartmentGroup{
			DepartmentID: department.ID,
			Name:         department.Name,
		}
		return tx.Create(&group).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create department")
	}

	h.audit.Log(c.Context(), user.ID, "department_create", "departments", department.ID, req, c.IP())
	return response.Created(c, department)
}

// UpdateDepartment handles PUT /api/v1/departments/:id
func (h *DepartmentHandler) UpdateDepartment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid department id")
	}

	var req UpdateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var department model.Department
	err = h.db.Where("id = ? AND university_id = ?", id, user.UniversityID).First(&department).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Department not found")
		}
		return response.InternalServerError(c, "Failed to fetch department")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Code != "" {
		updates["code"] = req.Code
	}
	if len(updates) > 0 {
		if err := h.db.Model(&department).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update department")
		}
	}

	h.audit.Log(c.Context(), user.ID, "department_update", "departments", department.ID, updates, c.IP())
	return response.Success(c, department)
}

// DeleteDepartment handles DELETE /api/v1/departments/:id
func (h *DepartmentHandler) DeleteDepartment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid department id")
	}

	summary, err := h.cascade.Delete(c.Context(), cascade.KindDepartment, uint(id), user.UniversityID)
	if err != nil {
		var cleanup *cascade.CleanupError
		switch {
		case errors.Is(err, cascade.ErrNotFound):
			return response.NotFound(c, "Department not found")
		case errors.As(err, &cleanup):
			h.audit.Log(c.Context(), user.ID, "department_delete", "departments", uint(id), summary, c.IP())
			return response.SuccessWithMessage(c,
				"Department deleted, but some linked accounts could not be removed; verify them separately", summary)
		default:
			return response.InternalServerError(c, "Failed to delete department")
		}
	}

	h.audit.Log(c.Context(), user.ID, "department_delete", "departments", uint(id), summary, c.IP())
	return response.SuccessWithMessage(c, "Department deleted", summary)
}
