package classroom

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

// ClassroomHandler handles classroom-related requests
type ClassroomHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	cascade   *cascade.Service
	audit     *services.AuditService
	cache     *cache.RedisCache
}

// NewClassroomHandler creates a new classroom handler
func NewClassroomHandler(db *gorm.DB, cascadeSvc *cascade.Service, auditSvc *services.AuditService, cacheClient *cache.RedisCache) *ClassroomHandler {
	return &ClassroomHandler{
		db:        db,
		validator: validation.NewValidator(),
		cascade:   cascadeSvc,
		audit:     auditSvc,
		cache:     cacheClient,
	}
}

// CreateClassroomRequest represents the request body for creating a classroom
type CreateClassroomRequest struct {
	CourseID uint   `json:"course_id" validate:"required,gt=0"`
	BatchID  uint   `json:"batch_id" validate:"required,gt=0"`
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Section  string `json:"section" validate:"omitempty,max=10"`
}

// UpdateClassroomRequest represents the request body for updating a classroom
type UpdateClassroomRequest struct {
	Name    string `json:"name" validate:"omitempty,min=2,max=255"`
	Section string `json:"section" validate:"omitempty,max=10"`
}

// tenantClassrooms scopes classroom queries to the caller's university through
// the course and its owning department.
func (h *ClassroomHandler) tenantClassrooms(universityID uint) *gorm.DB {
	return h.db.Model(&model.Classroom{}).
		Joins("JOIN courses ON courses.id = classrooms.course_id").
		Joins("JOIN departments ON departments.id = courses.department_id").
		Where("departments.university_id = ?", universityID)
}

// ListClassrooms handles GET /api/v1/classrooms
func (h *ClassroomHandler) ListClassrooms(c *fiber.Ctx) error {
	universityID, ok := middleware.GetUniversityID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	query := h.tenantClassrooms(universityID)
	if courseID := c.Query("course_id"); courseID != "" {
		query = query.Where("classrooms.course_id = ?", courseID)
	}
	if batchID := c.Query("batch_id"); batchID != "" {
		query = query.Where("classrooms.batch_id = ?", batchID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count classrooms")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var classrooms []model.Classroom
	if err := query.Order("classrooms.id ASC").Limit(limit).Offset(offset).Find(&classrooms).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch classrooms")
	}

	return response.Paginated(c, classrooms, pagination)
}

// GetClassroom handles GET /api/v1/classrooms/:id
func (h *ClassroomHandler) GetClassroom(c *fiber.Ctx) error {
	universityID, ok := middleware.GetUniversityID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id := c.Params("id")
	cacheKey := cache.TenantKeyPrefix(universityID) + "classroom:" + id

	if h.cache != nil {
		var cached model.Classroom
		if err := h.cache.GetJSON(c.Context(), cacheKey, &cached); err == nil {
			return response.Success(c, cached)
		}
	}

	var classroom model.Classroom
	err := h.tenantClassrooms(universityID).Where("classrooms.id = ?", id).First(&classroom).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Classroom not found")
		}
		return response.InternalServerError(c, "Failed to fetch classroom")
	}

	if h.cache != nil {
		h.cache.SetJSON(c.Context(), cacheKey, classroom, 5*time.Minute)
	}

	return response.Success(c, classroom)
}

// CreateClassroom handles POST /api/v1/classrooms
func (h *ClassroomHandler) CreateClassroom(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateClassroomRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	// Both the course and the batch must belong to the caller's university,
	// and the batch must be linked to the course's department.
	var course model.Course
	err := h.db.Model(&model.Course{}).
		Joins("JOIN departments ON departments.id = courses.department_id").
		Where("courses.id = ? AND departments.university_id = ?", req.CourseID, user.UniversityID).
		First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.BadRequest(c, "Course does not exist")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var junction model.DepartmentBatch
	err = h.db.Where("department_id = ? AND batch_id = ?", course.DepartmentID, req.BatchID).First(&junction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.BadRequest(c, "Batch is not linked to the course's department")
		}
		return response.InternalServerError(c, "Failed to fetch batch link")
	}

	classroom := model.Classroom{
		CourseID: course.ID,
		BatchID:  req.BatchID,
		Name:     req.Name,
		Section:  req.Section,
	}
	if err := h.db.Create(&classroom).Error; err != nil {
		return response.InternalServerError(c, "Failed to create classroom")
	}

	h.audit.Log(c.Context(), user.ID, "classroom_create", "classrooms", classroom.ID, req, c.IP())
	return response.Created(c, classroom)
}

// UpdateClassroom handles PUT /api/v1/classrooms/:id
func (h *ClassroomHandler) UpdateClassroom(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid classroom id")
	}

	var req UpdateClassroomRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var classroom model.Classroom
	err = h.tenantClassrooms(user.UniversityID).Where("classrooms.id = ?", id).First(&classroom).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Classroom not found")
		}
		return response.InternalServerError(c, "Failed to fetch classroom")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Section != "" {
		updates["section"] = req.Section
	}
	if len(updates) > 0 {
		if err := h.db.Model(&classroom).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update classroom")
		}
	}

	h.audit.Log(c.Context(), user.ID, "classroom_update", "classrooms", classroom.ID, updates, c.IP())
	return response.Success(c, classroom)
}

// DeleteClassroom handles DELETE /api/v1/classrooms/:id
func (h *ClassroomHandler) DeleteClassroom(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid classroom id")
	}

	summary, err := h.cascade.Delete(c.Context(), cascade.KindClassroom, uint(id), user.UniversityID)
	if err != nil {
		var cleanup *cascade.CleanupError
		switch {
		case errors.Is(err, cascade.ErrNotFound):
			return response.NotFound(c, "Classroom not found")
		case errors.As(err, &cleanup):
			h.audit.Log(c.Context(), user.ID, "classroom_delete", "classrooms", uint(id), summary, c.IP())
			return response.SuccessWithMessage(c,
				"Classroom deleted, but some linked files could not be removed; verify them separately", summary)
		default:
			return response.InternalServerError(c, "Failed to delete classroom")
		}
	}

	h.audit.Log(c.Context(), user.ID, "classroom_delete", "classrooms", uint(id), summary, c.IP())
	return response.SuccessWithMessage(c, "Classroom deleted", summary)
}
