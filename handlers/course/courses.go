package course

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

// CourseHandler handles course-related requests
type CourseHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	cascade   *cascade.Service
	audit     *services.AuditService
	cache     *cache.RedisCache
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, cascadeSvc *cascade.Service, auditSvc *services.AuditService, cacheClient *cache.RedisCache) *CourseHandler {
	return &CourseHandler{
		db:        db,
		validator: validation.NewValidator(),
		cascade:   cascadeSvc,
		audit:     auditSvc,
		cache:     cacheClient,
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	DepartmentID uint   `json:"department_id" validate:"required,gt=0"`
	Name         string `json:"name" validate:"required,min=2,max=255"`
	Code         string `json:"code" validate:"required,min=2,max=50"`
	Credits      int    `json:"credits" validate:"omitempty,gte=1,lte=12"`
	Description  string `json:"description" validate:"omitempty,max=2000"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Name        string `json:"name" validate:"omitempty,min=2,max=255"`
	Code        string `json:"code" validate:"omitempty,min=2,max=50"`
	Credits     int    `json:"credits" validate:"omitempty,gte=1,lte=12"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// tenantCourses scopes course queries to the caller's university through the
// owning department.
func (h *CourseHandler) tenantCourses(universityID uint) *gorm.DB {
	return h.db.Model(&model.Course{}).
		Joins("JOIN departments ON departments.id = courses.department_id").
		Where("departments.university_id = ?", universityID)
}

// ListCourses handles GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	universityID, ok := middleware.GetUniversityID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := c.Query("search")

	query := h.tenantCourses(universityID)
	if deptID := c.Query("department_id"); deptID != "" {
		query = query.Where("courses.department_id = ?", deptID)
	}
	if search != "" {
		query = query.Where("courses.name ILIKE ? OR courses.code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var courses []model.Course
	if err := query.Order("courses.code ASC").Limit(limit).Offset(offset).Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, pagination)
}

// GetCourse handles GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	universityID, ok := middleware.GetUniversityID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id := c.Params("id")
	cacheKey := cache.TenantKeyPrefix(universityID) + "course:" + id

	if h.cache != nil {
		var cached model.Course
		if err := h.cache.GetJSON(c.Context(), cacheKey, &cached); err == nil {
			return response.Success(c, cached)
		}
	}

	var course model.Course
	err := h.tenantCourses(universityID).Where("courses.id = ?", id).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if h.cache != nil {
		h.cache.SetJSON(c.Context(), cacheKey, course, 5*time.Minute)
	}

	return response.Success(c, course)
}

// CreateCourse handles POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateCourseRequest
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

	course := model.Course{
		DepartmentID: dept.ID,
		Name:         req.Name,
		Code:         req.Code,
		Credits:      req.Credits,
		Description:  req.Description,
	}
	if course.Credits == 0 {
		course.Credits = 4
	}
	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	h.audit.Log(c.Context(), user.ID, "course_create", "courses", course.ID, req, c.IP())
	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var course model.Course
	err = h.tenantCourses(user.UniversityID).Where("courses.id = ?", id).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Code != "" {
		updates["code"] = req.Code
	}
	if req.Credits != 0 {
		updates["credits"] = req.Credits
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if len(updates) > 0 {
		if err := h.db.Model(&course).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update course")
		}
	}

	h.audit.Log(c.Context(), user.ID, "course_update", "courses", course.ID, updates, c.IP())
	return response.Success(c, course)
}

// DeleteCourse handles DELETE /api/v1/courses/:id
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	summary, err := h.cascade.Delete(c.Context(), cascade.KindCourse, uint(id), user.UniversityID)
	if err != nil {
		var cleanup *cascade.CleanupError
		switch {
		case errors.Is(err, cascade.ErrNotFound):
			return response.NotFound(c, "Course not found")
		case errors.As(err, &cleanup):
			h.audit.Log(c.Context(), user.ID, "course_delete", "courses", uint(id), summary, c.IP())
			return response.SuccessWithMessage(c,
				"Course deleted, but some linked files could not be removed; verify them separately", summary)
		default:
			return response.InternalServerError(c, "Failed to delete course")
		}
	}

	h.audit.Log(c.Context(), user.ID, "course_delete", "courses", uint(id), summary, c.IP())
	return response.SuccessWithMessage(c, "Course deleted", summary)
}
