package student

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

// StudentHandler handles student-related requests
type StudentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	cascade   *cascade.Service
	identity  *identity.Client
	audit     *services.AuditService
	cache     *cache.RedisCache
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(db *gorm.DB, cascadeSvc *cascade.Service, identityClient *identity.Client, auditSvc *services.AuditService, cacheClient *cache.RedisCache) *StudentHandler {
	return &StudentHandler{
		db:        db,
		validator: validation.NewValidator(),
		cascade:   cascadeSvc,
		identity:  identityClient,
		audit:     auditSvc,
		cache:     cacheClient,
	}
}

// CreateStudentRequest represents the request body for creating a student
type CreateStudentRequest struct {
	DepartmentID uint   `json:"department_id" validate:"required,gt=0"`
	BatchID      uint   `json:"batch_id" validate:"required,gt=0"`
	Email        string `json:"email" validate:"required,email"`
	Name         string `json:"name" validate:"required,min=2,max=255"`
	RollNumber   string `json:"roll_number" validate:"required,min=1,max=50"`
}

// UpdateStudentRequest represents the request body for updating a student
type UpdateStudentRequest struct {
	Name       string `json:"name" validate:"omitempty,min=2,max=255"`
	RollNumber string `json:"roll_number" validate:"omitempty,min=1,max=50"`
}

// tenantStudents scopes student queries to the caller's university through the
// department/batch junction and the owning department.
func (h *StudentHandler) tenantStudents(universityID uint) *gorm.DB {
	return h.db.Model(&model.Student{}).
		Joins("JOIN department_batches ON department_batches.id = students.department_batch_id").
		Joins("JOIN departments ON departments.id = department_batches.department_id").
		Where("departments.university_id = ?", universityID)
}

// ListStudents handles GET /api/v1/students
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	universityID, ok := middleware.GetUniversityID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	query := h.tenantStudents(universityID).Preload("User")
	if deptID := c.Query("department_id"); deptID != "" {
		query = query.Where("department_batches.department_id = ?", deptID)
	}
	if batchID := c.Query("batch_id"); batchID != "" {
		query = query.Where("department_batches.batch_id = ?", batchID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count students")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var students []model.Student
	if err := query.Order("students.roll_number ASC").Limit(limit).Offset(offset).Find(&students).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch students")
	}

	return response.Paginated(c, students, pagination)
}

// GetStudent handles GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *fiber.Ctx) error {
	universityID, ok := middleware.GetUniversityID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id := c.Params("id")

	var student model.Student
	err := h.tenantStudents(universityID).Preload("User").Where("students.id = ?", id).First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to fetch student")
	}

	return response.Success(c, student)
}

// CreateStudent handles POST /api/v1/students. The student is scoped to the
// department/batch pairing, which must already exist, and the identity account
// is provisioned before any local row is written.
func (h *StudentHandler) CreateStudent(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var junction model.DepartmentBatch
	err := h.db.Model(&model.DepartmentBatch{}).
		Joins("JOIN departments ON departments.id = department_batches.department_id").
		Where("department_batches.department_id = ? AND department_batches.batch_id = ? AND departments.university_id = ?",
			req.DepartmentID, req.BatchID, user.UniversityID).
		First(&junction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.BadRequest(c, "Batch is not linked to the department")
		}
		return response.InternalServerError(c, "Failed to fetch batch link")
	}

	var existing int64
	h.db.Model(&model.User{}).Where("email = ?", req.Email).Count(&existing)
	if existing > 0 {
		return response.Conflict(c, "A user with this email already exists")
	}

	account, err := h.identity.CreateUser(c.Context(), identity.CreateAccountRequest{
		Email: req.Email,
		Name:  req.Name,
		Role:  "student",
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to provision identity account")
	}

	var student model.Student
	err = h.db.Transaction(func(tx *gorm.DB) error {
		newUser := model.User{
			UniversityID: user.UniversityID,
			IdentityID:   account.ID,
			Email:        req.Email,
			Name:         req.Name,
			Role:         "student",
		}
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}
		student = model.Student{
			DepartmentBatchID: junction.ID,
			UserID:            newUser.ID,
			RollNumber:        req.RollNumber,
		}
		if err := tx.Create(&student).Error; err != nil {
			return err
		}
		student.User = newUser
		return nil
	})
	if err != nil {
		// The local write failed after the provider accepted the account.
		// Remove the orphaned provider record so a retry can reuse the email.
		h.identity.ReleaseAccount(c.Context(), account.ID)
		return response.InternalServerError(c, "Failed to create student")
	}

	h.audit.Log(c.Context(), user.ID, "student_create", "students", student.ID, req, c.IP())
	return response.Created(c, student)
}

// UpdateStudent handles PUT /api/v1/students/:id
func (h *StudentHandler) UpdateStudent(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student id")
	}

	var req UpdateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var student model.Student
	err = h.tenantStudents(user.UniversityID).Preload("User").Where("students.id = ?", id).First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to fetch student")
	}

	if req.RollNumber != "" {
		if err := h.db.Model(&student).Update("roll_number", req.RollNumber).Error; err != nil {
			return response.InternalServerError(c, "Failed to update student")
		}
	}
	if req.Name != "" {
		if err := h.db.Model(&model.User{}).Where("id = ?", student.UserID).Update("name", req.Name).Error; err != nil {
			return response.InternalServerError(c, "Failed to update student")
		}
		student.User.Name = req.Name
		// Keep the provider-side record in sync; a failure here is not fatal.
		h.identity.UpdateUser(c.Context(), student.User.IdentityID, identity.CreateAccountRequest{
			Email: student.User.Email,
			Name:  req.Name,
			Role:  student.User.Role,
		})
	}

	h.audit.Log(c.Context(), user.ID, "student_update", "students", student.ID, req, c.IP())
	return response.Success(c, student)
}

// DeleteStudent handles DELETE /api/v1/students/:id
func (h *StudentHandler) DeleteStudent(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student id")
	}

	summary, err := h.cascade.Delete(c.Context(), cascade.KindStudent, uint(id), user.UniversityID)
	if err != nil {
		var cleanup *cascade.CleanupError
		switch {
		case errors.Is(err, cascade.ErrNotFound):
			return response.NotFound(c, "Student not found")
		case errors.As(err, &cleanup):
			h.audit.Log(c.Context(), user.ID, "student_delete", "students", uint(id), summary, c.IP())
			return response.SuccessWithMessage(c,
				"Student deleted, but the linked account could not be removed; verify it separately", summary)
		default:
			return response.InternalServerError(c, "Failed to delete student")
		}
	}

	h.audit.Log(c.Context(), user.ID, "student_delete", "students", uint(id), summary, c.IP())
	return response.SuccessWithMessage(c, "Student deleted", summary)
}
