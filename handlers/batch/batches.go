package batch

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

// BatchHandler handles batch-related requests
type BatchHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	cascade   *cascade.Service
	audit     *services.AuditService
	cache     *cache.RedisCache
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(db *gorm.DB, cascadeSvc *cascade.Service, auditSvc *services.AuditService, cacheClient *cache.RedisCache) *BatchHandler {
	return &BatchHandler{
		db:        db,
		validator: validation.NewValidator(),
		cascade:   cascadeSvc,
		audit:     auditSvc,
		cache:     cacheClient,
	}
}

// CreateBatchRequest represents the request body for creating a batch
type CreateBatchRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=255"`
	StartYear     int    `json:"start_year" validate:"required,gte=2000,lte=2100"`
	EndYear       int    `json:"end_year" validate:"required,gte=2000,lte=2100"`
	DepartmentIDs []uint `json:"department_ids" validate:"omitempty,dive,gt=0"`
}

// UpdateBatchRequest represents the request body for updating a batch
type UpdateBatchRequest struct {
	Name      string `json:"name" validate:"omitempty,min=2,max=255"`
	StartYear int    `json:"start_year" validate:"omitempty,gte=2000,lte=2100"`
	EndYear   int    `json:"end_year" validate:"omitempty,gte=2000,lte=2100"`
}

// ListBatches handles GET /api/v1/batches
func (h *BatchHandler) ListBatches(c *fiber.Ctx) error {
	universityID, ok := middleware.GetUniversityID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	query := h.db.Model(&model.Batch{}).Where("university_id = ?", universityID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count batches")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var batches []model.Batch
	if err := query.Order("start_year DESC").Limit(limit).Offset(offset).Find(&batches).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch batches")
	}

	return response.Paginated(c, batches, pagination)
}

// GetBatch handles GET /api/v1/batches/:id
func (h *BatchHandler) GetBatch(c *fiber.Ctx) error {
	universityID, ok := middleware.GetUniversityID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id := c.Params("id")
	cacheKey := cache.TenantKeyPrefix(universityID) + "batch:" + id

	if h.cache != nil {
		var cached model.Batch
		if err := h.cache.GetJSON(c.Context(), cacheKey, &cached); err == nil {
			return response.Success(c, cached)
		}
	}

	var batch model.Batch
	err := h.db.Where("id = ? AND university_id = ?", id, universityID).First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Batch not found")
		}
		return response.InternalServerError(c, "Failed to fetch batch")
	}

	if h.cache != nil {
		h.cache.SetJSON(c.Context(), cacheKey, batch, 5*time.Minute)
	}

	return response.Success(c, batch)
}

// CreateBatch handles POST /api/v1/batches
func (h *BatchHandler) CreateBatch(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}
	if req.EndYear < req.StartYear {
		return response.BadRequest(c, "End year must not precede start year")
	}

	batch := model.Batch{
		UniversityID: user.UniversityID,
		Name:         req.Name,
		StartYear:    req.StartYear,
		EndYear:      req.EndYear,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}
		group := model.BatchGroup{
			BatchID: batch.ID,
			Name:    batch.Name,
		}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		// Link the batch to each department, verifying tenant ownership.
		for _, deptID := range req.DepartmentIDs {
			var dept model.Department
			if err := tx.Where("id = ? AND university_id = ?", deptID, user.UniversityID).First(&dept).Error; err != nil {
				return err
			}
			junction := model.DepartmentBatch{
				DepartmentID: dept.ID,
				BatchID:      batch.ID,
			}
			if err := tx.Create(&junction).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.BadRequest(c, "One or more departments do not exist")
		}
		return response.InternalServerError(c, "Failed to create batch")
	}

	h.audit.Log(c.Context(), user.ID, "batch_create", "batches", batch.ID, req, c.IP())
	return response.Created(c, batch)
}

// UpdateBatch handles PUT /api/v1/batches/:id
func (h *BatchHandler) UpdateBatch(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid batch id")
	}

	var req UpdateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var batch model.Batch
	err = h.db.Where("id = ? AND university_id = ?", id, user.UniversityID).First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Batch not found")
		}
		return response.InternalServerError(c, "Failed to fetch batch")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.StartYear != 0 {
		updates["start_year"] = req.StartYear
	}
	if req.EndYear != 0 {
		updates["end_year"] = req.EndYear
	}
	if len(updates) > 0 {
		if err := h.db.Model(&batch).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update batch")
		}
	}

	h.audit.Log(c.Context(), user.ID, "batch_update", "batches", batch.ID, updates, c.IP())
	return response.Success(c, batch)
}

// DeleteBatch handles DELETE /api/v1/batches/:id
func (h *BatchHandler) DeleteBatch(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid batch id")
	}

	summary, err := h.cascade.Delete(c.Context(), cascade.KindBatch, uint(id), user.UniversityID)
	if err != nil {
		var cleanup *cascade.CleanupError
		switch {
		case errors.Is(err, cascade.ErrNotFound):
			return response.NotFound(c, "Batch not found")
		case errors.As(err, &cleanup):
			h.audit.Log(c.Context(), user.ID, "batch_delete", "batches", uint(id), summary, c.IP())
			return response.SuccessWithMessage(c,
				"Batch deleted, but some linked accounts could not be removed; verify them separately", summary)
		default:
			return response.InternalServerError(c, "Failed to delete batch")
		}
	}

	h.audit.Log(c.Context(), user.ID, "batch_delete", "batches", uint(id), summary, c.IP())
	return response.SuccessWithMessage(c, "Batch deleted", summary)
}
