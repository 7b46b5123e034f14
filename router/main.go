package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campusgrid/campus-api/config"
	"github.com/campusgrid/campus-api/database"
	"github.com/campusgrid/campus-api/handlers"
	auth_handlers "github.com/campusgrid/campus-api/handlers/auth"
	batch_handlers "github.com/campusgrid/campus-api/handlers/batch"
	classroom_handlers "github.com/campusgrid/campus-api/handlers/classroom"
	course_handlers "github.com/campusgrid/campus-api/handlers/course"
	department_handlers "github.com/campusgrid/campus-api/handlers/department"
	faculty_handlers "github.com/campusgrid/campus-api/handlers/faculty"
	student_handlers "github.com/campusgrid/campus-api/handlers/student"
	webhook_handlers "github.com/campusgrid/campus-api/handlers/webhook"
	"github.com/campusgrid/campus-api/services"
	"github.com/campusgrid/campus-api/services/cascade"
	"github.com/campusgrid/campus-api/services/identity"
	"github.com/campusgrid/campus-api/services/storage"
	"github.com/campusgrid/campus-api/utils"
	"github.com/campusgrid/campus-api/utils/auth"
	"github.com/campusgrid/campus-api/utils/cache"
	"github.com/campusgrid/campus-api/utils/middleware"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	getEnv, err := config.Get()
	if err != nil {
		log.Fatal("Failed to load environment configuration")
	}

	if getEnv.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := getEnv.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "campus-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        getEnv.JWT_SECRET,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache. Entity caching and tenant-wide invalidation
	// degrade gracefully when Redis is unreachable.
	redisURL := getEnv.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Entity caching will be disabled.", err)
		redisCache = nil
	}

	// Identity provider client (account provisioning, session verification,
	// post-cascade account deletion)
	identityClient := identity.NewClient(identity.Config{
		APIKey:  getEnv.IDENTITY_API_KEY,
		BaseURL: getEnv.IDENTITY_BASE_URL,
	})

	// Object storage client for attachment blobs. Optional: without it,
	// cascades still run but blobs are left behind.
	var blobs cascade.BlobRemover
	if getEnv.SPACES_BUCKET != "" {
		spacesClient, err := storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: getEnv.SPACES_KEY,
			SecretKey: getEnv.SPACES_SECRET,
			Bucket:    getEnv.SPACES_BUCKET,
			Region:    getEnv.SPACES_REGION,
			Endpoint:  getEnv.SPACES_ENDPOINT,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize object storage: %v. Blob purging will be disabled.", err)
		} else {
			blobs = spacesClient
		}
	}

	// Core services
	cascadeService := cascade.NewService(db, identityClient, blobs, redisCache)
	auditService := services.NewAuditService(db)
	serviceKeyManager := auth.NewServiceKeyManager(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, identityClient)
	departmentHandler := department_handlers.NewDepartmentHandler(db, cascadeService, auditService, redisCache)
	batchHandler := batch_handlers.NewBatchHandler(db, cascadeService, auditService, redisCache)
	courseHandler := course_handlers.NewCourseHandler(db, cascadeService, auditService, redisCache)
	classroomHandler := classroom_handlers.NewClassroomHandler(db, cascadeService, auditService, redisCache)
	facultyHandler := faculty_handlers.NewFacultyHandler(db, cascadeService, identityClient, auditService, redisCache)
	studentHandler := student_handlers.NewStudentHandler(db, cascadeService, identityClient, auditService, redisCache)
	webhookHandler := webhook_handlers.NewIdentityWebhookHandler(db, cascadeService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (session exchange with the identity provider)
	authGroup := api.Group("/auth")
	authGroup.Post("/session", authHandler.CreateSession)
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.GetProfile)

	// Identity provider webhooks (server-to-server, guarded by service key)
	webhooks := api.Group("/webhooks")
	webhooks.Post("/identity", middleware.RequireServiceKey(serviceKeyManager), webhookHandler.HandleEvent)

	// Departments routes
	departments := api.Group("/departments", authMiddleware.Required())
	departments.Get("/", departmentHandler.ListDepartments)
	departments.Get("/:id", departmentHandler.GetDepartment)
	departments.Post("/", middleware.RequireAdmin(), departmentHandler.CreateDepartment)
	departments.Put("/:id", middleware.RequireAdmin(), departmentHandler.UpdateDepartment)
	departments.Delete("/:id", middleware.RequireAdmin(), departmentHandler.DeleteDepartment)

	// Batches routes
	batches := api.Group("/batches", authMiddleware.Required())
	batches.Get("/", batchHandler.ListBatches)
	batches.Get("/:id", batchHandler.GetBatch)
	batches.Post("/", middleware.RequireAdmin(), batchHandler.CreateBatch)
	batches.Put("/:id", middleware.RequireAdmin(), batchHandler.UpdateBatch)
	batches.Delete("/:id", middleware.RequireAdmin(), batchHandler.DeleteBatch)

	// Courses routes
	courses := api.Group("/courses", authMiddleware.Required())
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:id", courseHandler.GetCourse)
	courses.Post("/", middleware.RequireAdmin(), courseHandler.CreateCourse)
	courses.Put("/:id", middleware.RequireAdmin(), courseHandler.UpdateCourse)
	courses.Delete("/:id", middleware.RequireAdmin(), courseHandler.DeleteCourse)

	// Classrooms routes
	classrooms := api.Group("/classrooms", authMiddleware.Required())
	classrooms.Get("/", classroomHandler.ListClassrooms)
	classrooms.Get("/:id", classroomHandler.GetClassroom)
	classrooms.Post("/", middleware.RequireAdmin(), classroomHandler.CreateClassroom)
	classrooms.Put("/:id", middleware.RequireAdmin(), classroomHandler.UpdateClassroom)
	classrooms.Delete("/:id", middleware.RequireAdmin(), classroomHandler.DeleteClassroom)

	// Faculty routes
	faculty := api.Group("/faculty", authMiddleware.Required())
	faculty.Get("/", facultyHandler.ListFaculty)
	faculty.Get("/:id", facultyHandler.GetFaculty)
	faculty.Post("/", middleware.RequireAdmin(), facultyHandler.CreateFaculty)
	faculty.Put("/:id", middleware.RequireAdmin(), facultyHandler.UpdateFaculty)
	faculty.Delete("/:id", middleware.RequireAdmin(), facultyHandler.DeleteFaculty)

	// Students routes
	students := api.Group("/students", authMiddleware.Required())
	students.Get("/", studentHandler.ListStudents)
	students.Get("/:id", studentHandler.GetStudent)
	students.Post("/", middleware.RequireAdmin(), studentHandler.CreateStudent)
	students.Put("/:id", middleware.RequireAdmin(), studentHandler.UpdateStudent)
	students.Delete("/:id", middleware.RequireAdmin(), studentHandler.DeleteStudent)
}
