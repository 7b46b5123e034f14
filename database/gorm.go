package database

import (
	"fmt"
	"log"
	"time"

	"github.com/campusgrid/campus-api/config"
	"github.com/campusgrid/campus-api/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error

	// GORM DB access
	GetDB() interface{} // Returns *gorm.DB
}

type GORMStore struct {
	db *gorm.DB
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	// Build DSN (Data Source Name)
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	// Open GORM connection
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
	})
	if err != nil {
		log.Println("Unable to connect to PostgreSQL with GORM:", err)
		return nil, err
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL Database with GORM.")

	return &GORMStore{db: db}, nil
}

// Init runs AutoMigrate for every model, then installs the RESTRICT foreign
// keys the cascade engine relies on.
func (s *GORMStore) Init() error {
	log.Println("Running GORM AutoMigrate for all models...")

	err := s.db.AutoMigrate(
		// Tenant root and people
		&model.University{},
		&model.UniAdministration{},
		&model.User{},
		&model.Faculty{},
		&model.Student{},

		// Academic hierarchy
		&model.Department{},
		&model.DepartmentGroup{},
		&model.Batch{},
		&model.BatchGroup{},
		&model.DepartmentBatch{},
		&model.Course{},

		// Classroom aggregate
		&model.Classroom{},
		&model.ClassroomTeacher{},
		&model.Enrollment{},
		&model.ClassroomThread{},
		&model.ClassroomPost{},
		&model.ClassroomPostAttachment{},
		&model.Assignment{},
		&model.Submission{},
		&model.SubmissionAttachment{},

		// Campus discussion system
		&model.Forum{},
		&model.Thread{},
		&model.ThreadPost{},
		&model.ThreadPostAttachment{},
		&model.CustomGroup{},
		&model.CustomGroupMember{},

		// Audit & background jobs
		&model.AdminAuditLog{},
		&model.CronJobLog{},
		&model.JWTTokenBlacklist{},
		&model.ServiceKey{},
	)

	if err != nil {
		log.Println("Error running AutoMigrate:", err)
		return err
	}

	if err := InstallConstraints(); err != nil {
		log.Println("Error installing foreign key constraints:", err)
		return err
	}

	log.Println("GORM AutoMigrate completed successfully!")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing GORM PostgreSQL connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in services/handlers
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
