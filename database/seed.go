package database

import (
	"fmt"
	"log"
	"os"

	"github.com/campusgrid/campus-api/model"
	"gorm.io/gorm"
)

// RunSeeds populates a fresh database with a demo university, its academic
// structure and an admin user. Safe to re-run: existing rows are kept.
func RunSeeds(db *gorm.DB) error {
	university, err := seedUniversity(db)
	if err != nil {
		return err
	}

	if err := seedAdminUser(db, university.ID); err != nil {
		return err
	}

	departments, err := seedDepartments(db, university.ID)
	if err != nil {
		return err
	}

	return seedBatches(db, university.ID, departments)
}

func seedUniversity(db *gorm.DB) (*model.University, error) {
	university := model.University{
		Name:     "Demo State University",
		Code:     "DSU",
		Location: "Springfield",
	}

	err := db.Where("code = ?", university.Code).FirstOrCreate(&university).Error
	if err != nil {
		return nil, fmt.Errorf("seed university: %w", err)
	}

	log.Printf("University: %s (id %d)", university.Name, university.ID)
	return &university, nil
}

// seedAdminUser creates the tenant admin from ADMIN_EMAIL and
// ADMIN_IDENTITY_ID. Skipped when either is unset; admins authenticate
// through the identity provider, so the identity record must already exist.
func seedAdminUser(db *gorm.DB, universityID uint) error {
	email := os.Getenv("ADMIN_EMAIL")
	identityID := os.Getenv("ADMIN_IDENTITY_ID")
	if email == "" || identityID == "" {
		log.Println("ADMIN_EMAIL / ADMIN_IDENTITY_ID not set, skipping admin user")
		return nil
	}

	admin := model.User{
		UniversityID: universityID,
		IdentityID:   identityID,
		Email:        email,
		Name:         "Administrator",
		Role:         "admin",
	}
	err := db.Where("email = ?", email).FirstOrCreate(&admin).Error
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	log.Printf("Admin user: %s (id %d)", admin.Email, admin.ID)
	return nil
}

func seedDepartments(db *gorm.DB, universityID uint) ([]model.Department, error) {
	seeds := []model.Department{
		{UniversityID: universityID, Name: "Computer Science & Engineering", Code: "CSE"},
		{UniversityID: universityID, Name: "Electronics & Communication", Code: "ECE"},
		{UniversityID: universityID, Name: "Mechanical Engineering", Code: "ME"},
	}

	for i := range seeds {
		err := db.Where("university_id = ? AND code = ?", universityID, seeds[i].Code).
			FirstOrCreate(&seeds[i]).Error
		if err != nil {
			return nil, fmt.Errorf("seed department %s: %w", seeds[i].Code, err)
		}

		group := model.DepartmentGroup{DepartmentID: seeds[i].ID, Name: seeds[i].Name}
		err = db.Where("department_id = ?", seeds[i].ID).FirstOrCreate(&group).Error
		if err != nil {
			return nil, fmt.Errorf("seed department group %s: %w", seeds[i].Code, err)
		}
	}

	log.Printf("Departments: %d", len(seeds))
	return seeds, nil
}

func seedBatches(db *gorm.DB, universityID uint, departments []model.Department) error {
	seeds := []model.Batch{
		{UniversityID: universityID, Name: "2023-2027", StartYear: 2023, EndYear: 2027},
		{UniversityID: universityID, Name: "2024-2028", StartYear: 2024, EndYear: 2028},
	}

	for i := range seeds {
		err := db.Where("university_id = ? AND name = ?", universityID, seeds[i].Name).
			FirstOrCreate(&seeds[i]).Error
		if err != nil {
			return fmt.Errorf("seed batch %s: %w", seeds[i].Name, err)
		}

		group := model.BatchGroup{BatchID: seeds[i].ID, Name: seeds[i].Name}
		err = db.Where("batch_id = ?", seeds[i].ID).FirstOrCreate(&group).Error
		if err != nil {
			return fmt.Errorf("seed batch group %s: %w", seeds[i].Name, err)
		}

		// Link every department to every batch.
		for _, dept := range departments {
			junction := model.DepartmentBatch{DepartmentID: dept.ID, BatchID: seeds[i].ID}
			err = db.Where("department_id = ? AND batch_id = ?", dept.ID, seeds[i].ID).
				FirstOrCreate(&junction).Error
			if err != nil {
				return fmt.Errorf("seed department batch link: %w", err)
			}
		}
	}

	log.Printf("Batches: %d", len(seeds))
	return nil
}
