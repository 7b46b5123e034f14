package cascade

import (
	"context"
	"errors"

	"github.com/campusgrid/campus-api/model"
	"gorm.io/gorm"
)

// Root is a resolved aggregate root, loaded with just enough of its
// identifying relations to seed the planner.
type Root struct {
	Kind         Kind
	ID           uint
	UniversityID uint

	// Set when Kind is KindFaculty / KindStudent
	Faculty *model.Faculty
	Student *model.Student
}

// Resolver loads a deletion target and verifies it belongs to the acting
// tenant. It performs reads only.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a new resolver
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve loads the entity identified by (kind, id) and fails with
// ErrNotFound if it does not exist or is owned by a different university.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, id uint, universityID uint) (*Root, error) {
	db := r.db.WithContext(ctx)

	switch kind {
	case KindDepartment:
		var dept model.Department
		if err := db.Where("id = ? AND university_id = ?", id, universityID).First(&dept).Error; err != nil {
			return nil, notFoundOr(err)
		}
		return &Root{Kind: kind, ID: dept.ID, UniversityID: dept.UniversityID}, nil

	case KindBatch:
		var batch model.Batch
		if err := db.Where("id = ? AND university_id = ?", id, universityID).First(&batch).Error; err != nil {
			return nil, notFoundOr(err)
		}
		return &Root{Kind: kind, ID: batch.ID, UniversityID: batch.UniversityID}, nil

	case KindCourse:
		var course model.Course
		err := db.
			Joins("JOIN departments ON departments.id = courses.department_id").
			Where("courses.id = ? AND departments.university_id = ?", id, universityID).
			First(&course).Error
		if err != nil {
			return nil, notFoundOr(err)
		}
		return &Root{Kind: kind, ID: course.ID, UniversityID: universityID}, nil

	case KindClassroom:
		var classroom model.Classroom
		err := db.
			Joins("JOIN courses ON courses.id = classrooms.course_id").
			Joins("JOIN departments ON departments.id = courses.department_id").
			Where("classrooms.id = ? AND departments.university_id = ?", id, universityID).
			First(&classroom).Error
		if err != nil {
			return nil, notFoundOr(err)
		}
		return &Root{Kind: kind, ID: classroom.ID, UniversityID: universityID}, nil

	case KindFaculty:
		var faculty model.Faculty
		err := db.
			Preload("User").
			Joins("JOIN departments ON departments.id = faculties.department_id").
			Where("faculties.id = ? AND departments.university_id = ?", id, universityID).
			First(&faculty).Error
		if err != nil {
			return nil, notFoundOr(err)
		}
		if faculty.User.ID == 0 {
			return nil, &MalformedGraphError{Detail: "faculty row has no user"}
		}
		return &Root{Kind: kind, ID: faculty.ID, UniversityID: universityID, Faculty: &faculty}, nil

	case KindStudent:
		var student model.Student
		err := db.
			Preload("User").
			Joins("JOIN department_batches ON department_batches.id = students.department_batch_id").
			Joins("JOIN departments ON departments.id = department_batches.department_id").
			Where("students.id = ? AND departments.university_id = ?", id, universityID).
			First(&student).Error
		if err != nil {
			return nil, notFoundOr(err)
		}
		if student.User.ID == 0 {
			return nil, &MalformedGraphError{Detail: "student row has no user"}
		}
		return &Root{Kind: kind, ID: student.ID, UniversityID: universityID, Student: &student}, nil
	}

	return nil, ErrNotFound
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
