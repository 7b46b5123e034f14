package cascade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/campusgrid/campus-api/model"
	"github.com/campusgrid/campus-api/services/identity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ====================================================================
// SETUP
// ====================================================================

var seq uint64

// nextN returns a process-unique suffix so seeded rows never collide with
// earlier runs against the same database.
func nextN() uint64 {
	return atomic.AddUint64(&seq, 1)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// testDB connects to the test database, skipping the test when it is not
// reachable. Set TEST_DB_* to point at a disposable PostgreSQL instance.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	if os.Getenv("TEST_DB_NAME") == "" {
		t.Skip("TEST_DB_NAME not set; skipping integration test")
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		getEnvOrDefault("TEST_DB_HOST", "localhost"),
		getEnvOrDefault("TEST_DB_USER", "postgres"),
		getEnvOrDefault("TEST_DB_PASSWORD", "postgres"),
		os.Getenv("TEST_DB_NAME"),
		getEnvOrDefault("TEST_DB_PORT", "5432"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("cannot connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.University{}, &model.UniAdministration{}, &model.User{},
		&model.Faculty{}, &model.Student{},
		&model.Department{}, &model.DepartmentGroup{},
		&model.Batch{}, &model.BatchGroup{}, &model.DepartmentBatch{},
		&model.Course{},
		&model.Classroom{}, &model.ClassroomTeacher{}, &model.Enrollment{},
		&model.ClassroomThread{}, &model.ClassroomPost{}, &model.ClassroomPostAttachment{},
		&model.Assignment{}, &model.Submission{}, &model.SubmissionAttachment{},
		&model.Forum{}, &model.Thread{}, &model.ThreadPost{}, &model.ThreadPostAttachment{},
		&model.CustomGroup{}, &model.CustomGroupMember{},
		&model.AdminAuditLog{}, &model.CronJobLog{}, &model.JWTTokenBlacklist{}, &model.ServiceKey{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

// fakeIdentity records delete calls and can be told to fail or report the
// account as already gone.
type fakeIdentity struct {
	deleted []string
	failIDs map[string]bool
	missing map[string]bool
}

func (f *fakeIdentity) DeleteUser(ctx context.Context, identityID string) error {
	if f.failIDs[identityID] {
		return errors.New("provider unavailable")
	}
	if f.missing[identityID] {
		return identity.ErrUserNotFound
	}
	f.deleted = append(f.deleted, identityID)
	return nil
}

// fakeBlobs records purge calls and can be told to fail specific keys.
type fakeBlobs struct {
	deleted  []string
	failKeys map[string]bool
}

func (f *fakeBlobs) DeleteMany(ctx context.Context, keys []string) []string {
	var failed []string
	for _, k := range keys {
		if f.failKeys[k] {
			failed = append(failed, k)
			continue
		}
		f.deleted = append(f.deleted, k)
	}
	return failed
}

// fixture is one seeded tenant with a department, a batch linked to it, a
// course, a classroom with a full content subtree, one faculty member and one
// student.
type fixture struct {
	university model.University
	department model.Department
	batch      model.Batch
	junction   model.DepartmentBatch
	course     model.Course
	classroom  model.Classroom
	faculty    model.Faculty
	student    model.Student
}

func seedTenant(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	n := nextN()
	f := &fixture{}

	f.university = model.University{Name: fmt.Sprintf("Test University %d", n), Code: fmt.Sprintf("TU%d", n)}
	mustCreate(t, db, &f.university)

	f.department = model.Department{UniversityID: f.university.ID, Name: "Computer Science", Code: "CSE"}
	mustCreate(t, db, &f.department)
	mustCreate(t, db, &model.DepartmentGroup{DepartmentID: f.department.ID, Name: "CSE"})

	f.batch = model.Batch{UniversityID: f.university.ID, Name: "2024-2028", StartYear: 2024, EndYear: 2028}
	mustCreate(t, db, &f.batch)
	mustCreate(t, db, &model.BatchGroup{BatchID: f.batch.ID, Name: "2024-2028"})

	f.junction = model.DepartmentBatch{DepartmentID: f.department.ID, BatchID: f.batch.ID}
	mustCreate(t, db, &f.junction)

	f.course = model.Course{DepartmentID: f.department.ID, Name: "Algorithms", Code: fmt.Sprintf("CS%d", n)}
	mustCreate(t, db, &f.course)

	f.classroom = model.Classroom{CourseID: f.course.ID, BatchID: f.batch.ID, Name: "Algorithms A"}
	mustCreate(t, db, &f.classroom)

	facultyUser := model.User{
		UniversityID: f.university.ID,
		IdentityID:   fmt.Sprintf("idp_fac_%d", n),
		Email:        fmt.Sprintf("fac%d@example.edu", n),
		Name:         "Prof. Seed",
		Role:         "faculty",
	}
	mustCreate(t, db, &facultyUser)
	f.faculty = model.Faculty{DepartmentID: f.department.ID, UserID: facultyUser.ID, Designation: "Professor"}
	mustCreate(t, db, &f.faculty)
	f.faculty.User = facultyUser

	studentUser := model.User{
		UniversityID: f.university.ID,
		IdentityID:   fmt.Sprintf("idp_stu_%d", n),
		Email:        fmt.Sprintf("stu%d@example.edu", n),
		Name:         "Student Seed",
		Role:         "student",
	}
	mustCreate(t, db, &studentUser)
	f.student = model.Student{DepartmentBatchID: f.junction.ID, UserID: studentUser.ID, RollNumber: fmt.Sprintf("R%d", n)}
	mustCreate(t, db, &f.student)
	f.student.User = studentUser

	// Classroom content: the faculty member opens an assignment thread, the
	// student submits with an attachment and replies in a discussion thread.
	mustCreate(t, db, &model.ClassroomTeacher{ClassroomID: f.classroom.ID, UserID: facultyUser.ID})
	mustCreate(t, db, &model.Enrollment{ClassroomID: f.classroom.ID, StudentID: f.student.ID})

	assignThread := model.ClassroomThread{ClassroomID: f.classroom.ID, Type: model.ThreadTypeAssignment, Title: "Homework 1"}
	mustCreate(t, db, &assignThread)
	mainPost := model.ClassroomPost{ThreadID: assignThread.ID, AuthorID: facultyUser.ID, Body: "Solve problems 1-5"}
	mustCreate(t, db, &mainPost)
	if err := db.Model(&assignThread).Update("main_post_id", mainPost.ID).Error; err != nil {
		t.Fatalf("link main post: %v", err)
	}

	assignment := model.Assignment{ClassroomID: f.classroom.ID, ThreadID: assignThread.ID, Title: "Homework 1"}
	mustCreate(t, db, &assignment)
	submission := model.Submission{AssignmentID: assignment.ID, StudentID: f.student.ID}
	mustCreate(t, db, &submission)
	mustCreate(t, db, &model.SubmissionAttachment{
		SubmissionID: submission.ID,
		FileName:     "hw1.pdf",
		StorageKey:   fmt.Sprintf("submissions/%d/hw1.pdf", n),
	})

	discussion := model.ClassroomThread{ClassroomID: f.classroom.ID, Title: "Questions"}
	mustCreate(t, db, &discussion)
	reply := model.ClassroomPost{ThreadID: discussion.ID, AuthorID: studentUser.ID, Body: "Is problem 3 graded?"}
	mustCreate(t, db, &reply)
	mustCreate(t, db, &model.ClassroomPostAttachment{
		PostID:     reply.ID,
		FileName:   "sketch.png",
		StorageKey: fmt.Sprintf("posts/%d/sketch.png", n),
	})

	// Campus content: the student also runs a forum and a study group.
	forum := model.Forum{UniversityID: f.university.ID, CreatorID: studentUser.ID, Name: "Algo Help"}
	mustCreate(t, db, &forum)
	thread := model.Thread{ForumID: forum.ID, Title: "Complexity cheat sheet"}
	mustCreate(t, db, &thread)
	forumPost := model.ThreadPost{ThreadID: thread.ID, AuthorID: studentUser.ID, Body: "Pinned notes"}
	mustCreate(t, db, &forumPost)
	if err := db.Model(&thread).Update("main_post_id", forumPost.ID).Error; err != nil {
		t.Fatalf("link forum main post: %v", err)
	}

	group := model.CustomGroup{UniversityID: f.university.ID, CreatorID: studentUser.ID, Name: "Study Group"}
	mustCreate(t, db, &group)
	mustCreate(t, db, &model.CustomGroupMember{GroupID: group.ID, UserID: studentUser.ID})

	return f
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}

func countWhere(t *testing.T, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(m).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("count %T: %v", m, err)
	}
	return count
}

// ====================================================================
// SCENARIOS
// ====================================================================

func TestDeleteBatchRemovesFullSubtree(t *testing.T) {
	db := testDB(t)
	f := seedTenant(t, db)
	idp := &fakeIdentity{}
	blobs := &fakeBlobs{}
	svc := NewService(db, idp, blobs, nil)

	summary, err := svc.Delete(context.Background(), KindBatch, f.batch.ID, f.university.ID)
	if err != nil {
		t.Fatalf("delete batch: %v", err)
	}

	if n := countWhere(t, db, &model.Batch{}, "id = ?", f.batch.ID); n != 0 {
		t.Error("batch row survived")
	}
	if n := countWhere(t, db, &model.BatchGroup{}, "batch_id = ?", f.batch.ID); n != 0 {
		t.Error("batch group survived")
	}
	if n := countWhere(t, db, &model.DepartmentBatch{}, "batch_id = ?", f.batch.ID); n != 0 {
		t.Error("junction rows survived")
	}
	if n := countWhere(t, db, &model.Classroom{}, "id = ?", f.classroom.ID); n != 0 {
		t.Error("classroom survived")
	}
	if n := countWhere(t, db, &model.Student{}, "id = ?", f.student.ID); n != 0 {
		t.Error("student survived")
	}
	if n := countWhere(t, db, &model.User{}, "id = ?", f.student.UserID); n != 0 {
		t.Error("student user survived")
	}

	// The batch cascade reaches the student but not the faculty member: the
	// faculty belongs to the department, not the batch.
	if n := countWhere(t, db, &model.Faculty{}, "id = ?", f.faculty.ID); n != 1 {
		t.Error("faculty should survive a batch delete")
	}
	if n := countWhere(t, db, &model.Department{}, "id = ?", f.department.ID); n != 1 {
		t.Error("department should survive a batch delete")
	}
	if n := countWhere(t, db, &model.Course{}, "id = ?", f.course.ID); n != 1 {
		t.Error("course should survive a batch delete")
	}

	if len(idp.deleted) != 1 || idp.deleted[0] != f.student.User.IdentityID {
		t.Errorf("expected one identity deletion for the student, got %v", idp.deleted)
	}
	if summary.IdentityDeleted != 1 {
		t.Errorf("summary.IdentityDeleted = %d, want 1", summary.IdentityDeleted)
	}
	// The submission attachment is reachable both through the classroom and
	// through the student; it must still be purged only once.
	if len(blobs.deleted) != 2 {
		t.Errorf("expected each attachment blob purged exactly once, got %v", blobs.deleted)
	}
	if summary.BlobsDeleted != 2 {
		t.Errorf("summary.BlobsDeleted = %d, want 2", summary.BlobsDeleted)
	}
}

func TestDeleteDepartmentRemovesFacultyAndStudents(t *testing.T) {
	db := testDB(t)
	f := seedTenant(t, db)
	idp := &fakeIdentity{}
	svc := NewService(db, idp, &fakeBlobs{}, nil)

	_, err := svc.Delete(context.Background(), KindDepartment, f.department.ID, f.university.ID)
	if err != nil {
		t.Fatalf("delete department: %v", err)
	}

	if n := countWhere(t, db, &model.Department{}, "id = ?", f.department.ID); n != 0 {
		t.Error("department survived")
	}
	if n := countWhere(t, db, &model.Course{}, "id = ?", f.course.ID); n != 0 {
		t.Error("course survived")
	}
	if n := countWhere(t, db, &model.Faculty{}, "id = ?", f.faculty.ID); n != 0 {
		t.Error("faculty survived")
	}
	if n := countWhere(t, db, &model.Student{}, "id = ?", f.student.ID); n != 0 {
		t.Error("student survived")
	}
	if n := countWhere(t, db, &model.Forum{}, "creator_id = ?", f.student.UserID); n != 0 {
		t.Error("student's forum survived")
	}
	if n := countWhere(t, db, &model.CustomGroup{}, "creator_id = ?", f.student.UserID); n != 0 {
		t.Error("student's group survived")
	}

	// The batch itself belongs to the university and survives; only its link
	// to the department is removed.
	if n := countWhere(t, db, &model.Batch{}, "id = ?", f.batch.ID); n != 1 {
		t.Error("batch should survive a department delete")
	}

	if len(idp.deleted) != 2 {
		t.Errorf("expected identity deletions for faculty and student, got %v", idp.deleted)
	}
}

func TestDeleteEmptyCourseIsNoOp(t *testing.T) {
	db := testDB(t)
	f := seedTenant(t, db)
	svc := NewService(db, &fakeIdentity{}, nil, nil)

	empty := model.Course{DepartmentID: f.department.ID, Name: "Seminar", Code: fmt.Sprintf("SEM%d", nextN())}
	mustCreate(t, db, &empty)

	summary, err := svc.Delete(context.Background(), KindCourse, empty.ID, f.university.ID)
	if err != nil {
		t.Fatalf("delete empty course: %v", err)
	}
	if summary.RowsDeleted["courses"] != 1 {
		t.Errorf("expected exactly the course row deleted, got %v", summary.RowsDeleted)
	}

	// Deleting it again reports not found.
	_, err = svc.Delete(context.Background(), KindCourse, empty.ID, f.university.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestTenantIsolation(t *testing.T) {
	db := testDB(t)
	f := seedTenant(t, db)
	other := seedTenant(t, db)
	svc := NewService(db, &fakeIdentity{}, nil, nil)

	// A tenant cannot delete another tenant's entities; the error is the same
	// as for a nonexistent id.
	_, err := svc.Delete(context.Background(), KindDepartment, f.department.ID, other.university.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant delete: got %v, want ErrNotFound", err)
	}
	if n := countWhere(t, db, &model.Department{}, "id = ?", f.department.ID); n != 1 {
		t.Error("department should be untouched")
	}

	// Deleting one tenant's batch leaves the other tenant intact.
	if _, err := svc.Delete(context.Background(), KindBatch, f.batch.ID, f.university.ID); err != nil {
		t.Fatalf("delete batch: %v", err)
	}
	if n := countWhere(t, db, &model.Student{}, "id = ?", other.student.ID); n != 1 {
		t.Error("other tenant's student should be untouched")
	}
}

func TestMultiWrapperUserIsMalformed(t *testing.T) {
	db := testDB(t)
	f := seedTenant(t, db)
	idp := &fakeIdentity{}
	svc := NewService(db, idp, nil, nil)

	// The student's user is also wrapped by a faculty row. Deleting either
	// wrapper would leave the other dangling, so the cascade must refuse.
	rogue := model.Faculty{DepartmentID: f.department.ID, UserID: f.student.UserID, Designation: "Adjunct"}
	mustCreate(t, db, &rogue)

	_, err := svc.Delete(context.Background(), KindStudent, f.student.ID, f.university.ID)
	var malformed *MalformedGraphError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want *MalformedGraphError", err)
	}

	// Planning failed before any transaction opened, so nothing was touched.
	if n := countWhere(t, db, &model.Student{}, "id = ?", f.student.ID); n != 1 {
		t.Error("student row should be untouched")
	}
	if n := countWhere(t, db, &model.User{}, "id = ?", f.student.UserID); n != 1 {
		t.Error("user row should be untouched")
	}
	if n := countWhere(t, db, &model.Faculty{}, "id = ?", rogue.ID); n != 1 {
		t.Error("second wrapper row should be untouched")
	}
	if n := countWhere(t, db, &model.Submission{}, "student_id = ?", f.student.ID); n != 1 {
		t.Error("submission should be untouched")
	}
	if len(idp.deleted) != 0 {
		t.Error("no identity deletion may run for a malformed graph")
	}

	// The other wrapper is refused the same way.
	_, err = svc.Delete(context.Background(), KindFaculty, rogue.ID, f.university.ID)
	if !errors.As(err, &malformed) {
		t.Errorf("faculty wrapper: got %v, want *MalformedGraphError", err)
	}
}

func TestTransactionFailureRollsBackEverything(t *testing.T) {
	db := testDB(t)
	f := seedTenant(t, db)
	idp := &fakeIdentity{}

	resolver := NewResolver(db)
	planner := NewPlanner(db)
	executor := NewExecutor(db, idp, nil)

	// Fail just before the last step. Every earlier deletion must roll back.
	forced := errors.New("forced failure")
	executor.beforeStep = func(s Step) error {
		if s.Table == "batches" {
			return forced
		}
		return nil
	}

	root, err := resolver.Resolve(context.Background(), KindBatch, f.batch.ID, f.university.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	plan, err := planner.Plan(context.Background(), root)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	summary, err := executor.Execute(context.Background(), plan)
	var txErr *TransactionError
	if !errors.As(err, &txErr) {
		t.Fatalf("got %v, want *TransactionError", err)
	}
	if !errors.Is(err, forced) {
		t.Error("transaction error should wrap the forced failure")
	}
	if summary != nil {
		t.Error("no summary should be returned when nothing was deleted")
	}

	if n := countWhere(t, db, &model.Batch{}, "id = ?", f.batch.ID); n != 1 {
		t.Error("batch should be intact after rollback")
	}
	if n := countWhere(t, db, &model.Student{}, "id = ?", f.student.ID); n != 1 {
		t.Error("student should be intact after rollback")
	}
	if n := countWhere(t, db, &model.Classroom{}, "id = ?", f.classroom.ID); n != 1 {
		t.Error("classroom should be intact after rollback")
	}
	if len(idp.deleted) != 0 {
		t.Error("no identity deletion may run when the transaction fails")
	}
}

func TestIdentityFailureReportsCleanupError(t *testing.T) {
	db := testDB(t)
	f := seedTenant(t, db)
	idp := &fakeIdentity{failIDs: map[string]bool{f.student.User.IdentityID: true}}
	svc := NewService(db, idp, nil, nil)

	summary, err := svc.Delete(context.Background(), KindStudent, f.student.ID, f.university.ID)

	var cleanup *CleanupError
	if !errors.As(err, &cleanup) {
		t.Fatalf("got %v, want *CleanupError", err)
	}
	if len(cleanup.IdentityIDs) != 1 || cleanup.IdentityIDs[0] != f.student.User.IdentityID {
		t.Errorf("cleanup should list the failed identity, got %v", cleanup.IdentityIDs)
	}
	if summary == nil {
		t.Fatal("relational deletion committed, summary must be returned")
	}

	// The relational deletion is final even though the provider call failed.
	if n := countWhere(t, db, &model.Student{}, "id = ?", f.student.ID); n != 0 {
		t.Error("student row should be gone")
	}
	if n := countWhere(t, db, &model.User{}, "id = ?", f.student.UserID); n != 0 {
		t.Error("user row should be gone")
	}
}

func TestIdentityAlreadyGoneIsNotAFailure(t *testing.T) {
	db := testDB(t)
	f := seedTenant(t, db)
	idp := &fakeIdentity{missing: map[string]bool{f.faculty.User.IdentityID: true}}
	svc := NewService(db, idp, nil, nil)

	summary, err := svc.Delete(context.Background(), KindFaculty, f.faculty.ID, f.university.ID)
	if err != nil {
		t.Fatalf("delete faculty: %v", err)
	}
	if summary.IdentityDeleted != 0 {
		t.Errorf("already-gone account must not count as deleted, got %d", summary.IdentityDeleted)
	}
	if n := countWhere(t, db, &model.Faculty{}, "id = ?", f.faculty.ID); n != 0 {
		t.Error("faculty row should be gone")
	}
}

func TestDeleteFacultyClearsAuthoredContent(t *testing.T) {
	db := testDB(t)
	f := seedTenant(t, db)
	svc := NewService(db, &fakeIdentity{}, &fakeBlobs{}, nil)

	_, err := svc.Delete(context.Background(), KindFaculty, f.faculty.ID, f.university.ID)
	if err != nil {
		t.Fatalf("delete faculty: %v", err)
	}

	// The faculty member authored the assignment thread's main post, so the
	// whole thread goes, including the assignment and the student's
	// submission under it. The classroom itself survives.
	if n := countWhere(t, db, &model.ClassroomThread{}, "classroom_id = ? AND type = ?", f.classroom.ID, model.ThreadTypeAssignment); n != 0 {
		t.Error("assignment thread should be gone")
	}
	if n := countWhere(t, db, &model.Assignment{}, "classroom_id = ?", f.classroom.ID); n != 0 {
		t.Error("assignment should be gone")
	}
	if n := countWhere(t, db, &model.Submission{}, "student_id = ?", f.student.ID); n != 0 {
		t.Error("submission under the thread should be gone")
	}
	if n := countWhere(t, db, &model.ClassroomTeacher{}, "user_id = ?", f.faculty.UserID); n != 0 {
		t.Error("teaching assignment should be gone")
	}
	if n := countWhere(t, db, &model.Classroom{}, "id = ?", f.classroom.ID); n != 1 {
		t.Error("classroom should survive a faculty delete")
	}
	if n := countWhere(t, db, &model.Student{}, "id = ?", f.student.ID); n != 1 {
		t.Error("student should survive a faculty delete")
	}

	// The student's discussion reply is untouched.
	if n := countWhere(t, db, &model.ClassroomPost{}, "author_id = ?", f.student.UserID); n != 1 {
		t.Error("student's post should survive")
	}
}

func TestDeleteStudentLeavesClassroomIntact(t *testing.T) {
	db := testDB(t)
	f := seedTenant(t, db)
	blobs := &fakeBlobs{}
	svc := NewService(db, &fakeIdentity{}, blobs, nil)

	_, err := svc.Delete(context.Background(), KindStudent, f.student.ID, f.university.ID)
	if err != nil {
		t.Fatalf("delete student: %v", err)
	}

	if n := countWhere(t, db, &model.Student{}, "id = ?", f.student.ID); n != 0 {
		t.Error("student row should be gone")
	}
	if n := countWhere(t, db, &model.Submission{}, "student_id = ?", f.student.ID); n != 0 {
		t.Error("submissions should be gone")
	}
	if n := countWhere(t, db, &model.Enrollment{}, "student_id = ?", f.student.ID); n != 0 {
		t.Error("enrollment should be gone")
	}
	if n := countWhere(t, db, &model.ClassroomPost{}, "author_id = ?", f.student.UserID); n != 0 {
		t.Error("student's posts should be gone")
	}
	if n := countWhere(t, db, &model.Forum{}, "creator_id = ?", f.student.UserID); n != 0 {
		t.Error("student's forum should be gone")
	}

	// The faculty's assignment thread and the classroom survive.
	if n := countWhere(t, db, &model.Assignment{}, "classroom_id = ?", f.classroom.ID); n != 1 {
		t.Error("assignment should survive a student delete")
	}
	if n := countWhere(t, db, &model.Classroom{}, "id = ?", f.classroom.ID); n != 1 {
		t.Error("classroom should survive a student delete")
	}

	if len(blobs.deleted) != 2 {
		t.Errorf("expected the student's submission and post attachments purged, got %v", blobs.deleted)
	}
}
