package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/campusgrid/campus-api/config"
	_ "github.com/lib/pq"
)

// foreignKeys enumerates every ownership edge in the schema. The deletion
// engine removes children before parents in application code; these RESTRICT
// constraints make the database reject any ordering mistake instead of
// leaving orphans.
var foreignKeys = []struct {
	Name      string
	Table     string
	Column    string
	RefTable  string
	RefColumn string
}{
	{"fk_uni_administrations_university", "uni_administrations", "university_id", "universities", "id"},
	{"fk_uni_administrations_user", "uni_administrations", "user_id", "users", "id"},
	{"fk_users_university", "users", "university_id", "universities", "id"},
	{"fk_departments_university", "departments", "university_id", "universities", "id"},
	{"fk_department_groups_department", "department_groups", "department_id", "departments", "id"},
	{"fk_batches_university", "batches", "university_id", "universities", "id"},
	{"fk_batch_groups_batch", "batch_groups", "batch_id", "batches", "id"},
	{"fk_department_batches_department", "department_batches", "department_id", "departments", "id"},
	{"fk_department_batches_batch", "department_batches", "batch_id", "batches", "id"},
	{"fk_courses_department", "courses", "department_id", "departments", "id"},
	{"fk_classrooms_course", "classrooms", "course_id", "courses", "id"},
	{"fk_classrooms_batch", "classrooms", "batch_id", "batches", "id"},
	{"fk_classroom_teachers_classroom", "classroom_teachers", "classroom_id", "classrooms", "id"},
	{"fk_classroom_teachers_user", "classroom_teachers", "user_id", "users", "id"},
	{"fk_enrollments_classroom", "enrollments", "classroom_id", "classrooms", "id"},
	{"fk_enrollments_student", "enrollments", "student_id", "students", "id"},
	{"fk_classroom_threads_classroom", "classroom_threads", "classroom_id", "classrooms", "id"},
	{"fk_classroom_posts_thread", "classroom_posts", "thread_id", "classroom_threads", "id"},
	{"fk_classroom_posts_author", "classroom_posts", "author_id", "users", "id"},
	{"fk_classroom_post_attachments_post", "classroom_post_attachments", "post_id", "classroom_posts", "id"},
	{"fk_assignments_classroom", "assignments", "classroom_id", "classrooms", "id"},
	{"fk_assignments_thread", "assignments", "thread_id", "classroom_threads", "id"},
	{"fk_submissions_assignment", "submissions", "assignment_id", "assignments", "id"},
	{"fk_submissions_student", "submissions", "student_id", "students", "id"},
	{"fk_submission_attachments_submission", "submission_attachments", "submission_id", "submissions", "id"},
	{"fk_faculties_department", "faculties", "department_id", "departments", "id"},
	{"fk_faculties_user", "faculties", "user_id", "users", "id"},
	{"fk_students_department_batch", "students", "department_batch_id", "department_batches", "id"},
	{"fk_students_user", "students", "user_id", "users", "id"},
	{"fk_forums_university", "forums", "university_id", "universities", "id"},
	{"fk_forums_creator", "forums", "creator_id", "users", "id"},
	{"fk_threads_forum", "threads", "forum_id", "forums", "id"},
	{"fk_thread_posts_thread", "thread_posts", "thread_id", "threads", "id"},
	{"fk_thread_posts_author", "thread_posts", "author_id", "users", "id"},
	{"fk_thread_post_attachments_post", "thread_post_attachments", "post_id", "thread_posts", "id"},
	{"fk_custom_groups_university", "custom_groups", "university_id", "universities", "id"},
	{"fk_custom_groups_creator", "custom_groups", "creator_id", "users", "id"},
	{"fk_custom_group_members_group", "custom_group_members", "group_id", "custom_groups", "id"},
	{"fk_custom_group_members_user", "custom_group_members", "user_id", "users", "id"},
}

// InstallConstraints opens a plain database/sql connection and installs every
// RESTRICT foreign key that is not already present.
func InstallConstraints() error {
	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	connectStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv.DB_HOST, getEnv.DB_PORT, getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD, getEnv.DB_NAME, getEnv.DB_SSL_MODE,
	)

	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		return err
	}
	defer db.Close()

	var stmts []string
	for _, fk := range foreignKeys {
		stmts = append(stmts, fmt.Sprintf(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
				ALTER TABLE %s
					ADD CONSTRAINT %s
					FOREIGN KEY (%s) REFERENCES %s(%s)
					ON DELETE RESTRICT;
			END IF;
		END $$;`,
			fk.Name, fk.Table, fk.Name, fk.Column, fk.RefTable, fk.RefColumn))
	}

	if _, err := db.Exec(strings.Join(stmts, "\n")); err != nil {
		return err
	}

	log.Printf("Installed %d foreign key constraints.", len(foreignKeys))
	return nil
}
