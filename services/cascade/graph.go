// Package cascade implements the ordered, transactional removal of an
// aggregate root and every record that depends on it.
//
// The ownership graph is fixed: University owns Departments, Batches and
// administration roles; Department owns Courses, Faculty and its
// DepartmentBatch junctions; Course and Batch own Classrooms; Classroom owns
// teachers, enrollments, threads and assignments; threads own posts and
// attachments; assignments own submissions and attachments; Faculty and
// Student each wrap one User; User anchors authored content across forums,
// threads, groups and classrooms. Deletion order is always child before
// parent, a reverse topological walk of that graph.
//
// The flow is Resolver -> Planner -> Executor: resolve the root under the
// acting tenant, enumerate the deletion steps the live data requires, then
// apply them in one relational transaction followed by best-effort external
// cleanup (identity records, attachment blobs).
package cascade

import (
	"fmt"
)

// Kind identifies one of the six deletable aggregate roots.
type Kind string

const (
	KindDepartment Kind = "department"
	KindBatch      Kind = "batch"
	KindCourse     Kind = "course"
	KindClassroom  Kind = "classroom"
	KindFaculty    Kind = "faculty"
	KindStudent    Kind = "student"
)

// ParseKind maps an entity type tag to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDepartment, KindBatch, KindCourse, KindClassroom, KindFaculty, KindStudent:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// Resource returns the plural table-style name used in audit logs and cache
// keys.
func (k Kind) Resource() string {
	switch k {
	case KindDepartment:
		return "departments"
	case KindBatch:
		return "batches"
	case KindCourse:
		return "courses"
	case KindClassroom:
		return "classrooms"
	case KindFaculty:
		return "faculties"
	case KindStudent:
		return "students"
	}
	return string(k)
}
