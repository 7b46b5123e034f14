package cascade

import (
	"context"
	"fmt"

	"github.com/campusgrid/campus-api/model"
	"gorm.io/gorm"
)

// Step is one deletion statement of a plan. Run reports how many rows it
// removed; deleting zero rows is a valid no-op.
type Step struct {
	Table string // table the step deletes from
	Name  string
	Run   func(tx *gorm.DB) (int64, error)
}

// AffectedUser identifies a user whose external identity record must be
// deleted after the relational phase commits.
type AffectedUser struct {
	UserID     uint
	IdentityID string
}

// Plan is the ordered set of deletion steps for one aggregate root, plus the
// out-of-band cleanup the executor performs after commit.
type Plan struct {
	Kind          Kind
	RootID        uint
	Steps         []Step
	AffectedUsers []AffectedUser
	StorageKeys   []string // attachment blobs to purge after commit
}

// Planner walks the ownership graph rooted at a resolved entity and produces
// the deletion steps the live data requires. It issues only the read queries
// needed to discover which child rows exist; all writes happen later in the
// executor's transaction.
type Planner struct {
	db *gorm.DB
}

// NewPlanner creates a new planner
func NewPlanner(db *gorm.DB) *Planner {
	return &Planner{db: db}
}

// Plan builds the ordered deletion plan for a resolved root.
func (p *Planner) Plan(ctx context.Context, root *Root) (*Plan, error) {
	db := p.db.WithContext(ctx)
	plan := &Plan{Kind: root.Kind, RootID: root.ID}

	var err error
	switch root.Kind {
	case KindDepartment:
		err = p.planDepartment(db, root.ID, plan)
	case KindBatch:
		err = p.planBatch(db, root.ID, plan)
	case KindCourse:
		err = p.planCourse(db, root.ID, plan)
	case KindClassroom:
		err = p.planClassroom(db, root.ID, plan)
	case KindFaculty:
		err = p.planFaculty(db, root.Faculty, plan)
	case KindStudent:
		err = p.planStudent(db, root.Student.ID, root.Student.UserID, root.Student.User.IdentityID, plan)
	default:
		err = fmt.Errorf("unknown kind %q", root.Kind)
	}
	if err != nil {
		return nil, err
	}

	// Overlapping subtrees discover the same blob more than once: a
	// submission attachment is reachable both through its classroom and
	// through the submitting student. Each key is purged exactly once.
	plan.StorageKeys = dedupKeys(plan.StorageKeys)

	return plan, nil
}

// ---------------------------------------------------------------------------
// Per-kind plans
// ---------------------------------------------------------------------------

func (p *Planner) planDepartment(db *gorm.DB, deptID uint, plan *Plan) error {
	plan.Steps = append(plan.Steps, step("department_groups", "department group",
		func(tx *gorm.DB) *gorm.DB {
			return tx.Where("department_id = ?", deptID).Delete(&model.DepartmentGroup{})
		}))

	// Courses and their classrooms, child-first.
	var courseIDs []uint
	if err := db.Model(&model.Course{}).Where("department_id = ?", deptID).Pluck("id", &courseIDs).Error; err != nil {
		return err
	}
	for _, courseID := range courseIDs {
		if err := p.planCourse(db, courseID, plan); err != nil {
			return err
		}
	}

	// Faculty, each with their authored content cleared first.
	var faculty []model.Faculty
	if err := db.Preload("User").Where("department_id = ?", deptID).Find(&faculty).Error; err != nil {
		return err
	}
	for i := range faculty {
		if faculty[i].User.ID == 0 {
			return &MalformedGraphError{Detail: fmt.Sprintf("faculty %d has no user", faculty[i].ID)}
		}
		if err := p.planFaculty(db, &faculty[i], plan); err != nil {
			return err
		}
	}

	// Students scoped to this department's batch junctions.
	var students []model.Student
	err := db.Preload("User").
		Where("department_batch_id IN (SELECT id FROM department_batches WHERE department_id = ?)", deptID).
		Find(&students).Error
	if err != nil {
		return err
	}
	for i := range students {
		if students[i].User.ID == 0 {
			return &MalformedGraphError{Detail: fmt.Sprintf("student %d has no user", students[i].ID)}
		}
		if err := p.planStudent(db, students[i].ID, students[i].UserID, students[i].User.IdentityID, plan); err != nil {
			return err
		}
	}

	plan.Steps = append(plan.Steps,
		step("department_batches", "department batch junctions",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("department_id = ?", deptID).Delete(&model.DepartmentBatch{})
			}),
		step("departments", "department",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("id = ?", deptID).Delete(&model.Department{})
			}),
	)
	return nil
}

func (p *Planner) planBatch(db *gorm.DB, batchID uint, plan *Plan) error {
	plan.Steps = append(plan.Steps, step("batch_groups", "batch group",
		func(tx *gorm.DB) *gorm.DB {
			return tx.Where("batch_id = ?", batchID).Delete(&model.BatchGroup{})
		}))

	var classroomIDs []uint
	if err := db.Model(&model.Classroom{}).Where("batch_id = ?", batchID).Pluck("id", &classroomIDs).Error; err != nil {
		return err
	}
	for _, classroomID := range classroomIDs {
		if err := p.planClassroom(db, classroomID, plan); err != nil {
			return err
		}
	}

	// Students reference department_batches by foreign key, so they go before
	// the junction rows even though they sit lower in the listing.
	var students []model.Student
	err := db.Preload("User").
		Where("department_batch_id IN (SELECT id FROM department_batches WHERE batch_id = ?)", batchID).
		Find(&students).Error
	if err != nil {
		return err
	}
	for i := range students {
		if students[i].User.ID == 0 {
			return &MalformedGraphError{Detail: fmt.Sprintf("student %d has no user", students[i].ID)}
		}
		if err := p.planStudent(db, students[i].ID, students[i].UserID, students[i].User.IdentityID, plan); err != nil {
			return err
		}
	}

	plan.Steps = append(plan.Steps,
		step("department_batches", "department batch junctions",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("batch_id = ?", batchID).Delete(&model.DepartmentBatch{})
			}),
		step("batches", "batch",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("id = ?", batchID).Delete(&model.Batch{})
			}),
	)
	return nil
}

func (p *Planner) planCourse(db *gorm.DB, courseID uint, plan *Plan) error {
	var classroomIDs []uint
	if err := db.Model(&model.Classroom{}).Where("course_id = ?", courseID).Pluck("id", &classroomIDs).Error; err != nil {
		return err
	}
	for _, classroomID := range classroomIDs {
		if err := p.planClassroom(db, classroomID, plan); err != nil {
			return err
		}
	}

	plan.Steps = append(plan.Steps, step("courses", "course",
		func(tx *gorm.DB) *gorm.DB {
			return tx.Where("id = ?", courseID).Delete(&model.Course{})
		}))
	return nil
}

func (p *Planner) planClassroom(db *gorm.DB, classroomID uint, plan *Plan) error {
	keys, err := p.classroomStorageKeys(db, classroomID)
	if err != nil {
		return err
	}
	plan.StorageKeys = append(plan.StorageKeys, keys...)
	plan.Steps = append(plan.Steps, classroomSubtreeSteps(classroomID)...)
	return nil
}

func (p *Planner) planFaculty(db *gorm.DB, faculty *model.Faculty, plan *Plan) error {
	if err := p.checkSoleWrapper(db, faculty.UserID, "faculties", faculty.ID); err != nil {
		return err
	}

	if err := p.planUserContent(db, faculty.UserID, plan); err != nil {
		return err
	}

	facultyID := faculty.ID
	userID := faculty.UserID
	plan.Steps = append(plan.Steps,
		step("faculties", "faculty",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("id = ?", facultyID).Delete(&model.Faculty{})
			}),
		step("users", "user",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("id = ?", userID).Delete(&model.User{})
			}),
	)
	plan.AffectedUsers = append(plan.AffectedUsers, AffectedUser{UserID: userID, IdentityID: faculty.User.IdentityID})
	return nil
}

func (p *Planner) planStudent(db *gorm.DB, studentID, userID uint, identityID string, plan *Plan) error {
	if err := p.checkSoleWrapper(db, userID, "students", studentID); err != nil {
		return err
	}

	var keys []string
	err := db.Model(&model.SubmissionAttachment{}).
		Where("submission_id IN (SELECT id FROM submissions WHERE student_id = ?)", studentID).
		Pluck("storage_key", &keys).Error
	if err != nil {
		return err
	}
	plan.StorageKeys = append(plan.StorageKeys, keys...)

	plan.Steps = append(plan.Steps,
		step("submission_attachments", "submission attachments by student",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("submission_id IN (SELECT id FROM submissions WHERE student_id = ?)", studentID).
					Delete(&model.SubmissionAttachment{})
			}),
		step("submissions", "submissions by student",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("student_id = ?", studentID).Delete(&model.Submission{})
			}),
		step("enrollments", "enrollments by student",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("student_id = ?", studentID).Delete(&model.Enrollment{})
			}),
	)

	if err := p.planUserContent(db, userID, plan); err != nil {
		return err
	}

	plan.Steps = append(plan.Steps,
		step("students", "student",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("id = ?", studentID).Delete(&model.Student{})
			}),
		step("users", "user",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("id = ?", userID).Delete(&model.User{})
			}),
	)
	plan.AffectedUsers = append(plan.AffectedUsers, AffectedUser{UserID: userID, IdentityID: identityID})
	return nil
}

// planUserContent clears everything a user authored, wherever it lives:
// classroom posts, threads whose main post is theirs, forum posts and
// threads, forums they created, group memberships and groups, teaching
// assignments, administration roles. Cleared independently per reference
// kind; rows already removed by an earlier sub-plan simply delete zero rows.
func (p *Planner) planUserContent(db *gorm.DB, userID uint, plan *Plan) error {
	// Thread ids are materialized now: once the user's posts are gone the
	// main-post linkage can no longer be queried.
	var classThreadIDs []uint
	err := db.Model(&model.ClassroomThread{}).
		Where("main_post_id IN (SELECT id FROM classroom_posts WHERE author_id = ?)", userID).
		Pluck("id", &classThreadIDs).Error
	if err != nil {
		return err
	}

	var forumThreadIDs []uint
	err = db.Model(&model.Thread{}).
		Where("main_post_id IN (SELECT id FROM thread_posts WHERE author_id = ?)", userID).
		Pluck("id", &forumThreadIDs).Error
	if err != nil {
		return err
	}

	var forumIDs []uint
	if err := db.Model(&model.Forum{}).Where("creator_id = ?", userID).Pluck("id", &forumIDs).Error; err != nil {
		return err
	}

	keys, err := p.userContentStorageKeys(db, userID, classThreadIDs, forumThreadIDs, forumIDs)
	if err != nil {
		return err
	}
	plan.StorageKeys = append(plan.StorageKeys, keys...)

	plan.Steps = append(plan.Steps, userContentSteps(userID, classThreadIDs, forumThreadIDs, forumIDs)...)
	return nil
}

// checkSoleWrapper verifies no other faculty/student row wraps the same user;
// deleting the user would leave that row dangling.
func (p *Planner) checkSoleWrapper(db *gorm.DB, userID uint, table string, selfID uint) error {
	for _, t := range []string{"faculties", "students"} {
		var count int64
		q := db.Table(t).Where("user_id = ?", userID)
		if t == table {
			q = q.Where("id <> ?", selfID)
		}
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &MalformedGraphError{
				Detail: fmt.Sprintf("user %d is wrapped by more than one faculty/student row", userID),
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Step builders (pure: no queries, only closures over ids)
// ---------------------------------------------------------------------------

// dedupKeys drops repeated storage keys, keeping first-seen order.
func dedupKeys(keys []string) []string {
	if len(keys) < 2 {
		return keys
	}
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func step(table, name string, run func(tx *gorm.DB) *gorm.DB) Step {
	return Step{
		Table: table,
		Name:  name,
		Run: func(tx *gorm.DB) (int64, error) {
			res := run(tx)
			return res.RowsAffected, res.Error
		},
	}
}

// classroomSubtreeSteps removes everything under one classroom: teaching
// assignments, enrollments, graded work, then threads and posts, then the
// classroom row.
func classroomSubtreeSteps(classroomID uint) []Step {
	return []Step{
		step("classroom_teachers", "classroom teachers",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("classroom_id = ?", classroomID).Delete(&model.ClassroomTeacher{})
			}),
		step("enrollments", "classroom enrollments",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("classroom_id = ?", classroomID).Delete(&model.Enrollment{})
			}),
		step("submission_attachments", "classroom submission attachments",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("submission_id IN (SELECT id FROM submissions WHERE assignment_id IN (SELECT id FROM assignments WHERE classroom_id = ?))", classroomID).
					Delete(&model.SubmissionAttachment{})
			}),
		step("submissions", "classroom submissions",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("assignment_id IN (SELECT id FROM assignments WHERE classroom_id = ?)", classroomID).
					Delete(&model.Submission{})
			}),
		step("assignments", "classroom assignments",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("classroom_id = ?", classroomID).Delete(&model.Assignment{})
			}),
		step("classroom_post_attachments", "classroom post attachments",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("post_id IN (SELECT id FROM classroom_posts WHERE thread_id IN (SELECT id FROM classroom_threads WHERE classroom_id = ?))", classroomID).
					Delete(&model.ClassroomPostAttachment{})
			}),
		step("classroom_posts", "classroom posts",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("thread_id IN (SELECT id FROM classroom_threads WHERE classroom_id = ?)", classroomID).
					Delete(&model.ClassroomPost{})
			}),
		step("classroom_threads", "classroom threads",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("classroom_id = ?", classroomID).Delete(&model.ClassroomThread{})
			}),
		step("classrooms", "classroom",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("id = ?", classroomID).Delete(&model.Classroom{})
			}),
	}
}

// userContentSteps clears a user's authored content across every subtree.
// classThreadIDs / forumThreadIDs are the threads whose main post the user
// authored; forumIDs are the forums the user created. All three are
// materialized by the planner before any deletion runs.
func userContentSteps(userID uint, classThreadIDs, forumThreadIDs, forumIDs []uint) []Step {
	steps := []Step{
		step("classroom_post_attachments", "attachments of classroom posts by user",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("post_id IN (SELECT id FROM classroom_posts WHERE author_id = ?)", userID).
					Delete(&model.ClassroomPostAttachment{})
			}),
		step("classroom_posts", "classroom posts by user",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("author_id = ?", userID).Delete(&model.ClassroomPost{})
			}),
	}

	if len(classThreadIDs) > 0 {
		ids := classThreadIDs
		steps = append(steps,
			step("submission_attachments", "submission attachments under user-authored threads",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("submission_id IN (SELECT id FROM submissions WHERE assignment_id IN (SELECT id FROM assignments WHERE thread_id IN ?))", ids).
						Delete(&model.SubmissionAttachment{})
				}),
			step("submissions", "submissions under user-authored threads",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("assignment_id IN (SELECT id FROM assignments WHERE thread_id IN ?)", ids).
						Delete(&model.Submission{})
				}),
			step("assignments", "assignments under user-authored threads",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("thread_id IN ?", ids).Delete(&model.Assignment{})
				}),
			step("classroom_post_attachments", "attachments under user-authored threads",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("post_id IN (SELECT id FROM classroom_posts WHERE thread_id IN ?)", ids).
						Delete(&model.ClassroomPostAttachment{})
				}),
			step("classroom_posts", "posts under user-authored threads",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("thread_id IN ?", ids).Delete(&model.ClassroomPost{})
				}),
			step("classroom_threads", "classroom threads with user main post",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("id IN ?", ids).Delete(&model.ClassroomThread{})
				}),
		)
	}

	steps = append(steps,
		step("thread_post_attachments", "attachments of forum posts by user",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("post_id IN (SELECT id FROM thread_posts WHERE author_id = ?)", userID).
					Delete(&model.ThreadPostAttachment{})
			}),
		step("thread_posts", "forum posts by user",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("author_id = ?", userID).Delete(&model.ThreadPost{})
			}),
	)

	if len(forumThreadIDs) > 0 {
		ids := forumThreadIDs
		steps = append(steps,
			step("thread_post_attachments", "attachments under user-authored forum threads",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("post_id IN (SELECT id FROM thread_posts WHERE thread_id IN ?)", ids).
						Delete(&model.ThreadPostAttachment{})
				}),
			step("thread_posts", "posts under user-authored forum threads",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("thread_id IN ?", ids).Delete(&model.ThreadPost{})
				}),
			step("threads", "forum threads with user main post",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("id IN ?", ids).Delete(&model.Thread{})
				}),
		)
	}

	if len(forumIDs) > 0 {
		ids := forumIDs
		steps = append(steps,
			step("thread_post_attachments", "attachments under user-created forums",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("post_id IN (SELECT id FROM thread_posts WHERE thread_id IN (SELECT id FROM threads WHERE forum_id IN ?))", ids).
						Delete(&model.ThreadPostAttachment{})
				}),
			step("thread_posts", "posts under user-created forums",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("thread_id IN (SELECT id FROM threads WHERE forum_id IN ?)", ids).
						Delete(&model.ThreadPost{})
				}),
			step("threads", "threads under user-created forums",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("forum_id IN ?", ids).Delete(&model.Thread{})
				}),
			step("forums", "forums created by user",
				func(tx *gorm.DB) *gorm.DB {
					return tx.Where("id IN ?", ids).Delete(&model.Forum{})
				}),
		)
	}

	steps = append(steps,
		step("custom_group_members", "group memberships of user",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("user_id = ?", userID).Delete(&model.CustomGroupMember{})
			}),
		step("custom_group_members", "members of groups created by user",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("group_id IN (SELECT id FROM custom_groups WHERE creator_id = ?)", userID).
					Delete(&model.CustomGroupMember{})
			}),
		step("custom_groups", "groups created by user",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("creator_id = ?", userID).Delete(&model.CustomGroup{})
			}),
		step("classroom_teachers", "teaching assignments of user",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("user_id = ?", userID).Delete(&model.ClassroomTeacher{})
			}),
		step("uni_administrations", "administration roles of user",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("user_id = ?", userID).Delete(&model.UniAdministration{})
			}),
		step("jwt_token_blacklist", "revoked tokens of user",
			func(tx *gorm.DB) *gorm.DB {
				return tx.Where("user_id = ?", userID).Delete(&model.JWTTokenBlacklist{})
			}),
	)

	return steps
}

// ---------------------------------------------------------------------------
// Storage key discovery
// ---------------------------------------------------------------------------

func (p *Planner) classroomStorageKeys(db *gorm.DB, classroomID uint) ([]string, error) {
	var keys []string

	var postKeys []string
	err := db.Model(&model.ClassroomPostAttachment{}).
		Where("post_id IN (SELECT id FROM classroom_posts WHERE thread_id IN (SELECT id FROM classroom_threads WHERE classroom_id = ?))", classroomID).
		Pluck("storage_key", &postKeys).Error
	if err != nil {
		return nil, err
	}
	keys = append(keys, postKeys...)

	var subKeys []string
	err = db.Model(&model.SubmissionAttachment{}).
		Where("submission_id IN (SELECT id FROM submissions WHERE assignment_id IN (SELECT id FROM assignments WHERE classroom_id = ?))", classroomID).
		Pluck("storage_key", &subKeys).Error
	if err != nil {
		return nil, err
	}
	keys = append(keys, subKeys...)

	return keys, nil
}

func (p *Planner) userContentStorageKeys(db *gorm.DB, userID uint, classThreadIDs, forumThreadIDs, forumIDs []uint) ([]string, error) {
	var keys []string

	collect := func(q *gorm.DB) error {
		var batch []string
		if err := q.Pluck("storage_key", &batch).Error; err != nil {
			return err
		}
		keys = append(keys, batch...)
		return nil
	}

	if err := collect(db.Model(&model.ClassroomPostAttachment{}).
		Where("post_id IN (SELECT id FROM classroom_posts WHERE author_id = ?)", userID)); err != nil {
		return nil, err
	}
	if err := collect(db.Model(&model.ThreadPostAttachment{}).
		Where("post_id IN (SELECT id FROM thread_posts WHERE author_id = ?)", userID)); err != nil {
		return nil, err
	}
	if len(classThreadIDs) > 0 {
		if err := collect(db.Model(&model.ClassroomPostAttachment{}).
			Where("post_id IN (SELECT id FROM classroom_posts WHERE thread_id IN ?)", classThreadIDs)); err != nil {
			return nil, err
		}
		if err := collect(db.Model(&model.SubmissionAttachment{}).
			Where("submission_id IN (SELECT id FROM submissions WHERE assignment_id IN (SELECT id FROM assignments WHERE thread_id IN ?))", classThreadIDs)); err != nil {
			return nil, err
		}
	}
	if len(forumThreadIDs) > 0 {
		if err := collect(db.Model(&model.ThreadPostAttachment{}).
			Where("post_id IN (SELECT id FROM thread_posts WHERE thread_id IN ?)", forumThreadIDs)); err != nil {
			return nil, err
		}
	}
	if len(forumIDs) > 0 {
		if err := collect(db.Model(&model.ThreadPostAttachment{}).
			Where("post_id IN (SELECT id FROM thread_posts WHERE thread_id IN (SELECT id FROM threads WHERE forum_id IN ?))", forumIDs)); err != nil {
			return nil, err
		}
	}

	return keys, nil
}
