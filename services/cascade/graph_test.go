package cascade

import (
	"errors"
	"strings"
	"testing"
)

func TestParseKind(t *testing.T) {
	valid := []string{"department", "batch", "course", "classroom", "faculty", "student"}
	for _, s := range valid {
		kind, err := ParseKind(s)
		if err != nil {
			t.Errorf("ParseKind(%q) returned error: %v", s, err)
		}
		if string(kind) != s {
			t.Errorf("ParseKind(%q) = %q", s, kind)
		}
	}

	for _, s := range []string{"", "university", "user", "Department"} {
		if _, err := ParseKind(s); err == nil {
			t.Errorf("ParseKind(%q) should fail", s)
		}
	}
}

// stepTables extracts the table sequence of a step list
func stepTables(steps []Step) []string {
	tables := make([]string, len(steps))
	for i, s := range steps {
		tables[i] = s.Table
	}
	return tables
}

// assertBefore fails unless every occurrence of child comes before the first
// occurrence of parent
func assertBefore(t *testing.T, tables []string, child, parent string) {
	t.Helper()
	parentIdx := -1
	for i, tbl := range tables {
		if tbl == parent {
			parentIdx = i
			break
		}
	}
	if parentIdx == -1 {
		t.Fatalf("table %s not in plan %v", parent, tables)
	}
	for i := parentIdx; i < len(tables); i++ {
		if tables[i] == child {
			t.Errorf("%s deleted at %d, after %s at %d: %v", child, i, parent, parentIdx, tables)
		}
	}
}

func TestClassroomSubtreeStepOrder(t *testing.T) {
	steps := classroomSubtreeSteps(7)
	tables := stepTables(steps)

	want := []string{
		"classroom_teachers",
		"enrollments",
		"submission_attachments",
		"submissions",
		"assignments",
		"classroom_post_attachments",
		"classroom_posts",
		"classroom_threads",
		"classrooms",
	}
	if len(tables) != len(want) {
		t.Fatalf("got %d steps, want %d: %v", len(tables), len(want), tables)
	}
	for i := range want {
		if tables[i] != want[i] {
			t.Errorf("step %d: got %s, want %s", i, tables[i], want[i])
		}
	}

	assertBefore(t, tables, "submission_attachments", "submissions")
	assertBefore(t, tables, "submissions", "assignments")
	assertBefore(t, tables, "classroom_post_attachments", "classroom_posts")
	assertBefore(t, tables, "classroom_posts", "classroom_threads")
	assertBefore(t, tables, "classroom_threads", "classrooms")
}

func TestUserContentStepsWithoutAuthoredThreads(t *testing.T) {
	steps := userContentSteps(42, nil, nil, nil)
	tables := stepTables(steps)

	// No thread ids were materialized, so no thread subtree steps appear.
	for _, tbl := range tables {
		switch tbl {
		case "classroom_threads", "threads", "forums", "assignments":
			t.Errorf("unexpected %s step without authored threads: %v", tbl, tables)
		}
	}

	// Cross-reference rows are always cleared.
	for _, tbl := range []string{
		"classroom_post_attachments", "classroom_posts",
		"thread_post_attachments", "thread_posts",
		"custom_group_members", "custom_groups",
		"classroom_teachers", "uni_administrations", "jwt_token_blacklist",
	} {
		found := false
		for _, got := range tables {
			if got == tbl {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing %s step: %v", tbl, tables)
		}
	}
}

func TestUserContentStepsWithAuthoredThreads(t *testing.T) {
	steps := userContentSteps(42, []uint{1, 2}, []uint{3}, []uint{4})
	tables := stepTables(steps)

	// A thread announced an assignment: the assignment subtree goes before
	// the thread row does.
	assertBefore(t, tables, "submission_attachments", "submissions")
	assertBefore(t, tables, "submissions", "assignments")
	assertBefore(t, tables, "assignments", "classroom_threads")
	assertBefore(t, tables, "classroom_posts", "classroom_threads")
	assertBefore(t, tables, "threads", "forums")

	// Forum posts under the user's threads go before those thread rows.
	// Later thread_posts steps target the user's own forums, whose thread
	// rows are deleted after them within that block.
	firstThreads := -1
	for i, tbl := range tables {
		if tbl == "threads" {
			firstThreads = i
			break
		}
	}
	sawPosts := false
	for i := 0; i < firstThreads; i++ {
		if tables[i] == "thread_posts" {
			sawPosts = true
		}
	}
	if !sawPosts {
		t.Errorf("no thread_posts step before the first threads step: %v", tables)
	}

	for _, tbl := range []string{"classroom_threads", "threads", "forums"} {
		found := false
		for _, got := range tables {
			if got == tbl {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing %s step: %v", tbl, tables)
		}
	}
}

func TestKindResource(t *testing.T) {
	cases := map[Kind]string{
		KindDepartment: "departments",
		KindBatch:      "batches",
		KindCourse:     "courses",
		KindClassroom:  "classrooms",
		KindFaculty:    "faculties",
		KindStudent:    "students",
	}
	for kind, want := range cases {
		if got := kind.Resource(); got != want {
			t.Errorf("%s.Resource() = %q, want %q", kind, got, want)
		}
	}
}

func TestDedupKeys(t *testing.T) {
	got := dedupKeys([]string{
		"submissions/1/hw1.pdf",
		"posts/1/sketch.png",
		"submissions/1/hw1.pdf",
		"posts/2/notes.pdf",
		"posts/1/sketch.png",
	})
	want := []string{"submissions/1/hw1.pdf", "posts/1/sketch.png", "posts/2/notes.pdf"}
	if len(got) != len(want) {
		t.Fatalf("dedupKeys returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dedupKeys[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTransactionErrorUnwrap(t *testing.T) {
	inner := errors.New("deadlock detected")
	err := &TransactionError{Step: "classroom posts", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("TransactionError should unwrap to the inner error")
	}
	if !strings.Contains(err.Error(), "classroom posts") {
		t.Errorf("error message should name the failed step: %s", err.Error())
	}
}

func TestCleanupErrorMessage(t *testing.T) {
	err := &CleanupError{
		IdentityIDs: []string{"idp_1", "idp_2"},
		StorageKeys: []string{"attachments/a.pdf"},
	}
	msg := err.Error()
	if !strings.Contains(msg, "2 identity record(s)") {
		t.Errorf("message should count identity records: %s", msg)
	}
	if !strings.Contains(msg, "1 attachment blob(s)") {
		t.Errorf("message should count blobs: %s", msg)
	}
}
