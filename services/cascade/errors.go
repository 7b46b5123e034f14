package cascade

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when the target entity does not exist or does not
// belong to the acting tenant. The two cases are deliberately
// indistinguishable to the caller.
var ErrNotFound = errors.New("cascade: entity not found")

// MalformedGraphError reports live data that violates the assumed shape of
// the ownership graph (e.g. a faculty row whose user is missing). This is a
// schema/programming error, not a user-facing condition.
type MalformedGraphError struct {
	Detail string
}

func (e *MalformedGraphError) Error() string {
	return "cascade: malformed graph: " + e.Detail
}

// TransactionError reports a failure during the atomic relational phase. The
// transaction has been rolled back: no rows were deleted.
type TransactionError struct {
	Step string
	Err  error
}

func (e *TransactionError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("cascade: transaction failed at step %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("cascade: transaction failed: %v", e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// CleanupError reports that the relational phase committed but one or more
// external side effects failed. The data deletion is final; the listed
// identity records and blobs need manual reconciliation.
type CleanupError struct {
	IdentityIDs []string // identity records that could not be deleted
	StorageKeys []string // attachment blobs that could not be deleted
}

func (e *CleanupError) Error() string {
	var parts []string
	if len(e.IdentityIDs) > 0 {
		parts = append(parts, fmt.Sprintf("%d identity record(s)", len(e.IdentityIDs)))
	}
	if len(e.StorageKeys) > 0 {
		parts = append(parts, fmt.Sprintf("%d attachment blob(s)", len(e.StorageKeys)))
	}
	return "cascade: data deleted but external cleanup failed for " + strings.Join(parts, " and ")
}
