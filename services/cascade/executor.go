package cascade

import (
	"context"
	"errors"
	"log"

	"github.com/campusgrid/campus-api/services/identity"
	"gorm.io/gorm"
)

// IdentityDeleter deletes external identity records. Satisfied by
// *identity.Client.
type IdentityDeleter interface {
	DeleteUser(ctx context.Context, identityID string) error
}

// BlobRemover purges attachment blobs from object storage, returning the
// keys it could not remove. Satisfied by *storage.SpacesClient.
type BlobRemover interface {
	DeleteMany(ctx context.Context, keys []string) []string
}

// Summary reports what a completed cascade removed, keyed by table.
type Summary struct {
	RowsDeleted     map[string]int64 `json:"rows_deleted"`
	IdentityDeleted int              `json:"identity_records_deleted"`
	BlobsDeleted    int              `json:"attachment_blobs_deleted"`
}

// Executor applies a plan: every relational step inside one transaction,
// then the external side effects. If the transaction fails nothing was
// deleted; if only the external phase fails the relational deletion is final.
type Executor struct {
	db       *gorm.DB
	identity IdentityDeleter
	blobs    BlobRemover

	// beforeStep, when set, runs ahead of each step inside the transaction.
	// Tests use it to force mid-transaction failures.
	beforeStep func(Step) error
}

// NewExecutor creates a new executor. blobs may be nil when object storage
// is not configured.
func NewExecutor(db *gorm.DB, identityClient IdentityDeleter, blobs BlobRemover) *Executor {
	return &Executor{
		db:       db,
		identity: identityClient,
		blobs:    blobs,
	}
}

// Execute runs the plan. On success it returns a summary of deleted rows; a
// *CleanupError return means the relational phase committed but external
// cleanup is incomplete.
func (e *Executor) Execute(ctx context.Context, plan *Plan) (*Summary, error) {
	summary := &Summary{RowsDeleted: make(map[string]int64)}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range plan.Steps {
			if e.beforeStep != nil {
				if err := e.beforeStep(s); err != nil {
					return &TransactionError{Step: s.Name, Err: err}
				}
			}
			rows, err := s.Run(tx)
			if err != nil {
				return &TransactionError{Step: s.Name, Err: err}
			}
			summary.RowsDeleted[s.Table] += rows
		}
		return nil
	})
	if err != nil {
		var txErr *TransactionError
		if errors.As(err, &txErr) {
			return nil, txErr
		}
		return nil, &TransactionError{Err: err}
	}

	// The relational data is gone and cannot be restored, so everything from
	// here is best-effort: failures are reported, never rolled back.
	cleanup := &CleanupError{}

	for _, user := range plan.AffectedUsers {
		if err := e.identity.DeleteUser(ctx, user.IdentityID); err != nil {
			if errors.Is(err, identity.ErrUserNotFound) {
				continue // already gone, nothing to reconcile
			}
			log.Printf("cascade: failed to delete identity record %s: %v", user.IdentityID, err)
			cleanup.IdentityIDs = append(cleanup.IdentityIDs, user.IdentityID)
			continue
		}
		summary.IdentityDeleted++
	}

	if e.blobs != nil && len(plan.StorageKeys) > 0 {
		failed := e.blobs.DeleteMany(ctx, plan.StorageKeys)
		if len(failed) > 0 {
			log.Printf("cascade: failed to delete %d attachment blob(s)", len(failed))
			cleanup.StorageKeys = failed
		}
		summary.BlobsDeleted = len(plan.StorageKeys) - len(failed)
	}

	if len(cleanup.IdentityIDs) > 0 || len(cleanup.StorageKeys) > 0 {
		return summary, cleanup
	}
	return summary, nil
}
