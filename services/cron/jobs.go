package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/campusgrid/campus-api/model"
	"github.com/campusgrid/campus-api/utils/auth"
)

const logRetention = 90 * 24 * time.Hour

// PurgeExpiredTokens removes blacklist entries whose tokens have expired;
// they can no longer be presented so there is nothing left to revoke.
func (m *CronManager) PurgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	jobName := "purge_expired_tokens"

	purged, err := auth.NewBlacklistService(m.db).PurgeExpired(ctx)
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Purged %d expired blacklist entries", purged))
}

// PruneOldLogs removes audit and cron-job log rows older than the retention
// window.
func (m *CronManager) PruneOldLogs() {
	jobName := "prune_old_logs"
	cutoff := time.Now().Add(-logRetention)

	audit := m.db.Where("created_at < ?", cutoff).Delete(&model.AdminAuditLog{})
	if audit.Error != nil {
		m.logJobError(jobName, audit.Error)
		return
	}

	jobs := m.db.Where("created_at < ? AND status <> ?", cutoff, "running").Delete(&model.CronJobLog{})
	if jobs.Error != nil {
		m.logJobError(jobName, jobs.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf(
		"Pruned %d audit rows and %d job log rows", audit.RowsAffected, jobs.RowsAffected))
}
