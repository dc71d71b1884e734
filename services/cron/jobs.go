package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/socraticbse/backend/model"
)

// SessionRetentionDays is how long an idle session is kept. Sessions with
// no activity for this long are deleted together with their turns,
// progress row, and snapshot mirror entry.
const SessionRetentionDays = 30

// CleanupIdleSessions deletes sessions idle past the retention window.
// Runs daily at 3 AM.
func (m *CronManager) CleanupIdleSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "cleanup_idle_sessions"

	cutoff := time.Now().UTC().Add(-SessionRetentionDays * 24 * time.Hour)

	ids, err := m.store.DeleteIdleBefore(ctx, cutoff)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete idle sessions: %w", err))
		return
	}

	if len(ids) == 0 {
		m.logJobComplete(jobName, "No idle sessions found")
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Deleted %d idle sessions", len(ids)))
}

// CleanupCronLogs trims cron job logs older than 90 days.
// Runs daily at 3:30 AM.
func (m *CronManager) CleanupCronLogs() {
	jobName := "cleanup_cron_logs"

	cutoff := time.Now().Add(-90 * 24 * time.Hour)
	result := m.db.Where("created_at < ?", cutoff).Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to clean cron logs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Cleaned %d old cron logs", result.RowsAffected))
}
