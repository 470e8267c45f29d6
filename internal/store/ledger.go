// internal/store/ledger.go
package store

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"printer-agent/internal/model"
)

// IsProcessed reports whether a job GUID is already in the ledger.
func (s *Store) IsProcessed(jobGUID string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM processed_jobs WHERE job_guid = ?", jobGUID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query job: %w", err)
	}
	return true, nil
}

// Status returns the recorded outcome for a job, or nil if the job is
// not in the ledger.
func (s *Store) Status(jobGUID string) (*model.ProcessedJob, error) {
	row := s.db.QueryRow(
		"SELECT job_guid, processed_at, status, error, reported FROM processed_jobs WHERE job_guid = ?",
		jobGUID)

	var job model.ProcessedJob
	var errText sql.NullString
	var reported int
	err := row.Scan(&job.JobGUID, &job.ProcessedAt, &job.Status, &errText, &reported)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query job status: %w", err)
	}
	if errText.Valid {
		job.Error = &errText.String
	}
	job.Reported = reported != 0
	return &job, nil
}

// MarkCompleted records a successful print. reported notes whether
// the backend acknowledged the completion report.
func (s *Store) MarkCompleted(jobGUID string, reported bool) error {
	return s.mark(jobGUID, model.JobStatusCompleted, nil, reported)
}

// MarkFailed records a failed print with its error message.
func (s *Store) MarkFailed(jobGUID, errorMessage string, reported bool) error {
	return s.mark(jobGUID, model.JobStatusFailed, &errorMessage, reported)
}

// MarkSkipped records a job that was deliberately not printed, such
// as a duplicate claim.
func (s *Store) MarkSkipped(jobGUID string) error {
	return s.mark(jobGUID, model.JobStatusSkipped, nil, true)
}

func (s *Store) mark(jobGUID string, status model.JobStatus, errorMessage *string, reported bool) error {
	reportedFlag := 0
	if reported {
		reportedFlag = 1
	}

	_, err := s.db.Exec(`
		INSERT INTO processed_jobs (job_guid, processed_at, status, error, reported)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(job_guid) DO UPDATE SET
			processed_at = excluded.processed_at,
			status = excluded.status,
			error = excluded.error,
			reported = excluded.reported`,
		jobGUID, time.Now().UTC(), string(status), errorMessage, reportedFlag)
	if err != nil {
		return fmt.Errorf("failed to record job %s: %w", jobGUID, err)
	}

	s.logger.Debug("Job recorded in ledger",
		zap.String("job_guid", jobGUID),
		zap.String("status", string(status)),
		zap.Bool("reported", reported))
	return nil
}

// MarkReported flags a job whose outcome report finally reached the
// backend.
func (s *Store) MarkReported(jobGUID string) error {
	result, err := s.db.Exec("UPDATE processed_jobs SET reported = 1 WHERE job_guid = ?", jobGUID)
	if err != nil {
		return fmt.Errorf("failed to mark job reported: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("job %s not found in ledger", jobGUID)
	}
	return nil
}

// Unreported returns jobs whose outcome never reached the backend,
// oldest first, for the report-flush ticker.
func (s *Store) Unreported(limit int) ([]model.ProcessedJob, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT job_guid, processed_at, status, error, reported
		FROM processed_jobs
		WHERE reported = 0
		ORDER BY processed_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unreported jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.ProcessedJob
	for rows.Next() {
		var job model.ProcessedJob
		var errText sql.NullString
		var reported int
		if err := rows.Scan(&job.JobGUID, &job.ProcessedAt, &job.Status, &errText, &reported); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		if errText.Valid {
			job.Error = &errText.String
		}
		job.Reported = reported != 0
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CleanupOlderThan evicts ledger rows older than the given number of
// days and returns how many were removed.
func (s *Store) CleanupOlderThan(days int) (int64, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	result, err := s.db.Exec("DELETE FROM processed_jobs WHERE processed_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up ledger: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count removed rows: %w", err)
	}

	if removed > 0 {
		s.logger.Info("Ledger cleanup completed",
			zap.Int64("removed", removed),
			zap.Int("retention_days", days))
	}
	return removed, nil
}

// Stats summarizes the ledger by status.
func (s *Store) Stats() (*model.JobStats, error) {
	stats := &model.JobStats{ByStatus: make(map[string]int64)}

	rows, err := s.db.Query("SELECT status, COUNT(*) FROM processed_jobs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var oldest sql.NullTime
	if err := s.db.QueryRow("SELECT MIN(processed_at) FROM processed_jobs").Scan(&oldest); err == nil && oldest.Valid {
		stats.OldestJob = &oldest.Time
	}
	return stats, nil
}
