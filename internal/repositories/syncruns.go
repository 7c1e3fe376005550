package repositories

import (
	"database/sql"
	"fmt"

	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/shared"
)

// SyncRunRepository is the append-only log of sync executions.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Append records a finished run. Runs are never updated or deleted.
func (r *SyncRunRepository) Append(run *models.SyncRun) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.UserID == "" {
		return fmt.Errorf("%w: sync run requires a user id", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO sync_runs (id, user_id, started_at, finished_at, titles_seen, titles_added, titles_updated, outcome, error_detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		run.ID,
		run.UserID,
		run.StartedAt,
		run.FinishedAt,
		run.TitlesSeen,
		run.TitlesAdded,
		run.TitlesUpdated,
		string(run.Outcome),
		run.ErrorDetail,
	)
	if err != nil {
		return fmt.Errorf("failed to append sync run: %w", err)
	}
	return nil
}

// Latest returns the most recent run for a user.
func (r *SyncRunRepository) Latest(userID string) (*models.SyncRun, error) {
	query := `
		SELECT id, user_id, started_at, finished_at, titles_seen, titles_added, titles_updated, outcome, error_detail
		FROM sync_runs
		WHERE user_id = ?
		ORDER BY started_at DESC
		LIMIT 1
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	runs, err := collectRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: sync run for user %s", shared.ErrNotFound, userID)
	}
	return runs[0], nil
}

// List returns a user's most recent runs, newest first.
func (r *SyncRunRepository) List(userID string, limit int) ([]*models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, user_id, started_at, finished_at, titles_seen, titles_added, titles_updated, outcome, error_detail
		FROM sync_runs
		WHERE user_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

func collectRuns(rows *sql.Rows) ([]*models.SyncRun, error) {
	var runs []*models.SyncRun
	for rows.Next() {
		var run models.SyncRun
		var finished sql.NullTime
		var outcome string

		if err := rows.Scan(
			&run.ID,
			&run.UserID,
			&run.StartedAt,
			&finished,
			&run.TitlesSeen,
			&run.TitlesAdded,
			&run.TitlesUpdated,
			&outcome,
			&run.ErrorDetail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}

		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		run.Outcome = models.SyncOutcome(outcome)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
