package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/shared"
)

// BacklogRepository persists per-user backlog entries keyed by (user, title).
type BacklogRepository struct {
	db *sql.DB
}

// NewBacklogRepository creates a new BacklogRepository with the given database connection
func NewBacklogRepository(db *sql.DB) *BacklogRepository {
	return &BacklogRepository{db: db}
}

// Upsert creates the entry or refreshes an existing one's playtime.
// Rank and source of an existing entry are left alone; rank assignment is
// the projector's job. Returns true when a new entry was created.
func (r *BacklogRepository) Upsert(entry *models.BacklogEntry) (bool, error) {
	if err := entry.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	entry.UpdatedAt = time.Now().UTC()

	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM backlog_entries WHERE user_id = ? AND title_id = ?)`,
		entry.UserID, entry.TitleID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check backlog entry: %w", err)
	}

	if exists {
		_, err = tx.Exec(
			`UPDATE backlog_entries SET playtime_minutes = ?, updated_at = ? WHERE user_id = ? AND title_id = ?`,
			entry.PlaytimeMinutes, entry.UpdatedAt, entry.UserID, entry.TitleID,
		)
	} else {
		_, err = tx.Exec(
			`INSERT INTO backlog_entries (user_id, title_id, playtime_minutes, rank, source, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			entry.UserID, entry.TitleID, entry.PlaytimeMinutes, entry.Rank, string(entry.Source), entry.UpdatedAt,
		)
	}
	if err != nil {
		return false, fmt.Errorf("failed to upsert backlog entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit backlog upsert: %w", err)
	}
	return !exists, nil
}

// Get retrieves one entry.
func (r *BacklogRepository) Get(userID, titleID string) (*models.BacklogEntry, error) {
	query := `
		SELECT user_id, title_id, playtime_minutes, rank, source, updated_at
		FROM backlog_entries
		WHERE user_id = ? AND title_id = ?
	`
	var entry models.BacklogEntry
	var source string
	err := r.db.QueryRow(query, userID, titleID).Scan(
		&entry.UserID, &entry.TitleID, &entry.PlaytimeMinutes, &entry.Rank, &source, &entry.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: backlog entry", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan backlog entry: %w", err)
	}
	entry.Source = models.EntrySource(source)
	return &entry, nil
}

// ListByUser retrieves a user's backlog ordered by rank.
func (r *BacklogRepository) ListByUser(userID string) ([]*models.BacklogEntry, error) {
	query := `
		SELECT user_id, title_id, playtime_minutes, rank, source, updated_at
		FROM backlog_entries
		WHERE user_id = ?
		ORDER BY rank ASC, title_id ASC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list backlog: %w", err)
	}
	defer rows.Close()

	var entries []*models.BacklogEntry
	for rows.Next() {
		var entry models.BacklogEntry
		var source string
		if err := rows.Scan(
			&entry.UserID, &entry.TitleID, &entry.PlaytimeMinutes, &entry.Rank, &source, &entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan backlog entry: %w", err)
		}
		entry.Source = models.EntrySource(source)
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// TitleNames returns catalog display names for every title in the user's
// backlog, used for rank tie-breaking.
func (r *BacklogRepository) TitleNames(userID string) (map[string]string, error) {
	query := `
		SELECT b.title_id, c.name
		FROM backlog_entries b
		JOIN catalog_titles c ON c.title_id = b.title_id
		WHERE b.user_id = ?
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query backlog names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var titleID, name string
		if err := rows.Scan(&titleID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan backlog name: %w", err)
		}
		names[titleID] = name
	}
	return names, rows.Err()
}

// MaxRank returns the highest rank currently assigned in a user's backlog,
// zero when the backlog is empty.
func (r *BacklogRepository) MaxRank(userID string) (int, error) {
	var max int
	err := r.db.QueryRow(
		`SELECT COALESCE(MAX(rank), 0) FROM backlog_entries WHERE user_id = ?`, userID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to read max rank: %w", err)
	}
	return max, nil
}

// UpdateRanks rewrites ranks for the given titles in one transaction.
// Only rows belonging to the user are touched.
func (r *BacklogRepository) UpdateRanks(userID string, ranks map[string]int) error {
	if len(ranks) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`UPDATE backlog_entries SET rank = ?, updated_at = ? WHERE user_id = ? AND title_id = ?`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare rank update: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for titleID, rank := range ranks {
		if _, err := stmt.Exec(rank, now, userID, titleID); err != nil {
			return fmt.Errorf("failed to update rank for title %s: %w", titleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rank updates: %w", err)
	}
	return nil
}
