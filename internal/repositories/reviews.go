package repositories

import (
	"database/sql"
	"fmt"
)

// ReviewRepository reads the rating app's reviews table. The sync engine
// never writes reviews; it only checks whether a title is already reviewed
// before projecting a backlog entry.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new ReviewRepository with the given database connection
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Exists reports whether the user has already reviewed the title.
func (r *ReviewRepository) Exists(userID, titleID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id = ? AND title_id = ?)`,
		userID, titleID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check review: %w", err)
	}
	return exists, nil
}
