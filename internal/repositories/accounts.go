package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/shared"
)

// AccountRepository persists linked Steam accounts. One row per user.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Upsert creates or replaces the user's linked account. Re-linking refreshes
// the identity and link time but keeps the sync bookkeeping columns.
func (r *AccountRepository) Upsert(account *models.LinkedAccount) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if account.LinkedAt.IsZero() {
		account.LinkedAt = time.Now().UTC()
	}
	if account.LastSyncStatus == "" {
		account.LastSyncStatus = models.StatusNever
	}

	query := `
		INSERT INTO linked_accounts (user_id, steam_id, profile_url, linked_at, last_sync_at, last_sync_status)
		VALUES (?, ?, ?, ?, NULL, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			steam_id = excluded.steam_id,
			profile_url = excluded.profile_url,
			linked_at = excluded.linked_at
	`

	_, err := r.db.Exec(query,
		account.UserID,
		account.SteamID,
		account.ProfileURL,
		account.LinkedAt,
		string(account.LastSyncStatus),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert linked account: %w", err)
	}
	return nil
}

// Get retrieves the linked account for a user.
func (r *AccountRepository) Get(userID string) (*models.LinkedAccount, error) {
	query := `
		SELECT user_id, steam_id, profile_url, linked_at, last_sync_at, last_sync_status
		FROM linked_accounts
		WHERE user_id = ?
	`
	return r.scanOne(r.db.QueryRow(query, userID))
}

// List retrieves every linked account, oldest link first.
func (r *AccountRepository) List() ([]*models.LinkedAccount, error) {
	query := `
		SELECT user_id, steam_id, profile_url, linked_at, last_sync_at, last_sync_status
		FROM linked_accounts
		ORDER BY linked_at ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.LinkedAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// MarkSynced records a completed run: status is always written, and
// last_sync_at advances only when advance is set. Failed fetches leave
// last_sync_at alone so the next tick retries the account.
func (r *AccountRepository) MarkSynced(userID string, status models.SyncStatus, at time.Time, advance bool) error {
	var result sql.Result
	var err error

	if advance {
		result, err = r.db.Exec(
			`UPDATE linked_accounts SET last_sync_status = ?, last_sync_at = ? WHERE user_id = ?`,
			string(status), at, userID,
		)
	} else {
		result, err = r.db.Exec(
			`UPDATE linked_accounts SET last_sync_status = ? WHERE user_id = ?`,
			string(status), userID,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to record sync status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: linked account for user %s", shared.ErrNotFound, userID)
	}
	return nil
}

// Delete removes the user's linked account. Backlog and catalog rows are untouched.
func (r *AccountRepository) Delete(userID string) error {
	result, err := r.db.Exec(`DELETE FROM linked_accounts WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete linked account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: linked account for user %s", shared.ErrNotFound, userID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *AccountRepository) scanOne(row *sql.Row) (*models.LinkedAccount, error) {
	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: linked account", shared.ErrNotFound)
	}
	return account, err
}

func scanAccount(row rowScanner) (*models.LinkedAccount, error) {
	var account models.LinkedAccount
	var lastSync sql.NullTime
	var status string

	err := row.Scan(
		&account.UserID,
		&account.SteamID,
		&account.ProfileURL,
		&account.LinkedAt,
		&lastSync,
		&status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan linked account: %w", err)
	}

	if lastSync.Valid {
		t := lastSync.Time
		account.LastSyncAt = &t
	}
	account.LastSyncStatus = models.SyncStatus(status)
	return &account, nil
}
