package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/shared"
)

// CatalogRepository persists the shared, de-duplicated game catalog.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new CatalogRepository with the given database connection
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const catalogColumns = `title_id, app_id, name, normalized_name, description, genres, developer, publisher,
	release_date, price, original_price, sale_price, cover_url, created_at, updated_at`

// InsertOrGet inserts a title, or returns the existing row when another sync
// already created one for the same app id. The insert and the unique-key
// conflict are resolved in a single statement, so concurrent first
// encounters produce exactly one winner.
func (r *CatalogRepository) InsertOrGet(title *models.CatalogTitle) (*models.CatalogTitle, bool, error) {
	if err := title.Validate(); err != nil {
		return nil, false, fmt.Errorf("validation failed: %w", err)
	}

	if title.TitleID == "" {
		title.TitleID = shared.GenerateID()
	}
	title.NormalizedName = models.NormalizeName(title.Name)
	now := time.Now().UTC()
	if title.CreatedAt.IsZero() {
		title.CreatedAt = now
	}
	title.UpdatedAt = now

	if title.AppID == "" {
		// No external identity to conflict on; the merger de-duplicates
		// such titles by normalized name before asking for an insert.
		if err := r.insert(title); err != nil {
			return nil, false, err
		}
		return title, true, nil
	}

	query := `
		INSERT INTO catalog_titles (` + catalogColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(app_id) WHERE app_id IS NOT NULL AND app_id != '' DO NOTHING
	`
	result, err := r.db.Exec(query, catalogArgs(title)...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert catalog title: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 1 {
		return title, true, nil
	}

	existing, err := r.GetByAppID(title.AppID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Update refreshes a title's mutable fields. Identity (title_id, created_at)
// never changes; the merger decides which fields carry new values.
func (r *CatalogRepository) Update(title *models.CatalogTitle) error {
	if err := title.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	title.NormalizedName = models.NormalizeName(title.Name)
	title.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE catalog_titles
		SET app_id = ?, name = ?, normalized_name = ?, description = ?, genres = ?, developer = ?,
			publisher = ?, release_date = ?, price = ?, original_price = ?, sale_price = ?,
			cover_url = ?, updated_at = ?
		WHERE title_id = ?
	`
	result, err := r.db.Exec(query,
		title.AppID,
		title.Name,
		title.NormalizedName,
		title.Description,
		title.Genres,
		title.Developer,
		title.Publisher,
		title.ReleaseDate,
		title.Price,
		title.OriginalPrice,
		title.SalePrice,
		title.CoverURL,
		title.UpdatedAt,
		title.TitleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update catalog title: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: catalog title %s", shared.ErrNotFound, title.TitleID)
	}
	return nil
}

// Get retrieves a title by its catalog id.
func (r *CatalogRepository) Get(titleID string) (*models.CatalogTitle, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_titles WHERE title_id = ?`
	return r.scanOne(r.db.QueryRow(query, titleID))
}

// GetByAppID retrieves a title by its external app id.
func (r *CatalogRepository) GetByAppID(appID string) (*models.CatalogTitle, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_titles WHERE app_id = ?`
	return r.scanOne(r.db.QueryRow(query, appID))
}

// GetByNormalizedName retrieves a title by its normalized display name.
// Oldest row wins when legacy duplicates exist.
func (r *CatalogRepository) GetByNormalizedName(name string) (*models.CatalogTitle, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM catalog_titles
		WHERE normalized_name = ?
		ORDER BY created_at ASC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(query, models.NormalizeName(name)))
}

// Count returns the number of catalog rows.
func (r *CatalogRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM catalog_titles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count catalog titles: %w", err)
	}
	return count, nil
}

func (r *CatalogRepository) insert(title *models.CatalogTitle) error {
	query := `
		INSERT INTO catalog_titles (` + catalogColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, catalogArgs(title)...); err != nil {
		return fmt.Errorf("failed to insert catalog title: %w", err)
	}
	return nil
}

func catalogArgs(title *models.CatalogTitle) []any {
	return []any{
		title.TitleID,
		title.AppID,
		title.Name,
		title.NormalizedName,
		title.Description,
		title.Genres,
		title.Developer,
		title.Publisher,
		title.ReleaseDate,
		title.Price,
		title.OriginalPrice,
		title.SalePrice,
		title.CoverURL,
		title.CreatedAt,
		title.UpdatedAt,
	}
}

func (r *CatalogRepository) scanOne(row *sql.Row) (*models.CatalogTitle, error) {
	var title models.CatalogTitle
	var price, original, sale sql.NullFloat64

	err := row.Scan(
		&title.TitleID,
		&title.AppID,
		&title.Name,
		&title.NormalizedName,
		&title.Description,
		&title.Genres,
		&title.Developer,
		&title.Publisher,
		&title.ReleaseDate,
		&price,
		&original,
		&sale,
		&title.CoverURL,
		&title.CreatedAt,
		&title.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: catalog title", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan catalog title: %w", err)
	}

	if price.Valid {
		v := price.Float64
		title.Price = &v
	}
	if original.Valid {
		v := original.Float64
		title.OriginalPrice = &v
	}
	if sale.Valid {
		v := sale.Float64
		title.SalePrice = &v
	}
	return &title, nil
}
