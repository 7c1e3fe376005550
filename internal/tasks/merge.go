package tasks

import (
	"errors"

	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/shared"
	"github.com/playlog/steamsync/internal/steam"
)

// mergeTitle reconciles one fetched title against the shared catalog and
// returns the canonical row. Lookup order: exact app id, then normalized
// name (backfilling the app id), then a fresh insert through the atomic
// insert-or-get primitive. Losing the insert race falls back to refreshing
// the winning row.
func (e *Engine) mergeTitle(owned models.OwnedTitle, details *models.TitleDetails) (*models.CatalogTitle, error) {
	existing, err := e.catalog.GetByAppID(owned.AppID)
	if err == nil {
		refreshTitle(existing, owned, details)
		if err := e.catalog.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	existing, err = e.catalog.GetByNormalizedName(owned.Name)
	if err == nil {
		// Same game imported before it had an external identity; adopt the
		// row rather than split the catalog.
		existing.AppID = owned.AppID
		refreshTitle(existing, owned, details)
		if err := e.catalog.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	title := &models.CatalogTitle{
		AppID:    owned.AppID,
		Name:     owned.Name,
		CoverURL: steam.CoverURL(owned.AppID),
	}
	applyDetails(title, details)

	winner, created, err := e.catalog.InsertOrGet(title)
	if err != nil {
		return nil, err
	}
	if !created {
		refreshTitle(winner, owned, details)
		if err := e.catalog.Update(winner); err != nil {
			return nil, err
		}
	}
	return winner, nil
}

// refreshTitle applies fetched values onto an existing row without blanking
// populated fields.
func refreshTitle(dst *models.CatalogTitle, owned models.OwnedTitle, details *models.TitleDetails) {
	if owned.Name != "" {
		dst.Name = owned.Name
	}
	if dst.CoverURL == "" && dst.AppID != "" {
		dst.CoverURL = steam.CoverURL(dst.AppID)
	}
	applyDetails(dst, details)
}

// applyDetails copies only the non-empty storefront fields.
func applyDetails(dst *models.CatalogTitle, details *models.TitleDetails) {
	if details == nil {
		return
	}
	if details.Description != "" {
		dst.Description = details.Description
	}
	if details.Genres != "" {
		dst.Genres = details.Genres
	}
	if details.Developer != "" {
		dst.Developer = details.Developer
	}
	if details.Publisher != "" {
		dst.Publisher = details.Publisher
	}
	if details.ReleaseDate != "" {
		dst.ReleaseDate = details.ReleaseDate
	}
	if details.Price != nil {
		dst.Price = details.Price
	}
	if details.OriginalPrice != nil {
		dst.OriginalPrice = details.OriginalPrice
	}
	if details.SalePrice != nil {
		dst.SalePrice = details.SalePrice
	}
}
