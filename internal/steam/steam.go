// package steam defines interface Library for the external game platform
package steam

import (
	"context"
	"fmt"

	"github.com/playlog/steamsync/internal/models"
)

// Library is the external game-ownership source consumed by the sync pipeline.
type Library interface {
	// ResolveProfile normalizes a user-supplied profile reference into a
	// canonical account id. Fails with shared.ErrInvalidProfileFormat,
	// shared.ErrProfileNotFound, or shared.ErrPrivateLibrary.
	ResolveProfile(ctx context.Context, profile string) (string, error)

	// OwnedGames returns the full owned-title list for an account with raw
	// playtime, ordered as the platform reports it.
	OwnedGames(ctx context.Context, steamID string) ([]models.OwnedTitle, error)

	// TitleDetails fetches best-effort storefront metadata for one title.
	// A nil result with nil error means the storefront had nothing to say.
	TitleDetails(ctx context.Context, appID string) (*models.TitleDetails, error)

	// Name returns the platform name for logs and run records.
	Name() string
}

// CoverURL returns the CDN header image reference for an app.
// Fetching the artwork itself belongs to the web app, not this engine.
func CoverURL(appID string) string {
	return fmt.Sprintf("https://cdn.cloudflare.steamstatic.com/steam/apps/%s/header.jpg", appID)
}
