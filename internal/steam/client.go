// Steam Web API implementation of [Library]
//
// Response shapes based on the documented IPlayerService / ISteamUser
// endpoints and the storefront appdetails endpoint.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/shared"
)

const (
	defaultAPIBase   = "https://api.steampowered.com"
	defaultStoreBase = "https://store.steampowered.com"

	maxAttempts    = 3
	backoffBase    = 500 * time.Millisecond
	backoffCeiling = 4 * time.Second
)

// ownedGame is one entry of the GetOwnedGames response.
type ownedGame struct {
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`
}

// ownedGamesResponse wraps the GetOwnedGames payload. GameCount is a pointer
// because a private library omits the key entirely while a public empty
// library reports zero; that difference is the only signal we get.
type ownedGamesResponse struct {
	Response struct {
		GameCount *int        `json:"game_count"`
		Games     []ownedGame `json:"games"`
	} `json:"response"`
}

// vanityResponse wraps the ResolveVanityURL payload.
type vanityResponse struct {
	Response struct {
		Success int    `json:"success"`
		SteamID string `json:"steamid"`
	} `json:"response"`
}

// storeGenre is one genre descriptor in an appdetails payload.
type storeGenre struct {
	Description string `json:"description"`
}

// storePrice is the appdetails price overview; values are in cents.
type storePrice struct {
	Initial         int `json:"initial"`
	Final           int `json:"final"`
	DiscountPercent int `json:"discount_percent"`
}

// storeDetails is the data body of an appdetails entry.
type storeDetails struct {
	ShortDescription string       `json:"short_description"`
	Genres           []storeGenre `json:"genres"`
	Developers       []string     `json:"developers"`
	Publishers       []string     `json:"publishers"`
	ReleaseDate      struct {
		Date string `json:"date"`
	} `json:"release_date"`
	PriceOverview *storePrice `json:"price_overview"`
	IsFree        bool        `json:"is_free"`
}

// storeEntry is one appdetails response entry, keyed by app id in the payload.
type storeEntry struct {
	Success bool         `json:"success"`
	Data    storeDetails `json:"data"`
}

// Client implements the [Library] interface against the live Steam APIs.
// All requests share one [Budget].
type Client struct {
	apiKey     string
	apiBase    string
	storeBase  string
	httpClient *http.Client
	budget     *Budget
	logger     *log.Logger
}

// NewClient creates a Steam client with the given configuration and shared budget.
func NewClient(cfg shared.SteamConfig, budget *Budget, client *http.Client, logger *log.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, shared.ErrMissingAPIKey
	}
	if budget == nil {
		return nil, fmt.Errorf("%w: client requires a request budget", shared.ErrInvalidConfig)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	storeBase := cfg.StoreURL
	if storeBase == "" {
		storeBase = defaultStoreBase
	}

	return &Client{
		apiKey:     cfg.APIKey,
		apiBase:    strings.TrimRight(apiBase, "/"),
		storeBase:  strings.TrimRight(storeBase, "/"),
		httpClient: client,
		budget:     budget,
		logger:     shared.WithLogger(logger, "component", "steam"),
	}, nil
}

func (c *Client) Name() string {
	return "Steam"
}

// OwnedGames retrieves the full owned-title list for an account.
//
// A response that omits game_count entirely means the library is hidden and
// fails with [shared.ErrPrivateLibrary]; an explicit zero count is a public
// empty library and returns an empty slice.
func (c *Client) OwnedGames(ctx context.Context, steamID string) ([]models.OwnedTitle, error) {
	query := url.Values{
		"key":                       {c.apiKey},
		"steamid":                   {steamID},
		"include_appinfo":           {"1"},
		"include_played_free_games": {"1"},
		"format":                    {"json"},
	}
	endpoint := fmt.Sprintf("%s/IPlayerService/GetOwnedGames/v1/?%s", c.apiBase, query.Encode())

	var payload ownedGamesResponse
	if err := c.doGet(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	if payload.Response.GameCount == nil {
		return nil, fmt.Errorf("%w: owned games hidden for account %s", shared.ErrPrivateLibrary, steamID)
	}

	titles := make([]models.OwnedTitle, 0, len(payload.Response.Games))
	for _, g := range payload.Response.Games {
		if g.AppID == 0 {
			continue
		}
		titles = append(titles, models.OwnedTitle{
			AppID:           strconv.FormatInt(g.AppID, 10),
			Name:            strings.TrimSpace(g.Name),
			PlaytimeMinutes: g.PlaytimeForever,
		})
	}
	return titles, nil
}

// TitleDetails retrieves best-effort storefront metadata for one title.
// The storefront reporting success=false is not an error; the title simply
// has no extended metadata.
func (c *Client) TitleDetails(ctx context.Context, appID string) (*models.TitleDetails, error) {
	endpoint := fmt.Sprintf("%s/api/appdetails?appids=%s&cc=us", c.storeBase, url.QueryEscape(appID))

	payload := map[string]storeEntry{}
	if err := c.doGet(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	entry, ok := payload[appID]
	if !ok || !entry.Success {
		return nil, nil
	}

	details := &models.TitleDetails{
		Description: strings.TrimSpace(entry.Data.ShortDescription),
		Developer:   strings.Join(entry.Data.Developers, ", "),
		Publisher:   strings.Join(entry.Data.Publishers, ", "),
		ReleaseDate: entry.Data.ReleaseDate.Date,
	}

	genres := make([]string, 0, len(entry.Data.Genres))
	for _, g := range entry.Data.Genres {
		if g.Description != "" {
			genres = append(genres, g.Description)
		}
	}
	details.Genres = strings.Join(genres, ", ")

	if po := entry.Data.PriceOverview; po != nil {
		if po.Initial > 0 {
			details.OriginalPrice = centsPtr(po.Initial)
		}
		if po.Final > 0 {
			details.Price = centsPtr(po.Final)
			if po.DiscountPercent > 0 {
				details.SalePrice = centsPtr(po.Final)
			}
			if details.OriginalPrice == nil {
				details.OriginalPrice = centsPtr(po.Final)
			}
		}
	} else if entry.Data.IsFree {
		zero := 0.0
		details.Price = &zero
		details.OriginalPrice = &zero
	}

	return details, nil
}

// doGet executes a budgeted GET with retries on transient failures.
func (c *Client) doGet(ctx context.Context, rawURL string, result any) error {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}

		if err := c.budget.Acquire(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Debug("request failed, retrying", "attempt", attempt+1, "error", err)
			continue
		}

		done, err := c.consume(resp, result)
		if done {
			return err
		}
		lastErr = err
		c.logger.Debug("retryable response", "attempt", attempt+1, "error", err)
	}

	return fmt.Errorf("%w: %v", shared.ErrTransientNetwork, lastErr)
}

// consume reads one response. done=false signals the caller to retry.
func (c *Client) consume(resp *http.Response, result any) (done bool, err error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if result == nil {
			return true, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return true, fmt.Errorf("failed to decode response: %w", err)
		}
		return true, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return false, fmt.Errorf("status %d", resp.StatusCode)
	default:
		// Auth and client errors are not retried.
		return true, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
}

// backoffDelay returns the capped exponential delay before the given attempt.
func backoffDelay(attempt int) time.Duration {
	d := backoffBase << (attempt - 1)
	if d > backoffCeiling {
		return backoffCeiling
	}
	return d
}

func centsPtr(cents int) *float64 {
	v := float64(cents) / 100.0
	return &v
}
