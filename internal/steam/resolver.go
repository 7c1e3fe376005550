package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/playlog/steamsync/internal/shared"
)

var vanityPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ResolveProfile normalizes a user-supplied profile reference into the
// canonical 64-bit account id. Accepted forms:
//
//   - https://steamcommunity.com/profiles/<id64>
//   - https://steamcommunity.com/id/<vanity>
//   - https://steamcommunity.com/wishlist/profiles/<id64>
//   - bare numeric id
//   - bare vanity name
//
// Vanity names resolve through ISteamUser/ResolveVanityURL with a single
// call; there is no retry loop here.
func (c *Client) ResolveProfile(ctx context.Context, profile string) (string, error) {
	id, vanity, err := parseProfileRef(profile)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	return c.resolveVanity(ctx, vanity)
}

// parseProfileRef splits a profile reference into either a numeric id or a
// vanity name needing remote resolution.
func parseProfileRef(profile string) (id, vanity string, err error) {
	ref := strings.TrimSpace(profile)
	if ref == "" {
		return "", "", fmt.Errorf("%w: empty profile reference", shared.ErrInvalidProfileFormat)
	}

	if strings.Contains(ref, "://") || strings.Contains(ref, "steamcommunity.com") {
		parsed, parseErr := url.Parse(ref)
		if parseErr != nil {
			return "", "", fmt.Errorf("%w: %q", shared.ErrInvalidProfileFormat, profile)
		}
		path := strings.Trim(parsed.Path, "/")
		parts := strings.Split(path, "/")

		switch {
		case len(parts) >= 3 && parts[0] == "wishlist" && parts[1] == "profiles":
			return numericID(parts[2], profile)
		case len(parts) >= 2 && parts[0] == "profiles":
			return numericID(parts[1], profile)
		case len(parts) >= 2 && parts[0] == "id":
			if !vanityPattern.MatchString(parts[1]) {
				return "", "", fmt.Errorf("%w: %q", shared.ErrInvalidProfileFormat, profile)
			}
			return "", parts[1], nil
		case len(parts) == 1 && isDigits(parts[0]):
			return parts[0], "", nil
		default:
			return "", "", fmt.Errorf("%w: %q", shared.ErrInvalidProfileFormat, profile)
		}
	}

	if isDigits(ref) {
		return ref, "", nil
	}
	if vanityPattern.MatchString(ref) {
		return "", ref, nil
	}
	return "", "", fmt.Errorf("%w: %q", shared.ErrInvalidProfileFormat, profile)
}

// resolveVanity asks the Steam Web API to translate a vanity name.
func (c *Client) resolveVanity(ctx context.Context, vanity string) (string, error) {
	if err := c.budget.Acquire(ctx); err != nil {
		return "", err
	}

	query := url.Values{"key": {c.apiKey}, "vanityurl": {vanity}}
	endpoint := fmt.Sprintf("%s/ISteamUser/ResolveVanityURL/v1/?%s", c.apiBase, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload vanityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if payload.Response.Success != 1 || payload.Response.SteamID == "" {
		return "", fmt.Errorf("%w: vanity name %q", shared.ErrProfileNotFound, vanity)
	}
	return payload.Response.SteamID, nil
}

func numericID(candidate, original string) (string, string, error) {
	if !isDigits(candidate) {
		return "", "", fmt.Errorf("%w: %q", shared.ErrInvalidProfileFormat, original)
	}
	return candidate, "", nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
