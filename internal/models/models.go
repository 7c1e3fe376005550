// package models defines the data model for the steam library sync engine
package models

import (
	"fmt"
	"strings"
	"time"
)

// SyncOutcome classifies how a sync run finished.
type SyncOutcome string

const (
	OutcomeSucceeded SyncOutcome = "succeeded"
	OutcomePartial   SyncOutcome = "partial"
	OutcomeFailed    SyncOutcome = "failed"
)

// SyncStatus is the last recorded sync state on a linked account.
// StatusNever marks accounts that have not completed a run yet; the other
// values mirror [SyncOutcome].
type SyncStatus string

const (
	StatusNever     SyncStatus = "never"
	StatusSucceeded SyncStatus = SyncStatus(OutcomeSucceeded)
	StatusPartial   SyncStatus = SyncStatus(OutcomePartial)
	StatusFailed    SyncStatus = SyncStatus(OutcomeFailed)
)

// EntrySource records whether a backlog entry was placed by the user or by a sync run.
type EntrySource string

const (
	SourceManual EntrySource = "manual"
	SourceSynced EntrySource = "synced"
)

// LinkedAccount associates a local user with a Steam identity.
// At most one exists per user.
type LinkedAccount struct {
	UserID         string
	SteamID        string // canonical 64-bit id, stored as its decimal string
	ProfileURL     string // raw profile reference the user supplied, kept for display
	LinkedAt       time.Time
	LastSyncAt     *time.Time // nil until the first completed run
	LastSyncStatus SyncStatus
}

// Validate checks that the account carries a user and a canonical Steam id.
func (a *LinkedAccount) Validate() error {
	if a.UserID == "" {
		return fmt.Errorf("linked account requires a user id")
	}
	if a.SteamID == "" {
		return fmt.Errorf("linked account requires a steam id")
	}
	for _, r := range a.SteamID {
		if r < '0' || r > '9' {
			return fmt.Errorf("steam id must be numeric: %q", a.SteamID)
		}
	}
	return nil
}

// CatalogTitle is the shared, de-duplicated game record.
// Identity is global and immutable once created: every sync referencing the
// same app id reuses the same TitleID.
type CatalogTitle struct {
	TitleID        string
	AppID          string // Steam app id; empty for titles without an external identity
	Name           string
	NormalizedName string
	Description    string
	Genres         string
	Developer      string
	Publisher      string
	ReleaseDate    string
	Price          *float64
	OriginalPrice  *float64
	SalePrice      *float64
	CoverURL       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasMetadata reports whether the storefront fields are populated. A title
// counts as complete once description, genres, and developer are all set.
func (t *CatalogTitle) HasMetadata() bool {
	return t.Description != "" && t.Genres != "" && t.Developer != ""
}

// Validate checks that the title has a display name.
func (t *CatalogTitle) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("catalog title requires a name")
	}
	return nil
}

// BacklogEntry is a user-owned, unreviewed title queued for rating.
// Unique per (UserID, TitleID).
type BacklogEntry struct {
	UserID          string
	TitleID         string
	PlaytimeMinutes int
	Rank            int
	Source          EntrySource
	UpdatedAt       time.Time
}

// Validate checks entry identity and source.
func (e *BacklogEntry) Validate() error {
	if e.UserID == "" || e.TitleID == "" {
		return fmt.Errorf("backlog entry requires user and title ids")
	}
	if e.Source != SourceManual && e.Source != SourceSynced {
		return fmt.Errorf("unknown backlog source: %q", e.Source)
	}
	return nil
}

// SyncRun records one execution of the fetch, merge, project pipeline for one account.
type SyncRun struct {
	ID            string
	UserID        string
	StartedAt     time.Time
	FinishedAt    *time.Time
	TitlesSeen    int
	TitlesAdded   int
	TitlesUpdated int
	Outcome       SyncOutcome
	ErrorDetail   string
}

// OwnedTitle is one owned game as reported by the Steam Web API.
type OwnedTitle struct {
	AppID           string
	Name            string
	PlaytimeMinutes int
}

// TitleDetails carries best-effort storefront metadata for a single title.
// Zero-value fields mean the storefront did not report them.
type TitleDetails struct {
	Description   string
	Genres        string
	Developer     string
	Publisher     string
	ReleaseDate   string
	Price         *float64
	OriginalPrice *float64
	SalePrice     *float64
}

// NormalizeName produces the catalog's fallback de-duplication key:
// lowercased with runs of whitespace collapsed to single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
