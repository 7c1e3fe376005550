package tasks

import (
	"context"
	"errors"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/repositories"
	"github.com/playlog/steamsync/internal/shared"
	"github.com/playlog/steamsync/internal/steam"
)

// Engine runs the fetch → merge → project pipeline for one account.
// It holds no per-run state and is safe to share across account runs; the
// Scheduler serializes runs per account.
type Engine struct {
	library steam.Library
	catalog *repositories.CatalogRepository
	backlog *repositories.BacklogRepository
	reviews ReviewLookup
	logger  *log.Logger
}

// NewEngine creates an Engine with the provided collaborators.
func NewEngine(
	library steam.Library,
	catalog *repositories.CatalogRepository,
	backlog *repositories.BacklogRepository,
	reviews ReviewLookup,
	logger *log.Logger,
) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		library: library,
		catalog: catalog,
		backlog: backlog,
		reviews: reviews,
		logger:  shared.WithLogger(logger, "component", "engine"),
	}
}

// Sync executes one run for the given account.
//
// A fetch-level failure (owned-games list unavailable) returns a nil result
// and the error; the caller marks the run failed without advancing
// last_sync_at. Per-title failures after that point are collected into the
// result instead of aborting the run.
func (e *Engine) Sync(ctx context.Context, userID, steamID string) (*RunResult, error) {
	owned, err := e.library.OwnedGames(ctx, steamID)
	if err != nil {
		return nil, err
	}

	// Deterministic processing order: heaviest playtime first, matching the
	// final backlog ordering.
	sort.SliceStable(owned, func(i, j int) bool {
		if owned[i].PlaytimeMinutes != owned[j].PlaytimeMinutes {
			return owned[i].PlaytimeMinutes > owned[j].PlaytimeMinutes
		}
		return owned[i].Name < owned[j].Name
	})

	maxRank, err := e.backlog.MaxRank(userID)
	if err != nil {
		return nil, err
	}
	nextRank := maxRank + 1

	result := &RunResult{}
	fetchDetails := true

	for _, title := range owned {
		result.TitlesSeen++

		var details *models.TitleDetails
		if fetchDetails && title.AppID != "" && !e.hasMetadata(title.AppID) {
			details, err = e.library.TitleDetails(ctx, title.AppID)
			if err != nil {
				result.Failures = append(result.Failures, TitleFailure{AppID: title.AppID, Name: title.Name, Err: err})
				details = nil
				if errors.Is(err, shared.ErrRateLimited) {
					// The shared budget is gone; stop burning the bounded
					// wait on every remaining title.
					e.logger.Warn("rate budget exhausted, skipping remaining metadata", "user_id", userID)
					fetchDetails = false
				}
			}
		}

		merged, err := e.mergeTitle(title, details)
		if err != nil {
			result.Failures = append(result.Failures, TitleFailure{AppID: title.AppID, Name: title.Name, Err: err})
			continue
		}

		reviewed, err := e.reviews.Exists(userID, merged.TitleID)
		if err != nil {
			result.Failures = append(result.Failures, TitleFailure{AppID: title.AppID, Name: title.Name, Err: err})
			continue
		}
		if reviewed {
			// Reviewed titles never enter the backlog.
			continue
		}

		entry := &models.BacklogEntry{
			UserID:          userID,
			TitleID:         merged.TitleID,
			PlaytimeMinutes: title.PlaytimeMinutes,
			Rank:            nextRank,
			Source:          models.SourceSynced,
		}
		created, err := e.backlog.Upsert(entry)
		if err != nil {
			result.Failures = append(result.Failures, TitleFailure{AppID: title.AppID, Name: title.Name, Err: err})
			continue
		}
		if created {
			result.TitlesAdded++
			nextRank++
		} else {
			result.TitlesUpdated++
		}
	}

	if err := e.reorder(userID); err != nil {
		result.Failures = append(result.Failures, TitleFailure{Name: "rank projection", Err: err})
	}

	e.logger.Info("sync pipeline finished",
		"user_id", userID,
		"seen", result.TitlesSeen,
		"added", result.TitlesAdded,
		"updated", result.TitlesUpdated,
		"failed", len(result.Failures),
	)
	return result, nil
}

// hasMetadata reports whether the catalog already carries storefront
// metadata for the app. A re-sync skips the appdetails call for complete
// titles so a large library doesn't drain the shared budget every pass.
func (e *Engine) hasMetadata(appID string) bool {
	title, err := e.catalog.GetByAppID(appID)
	return err == nil && title.HasMetadata()
}

// reorder recomputes synced ranks for the whole backlog after a batch.
func (e *Engine) reorder(userID string) error {
	entries, err := e.backlog.ListByUser(userID)
	if err != nil {
		return err
	}
	names, err := e.backlog.TitleNames(userID)
	if err != nil {
		return err
	}

	ranks := ProjectRanks(entries, names)

	// Only write rows whose rank actually moved.
	changed := make(map[string]int, len(ranks))
	for _, entry := range entries {
		if rank, ok := ranks[entry.TitleID]; ok && rank != entry.Rank {
			changed[entry.TitleID] = rank
		}
	}
	return e.backlog.UpdateRanks(userID, changed)
}
