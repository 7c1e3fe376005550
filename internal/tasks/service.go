package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/repositories"
	"github.com/playlog/steamsync/internal/shared"
	"github.com/playlog/steamsync/internal/steam"
)

// Service is the operation surface the HTTP handlers and CLI commands call.
// It wires profile resolution, the account repository, and the scheduler
// into the link / sync / status / unlink operations.
type Service struct {
	library   steam.Library
	accounts  *repositories.AccountRepository
	runs      *repositories.SyncRunRepository
	scheduler *Scheduler
	logger    *log.Logger
}

// NewService creates the operation facade.
func NewService(
	library steam.Library,
	accounts *repositories.AccountRepository,
	runs *repositories.SyncRunRepository,
	scheduler *Scheduler,
	logger *log.Logger,
) *Service {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Service{
		library:   library,
		accounts:  accounts,
		runs:      runs,
		scheduler: scheduler,
		logger:    shared.WithLogger(logger, "component", "service"),
	}
}

// LinkResult is what the caller gets back from a completed link.
type LinkResult struct {
	Account *models.LinkedAccount
	Run     *models.SyncRun
}

// Link resolves the profile reference, stores the association, and performs
// the initial import synchronously so the user's backlog is populated before
// the call returns. Relinking the same user replaces the stored identity.
//
// A partial initial import still links the account; the returned error wraps
// shared.ErrPartialImport so callers can surface it without undoing the link.
func (s *Service) Link(ctx context.Context, userID, profileRef string) (*LinkResult, error) {
	steamID, err := s.library.ResolveProfile(ctx, profileRef)
	if err != nil {
		return nil, err
	}

	account := &models.LinkedAccount{
		UserID:         userID,
		SteamID:        steamID,
		ProfileURL:     profileRef,
		LinkedAt:       time.Now().UTC(),
		LastSyncStatus: models.StatusNever,
	}
	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if err := s.accounts.Upsert(account); err != nil {
		return nil, err
	}
	s.logger.Info("account linked", "user_id", userID, "steam_id", steamID)

	run, runErr := s.scheduler.RunNow(ctx, userID)
	if run == nil {
		return nil, runErr
	}

	result := &LinkResult{Account: account, Run: run}
	if runErr != nil {
		// The account stays linked; the scheduler retries on its next tick.
		return result, fmt.Errorf("initial import failed: %w", runErr)
	}
	if run.Outcome == models.OutcomePartial {
		return result, fmt.Errorf("%w: %s", shared.ErrPartialImport, run.ErrorDetail)
	}
	return result, nil
}

// SyncNow triggers a manual run for the account and returns the run id
// without waiting for it to finish.
func (s *Service) SyncNow(ctx context.Context, userID string) (string, error) {
	runID, err := s.scheduler.TrySyncNow(ctx, userID)
	if err != nil && isNotFound(err) {
		return "", fmt.Errorf("%w: user %s", shared.ErrAccountNotLinked, userID)
	}
	return runID, err
}

// Unlink removes the account association. Catalog titles and backlog entries
// are left in place.
func (s *Service) Unlink(userID string) error {
	if err := s.accounts.Delete(userID); err != nil {
		return err
	}
	s.logger.Info("account unlinked", "user_id", userID)
	return nil
}

// StatusInfo summarizes an account's sync state for display.
type StatusInfo struct {
	Linked         bool
	SteamID        string
	ProfileURL     string
	LinkedAt       time.Time
	LastSyncAt     *time.Time
	LastSyncStatus models.SyncStatus
	Running        bool
}

// Status reports whether the user has a linked account and where its sync
// state stands. An unlinked user yields Linked=false rather than an error.
func (s *Service) Status(userID string) (*StatusInfo, error) {
	account, err := s.accounts.Get(userID)
	if err != nil {
		if isNotFound(err) {
			return &StatusInfo{Linked: false}, nil
		}
		return nil, err
	}
	return &StatusInfo{
		Linked:         true,
		SteamID:        account.SteamID,
		ProfileURL:     account.ProfileURL,
		LinkedAt:       account.LinkedAt,
		LastSyncAt:     account.LastSyncAt,
		LastSyncStatus: account.LastSyncStatus,
		Running:        s.scheduler.Running(userID),
	}, nil
}

// Runs returns the account's most recent sync runs, newest first.
func (s *Service) Runs(userID string, limit int) ([]*models.SyncRun, error) {
	return s.runs.List(userID, limit)
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
