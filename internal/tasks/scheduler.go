package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/repositories"
	"github.com/playlog/steamsync/internal/shared"
)

// Scheduler owns the per-account sync state machine. At most one run may be
// active per account; the lock table below enforces that for both the cadence
// loop and manual triggers.
type Scheduler struct {
	accounts *repositories.AccountRepository
	runs     *repositories.SyncRunRepository
	engine   *Engine
	tick     time.Duration
	cadence  time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	running map[string]bool

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewScheduler creates a Scheduler. Tick controls how often due accounts are
// scanned; cadence is the minimum age of last_sync_at before an account is
// due again.
func NewScheduler(
	accounts *repositories.AccountRepository,
	runs *repositories.SyncRunRepository,
	engine *Engine,
	tick, cadence time.Duration,
	logger *log.Logger,
) *Scheduler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Scheduler{
		accounts: accounts,
		runs:     runs,
		engine:   engine,
		tick:     tick,
		cadence:  cadence,
		logger:   shared.WithLogger(logger, "component", "scheduler"),
		running:  make(map[string]bool),
	}
}

// Start launches the cadence loop. It returns immediately; Stop shuts the
// loop down and waits for in-flight runs.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		s.logger.Info("scheduler started", "tick", s.tick, "cadence", s.cadence)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("scheduler stopping")
				return
			case <-ticker.C:
				s.RunTick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and blocks until all in-flight runs complete.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunTick scans every linked account and syncs the due ones sequentially.
// Per-account failures are recorded on their own runs and never abort the
// tick.
func (s *Scheduler) RunTick(ctx context.Context) {
	accounts, err := s.accounts.List()
	if err != nil {
		s.logger.Error("listing linked accounts", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, account := range accounts {
		if ctx.Err() != nil {
			return
		}
		if !s.due(account, now) {
			continue
		}
		if !s.tryAcquire(account.UserID) {
			continue
		}
		s.runAccount(ctx, account, shared.GenerateID())
	}
}

// TrySyncNow starts a manual run for the account off the caller's goroutine.
// It returns the run id, or shared.ErrSyncInProgress when a run is already
// active. Manual triggers bypass the cadence check only.
func (s *Scheduler) TrySyncNow(ctx context.Context, userID string) (string, error) {
	account, err := s.accounts.Get(userID)
	if err != nil {
		return "", err
	}
	if !s.tryAcquire(userID) {
		return "", fmt.Errorf("%w: user %s", shared.ErrSyncInProgress, userID)
	}

	// The run outlives the trigger. Over HTTP the request context is
	// canceled as soon as the 202 goes out, which would kill the run
	// mid-fetch.
	runCtx := context.WithoutCancel(ctx)

	runID := shared.GenerateID()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runAccount(runCtx, account, runID)
	}()
	return runID, nil
}

// RunNow executes a run for the account on the calling goroutine, returning
// the recorded run. Used for the synchronous initial import on link. When
// the fetch itself failed, the run is still recorded and returned alongside
// the fetch error.
func (s *Scheduler) RunNow(ctx context.Context, userID string) (*models.SyncRun, error) {
	account, err := s.accounts.Get(userID)
	if err != nil {
		return nil, err
	}
	if !s.tryAcquire(userID) {
		return nil, fmt.Errorf("%w: user %s", shared.ErrSyncInProgress, userID)
	}
	return s.runAccount(ctx, account, shared.GenerateID())
}

// Running reports whether a run is currently active for the account.
func (s *Scheduler) Running(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[userID]
}

func (s *Scheduler) due(account *models.LinkedAccount, now time.Time) bool {
	if account.LastSyncAt == nil {
		return true
	}
	return now.Sub(*account.LastSyncAt) >= s.cadence
}

func (s *Scheduler) tryAcquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[userID] {
		return false
	}
	s.running[userID] = true
	return true
}

func (s *Scheduler) release(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, userID)
}

// runAccount executes one run, records it, and updates the account's sync
// status. The caller must already hold the account's slot in the lock table.
// The returned error is the fetch-level failure, if any; per-title failures
// live on the run itself.
func (s *Scheduler) runAccount(ctx context.Context, account *models.LinkedAccount, runID string) (run *models.SyncRun, err error) {
	defer s.release(account.UserID)

	run = &models.SyncRun{
		ID:        runID,
		UserID:    account.UserID,
		StartedAt: time.Now().UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sync panicked", "user_id", account.UserID, "panic", r)
			run.Outcome = models.OutcomeFailed
			run.ErrorDetail = fmt.Sprintf("panic: %v", r)
			err = fmt.Errorf("sync panicked: %v", r)
			s.finish(run, false)
		}
	}()

	s.logger.Info("sync starting", "user_id", account.UserID, "run_id", run.ID)
	result, err := s.engine.Sync(ctx, account.UserID, account.SteamID)
	if err != nil {
		run.Outcome = models.OutcomeFailed
		run.ErrorDetail = err.Error()
		s.logger.Error("sync failed", "user_id", account.UserID, "error", err)
		s.finish(run, false)
		return run, err
	}

	run.TitlesSeen = result.TitlesSeen
	run.TitlesAdded = result.TitlesAdded
	run.TitlesUpdated = result.TitlesUpdated
	run.Outcome = result.Outcome()
	run.ErrorDetail = result.ErrorDetail()
	s.finish(run, true)
	return run, nil
}

// finish stamps the run, persists it, and updates the account row. The
// advance flag controls whether last_sync_at moves; a failed fetch leaves it
// untouched so the next tick retries.
func (s *Scheduler) finish(run *models.SyncRun, advance bool) {
	now := time.Now().UTC()
	run.FinishedAt = &now

	if err := s.runs.Append(run); err != nil {
		s.logger.Error("recording sync run", "run_id", run.ID, "error", err)
	}
	if err := s.accounts.MarkSynced(run.UserID, models.SyncStatus(run.Outcome), now, advance); err != nil {
		s.logger.Error("updating account status", "user_id", run.UserID, "error", err)
	}
}
