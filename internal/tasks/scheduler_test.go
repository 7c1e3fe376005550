package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/repositories"
	"github.com/playlog/steamsync/internal/shared"
)

type schedulerFixture struct {
	*engineFixture
	accounts  *repositories.AccountRepository
	runs      *repositories.SyncRunRepository
	scheduler *Scheduler
}

func newSchedulerFixture(t *testing.T, cadence time.Duration) *schedulerFixture {
	t.Helper()

	ef := newEngineFixture(t)
	f := &schedulerFixture{
		engineFixture: ef,
		accounts:      repositories.NewAccountRepository(ef.db),
		runs:          repositories.NewSyncRunRepository(ef.db),
	}
	f.scheduler = NewScheduler(f.accounts, f.runs, ef.engine, time.Hour, cadence, nil)
	return f
}

func (f *schedulerFixture) linkAccount(t *testing.T, userID string) {
	t.Helper()
	err := f.accounts.Upsert(&models.LinkedAccount{
		UserID:         userID,
		SteamID:        "76561197960287930",
		ProfileURL:     "https://steamcommunity.com/profiles/76561197960287930",
		LinkedAt:       time.Now().UTC(),
		LastSyncStatus: models.StatusNever,
	})
	if err != nil {
		t.Fatalf("failed to link account: %v", err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestScheduler(t *testing.T) {
	ctx := context.Background()

	t.Run("RunNow Records The Run", func(t *testing.T) {
		f := newSchedulerFixture(t, time.Hour)
		f.linkAccount(t, "u1")
		f.setOwned(models.OwnedTitle{AppID: "1", Name: "Alpha", PlaytimeMinutes: 60})

		run, err := f.scheduler.RunNow(ctx, "u1")
		if err != nil {
			t.Fatalf("RunNow failed: %v", err)
		}
		if run.Outcome != models.OutcomeSucceeded {
			t.Errorf("expected succeeded, got %s", run.Outcome)
		}
		if run.FinishedAt == nil {
			t.Error("expected finished timestamp")
		}

		latest, err := f.runs.Latest("u1")
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if latest.ID != run.ID {
			t.Errorf("run not persisted: %s vs %s", latest.ID, run.ID)
		}

		account, err := f.accounts.Get("u1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if account.LastSyncStatus != models.StatusSucceeded {
			t.Errorf("unexpected account status: %s", account.LastSyncStatus)
		}
		if account.LastSyncAt == nil {
			t.Error("expected last sync time to advance")
		}
	})

	t.Run("Concurrent Trigger Is Rejected", func(t *testing.T) {
		f := newSchedulerFixture(t, time.Hour)
		f.linkAccount(t, "u1")

		release := make(chan struct{})
		started := make(chan struct{})
		f.library.OwnedGamesFunc = func(ctx context.Context, steamID string) ([]models.OwnedTitle, error) {
			close(started)
			<-release
			return nil, nil
		}

		runID, err := f.scheduler.TrySyncNow(ctx, "u1")
		if err != nil {
			t.Fatalf("TrySyncNow failed: %v", err)
		}
		if runID == "" {
			t.Error("expected a run id")
		}
		<-started

		if !f.scheduler.Running("u1") {
			t.Error("expected running state while sync is active")
		}
		if _, err := f.scheduler.TrySyncNow(ctx, "u1"); !errors.Is(err, shared.ErrSyncInProgress) {
			t.Errorf("expected ErrSyncInProgress, got %v", err)
		}

		close(release)
		waitFor(t, 2*time.Second, func() bool { return !f.scheduler.Running("u1") })

		// A new trigger is accepted once the first run finished.
		f.library.OwnedGamesFunc = nil
		if _, err := f.scheduler.RunNow(ctx, "u1"); err != nil {
			t.Errorf("expected new run after release, got %v", err)
		}
	})

	t.Run("Manual Trigger Survives Caller Cancellation", func(t *testing.T) {
		f := newSchedulerFixture(t, time.Hour)
		f.linkAccount(t, "u1")

		release := make(chan struct{})
		f.library.OwnedGamesFunc = func(ctx context.Context, steamID string) ([]models.OwnedTitle, error) {
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return []models.OwnedTitle{{AppID: "1", Name: "Alpha", PlaytimeMinutes: 60}}, nil
		}

		callerCtx, cancel := context.WithCancel(ctx)
		if _, err := f.scheduler.TrySyncNow(callerCtx, "u1"); err != nil {
			t.Fatalf("TrySyncNow failed: %v", err)
		}

		// The caller goes away before the run gets to the fetch.
		cancel()
		close(release)
		waitFor(t, 2*time.Second, func() bool { return !f.scheduler.Running("u1") })

		latest, err := f.runs.Latest("u1")
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if latest.Outcome != models.OutcomeSucceeded {
			t.Errorf("run must outlive its trigger, got %s (%s)", latest.Outcome, latest.ErrorDetail)
		}
	})

	t.Run("Unlinked User Cannot Sync", func(t *testing.T) {
		f := newSchedulerFixture(t, time.Hour)
		if _, err := f.scheduler.TrySyncNow(ctx, "ghost"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Failed Fetch Keeps The Account Due", func(t *testing.T) {
		f := newSchedulerFixture(t, time.Hour)
		f.linkAccount(t, "u1")

		// First attempt: the platform rejects the fetch outright.
		f.library.OwnedGamesFunc = func(ctx context.Context, steamID string) ([]models.OwnedTitle, error) {
			return nil, fmt.Errorf("%w: no token", shared.ErrRateLimited)
		}

		run, runErr := f.scheduler.RunNow(ctx, "u1")
		if !errors.Is(runErr, shared.ErrRateLimited) {
			t.Fatalf("expected the fetch error back, got %v", runErr)
		}
		if run == nil || run.Outcome != models.OutcomeFailed {
			t.Fatalf("expected failed run, got %+v", run)
		}

		account, err := f.accounts.Get("u1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if account.LastSyncStatus != models.StatusFailed {
			t.Errorf("expected failed status, got %s", account.LastSyncStatus)
		}
		if account.LastSyncAt != nil {
			t.Errorf("failed fetch must not advance last sync, got %v", account.LastSyncAt)
		}

		// Next tick retries the account because last_sync_at never moved.
		f.setOwned(models.OwnedTitle{AppID: "1", Name: "Alpha", PlaytimeMinutes: 60})
		f.scheduler.RunTick(ctx)

		account, err = f.accounts.Get("u1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if account.LastSyncStatus != models.StatusSucceeded {
			t.Errorf("expected succeeded after retry, got %s", account.LastSyncStatus)
		}
		if account.LastSyncAt == nil {
			t.Error("expected last sync time after successful retry")
		}

		runs, err := f.runs.List("u1", 10)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("expected 2 recorded runs, got %d", len(runs))
		}
	})

	t.Run("Tick Skips Accounts Within Cadence", func(t *testing.T) {
		f := newSchedulerFixture(t, time.Hour)
		f.linkAccount(t, "u1")
		if err := f.accounts.MarkSynced("u1", models.StatusSucceeded, time.Now().UTC(), true); err != nil {
			t.Fatalf("MarkSynced failed: %v", err)
		}

		called := false
		f.library.OwnedGamesFunc = func(ctx context.Context, steamID string) ([]models.OwnedTitle, error) {
			called = true
			return nil, nil
		}

		f.scheduler.RunTick(ctx)
		if called {
			t.Error("account within cadence must not sync")
		}
	})

	t.Run("Tick Syncs Overdue Accounts", func(t *testing.T) {
		f := newSchedulerFixture(t, time.Hour)
		f.linkAccount(t, "u1")
		stale := time.Now().UTC().Add(-2 * time.Hour)
		if err := f.accounts.MarkSynced("u1", models.StatusSucceeded, stale, true); err != nil {
			t.Fatalf("MarkSynced failed: %v", err)
		}
		f.setOwned(models.OwnedTitle{AppID: "1", Name: "Alpha", PlaytimeMinutes: 60})

		f.scheduler.RunTick(ctx)

		account, err := f.accounts.Get("u1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if account.LastSyncAt == nil || !account.LastSyncAt.After(stale) {
			t.Errorf("expected last sync to advance past %v, got %v", stale, account.LastSyncAt)
		}
	})

	t.Run("Tick Contains Per Account Failures", func(t *testing.T) {
		f := newSchedulerFixture(t, time.Hour)
		f.linkAccount(t, "u1")
		f.linkAccount(t, "u2")

		f.library.OwnedGamesFunc = func(ctx context.Context, steamID string) ([]models.OwnedTitle, error) {
			return nil, fmt.Errorf("%w: owned games hidden", shared.ErrPrivateLibrary)
		}

		// Both accounts get a run; neither failure aborts the tick.
		f.scheduler.RunTick(ctx)

		for _, userID := range []string{"u1", "u2"} {
			latest, err := f.runs.Latest(userID)
			if err != nil {
				t.Fatalf("Latest(%s) failed: %v", userID, err)
			}
			if latest.Outcome != models.OutcomeFailed {
				t.Errorf("%s: expected failed run, got %s", userID, latest.Outcome)
			}
		}
	})
}
