package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/shared"
)

func newServiceFixture(t *testing.T) (*schedulerFixture, *Service) {
	t.Helper()
	f := newSchedulerFixture(t, time.Hour)
	service := NewService(f.library, f.accounts, f.runs, f.scheduler, nil)
	return f, service
}

func TestService(t *testing.T) {
	ctx := context.Background()

	t.Run("Link Imports Synchronously", func(t *testing.T) {
		f, service := newServiceFixture(t)
		f.setOwned(
			models.OwnedTitle{AppID: "1", Name: "Alpha", PlaytimeMinutes: 600},
			models.OwnedTitle{AppID: "2", Name: "Beta", PlaytimeMinutes: 120},
		)

		result, err := service.Link(ctx, "u1", "https://steamcommunity.com/id/gaben")
		if err != nil {
			t.Fatalf("Link failed: %v", err)
		}
		if result.Account.SteamID != "76561197960287930" {
			t.Errorf("unexpected steam id: %s", result.Account.SteamID)
		}
		if result.Run.Outcome != models.OutcomeSucceeded {
			t.Errorf("expected succeeded import, got %s", result.Run.Outcome)
		}
		if result.Run.TitlesAdded != 2 {
			t.Errorf("expected 2 titles imported, got %d", result.Run.TitlesAdded)
		}

		entries, err := f.backlog.ListByUser("u1")
		if err != nil {
			t.Fatalf("ListByUser failed: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("backlog not populated before Link returned, got %d entries", len(entries))
		}
	})

	t.Run("Link Rejects Unresolvable Profiles", func(t *testing.T) {
		f, service := newServiceFixture(t)
		f.library.ResolveProfileFunc = func(ctx context.Context, ref string) (string, error) {
			return "", fmt.Errorf("%w: vanity name %q", shared.ErrProfileNotFound, ref)
		}

		_, err := service.Link(ctx, "u1", "nobody")
		if !errors.Is(err, shared.ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}

		info, err := service.Status("u1")
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if info.Linked {
			t.Error("failed resolution must not link the account")
		}
	})

	t.Run("Partial Import Still Links", func(t *testing.T) {
		f, service := newServiceFixture(t)
		f.setOwned(models.OwnedTitle{AppID: "1", Name: "Alpha", PlaytimeMinutes: 600})
		f.library.TitleDetailsFunc = func(ctx context.Context, appID string) (*models.TitleDetails, error) {
			return nil, fmt.Errorf("%w: status 503", shared.ErrTransientNetwork)
		}

		result, err := service.Link(ctx, "u1", "76561197960287930")
		if !errors.Is(err, shared.ErrPartialImport) {
			t.Fatalf("expected ErrPartialImport, got %v", err)
		}
		if result == nil || result.Run.Outcome != models.OutcomePartial {
			t.Fatalf("expected partial run result, got %+v", result)
		}

		info, err := service.Status("u1")
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if !info.Linked {
			t.Error("partial import must still link the account")
		}
		if info.LastSyncStatus != models.StatusPartial {
			t.Errorf("unexpected status: %s", info.LastSyncStatus)
		}
	})

	t.Run("Failed Import Leaves The Link In Place", func(t *testing.T) {
		f, service := newServiceFixture(t)
		f.library.OwnedGamesFunc = func(ctx context.Context, steamID string) ([]models.OwnedTitle, error) {
			return nil, fmt.Errorf("%w: owned games hidden", shared.ErrPrivateLibrary)
		}

		result, err := service.Link(ctx, "u1", "76561197960287930")
		if !errors.Is(err, shared.ErrPrivateLibrary) {
			t.Fatalf("expected the fetch error to surface, got %v", err)
		}
		if result == nil || result.Run.Outcome != models.OutcomeFailed {
			t.Fatalf("expected failed run result, got %+v", result)
		}

		info, err := service.Status("u1")
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if !info.Linked {
			t.Error("account should stay linked so the scheduler can retry")
		}
		if info.LastSyncAt != nil {
			t.Errorf("failed import must not advance last sync, got %v", info.LastSyncAt)
		}
	})

	t.Run("Relink Replaces The Identity", func(t *testing.T) {
		f, service := newServiceFixture(t)
		f.library.ResolveProfileFunc = func(ctx context.Context, ref string) (string, error) {
			return ref, nil
		}

		if _, err := service.Link(ctx, "u1", "111"); err != nil {
			t.Fatalf("first Link failed: %v", err)
		}
		if _, err := service.Link(ctx, "u1", "222"); err != nil {
			t.Fatalf("second Link failed: %v", err)
		}

		info, err := service.Status("u1")
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if info.SteamID != "222" {
			t.Errorf("expected replaced identity, got %s", info.SteamID)
		}
	})

	t.Run("SyncNow Requires A Link", func(t *testing.T) {
		_, service := newServiceFixture(t)
		_, err := service.SyncNow(ctx, "ghost")
		if !errors.Is(err, shared.ErrAccountNotLinked) {
			t.Errorf("expected ErrAccountNotLinked, got %v", err)
		}
	})

	t.Run("Unlink Keeps Backlog Data", func(t *testing.T) {
		f, service := newServiceFixture(t)
		f.setOwned(models.OwnedTitle{AppID: "1", Name: "Alpha", PlaytimeMinutes: 600})

		if _, err := service.Link(ctx, "u1", "76561197960287930"); err != nil {
			t.Fatalf("Link failed: %v", err)
		}
		if err := service.Unlink("u1"); err != nil {
			t.Fatalf("Unlink failed: %v", err)
		}

		info, err := service.Status("u1")
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if info.Linked {
			t.Error("expected unlinked status")
		}

		entries, err := f.backlog.ListByUser("u1")
		if err != nil {
			t.Fatalf("ListByUser failed: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("unlink must keep backlog entries, got %d", len(entries))
		}
	})
}
