package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/shared"
	th "github.com/playlog/steamsync/internal/testing"
)

func TestSyncRunRepository(t *testing.T) {
	run := func(userID string, started time.Time, outcome models.SyncOutcome) *models.SyncRun {
		finished := started.Add(time.Minute)
		return &models.SyncRun{
			UserID:     userID,
			StartedAt:  started,
			FinishedAt: &finished,
			TitlesSeen: 3,
			Outcome:    outcome,
		}
	}

	t.Run("Append Generates Id", func(t *testing.T) {
		repo := NewSyncRunRepository(th.NewTestDB(t))

		r := run("u1", time.Now().UTC(), models.OutcomeSucceeded)
		if err := repo.Append(r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if r.ID == "" {
			t.Error("expected generated run id")
		}
	})

	t.Run("Latest", func(t *testing.T) {
		repo := NewSyncRunRepository(th.NewTestDB(t))
		base := time.Now().UTC().Truncate(time.Second)

		older := run("u1", base.Add(-time.Hour), models.OutcomeFailed)
		newer := run("u1", base, models.OutcomeSucceeded)
		for _, r := range []*models.SyncRun{older, newer} {
			if err := repo.Append(r); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}

		latest, err := repo.Latest("u1")
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if latest.ID != newer.ID {
			t.Errorf("expected newest run %s, got %s", newer.ID, latest.ID)
		}
		if latest.Outcome != models.OutcomeSucceeded {
			t.Errorf("unexpected outcome: %s", latest.Outcome)
		}
	})

	t.Run("Latest Without Runs Reports Not Found", func(t *testing.T) {
		repo := NewSyncRunRepository(th.NewTestDB(t))
		if _, err := repo.Latest("u1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List Newest First With Limit", func(t *testing.T) {
		repo := NewSyncRunRepository(th.NewTestDB(t))
		base := time.Now().UTC().Truncate(time.Second)

		for i := 0; i < 5; i++ {
			if err := repo.Append(run("u1", base.Add(time.Duration(i)*time.Minute), models.OutcomeSucceeded)); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}
		if err := repo.Append(run("u2", base, models.OutcomeFailed)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}

		runs, err := repo.List("u1", 3)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		for i := 1; i < len(runs); i++ {
			if runs[i].StartedAt.After(runs[i-1].StartedAt) {
				t.Errorf("runs not ordered newest first at position %d", i)
			}
		}
		for _, r := range runs {
			if r.UserID != "u1" {
				t.Errorf("unexpected user in results: %s", r.UserID)
			}
		}
	})
}
