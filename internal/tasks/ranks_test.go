package tasks

import (
	"errors"
	"strings"
	"testing"

	"github.com/playlog/steamsync/internal/models"
)

var errTest = errors.New("boom")

func synced(titleID string, playtime, rank int) *models.BacklogEntry {
	return &models.BacklogEntry{
		UserID:          "u1",
		TitleID:         titleID,
		PlaytimeMinutes: playtime,
		Rank:            rank,
		Source:          models.SourceSynced,
	}
}

func manual(titleID string, rank int) *models.BacklogEntry {
	return &models.BacklogEntry{
		UserID:  "u1",
		TitleID: titleID,
		Rank:    rank,
		Source:  models.SourceManual,
	}
}

func TestProjectRanks(t *testing.T) {
	t.Run("Orders By Playtime Descending", func(t *testing.T) {
		entries := []*models.BacklogEntry{
			synced("b", 120, 1),
			synced("a", 600, 2),
			synced("c", 300, 3),
		}
		names := map[string]string{"a": "Alpha", "b": "Beta", "c": "Gamma"}

		ranks := ProjectRanks(entries, names)
		if ranks["a"] != 1 || ranks["c"] != 2 || ranks["b"] != 3 {
			t.Errorf("unexpected ranks: %v", ranks)
		}
	})

	t.Run("Ties Break By Name Then Id", func(t *testing.T) {
		entries := []*models.BacklogEntry{
			synced("z", 100, 1),
			synced("a", 100, 2),
			synced("m", 100, 3),
		}
		names := map[string]string{"z": "Apple", "a": "Banana", "m": "Apple"}

		ranks := ProjectRanks(entries, names)
		// Two titles named Apple sort by title id; Banana comes last.
		if ranks["m"] != 1 || ranks["z"] != 2 || ranks["a"] != 3 {
			t.Errorf("unexpected ranks: %v", ranks)
		}
	})

	t.Run("Manual Positions Are Never Reassigned", func(t *testing.T) {
		entries := []*models.BacklogEntry{
			manual("pinned", 2),
			synced("a", 600, 1),
			synced("b", 300, 3),
			synced("c", 100, 4),
		}
		names := map[string]string{"a": "Alpha", "b": "Beta", "c": "Gamma", "pinned": "Pinned"}

		ranks := ProjectRanks(entries, names)
		if _, ok := ranks["pinned"]; ok {
			t.Error("manual entries must not be ranked")
		}
		if ranks["a"] != 1 {
			t.Errorf("expected a at 1, got %d", ranks["a"])
		}
		if ranks["b"] != 3 {
			t.Errorf("expected b to skip the manual slot, got %d", ranks["b"])
		}
		if ranks["c"] != 4 {
			t.Errorf("expected c at 4, got %d", ranks["c"])
		}
	})

	t.Run("Consecutive Manual Slots", func(t *testing.T) {
		entries := []*models.BacklogEntry{
			manual("m1", 1),
			manual("m2", 2),
			synced("a", 500, 3),
			synced("b", 100, 4),
		}
		names := map[string]string{"a": "Alpha", "b": "Beta"}

		ranks := ProjectRanks(entries, names)
		if ranks["a"] != 3 || ranks["b"] != 4 {
			t.Errorf("unexpected ranks: %v", ranks)
		}
	})

	t.Run("Empty Backlog", func(t *testing.T) {
		ranks := ProjectRanks(nil, nil)
		if len(ranks) != 0 {
			t.Errorf("expected no ranks, got %v", ranks)
		}
	})
}

func TestRunResult(t *testing.T) {
	t.Run("Clean Run Succeeds", func(t *testing.T) {
		r := &RunResult{TitlesSeen: 3, TitlesAdded: 3}
		if r.Outcome() != models.OutcomeSucceeded {
			t.Errorf("expected succeeded, got %s", r.Outcome())
		}
		if r.ErrorDetail() != "" {
			t.Errorf("expected empty detail, got %q", r.ErrorDetail())
		}
	})

	t.Run("Failures Make The Run Partial", func(t *testing.T) {
		r := &RunResult{
			TitlesSeen: 3,
			Failures: []TitleFailure{
				{AppID: "220", Name: "Half-Life 2", Err: errTest},
				{AppID: "400", Err: errTest},
			},
		}
		if r.Outcome() != models.OutcomePartial {
			t.Errorf("expected partial, got %s", r.Outcome())
		}
		detail := r.ErrorDetail()
		if detail == "" {
			t.Fatal("expected error detail")
		}
		for _, want := range []string{"2 title(s) failed", "Half-Life 2", "400"} {
			if !strings.Contains(detail, want) {
				t.Errorf("detail %q missing %q", detail, want)
			}
		}
	})
}
