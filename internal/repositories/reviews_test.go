package repositories

import (
	"testing"

	th "github.com/playlog/steamsync/internal/testing"
)

func TestReviewRepository(t *testing.T) {
	db := th.NewTestDB(t)
	repo := NewReviewRepository(db)

	exists, err := repo.Exists("u1", "t1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected no review")
	}

	if _, err := db.Exec(`INSERT INTO reviews (user_id, title_id) VALUES (?, ?)`, "u1", "t1"); err != nil {
		t.Fatalf("failed to insert review: %v", err)
	}

	exists, err = repo.Exists("u1", "t1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected review to exist")
	}
}
