// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/shared"
)

// MockLibrary is a test double for [steam.Library]. Function fields override
// individual calls; unset fields return empty successes.
type MockLibrary struct {
	ResolveProfileFunc func(ctx context.Context, ref string) (string, error)
	OwnedGamesFunc     func(ctx context.Context, steamID string) ([]models.OwnedTitle, error)
	TitleDetailsFunc   func(ctx context.Context, appID string) (*models.TitleDetails, error)
}

func (m *MockLibrary) ResolveProfile(ctx context.Context, ref string) (string, error) {
	if m.ResolveProfileFunc != nil {
		return m.ResolveProfileFunc(ctx, ref)
	}
	return "76561197960287930", nil
}

func (m *MockLibrary) OwnedGames(ctx context.Context, steamID string) ([]models.OwnedTitle, error) {
	if m.OwnedGamesFunc != nil {
		return m.OwnedGamesFunc(ctx, steamID)
	}
	return []models.OwnedTitle{}, nil
}

func (m *MockLibrary) TitleDetails(ctx context.Context, appID string) (*models.TitleDetails, error) {
	if m.TitleDetailsFunc != nil {
		return m.TitleDetailsFunc(ctx, appID)
	}
	return nil, nil
}

func (m *MockLibrary) Name() string { return "mock" }

// NewTestDB opens an in-memory SQLite database with migrations applied.
//
// The pool is pinned to a single connection: each connection to :memory:
// gets its own database, so a second pooled connection would see no schema.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
