// package tasks implements the library sync pipeline and its scheduler.
//
// The core abstraction is Engine, which runs the fetch → merge → project
// pipeline for one account, and Scheduler, which drives Engine per account
// under mutual exclusion.
package tasks

import (
	"fmt"
	"strings"

	"github.com/playlog/steamsync/internal/models"
)

// ReviewLookup reports whether a user has already reviewed a title.
// Backed by the rating app's reviews table; read-only to this engine.
type ReviewLookup interface {
	Exists(userID, titleID string) (bool, error)
}

// TitleFailure records one title the pipeline could not fully process.
type TitleFailure struct {
	AppID string
	Name  string
	Err   error
}

// RunResult contains the counters and per-title failures of one sync run.
type RunResult struct {
	TitlesSeen    int
	TitlesAdded   int
	TitlesUpdated int
	Failures      []TitleFailure
}

// Outcome classifies the result for the run record: succeeded when every
// title merged cleanly, partial otherwise.
func (r *RunResult) Outcome() models.SyncOutcome {
	if len(r.Failures) > 0 {
		return models.OutcomePartial
	}
	return models.OutcomeSucceeded
}

// ErrorDetail renders the per-title failures for the sync log, empty when
// the run was clean.
func (r *RunResult) ErrorDetail() string {
	if len(r.Failures) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		label := f.Name
		if label == "" {
			label = f.AppID
		}
		parts = append(parts, fmt.Sprintf("%s: %v", label, f.Err))
	}
	return fmt.Sprintf("%d title(s) failed: %s", len(r.Failures), strings.Join(parts, "; "))
}
