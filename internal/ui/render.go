package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/tasks"
)

// Title renders a section heading.
func Title(text string) string {
	return styles.title.Render(text)
}

// OK renders success text.
func OK(text string) string {
	return styles.ok.Render(text)
}

// Err renders failure text.
func Err(text string) string {
	return styles.err.Render(text)
}

// Warn renders warning text.
func Warn(text string) string {
	return styles.warn.Render(text)
}

// Help renders secondary hint text.
func Help(text string) string {
	return styles.help.Render(text)
}

// Status colors a sync status for terminal display.
func Status(status models.SyncStatus) string {
	switch status {
	case models.StatusSucceeded:
		return styles.ok.Render(string(status))
	case models.StatusPartial:
		return styles.warn.Render(string(status))
	case models.StatusFailed:
		return styles.err.Render(string(status))
	default:
		return styles.help.Render(string(status))
	}
}

// Outcome colors a run outcome for terminal display.
func Outcome(outcome models.SyncOutcome) string {
	return Status(models.SyncStatus(outcome))
}

// RenderStatus formats the output of the status command.
func RenderStatus(info *tasks.StatusInfo) string {
	if !info.Linked {
		return Help("no Steam account linked")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Steam ID:   %s\n", info.SteamID)
	fmt.Fprintf(&b, "Profile:    %s\n", info.ProfileURL)
	fmt.Fprintf(&b, "Linked at:  %s\n", info.LinkedAt.Local().Format(time.RFC1123))
	if info.LastSyncAt != nil {
		fmt.Fprintf(&b, "Last sync:  %s\n", info.LastSyncAt.Local().Format(time.RFC1123))
	} else {
		fmt.Fprintf(&b, "Last sync:  %s\n", Help("never"))
	}
	fmt.Fprintf(&b, "Status:     %s\n", Status(info.LastSyncStatus))
	if info.Running {
		fmt.Fprintf(&b, "Running:    %s\n", Warn("sync in progress"))
	}
	return b.String()
}

// RenderRun formats one sync run for the runs command.
func RenderRun(run *models.SyncRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s", run.StartedAt.Local().Format("2006-01-02 15:04:05"), Outcome(run.Outcome))
	fmt.Fprintf(&b, "  seen=%d added=%d updated=%d", run.TitlesSeen, run.TitlesAdded, run.TitlesUpdated)
	if run.ErrorDetail != "" {
		fmt.Fprintf(&b, "\n    %s", Err(run.ErrorDetail))
	}
	return b.String()
}
