package tasks

import (
	"sort"

	"github.com/playlog/steamsync/internal/models"
)

// ProjectRanks computes the rank layout for a user's backlog after a sync.
//
// Synced entries are ordered by descending playtime with ties broken by
// catalog name ascending, then spliced into the positions not occupied by
// manual entries. Manual ranks are never reassigned. The returned map holds
// the new rank for every synced entry; manual entries never appear in it.
func ProjectRanks(entries []*models.BacklogEntry, names map[string]string) map[string]int {
	manual := make(map[int]bool)
	var synced []*models.BacklogEntry

	for _, entry := range entries {
		if entry.Source == models.SourceManual {
			manual[entry.Rank] = true
			continue
		}
		synced = append(synced, entry)
	}

	sort.SliceStable(synced, func(i, j int) bool {
		a, b := synced[i], synced[j]
		if a.PlaytimeMinutes != b.PlaytimeMinutes {
			return a.PlaytimeMinutes > b.PlaytimeMinutes
		}
		an, bn := names[a.TitleID], names[b.TitleID]
		if an != bn {
			return an < bn
		}
		return a.TitleID < b.TitleID
	})

	ranks := make(map[string]int, len(synced))
	next := 1
	for _, entry := range synced {
		for manual[next] {
			next++
		}
		ranks[entry.TitleID] = next
		next++
	}
	return ranks
}
