package task

import (
	"slices"
)

// SortForDisplay returns a copy of views ordered the way the task list is
// shown: incomplete tasks first, newest first within each group.
func SortForDisplay(views []View) []View {
	sorted := slices.Clone(views)
	slices.SortStableFunc(sorted, func(a, b View) int {
		if a.IsCompleted != b.IsCompleted {
			if a.IsCompleted {
				return 1
			}
			return -1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return sorted
}

// Counts returns the number of active and completed tasks.
func Counts(views []View) (active, completed int) {
	for _, v := range views {
		if v.IsCompleted {
			completed++
		} else {
			active++
		}
	}
	return active, completed
}
