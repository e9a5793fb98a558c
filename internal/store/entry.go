package store

import (
	"time"

	"fpl-assistant/internal/dataset"
)

// Entry is one published cache snapshot. Entries are replaced
// wholesale on refresh and never mutated in place, so a reader that
// obtained an Entry keeps a consistent view even while a refresh is
// swapping in a successor.
type Entry struct {
	Snapshot  *dataset.Dataset
	FetchedAt time.Time
	Gameweek  int
}

// Age returns how long ago the entry was fetched.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}
