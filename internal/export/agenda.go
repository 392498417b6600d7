package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/manav03panchal/timeblock/internal/model"
)

// Entry is one upcoming occurrence of a block.
type Entry struct {
	At    time.Time        `json:"at"`
	Block *model.TimeBlock `json:"-"`
	ID    string           `json:"id"`
	Label string           `json:"label"`
}

// Upcoming lists every occurrence of blocks strictly after from and not
// after to, ordered by time. Blocks without days are skipped.
func Upcoming(blocks []*model.TimeBlock, from, to time.Time) ([]Entry, error) {
	var entries []Entry
	for _, b := range blocks {
		if b.Days.Empty() {
			continue
		}
		r, err := rrule.NewRRule(Rule(b, b.Time.On(from)))
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ShortID(), err)
		}

		var set rrule.Set
		set.RRule(r)
		for _, at := range set.Between(from, to, true) {
			if !at.After(from) {
				continue
			}
			entries = append(entries, Entry{At: at, Block: b, ID: b.ID, Label: b.DisplayLabel()})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].At.Before(entries[j].At)
	})
	return entries, nil
}
