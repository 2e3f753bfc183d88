package settlement

import "github.com/nurpe/greenpact-settlement/internal/model"

// Milestone is the high-water mark of a progress log.
type Milestone struct {
	Status  model.ProgressStatus
	Percent int
	Entry   model.ProgressEntry
}

// Tracker is a read view over the append-only progress log of one contract.
type Tracker struct {
	entries []model.ProgressEntry
}

func NewTracker(entries []model.ProgressEntry) Tracker {
	return Tracker{entries: entries}
}

// Highest scans every entry and returns the greatest milestone ever logged.
// Ties go to the earliest observed_on, then to the earliest insertion.
func (t Tracker) Highest() (Milestone, bool) {
	var best *model.ProgressEntry
	for i := range t.entries {
		entry := &t.entries[i]
		if best == nil {
			best = entry
			continue
		}
		switch {
		case entry.Status.Percent() > best.Status.Percent():
			best = entry
		case entry.Status.Percent() == best.Status.Percent() && entry.ObservedOn.Before(best.ObservedOn):
			best = entry
		}
	}
	if best == nil {
		return Milestone{}, false
	}
	return Milestone{Status: best.Status, Percent: best.Status.Percent(), Entry: *best}, true
}

// Latest returns the most recently inserted entry.
func (t Tracker) Latest() (model.ProgressEntry, bool) {
	if len(t.entries) == 0 {
		return model.ProgressEntry{}, false
	}
	return t.entries[len(t.entries)-1], true
}

func (t Tracker) Completion() int {
	if m, ok := t.Highest(); ok {
		return m.Percent
	}
	return 0
}

func (t Tracker) Delivered() bool {
	m, ok := t.Highest()
	return ok && m.Status == model.ProgressDelivered
}

func (t Tracker) Entries() []model.ProgressEntry {
	out := make([]model.ProgressEntry, len(t.entries))
	copy(out, t.entries)
	return out
}
