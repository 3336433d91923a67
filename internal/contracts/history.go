package contracts

import "sort"

// DateLayout is the ISO date format used for History keys
const DateLayout = "2006-01-02"

// History maps ISO date -> Snapshot
// ⭐ SSOT: append-only by date, re-running the same date overwrites it
type History map[string]Snapshot

// Put stores a snapshot under its date, replacing any previous entry
func (h History) Put(s Snapshot) {
	h[s.Date] = s
}

// Dates returns all dates ascending
func (h History) Dates() []string {
	dates := make([]string, 0, len(h))
	for d := range h {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// LatestBefore returns the most recent snapshot strictly before date.
// An empty Snapshot is returned when nothing earlier exists.
func (h History) LatestBefore(date string) Snapshot {
	best := ""
	for d := range h {
		if d < date && d > best {
			best = d
		}
	}
	if best == "" {
		return Snapshot{}
	}
	return h[best]
}
