package contracts

import (
	"sort"
	"time"
)

// Memo is one of the manager's published notes
// ⭐ SSOT: Key is the memo date (YYYY-MM-DD) when one can be read, else the title
type Memo struct {
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	DateText  string    `json:"date_text,omitempty"` // as printed under the title
	Body      string    `json:"body"`
	FetchedAt time.Time `json:"fetched_at"`
}

// SortMemos orders memos newest key first, title as tie-break
func SortMemos(memos []Memo) {
	sort.SliceStable(memos, func(i, j int) bool {
		if memos[i].Key != memos[j].Key {
			return memos[i].Key > memos[j].Key
		}
		return memos[i].Title < memos[j].Title
	})
}
