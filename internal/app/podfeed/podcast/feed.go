package podcast

// Show defines show level metadata, taken from local configuration on every run
type Show struct {
	Title       string
	Link        string
	Description string
	Author      string
	Language    string
	Explicit    bool
	Image       string
	Category    string
	SelfURL     string
}

// Feed is show metadata with ordered episodes
type Feed struct {
	Show     Show
	Episodes []Episode
}

// Build makes fresh feed from show and episodes in supplied order
func Build(show Show, episodes []Episode) *Feed {
	res := &Feed{Show: show, Episodes: make([]Episode, len(episodes))}
	copy(res.Episodes, episodes)
	return res
}

// Merge appends candidate to existing episodes unless an episode with the same identity is present.
// Existing slice is never modified, returns appended=false for no-op merge.
func Merge(existing []Episode, candidate Episode) (res []Episode, appended bool) {
	if Contains(existing, candidate.ID()) {
		return existing, false
	}

	res = make([]Episode, len(existing), len(existing)+1)
	copy(res, existing)
	return append(res, candidate), true
}

// Contains checks if episodes have one with identity id
func Contains(episodes []Episode, id string) bool {
	for _, e := range episodes {
		if e.ID() == id {
			return true
		}
	}
	return false
}
