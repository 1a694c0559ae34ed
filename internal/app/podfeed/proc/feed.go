package proc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/go-pkgz/lgr"
	"podfeed/internal/app/podfeed/podcast"
)

// DefaultTimeout for a single store call
const DefaultTimeout = 30 * time.Second

// ParsePolicy defines what to do with a stored feed which can't be parsed
type ParsePolicy int

const (
	// DegradeOnParseError starts from empty feed, old episodes are dropped
	DegradeOnParseError ParsePolicy = iota
	// FailOnParseError fails the update and keeps stored feed untouched
	FailOnParseError
)

// FetchStatus is the outcome of fetching stored feed
type FetchStatus int

const (
	// FetchFound stored feed loaded and parsed
	FetchFound FetchStatus = iota
	// FetchNotFound no stored feed yet, first run
	FetchNotFound
	// FetchTransportError store failed for a reason other than missing key
	FetchTransportError
	// FetchParseError stored feed loaded but can't be parsed
	FetchParseError
)

func (s FetchStatus) String() string {
	switch s {
	case FetchFound:
		return "found"
	case FetchNotFound:
		return "not found"
	case FetchTransportError:
		return "transport error"
	case FetchParseError:
		return "parse error"
	}
	return fmt.Sprintf("FetchStatus(%d)", int(s))
}

// FetchResult of stored feed, Episodes empty for any status but FetchFound
type FetchResult struct {
	Status   FetchStatus
	Episodes []podcast.Episode
	Err      error
}

// FeedManager keeps podcast feed document in the store, the document is the only state
type FeedManager struct {
	Store   Store
	Show    podcast.Show
	FeedKey string
	FeedURL string // returned after publish, store location of FeedKey if empty
	Timeout time.Duration
	Policy  ParsePolicy
}

// FetchExisting loads episodes of stored feed
func (m *FeedManager) FetchExisting(ctx context.Context) FetchResult {
	ctx, cancel := context.WithTimeout(ctx, m.timeout())
	defer cancel()

	data, err := m.Store.Get(ctx, m.FeedKey)
	if errors.Is(err, ErrNotFound) {
		log.Printf("[INFO] no feed %s yet, create new one", m.FeedKey)
		return FetchResult{Status: FetchNotFound}
	}
	if err != nil {
		log.Printf("[WARN] can't load feed %s, start from empty feed, %v", m.FeedKey, err)
		return FetchResult{Status: FetchTransportError, Err: err}
	}

	episodes, err := ParseFeed(data)
	if err != nil {
		log.Printf("[WARN] can't parse feed %s (%s), %v", m.FeedKey, humanize.Bytes(uint64(len(data))), err)
		return FetchResult{Status: FetchParseError, Err: err}
	}

	log.Printf("[INFO] loaded feed %s with %d episodes", m.FeedKey, len(episodes))
	return FetchResult{Status: FetchFound, Episodes: episodes}
}

// Render merges candidate into stored feed and serializes the result, nothing is written.
// appended is false if the feed already had the candidate's episode.
func (m *FeedManager) Render(ctx context.Context, candidate podcast.Candidate) (data []byte, appended bool, err error) {
	fetched := m.FetchExisting(ctx)
	if fetched.Status == FetchParseError && m.Policy == FailOnParseError {
		return nil, false, fmt.Errorf("stored feed %s is broken: %w", m.FeedKey, fetched.Err)
	}

	episode := candidate.Episode()
	episodes, appended := podcast.Merge(fetched.Episodes, episode)
	if !appended {
		log.Printf("[INFO] feed already has %q, keep %d episodes", episode.Title, len(episodes))
	}

	show := m.Show
	if show.SelfURL == "" {
		show.SelfURL = m.Store.Location(m.FeedKey)
	}
	data, err = SerializeFeed(podcast.Build(show, episodes))
	if err != nil {
		return nil, false, err
	}
	return data, appended, nil
}

// Publish replaces stored feed with data and returns public feed url
func (m *FeedManager) Publish(ctx context.Context, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout())
	defer cancel()

	location, err := putBytes(ctx, m.Store, m.FeedKey, data, ContentTypeRSS)
	if err != nil {
		return "", fmt.Errorf("can't publish feed %s: %w", m.FeedKey, err)
	}
	if m.FeedURL != "" {
		return m.FeedURL, nil
	}
	return location, nil
}

// Update adds candidate to the stored feed and republishes it.
// Feed is republished even if the episode is there already, to refresh show metadata.
func (m *FeedManager) Update(ctx context.Context, candidate podcast.Candidate) (string, error) {
	data, appended, err := m.Render(ctx, candidate)
	if err != nil {
		return "", err
	}

	feedURL, err := m.Publish(ctx, data)
	if err != nil {
		return "", err
	}
	log.Printf("[INFO] feed %s updated, new episode %v", feedURL, appended)
	return feedURL, nil
}

func (m *FeedManager) timeout() time.Duration {
	if m.Timeout <= 0 {
		return DefaultTimeout
	}
	return m.Timeout
}
