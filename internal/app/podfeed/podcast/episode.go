package podcast

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MediaTypeMP3 is the enclosure type of every produced episode
const MediaTypeMP3 = "audio/mpeg"

// DateLayout is the format of episode dates, YYYY-MM-DD
const DateLayout = "2006-01-02"

// episodes are published at 08:00 UTC of their date
const publishHour = 8

// ErrInvalidDate returned for episode dates not in YYYY-MM-DD form
var ErrInvalidDate = errors.New("episode date must be YYYY-MM-DD")

// Media is the playable enclosure of episode
type Media struct {
	URL  string
	Size int64
	Type string
}

// Episode of podcast as it appears in the feed
type Episode struct {
	Title    string
	Summary  string
	Media    Media
	PubDate  time.Time // zero if unknown
	GUID     string
	Duration time.Duration // zero if unknown
}

// ID returns identity of episode used for de-duplication
func (e Episode) ID() string {
	return strings.TrimSpace(e.Title)
}

// Candidate is a new episode supplied by a producer, one per run
type Candidate struct {
	AudioURL string
	Size     int64
	Date     string
	Duration time.Duration
}

// NewCandidate validates producer output and makes candidate from it
func NewCandidate(audioURL string, size int64, date string) (Candidate, error) {
	day, err := ParseDate(date)
	if err != nil {
		return Candidate{}, err
	}
	if strings.TrimSpace(audioURL) == "" {
		return Candidate{}, errors.New("empty audio url")
	}
	if size < 0 {
		return Candidate{}, fmt.Errorf("negative audio size %d", size)
	}

	return Candidate{AudioURL: strings.TrimSpace(audioURL), Size: size, Date: day.Format(DateLayout)}, nil
}

// Episode makes feed episode from candidate
func (c Candidate) Episode() Episode {
	pubDate := time.Time{}
	if day, err := ParseDate(c.Date); err == nil {
		pubDate = PublishTime(day)
	}

	return Episode{
		Title:    TitleForDate(c.Date),
		Summary:  fmt.Sprintf("Paper summaries for %s", c.Date),
		Media:    Media{URL: c.AudioURL, Size: c.Size, Type: MediaTypeMP3},
		PubDate:  pubDate,
		GUID:     c.AudioURL,
		Duration: c.Duration,
	}
}

// TitleForDate returns title of episode for date, it is the episode identity too
func TitleForDate(date string) string {
	return "Episode " + date
}

// ParseDate parses YYYY-MM-DD episode date
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// PublishTime returns publication time for episode day
func PublishTime(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), publishHour, 0, 0, 0, time.UTC)
}

// FormatDuration renders duration as HH:MM:SS
func FormatDuration(d time.Duration) string {
	total := int64(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// ParseDuration parses HH:MM:SS, MM:SS or plain seconds
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("bad duration %q", s)
	}

	const maxSeconds = math.MaxInt64 / int64(time.Second)
	var total int64
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad duration %q", s)
		}
		if total > (maxSeconds-n)/60 {
			return 0, fmt.Errorf("duration %q out of range", s)
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, nil
}

// Status of episode audio upload
type Status int

const (
	// New status for audio files not uploaded yet
	New Status = iota
	// Uploaded status for audio already uploaded to storage
	Uploaded
	// Deleted status for audio removed from storage
	Deleted
)

// AudioFile is an uploaded audio record kept in the local ledger
type AudioFile struct {
	Filename string
	Date     string
	Size     int64
	Duration time.Duration
	Status   Status
	Location string
}
