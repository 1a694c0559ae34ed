package proc

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/go-pkgz/lgr"
	"podfeed/internal/app/podfeed/podcast"
)

// DefaultUploadTimeout for audio upload
const DefaultUploadTimeout = 10 * time.Minute

// Producer supplies new episode for the run
type Producer interface {
	Produce(ctx context.Context) (podcast.Candidate, error)
}

// StaticProducer returns episode with audio already hosted elsewhere
type StaticProducer struct {
	AudioURL string
	Size     int64
	Date     string
}

// Produce validates and returns configured episode
func (s *StaticProducer) Produce(_ context.Context) (podcast.Candidate, error) {
	return podcast.NewCandidate(s.AudioURL, s.Size, s.Date)
}

// FileProducer tags local audio file, uploads it to the store and returns it as new episode.
// Uploads are recorded in Storage ledger, unchanged audio uploaded before is not uploaded again.
type FileProducer struct {
	Storage     *BoltDB // optional
	Files       *Files
	Store       Store
	Show        podcast.Show
	AudioPrefix string
	Path        string
	Date        string
	SkipTags    bool
	Timeout     time.Duration
}

// AudioFilename returns name of episode audio in the store
func AudioFilename(date string) string {
	return fmt.Sprintf("episode_%s.mp3", date)
}

// Produce uploads audio file and makes candidate from it
func (p *FileProducer) Produce(ctx context.Context) (podcast.Candidate, error) {
	day, err := podcast.ParseDate(p.Date)
	if err != nil {
		return podcast.Candidate{}, err
	}
	date := day.Format(podcast.DateLayout)
	filename := AudioFilename(date)

	if !p.SkipTags {
		tags := Tags{Title: podcast.TitleForDate(date), Artist: p.Show.Author, Album: p.Show.Title, Year: day.Format("2006")}
		if err = p.Files.WriteTags(p.Path, tags); err != nil {
			log.Printf("[WARN] can't tag %s, %v", p.Path, err)
		}
	}

	size, err := p.Files.Size(p.Path)
	if err != nil {
		return podcast.Candidate{}, fmt.Errorf("bad audio file: %w", err)
	}

	duration, err := p.Files.Duration(p.Path)
	if err != nil {
		log.Printf("[WARN] unknown duration of %s, %v", p.Path, err)
		duration = 0
	}

	location, err := p.upload(ctx, &podcast.AudioFile{Filename: filename, Date: date, Size: size, Duration: duration})
	if err != nil {
		return podcast.Candidate{}, err
	}

	candidate, err := podcast.NewCandidate(location, size, date)
	if err != nil {
		return podcast.Candidate{}, err
	}
	candidate.Duration = duration
	return candidate, nil
}

func (p *FileProducer) upload(ctx context.Context, audio *podcast.AudioFile) (string, error) {
	showID := p.Show.Title
	if p.Storage != nil {
		prev, err := p.Storage.GetEpisodeByFilename(showID, audio.Filename)
		if err != nil {
			log.Printf("[WARN] can't read ledger for %s, %v", audio.Filename, err)
		}
		if prev != nil && prev.Status == podcast.Uploaded && prev.Size == audio.Size && prev.Location != "" {
			log.Printf("[INFO] %s already uploaded to %s, skip upload", audio.Filename, prev.Location)
			return prev.Location, nil
		}
		if err = p.Storage.SaveEpisode(showID, audio); err != nil {
			return "", fmt.Errorf("can't save %s to ledger: %w", audio.Filename, err)
		}
	}

	fh, err := os.Open(p.Path)
	if err != nil {
		return "", err
	}
	defer fh.Close() // nolint

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	key := path.Join(p.AudioPrefix, audio.Filename)
	log.Printf("[INFO] upload %s to %s, %s", p.Path, key, humanize.Bytes(uint64(audio.Size)))
	location, err := p.Store.Put(ctx, key, fh, audio.Size, ContentTypeMP3)
	if err != nil {
		return "", fmt.Errorf("can't upload %s: %w", audio.Filename, err)
	}

	if p.Storage != nil {
		audio.Location = location
		if err = p.Storage.ChangeEpisodeStatus(showID, audio, podcast.Uploaded); err != nil {
			log.Printf("[WARN] can't mark %s uploaded, %v", audio.Filename, err)
		}
	}
	return location, nil
}
