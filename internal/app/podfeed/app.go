package podfeed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	log "github.com/go-pkgz/lgr"
	"podfeed/internal/app/podfeed/podcast"
	"podfeed/internal/app/podfeed/proc"
	"podfeed/internal/configs"
)

// App publishes one episode per run
type App struct {
	config   *configs.Conf
	manager  *proc.FeedManager
	producer proc.Producer
	ledger   *proc.BoltDB
}

// NewApplication makes app from config, feed manager and episode producer, producer and ledger are optional
func NewApplication(conf *configs.Conf, m *proc.FeedManager, p proc.Producer, ledger *proc.BoltDB) (*App, error) {
	if conf == nil || m == nil {
		return nil, errors.New("config and feed manager are required")
	}
	app := App{config: conf, manager: m, producer: p, ledger: ledger}
	return &app, nil
}

// Run produces new episode and publishes updated feed, returns public feed url
func (a *App) Run(ctx context.Context) (string, error) {
	candidate, err := a.produce(ctx)
	if err != nil {
		return "", fmt.Errorf("can't produce episode: %w", err)
	}
	log.Printf("[INFO] new episode %s, %s, %s", candidate.Date, candidate.AudioURL, humanize.Bytes(uint64(candidate.Size)))

	return a.manager.Update(ctx, candidate)
}

// Preview produces new episode and writes updated feed to w instead of publishing it
func (a *App) Preview(ctx context.Context, w io.Writer) error {
	candidate, err := a.produce(ctx)
	if err != nil {
		return fmt.Errorf("can't produce episode: %w", err)
	}

	data, appended, err := a.manager.Render(ctx, candidate)
	if err != nil {
		return err
	}
	log.Printf("[INFO] preview feed, new episode %v", appended)
	_, err = w.Write(data)
	return err
}

func (a *App) produce(ctx context.Context) (podcast.Candidate, error) {
	if a.producer == nil {
		return podcast.Candidate{}, errors.New("no episode producer")
	}
	return a.producer.Produce(ctx)
}

// History writes audio uploads recorded in ledger to w
func (a *App) History(w io.Writer) error {
	if a.ledger == nil {
		return errors.New("no ledger")
	}
	uploaded, err := a.ledger.FindEpisodesByStatus(a.config.Show.Title, podcast.Uploaded)
	if err != nil {
		return err
	}
	for _, u := range uploaded {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", u.Date, humanize.Bytes(uint64(u.Size)), u.Location); err != nil {
			return err
		}
	}
	return nil
}

// ShowFromConf makes show metadata from configuration
func ShowFromConf(conf *configs.Conf) podcast.Show {
	return podcast.Show{
		Title:       conf.Show.Title,
		Link:        conf.Show.Link,
		Description: conf.Show.Description,
		Author:      conf.Show.Author,
		Language:    conf.Show.Language,
		Explicit:    conf.Show.Explicit,
		Image:       conf.Show.Image,
		Category:    conf.Show.Category,
	}
}

// NewFeedManager makes feed manager on store from configuration
func NewFeedManager(conf *configs.Conf, store proc.Store) *proc.FeedManager {
	policy := proc.DegradeOnParseError
	if conf.Feed.OnParseError == configs.OnParseErrorFail {
		policy = proc.FailOnParseError
	}
	return &proc.FeedManager{
		Store:   store,
		Show:    ShowFromConf(conf),
		FeedKey: conf.Feed.Key,
		FeedURL: conf.Feed.URL,
		Timeout: conf.CloudStorage.Timeout,
		Policy:  policy,
	}
}
