package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"podfeed/internal/app/podfeed"
	"podfeed/internal/app/podfeed/proc"
	"podfeed/internal/configs"
)

var opts struct {
	Conf       string `short:"c" long:"conf" env:"PODFEED_CONF" default:"podfeed.yml" description:"config file (yml)"`
	DB         string `short:"d" long:"db" env:"PODFEED_DB" description:"bolt db file, overrides db from config"`
	Audio      string `short:"a" long:"audio" description:"episode mp3 file to upload"`
	AudioURL   string `long:"audio-url" description:"url of already uploaded episode audio"`
	Size       int64  `long:"size" description:"size of already uploaded episode audio in bytes"`
	Date       string `long:"date" description:"episode date YYYY-MM-DD, today (UTC) if empty"`
	StrictFeed bool   `long:"strict-feed" description:"fail if stored feed can't be parsed"`
	NoTags     bool   `long:"no-tags" description:"don't write id3 tags to audio"`
	DryRun     bool   `short:"n" long:"dry-run" description:"print feed instead of publishing, nothing uploaded"`
	History    bool   `long:"history" description:"list uploaded episodes and exit"`

	Env configs.Env `group:"environment"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"show debug info"`
}

func checkFileExists(filepath string) bool {
	if _, err := os.Stat(filepath); errors.Is(err, os.ErrNotExist) {
		return false
	}

	return true
}

func main() {
	p := flags.NewParser(&opts, flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
		p.WriteHelp(os.Stderr)
		os.Exit(2)
	}
	setupLog(opts.Dbg)

	conf, err := loadConfig(opts.Conf)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	if err := run(context.Background(), conf); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
}

// loadConfig reads optional config file, applies environment and defaults and validates result
func loadConfig(fileName string) (*configs.Conf, error) {
	conf := &configs.Conf{}
	if checkFileExists(fileName) {
		c, err := configs.Load(fileName)
		if err != nil {
			return nil, fmt.Errorf("can't load config %s, %w", fileName, err)
		}
		conf = c
	}
	conf.Apply(opts.Env)
	if opts.DB != "" {
		conf.DB = opts.DB
	}
	if opts.StrictFeed {
		conf.Feed.OnParseError = configs.OnParseErrorFail
	}
	if opts.NoTags {
		conf.Audio.SkipTags = true
	}
	conf.SetDefaults()

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func run(ctx context.Context, conf *configs.Conf) error {
	store, err := podfeed.NewStore(conf)
	if err != nil {
		return err
	}
	if opts.DryRun {
		store = &proc.DryRunStore{Store: store}
	}

	ledger, err := openLedger(conf.DB, opts.DryRun, opts.History)
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.DB.Close() // nolint
	}

	date := opts.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	var producer proc.Producer
	switch {
	case opts.Audio != "":
		producer = &proc.FileProducer{
			Storage:     ledger,
			Files:       &proc.Files{},
			Store:       store,
			Show:        podfeed.ShowFromConf(conf),
			AudioPrefix: conf.Audio.Prefix,
			Path:        opts.Audio,
			Date:        date,
			SkipTags:    conf.Audio.SkipTags || opts.DryRun,
			Timeout:     conf.Audio.UploadTimeout,
		}
	case opts.AudioURL != "":
		producer = &proc.StaticProducer{AudioURL: opts.AudioURL, Size: opts.Size, Date: date}
	case !opts.History:
		return errors.New("one of --audio or --audio-url is required")
	}

	app, err := podfeed.NewApplication(conf, podfeed.NewFeedManager(conf, store), producer, ledger)
	if err != nil {
		return fmt.Errorf("can't create app, %w", err)
	}

	switch {
	case opts.History:
		return app.History(os.Stdout)
	case opts.DryRun:
		return app.Preview(ctx, os.Stdout)
	}

	feedURL, err := app.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Println(feedURL)
	return nil
}

// openLedger opens bolt ledger of uploads, a dry run leaves it closed unless history is listed
func openLedger(dbFile string, dryRun, history bool) (*proc.BoltDB, error) {
	if dbFile == "" || (dryRun && !history) {
		return nil, nil
	}
	db, err := podfeed.NewBoltDB(dbFile)
	if err != nil {
		return nil, fmt.Errorf("can't create boltdb instance, %w", err)
	}
	return &proc.BoltDB{DB: db}, nil
}

func setupLog(dbg bool) {
	if dbg {
		log.Setup(log.Debug, log.CallerFile, log.Msec)
		return
	}
	log.Setup(log.Msec)
}
