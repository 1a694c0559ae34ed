// Package configs for work with configurations
package configs

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backends of cloud storage
const (
	BackendMinio = "minio"
	BackendAWS   = "aws"
)

// Policies for a stored feed which can't be parsed
const (
	OnParseErrorDegrade = "degrade"
	OnParseErrorFail    = "fail"
)

const defaultDescription = "Daily summaries of the latest papers in geospatial machine learning"

// Conf for config yaml
type Conf struct {
	Show         Show `yaml:"show"`
	CloudStorage struct {
		Backend     string        `yaml:"backend"`
		EndPointURL string        `yaml:"endpoint_url"`
		Insecure    bool          `yaml:"insecure"`
		Bucket      string        `yaml:"bucket"`
		Region      string        `yaml:"region"`
		PublicURL   string        `yaml:"public_url"`
		Timeout     time.Duration `yaml:"timeout"`
		Secrets     struct {
			Key    string `yaml:"aws_key"`
			Secret string `yaml:"aws_secret"`
		} `yaml:"secrets"`
	} `yaml:"cloud_storage"`
	Feed struct {
		Key          string `yaml:"key"`
		URL          string `yaml:"url"`
		OnParseError string `yaml:"on_parse_error"`
	} `yaml:"feed"`
	Audio struct {
		Prefix        string        `yaml:"prefix"`
		SkipTags      bool          `yaml:"skip_tags"`
		UploadTimeout time.Duration `yaml:"upload_timeout"`
	} `yaml:"audio"`
	DB string `yaml:"db"`
}

// Show defines show section, the metadata of podcast
type Show struct {
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
	Language    string `yaml:"language"`
	Explicit    bool   `yaml:"explicit"`
	Image       string `yaml:"image"`
	Category    string `yaml:"category"`
}

// Env is the environment part of configuration, set values override the config file
type Env struct {
	Bucket   string `long:"bucket" env:"S3_BUCKET" description:"storage bucket"`
	FeedURL  string `long:"feed-url" env:"FEED_URL" description:"public feed and site url"`
	Author   string `long:"author" env:"AUTHOR_NAME" description:"author display name"`
	Title    string `long:"title" env:"PODCAST_TITLE" description:"podcast title"`
	Endpoint string `long:"endpoint" env:"S3_ENDPOINT" description:"s3 endpoint"`
	Region   string `long:"region" env:"S3_REGION" description:"s3 region"`
	Key      string `long:"aws-key" env:"AWS_ACCESS_KEY_ID" description:"s3 access key"`
	Secret   string `long:"aws-secret" env:"AWS_SECRET_ACCESS_KEY" description:"s3 secret key"`
}

// Load config from file
func Load(fileName string) (res *Conf, err error) {
	res = &Conf{}
	data, err := os.ReadFile(fileName) // nolint
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Apply overrides config values with non-empty env values
func (c *Conf) Apply(env Env) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&c.CloudStorage.Bucket, env.Bucket)
	set(&c.Feed.URL, env.FeedURL)
	set(&c.Show.Author, env.Author)
	set(&c.Show.Title, env.Title)
	set(&c.CloudStorage.EndPointURL, env.Endpoint)
	set(&c.CloudStorage.Region, env.Region)
	set(&c.CloudStorage.Secrets.Key, env.Key)
	set(&c.CloudStorage.Secrets.Secret, env.Secret)
}

// SetDefaults fills optional values not set by file or env
func (c *Conf) SetDefaults() {
	if c.Show.Description == "" {
		c.Show.Description = defaultDescription
	}
	if c.Show.Language == "" {
		c.Show.Language = "en"
	}
	if c.Show.Link == "" {
		c.Show.Link = c.Feed.URL
	}
	if c.CloudStorage.Backend == "" {
		c.CloudStorage.Backend = BackendMinio
	}
	if c.CloudStorage.EndPointURL == "" {
		c.CloudStorage.EndPointURL = "s3.amazonaws.com"
	}
	if c.CloudStorage.Timeout == 0 {
		c.CloudStorage.Timeout = 30 * time.Second
	}
	if c.Feed.Key == "" {
		c.Feed.Key = "rss/feed.xml"
	}
	if c.Feed.OnParseError == "" {
		c.Feed.OnParseError = OnParseErrorDegrade
	}
	if c.Audio.Prefix == "" {
		c.Audio.Prefix = "audio"
	}
	if c.Audio.UploadTimeout == 0 {
		c.Audio.UploadTimeout = 10 * time.Minute
	}
}

// Validate checks required values, all missing ones reported at once
func (c *Conf) Validate() error {
	var missing []string
	if c.CloudStorage.Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if c.Feed.URL == "" {
		missing = append(missing, "FEED_URL")
	}
	if c.Show.Author == "" {
		missing = append(missing, "AUTHOR_NAME")
	}
	if c.Show.Title == "" {
		missing = append(missing, "PODCAST_TITLE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.CloudStorage.Backend {
	case BackendMinio, BackendAWS:
	default:
		return fmt.Errorf("unknown cloud storage backend %q", c.CloudStorage.Backend)
	}

	switch c.Feed.OnParseError {
	case OnParseErrorDegrade, OnParseErrorFail:
	default:
		return fmt.Errorf("unknown on_parse_error policy %q", c.Feed.OnParseError)
	}
	return nil
}
