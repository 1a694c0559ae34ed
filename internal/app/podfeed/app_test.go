package podfeed

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"podfeed/internal/app/podfeed/podcast"
	"podfeed/internal/app/podfeed/proc"
	"podfeed/internal/configs"
)

type memStore struct {
	objects map[string][]byte
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, proc.ErrNotFound
	}
	return data, nil
}

func (m *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	return m.Location(key), nil
}

func (m *memStore) Location(key string) string {
	return "https://bucket.example.com/" + key
}

func testConf(t *testing.T) *configs.Conf {
	conf := &configs.Conf{}
	conf.Apply(configs.Env{Bucket: "papers", FeedURL: "https://pod.example.com/rss/feed.xml", Author: "Jane Doe", Title: "Geo ML Papers"})
	conf.SetDefaults()
	require.NoError(t, conf.Validate())
	return conf
}

func TestNewBoltDB(t *testing.T) {
	db, err := NewBoltDB(filepath.Join(t.TempDir(), "var", "podfeed.bdb"))
	require.NoError(t, err)
	assert.NotNil(t, db)
	assert.NoError(t, db.Close())
}

func TestNewStore(t *testing.T) {
	conf := testConf(t)

	store, err := NewStore(conf)
	require.NoError(t, err)
	s3Store, ok := store.(*proc.S3Store)
	require.True(t, ok)
	assert.Equal(t, "https://s3.amazonaws.com/papers/rss/feed.xml", s3Store.Location("rss/feed.xml"))

	conf.CloudStorage.EndPointURL = "http://localhost:9000"
	conf.CloudStorage.PublicURL = "https://cdn.example.com/"
	store, err = NewStore(conf)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/rss/feed.xml", store.Location("rss/feed.xml"))

	conf.CloudStorage.Backend = configs.BackendAWS
	conf.CloudStorage.PublicURL = ""
	conf.CloudStorage.Region = "us-east-1"
	store, err = NewStore(conf)
	require.NoError(t, err)
	_, ok = store.(*proc.AWSStore)
	require.True(t, ok)
	assert.Equal(t, "https://papers.s3.amazonaws.com/audio/episode_2024-03-01.mp3", store.Location("audio/episode_2024-03-01.mp3"))

	conf.CloudStorage.Backend = "ftp"
	_, err = NewStore(conf)
	assert.Error(t, err)
}

func TestAppRun(t *testing.T) {
	conf := testConf(t)
	store := &memStore{objects: map[string][]byte{}}
	producer := &proc.StaticProducer{AudioURL: "https://x/a.mp3", Size: 123456, Date: "2024-03-01"}

	app, err := NewApplication(conf, NewFeedManager(conf, store), producer, nil)
	require.NoError(t, err)

	feedURL, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://pod.example.com/rss/feed.xml", feedURL)

	feedURL, err = app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://pod.example.com/rss/feed.xml", feedURL)

	episodes, err := proc.ParseFeed(store.objects["rss/feed.xml"])
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, "Episode 2024-03-01", episodes[0].Title)
	assert.Equal(t, int64(123456), episodes[0].Media.Size)

	doc := string(store.objects["rss/feed.xml"])
	assert.Contains(t, doc, "<link>https://pod.example.com/rss/feed.xml</link>")
	assert.Contains(t, doc, "<description>Daily summaries of the latest papers in geospatial machine learning</description>")
}

func TestAppRunBadCandidate(t *testing.T) {
	conf := testConf(t)
	store := &memStore{objects: map[string][]byte{}}
	producer := &proc.StaticProducer{AudioURL: "https://x/a.mp3", Size: 1, Date: "03/01/2024"}

	app, err := NewApplication(conf, NewFeedManager(conf, store), producer, nil)
	require.NoError(t, err)

	_, err = app.Run(context.Background())
	assert.ErrorIs(t, err, podcast.ErrInvalidDate)
	assert.Empty(t, store.objects, "nothing published")
}

func TestAppPreview(t *testing.T) {
	conf := testConf(t)
	store := &memStore{objects: map[string][]byte{}}
	producer := &proc.StaticProducer{AudioURL: "https://x/a.mp3", Size: 1, Date: "2024-03-01"}

	app, err := NewApplication(conf, NewFeedManager(conf, store), producer, nil)
	require.NoError(t, err)

	buf := bytes.Buffer{}
	require.NoError(t, app.Preview(context.Background(), &buf))
	assert.Contains(t, buf.String(), "<title>Episode 2024-03-01</title>")
	assert.Empty(t, store.objects)
}

func TestAppHistory(t *testing.T) {
	conf := testConf(t)
	db, err := NewBoltDB(filepath.Join(t.TempDir(), "podfeed.bdb"))
	require.NoError(t, err)
	defer db.Close() // nolint
	ledger := &proc.BoltDB{DB: db}
	require.NoError(t, ledger.SaveEpisode(conf.Show.Title, &podcast.AudioFile{
		Filename: "episode_2024-03-01.mp3", Date: "2024-03-01", Size: 2000, Status: podcast.Uploaded,
		Location: "https://bucket.example.com/audio/episode_2024-03-01.mp3",
	}))

	app, err := NewApplication(conf, NewFeedManager(conf, &memStore{objects: map[string][]byte{}}), nil, ledger)
	require.NoError(t, err)

	buf := bytes.Buffer{}
	require.NoError(t, app.History(&buf))
	assert.Equal(t, "2024-03-01\t2.0 kB\thttps://bucket.example.com/audio/episode_2024-03-01.mp3\n", buf.String())

	_, err = app.Run(context.Background())
	assert.Error(t, err, "no producer")

	noLedger, err := NewApplication(conf, NewFeedManager(conf, &memStore{}), nil, nil)
	require.NoError(t, err)
	assert.Error(t, noLedger.History(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "2024-03-01"))
}

func TestNewApplicationRequired(t *testing.T) {
	_, err := NewApplication(nil, nil, nil, nil)
	assert.Error(t, err)
}
