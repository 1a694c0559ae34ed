package proc

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"podfeed/internal/app/podfeed/podcast"
)

func newTestBoltDB(t *testing.T) *BoltDB {
	db, err := bolt.Open(filepath.Join(t.TempDir(), "test.bdb"), 0o600, &bolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &BoltDB{DB: db}
}

func TestBoltDBSaveAndGet(t *testing.T) {
	b := newTestBoltDB(t)

	got, err := b.GetEpisodeByFilename("show", "episode_2024-03-01.mp3")
	require.NoError(t, err)
	assert.Nil(t, got, "no bucket yet")

	audio := &podcast.AudioFile{Filename: "episode_2024-03-01.mp3", Date: "2024-03-01", Size: 123456, Status: podcast.New}
	require.NoError(t, b.SaveEpisode("show", audio))

	got, err = b.GetEpisodeByFilename("show", "episode_2024-03-01.mp3")
	require.NoError(t, err)
	assert.Equal(t, audio, got)

	got, err = b.GetEpisodeByFilename("show", "episode_2024-03-02.mp3")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, b.SaveEpisode("show", &podcast.AudioFile{}))
}

func TestBoltDBStatus(t *testing.T) {
	b := newTestBoltDB(t)

	for _, d := range []string{"2024-03-02", "2024-03-01", "2024-03-03"} {
		require.NoError(t, b.SaveEpisode("show", &podcast.AudioFile{Filename: AudioFilename(d), Date: d, Size: 1}))
	}

	res, err := b.FindEpisodesByStatus("show", podcast.Uploaded)
	require.NoError(t, err)
	assert.Empty(t, res)

	audio, err := b.GetEpisodeByFilename("show", AudioFilename("2024-03-02"))
	require.NoError(t, err)
	require.NoError(t, b.ChangeEpisodeStatus("show", audio, podcast.Uploaded))
	assert.Equal(t, podcast.Uploaded, audio.Status)

	res, err = b.FindEpisodesByStatus("show", podcast.Uploaded)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "2024-03-02", res[0].Date)

	res, err = b.FindEpisodesByStatus("show", podcast.New)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "2024-03-01", res[0].Date, "ordered by filename")
	assert.Equal(t, "2024-03-03", res[1].Date)

	res, err = b.FindEpisodesByStatus("other", podcast.New)
	require.NoError(t, err)
	assert.Empty(t, res)
}
