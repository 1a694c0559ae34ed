package proc

import (
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	log "github.com/go-pkgz/lgr"
	"podfeed/internal/app/podfeed/podcast"
)

// BoltDB is the local ledger of uploaded audio files, bucket per show
type BoltDB struct {
	DB *bolt.DB
}

// SaveEpisode saves audio record to show bucket, keyed by filename
func (b *BoltDB) SaveEpisode(showID string, audio *podcast.AudioFile) error {
	if audio.Filename == "" {
		return fmt.Errorf("empty filename for %s", showID)
	}

	return b.DB.Update(func(tx *bolt.Tx) error {
		bucket, e := tx.CreateBucketIfNotExists([]byte(showID))
		if e != nil {
			return e
		}

		jdata, jerr := json.Marshal(audio)
		if jerr != nil {
			return jerr
		}

		log.Printf("[DEBUG] save audio %s - %s - %d - %d", showID, audio.Filename, audio.Size, audio.Status)
		return bucket.Put([]byte(audio.Filename), jdata)
	})
}

// FindEpisodesByStatus gets audio records by status, ordered by filename
func (b *BoltDB) FindEpisodesByStatus(showID string, filterStatus podcast.Status) ([]*podcast.AudioFile, error) {
	var result []*podcast.AudioFile
	err := b.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(showID))
		if bucket == nil {
			return nil
		}

		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			item := podcast.AudioFile{}
			if err := json.Unmarshal(v, &item); err != nil {
				log.Printf("[WARN] failed to unmarshal %s, %v", string(k), err)
				continue
			}
			if item.Status != filterStatus {
				continue
			}
			result = append(result, &item)
		}
		return nil
	})

	return result, err
}

// ChangeEpisodeStatus changes status of audio record in store
func (b *BoltDB) ChangeEpisodeStatus(showID string, audio *podcast.AudioFile, status podcast.Status) error {
	audio.Status = status
	return b.SaveEpisode(showID, audio)
}

// GetEpisodeByFilename gets audio record by filename, nil if not found
func (b *BoltDB) GetEpisodeByFilename(showID, fileName string) (*podcast.AudioFile, error) {
	var audio *podcast.AudioFile
	err := b.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(showID))
		if bucket == nil {
			return nil
		}

		item := bucket.Get([]byte(fileName))
		if item == nil {
			return nil
		}

		audio = &podcast.AudioFile{}
		if err := json.Unmarshal(item, audio); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", fileName, err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return audio, nil
}
