package proc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/tcolgate/mp3"
)

// Tags written to episode audio
type Tags struct {
	Title  string
	Artist string
	Album  string
	Year   string
}

// Files for work with episode audio files
type Files struct {
}

// Size of file in bytes, error for directories and empty files
func (f *Files) Size(filePath string) (int64, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", filePath)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("%s is empty", filePath)
	}
	return info.Size(), nil
}

// WriteTags sets id3v2 tags of mp3 file, other tags stay as is
func (f *Files) WriteTags(filePath string, tags Tags) error {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("can't open tags of %s: %w", filePath, err)
	}
	defer tag.Close() // nolint

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(tags.Title)
	tag.SetArtist(tags.Artist)
	tag.SetAlbum(tags.Album)
	tag.SetYear(tags.Year)
	tag.SetGenre("Podcast")

	if err := tag.Save(); err != nil {
		return fmt.Errorf("can't save tags of %s: %w", filePath, err)
	}
	return nil
}

// Duration of mp3 file, sum of all frame durations
func (f *Files) Duration(filePath string) (time.Duration, error) {
	fh, err := os.Open(filePath) // nolint
	if err != nil {
		return 0, err
	}
	defer fh.Close() // nolint

	var total time.Duration
	var frame mp3.Frame
	skipped := 0
	d := mp3.NewDecoder(fh)
	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return 0, fmt.Errorf("can't decode %s: %w", filePath, err)
		}
		total += frame.Duration()
	}

	if total == 0 {
		return 0, fmt.Errorf("no mp3 frames in %s", filePath)
	}
	return total, nil
}
