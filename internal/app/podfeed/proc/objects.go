package proc

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/dustin/go-humanize"
	log "github.com/go-pkgz/lgr"
)

// ErrNotFound returned by Store.Get if there is no object with the key
var ErrNotFound = errors.New("no such key")

// Content types of stored objects
const (
	ContentTypeRSS = "application/rss+xml"
	ContentTypeMP3 = "audio/mpeg"
)

// Store is a bucket of publicly readable objects
type Store interface {
	// Get object content, ErrNotFound for missing key
	Get(ctx context.Context, key string) ([]byte, error)
	// Put object with public-read access, returns its location
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Location is the public url of key
	Location(key string) string
}

// DryRunStore reads from the wrapped store and only logs writes
type DryRunStore struct {
	Store
}

// Put logs object instead of uploading it
func (d *DryRunStore) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return "", err
	}
	if size < 0 {
		size = n
	}
	log.Printf("[INFO] dry run, skip upload %s (%s, %s)", key, contentType, humanize.Bytes(uint64(size)))
	return d.Location(key), nil
}

func putBytes(ctx context.Context, s Store, key string, data []byte, contentType string) (string, error) {
	return s.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}
