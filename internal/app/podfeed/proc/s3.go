package proc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/go-pkgz/lgr"
	"github.com/minio/minio-go/v7"
)

// S3Store is a Store on any s3 compatible storage
type S3Store struct {
	Client    *minio.Client
	Region    string
	Bucket    string
	PublicURL string // base url of public objects, endpoint/bucket if empty
}

// Get object from s3 storage
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.Client.GetObject(ctx, s.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapErr(err)
	}
	defer obj.Close() // nolint

	// minio reports a missing object on the first read
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return data, nil
}

// Put object to s3 storage with public-read acl
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"x-amz-acl": "public-read"},
	}
	info, err := s.Client.PutObject(ctx, s.Bucket, key, r, size, opts)
	if err != nil {
		return "", fmt.Errorf("can't put %s to bucket %s: %w", key, s.Bucket, err)
	}
	log.Printf("[DEBUG] uploaded %s/%s, %s, etag %s", s.Bucket, key, humanize.Bytes(uint64(info.Size)), info.ETag)

	return s.Location(key), nil
}

// Location returns public url of key
func (s *S3Store) Location(key string) string {
	if s.PublicURL != "" {
		return fmt.Sprintf("%s/%s", trimSlash(s.PublicURL), key)
	}
	endpoint := s.Client.EndpointURL()
	return fmt.Sprintf("%s/%s/%s", trimSlash(endpoint.String()), s.Bucket, key)
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	exists, err := s.Client.BucketExists(ctx, s.Bucket)
	if err != nil {
		return fmt.Errorf("can't check exists bucket %s: %w", s.Bucket, err)
	}
	if exists {
		return nil
	}

	log.Printf("[INFO] create bucket %s in %q", s.Bucket, s.Region)
	if err := s.Client.MakeBucket(ctx, s.Bucket, minio.MakeBucketOptions{Region: s.Region}); err != nil {
		return fmt.Errorf("can't create bucket %s: %w", s.Bucket, err)
	}
	return nil
}

func (s *S3Store) mapErr(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket") {
		return ErrNotFound
	}
	return fmt.Errorf("can't get from bucket %s: %w", s.Bucket, err)
}

func trimSlash(u string) string {
	return strings.TrimRight(u, "/")
}
