package podfeed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"podfeed/internal/app/podfeed/proc"
	"podfeed/internal/configs"
)

// NewBoltDB opens bolt db file, makes parent directory if needed
func NewBoltDB(dbFile string) (*bolt.DB, error) {
	if dir := filepath.Dir(dbFile); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("can't make db directory %s: %w", dir, err)
		}
	}
	return bolt.Open(dbFile, 0o600, &bolt.Options{Timeout: time.Second})
}

// NewS3Client makes minio client for s3 compatible endpoint, scheme of endpoint is optional
func NewS3Client(endpoint, key, secret, region string, secure bool) (*minio.Client, error) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "http://"), false
	}
	endpoint = strings.TrimRight(endpoint, "/")

	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: secure,
		Region: region,
	})
}

// NewStore makes object store for configured backend
func NewStore(conf *configs.Conf) (proc.Store, error) {
	cs := conf.CloudStorage
	switch cs.Backend {
	case configs.BackendAWS:
		store, err := proc.NewAWSStore(cs.Bucket, cs.Region, cs.Secrets.Key, cs.Secrets.Secret, cs.PublicURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case configs.BackendMinio, "":
		client, err := NewS3Client(cs.EndPointURL, cs.Secrets.Key, cs.Secrets.Secret, cs.Region, !cs.Insecure)
		if err != nil {
			return nil, fmt.Errorf("can't create s3 client: %w", err)
		}
		return &proc.S3Store{Client: client, Region: cs.Region, Bucket: cs.Bucket, PublicURL: cs.PublicURL}, nil
	}
	return nil, fmt.Errorf("unknown cloud storage backend %q", cs.Backend)
}
