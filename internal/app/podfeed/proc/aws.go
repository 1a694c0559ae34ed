package proc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	log "github.com/go-pkgz/lgr"
)

// AWSStore is a Store on amazon s3 with canned acl support
type AWSStore struct {
	Session *session.Session
	Bucket  string
	// PublicURL is base url of public objects, https://<bucket>.s3.amazonaws.com if empty
	PublicURL string
}

// NewAWSStore makes AWSStore for bucket, the default credential chain is used if key is empty
func NewAWSStore(bucket, region, key, secret, publicURL string) (*AWSStore, error) {
	cfg := aws.Config{Region: aws.String(region)}
	if key != "" {
		cfg.Credentials = credentials.NewStaticCredentials(key, secret, "")
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("can't make aws session: %w", err)
	}
	return &AWSStore{Session: sess, Bucket: bucket, PublicURL: publicURL}, nil
}

// Get object from s3 bucket
func (a *AWSStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s3.New(a.Session).GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var awsErr awserr.Error
		if errors.As(err, &awsErr) {
			switch awsErr.Code() {
			case s3.ErrCodeNoSuchKey, "NotFound":
				return nil, ErrNotFound
			}
		}
		return nil, fmt.Errorf("can't get s3://%s/%s: %w", a.Bucket, key, err)
	}
	defer out.Body.Close() // nolint

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("can't read s3://%s/%s: %w", a.Bucket, key, err)
	}
	return data, nil
}

// Put object to s3 bucket with public-read acl
func (a *AWSStore) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	uploader := s3manager.NewUploader(a.Session)
	res, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(key),
		ACL:         aws.String(s3.ObjectCannedACLPublicRead),
		ContentType: aws.String(contentType),
		Body:        r,
	})
	if err != nil {
		return "", fmt.Errorf("can't upload s3://%s/%s: %w", a.Bucket, key, err)
	}
	log.Printf("[DEBUG] uploaded to %s", res.Location)
	return a.Location(key), nil
}

// Location returns public url of key
func (a *AWSStore) Location(key string) string {
	if a.PublicURL != "" {
		return fmt.Sprintf("%s/%s", trimSlash(a.PublicURL), key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", a.Bucket, key)
}
