package proc

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAWSStore(t *testing.T, srv *httptest.Server, bucket string) *AWSStore {
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String("us-east-1"),
		Endpoint:         aws.String(srv.URL),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials("key", "secret", ""),
		MaxRetries:       aws.Int(0),
	})
	require.NoError(t, err)
	return &AWSStore{Session: sess, Bucket: bucket}
}

func TestAWSStoreGet(t *testing.T) {
	srv, _ := newS3Server(t)

	data, err := newTestAWSStore(t, srv, "papers").Get(context.Background(), "rss/feed.xml")
	require.NoError(t, err)
	assert.Equal(t, "<rss/>", string(data))

	tbl := []struct {
		bucket, key string
		notFound    bool
		code        string
	}{
		{"papers", "missing.xml", true, "NoSuchKey"},
		{"gone", "rss/feed.xml", false, "NoSuchBucket"},
		{"papers", "private.xml", false, "AccessDenied"},
	}
	for _, tt := range tbl {
		t.Run(tt.code, func(t *testing.T) {
			_, err := newTestAWSStore(t, srv, tt.bucket).Get(context.Background(), tt.key)
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrNotFound), err.Error())
			if !tt.notFound {
				var awsErr awserr.Error
				require.True(t, errors.As(err, &awsErr))
				assert.Equal(t, tt.code, awsErr.Code())
			}
		})
	}
}

func TestAWSStorePut(t *testing.T) {
	srv, rec := newS3Server(t)
	s := newTestAWSStore(t, srv, "papers")

	location, err := s.Put(context.Background(), "rss/feed.xml", strings.NewReader("<rss/>"), 6, ContentTypeRSS)
	require.NoError(t, err)
	assert.Equal(t, "https://papers.s3.amazonaws.com/rss/feed.xml", location)

	h := rec.get("/papers/rss/feed.xml")
	require.NotNil(t, h, "object put")
	assert.Equal(t, "public-read", h.Get("x-amz-acl"))
	assert.Equal(t, ContentTypeRSS, h.Get("Content-Type"))

	_, err = newTestAWSStore(t, srv, "gone").Put(context.Background(), "rss/feed.xml", strings.NewReader("<rss/>"), 6, ContentTypeRSS)
	assert.Error(t, err)
}
