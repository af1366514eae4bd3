package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) Config {
	return Config{
		Region:       "us-east-1",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		BaseEndpoint: endpoint,
		Bucket:       "avatars-bucket",
	}
}

func restoreSeams(t *testing.T) {
	t.Helper()
	origLoad, origNewS3, origNewPre, origPut := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient, presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
	})
}

type putRecorder struct {
	mu          sync.Mutex
	path        string
	query       string
	contentType string
	body        []byte
}

func (p *putRecorder) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		p.mu.Lock()
		p.path = r.URL.Path
		p.query = r.URL.RawQuery
		p.contentType = r.Header.Get("Content-Type")
		p.body = b
		p.mu.Unlock()
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(status)
	}
}

func TestAvatarKey(t *testing.T) {
	k1 := AvatarKey("u1")
	k2 := AvatarKey("u1")
	assert.True(t, strings.HasPrefix(k1, "avatars/u1/"))
	assert.NotEqual(t, k1, k2)
}

func TestPresignClient_AppliesConfig(t *testing.T) {
	restoreSeams(t)
	s := NewAvatarStore(testConfig("http://127.0.0.1:9000"), nil)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }

	pc, err := s.presignClient(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, pc)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = s.presignClient(context.Background())
	assert.EqualError(t, err, "load-fail")
}

func TestUpload_WithStubbedPresign(t *testing.T) {
	restoreSeams(t)

	rec := &putRecorder{}
	srv := httptest.NewServer(rec.handler(http.StatusOK))
	defer srv.Close()

	var gotKey, gotBucket, gotCT string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		gotKey, gotBucket, gotCT = *in.Key, *in.Bucket, *in.ContentType
		return &v4.PresignedHTTPRequest{URL: srv.URL + "/upload/" + *in.Key, Method: http.MethodPut}, nil
	}

	cfg := testConfig(srv.URL)
	cfg.PublicBaseURL = "https://cdn.example/storage/v1/object/public/avatars-bucket/"
	s := NewAvatarStore(cfg, nil)

	url, err := s.Upload(context.Background(), "u1", []byte("PNGDATA"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "avatars-bucket", gotBucket)
	assert.Equal(t, "image/png", gotCT)
	assert.True(t, strings.HasPrefix(gotKey, "avatars/u1/"))
	assert.Equal(t, "https://cdn.example/storage/v1/object/public/avatars-bucket/"+gotKey, url)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, "/upload/"+gotKey, rec.path)
	assert.Equal(t, "image/png", rec.contentType)
	assert.Equal(t, []byte("PNGDATA"), rec.body)
}

func TestUpload_PresignError(t *testing.T) {
	restoreSeams(t)
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-put-fail")
	}

	_, err := NewAvatarStore(testConfig("http://127.0.0.1:9000"), nil).Upload(context.Background(), "u1", []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presign-put-fail")
}

func TestUpload_RealPresignAgainstLocalEndpoint(t *testing.T) {
	rec := &putRecorder{}
	srv := httptest.NewServer(rec.handler(http.StatusOK))
	defer srv.Close()

	s := NewAvatarStore(testConfig(srv.URL), nil)
	url, err := s.Upload(context.Background(), "u1", []byte("JPEG"), "image/jpeg")
	require.NoError(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.True(t, strings.HasPrefix(rec.path, "/avatars-bucket/avatars/u1/"), rec.path)
	assert.Contains(t, rec.query, "X-Amz-Signature=")
	assert.Equal(t, srv.URL+rec.path, url)
}

func TestUpload_StorageRejects(t *testing.T) {
	rec := &putRecorder{}
	srv := httptest.NewServer(rec.handler(http.StatusForbidden))
	defer srv.Close()

	_, err := NewAvatarStore(testConfig(srv.URL), nil).Upload(context.Background(), "u1", []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
