// Package storage uploads profile avatars to an S3-compatible bucket
// (Supabase Storage, MinIO, AWS S3) through presigned PUT URLs.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/authboot/internal/logging"
	"github.com/dmitrijs2005/authboot/internal/netx"
	"github.com/google/uuid"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// Config locates the avatar bucket. PublicBaseURL, when set, is the prefix
// under which uploaded objects are publicly readable; otherwise a path-style
// URL on BaseEndpoint is used.
type Config struct {
	Region        string
	AccessKey     string
	SecretKey     string
	BaseEndpoint  string
	Bucket        string
	PublicBaseURL string
}

type AvatarStore struct {
	cfg  Config
	http *http.Client
	log  logging.Logger
}

func NewAvatarStore(cfg Config, log logging.Logger) *AvatarStore {
	if log == nil {
		log = logging.Discard()
	}
	return &AvatarStore{cfg: cfg, http: &http.Client{}, log: log.With("module", "storage")}
}

// AvatarKey returns a fresh object key for userID.
func AvatarKey(userID string) string {
	return fmt.Sprintf("avatars/%s/%s", userID, uuid.NewString())
}

func (s *AvatarStore) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignPut returns a fresh key and a presigned PUT URL for it.
func (s *AvatarStore) PresignPut(ctx context.Context, userID, contentType string) (string, string, error) {
	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", "", err
	}

	key := AvatarKey(userID)
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// Upload stores data as a new avatar of userID and returns its public URL.
func (s *AvatarStore) Upload(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	key, url, err := s.PresignPut(ctx, userID, contentType)
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}

	if err := netx.UploadToPresignedURL(ctx, s.http, url, data, contentType); err != nil {
		return "", err
	}

	s.log.Debug(ctx, "avatar uploaded", "key", key, "bytes", len(data))
	return s.PublicURL(key), nil
}

func (s *AvatarStore) PublicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	return strings.TrimRight(s.cfg.BaseEndpoint, "/") + "/" + s.cfg.Bucket + "/" + key
}
