// Package storage keeps plant photos in an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
)

const (
	keyPrefix     = "plant_images"
	presignExpiry = 15 * time.Minute
)

// ErrInvalidImage is returned for uploads whose content type is not image/*.
var ErrInvalidImage = fmt.Errorf("%w: not an image", common.ErrorValidation)

// Seams over the SDK, replaced in tests.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

type Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	// PublicBaseURL prefixes "/<bucket>/<key>" to form the URL stored on a
	// plant.
	PublicBaseURL string
}

// Object is a stored photo.
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// PresignedUpload lets a client PUT a photo straight to the bucket.
type PresignedUpload struct {
	Key         string    `json:"key"`
	UploadURL   string    `json:"uploadUrl"`
	PublicURL   string    `json:"publicUrl"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type S3Store struct {
	cfg     Config
	client  *s3.Client
	presign *s3.PresignClient
	now     func() time.Time
}

func New(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		// MinIO and most self-hosted stores only speak path-style.
		o.UsePathStyle = true
	})

	return &S3Store{
		cfg:     cfg,
		client:  client,
		presign: s3.NewPresignClient(client),
		now:     time.Now,
	}, nil
}

// Put stores body under a fresh key for userID and returns its public URL.
// filename only contributes its extension.
func (s *S3Store) Put(ctx context.Context, userID, filename, contentType string, body io.Reader, size int64) (*Object, error) {
	if !isImage(contentType) {
		return nil, ErrInvalidImage
	}

	key := s.newKey(userID, extension(filename, contentType))
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}

	if _, err := putObject(s.client, ctx, in); err != nil {
		return nil, fmt.Errorf("%w: put object: %v", common.ErrorUpstream, err)
	}

	return &Object{Key: key, URL: s.PublicURL(key)}, nil
}

// PresignPut returns a URL valid for 15 minutes that accepts one PUT with
// the given content type.
func (s *S3Store) PresignPut(ctx context.Context, userID, contentType string) (*PresignedUpload, error) {
	if !isImage(contentType) {
		return nil, ErrInvalidImage
	}

	key := s.newKey(userID, extension("", contentType))
	req, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("%w: presign put: %v", common.ErrorUpstream, err)
	}

	return &PresignedUpload{
		Key:         key,
		UploadURL:   req.URL,
		PublicURL:   s.PublicURL(key),
		ContentType: contentType,
		ExpiresAt:   s.now().Add(presignExpiry),
	}, nil
}

func (s *S3Store) PublicURL(key string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + s.cfg.Bucket + "/" + key
}

// OwnsKey reports whether key was issued to userID by Put or PresignPut.
func OwnsKey(userID, key string) bool {
	rest, ok := strings.CutPrefix(key, keyPrefix+"/"+userID+"/")
	return ok && userID != "" && rest != "" && !strings.Contains(rest, "/")
}

func (s *S3Store) newKey(userID, ext string) string {
	return fmt.Sprintf("%s/%s/%d-%s.%s", keyPrefix, userID, s.now().UnixMilli(), uuid.NewString(), ext)
}

func isImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// extension prefers the file name's extension and falls back to the image
// subtype ("image/jpeg" gives "jpg").
func extension(filename, contentType string) string {
	if ext := strings.TrimPrefix(path.Ext(filename), "."); ext != "" {
		return strings.ToLower(ext)
	}

	sub := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(contentType), "image/"))
	sub, _, _ = strings.Cut(sub, ";")
	switch sub {
	case "jpeg", "pjpeg":
		return "jpg"
	case "svg+xml":
		return "svg"
	case "":
		return "img"
	}
	return sub
}
