package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/evcraddock/visitor-desk/internal/config"
)

// s3API is the subset of *s3.Client the store uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// presigner is the subset of *s3.PresignClient the store uses.
type presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store keeps images in an S3 bucket and hands out presigned GET URLs.
type S3Store struct {
	client  s3API
	presign presigner
	bucket  string
	prefix  string
	ttl     time.Duration
}

// NewS3Store builds a store from the images config. Credentials come from
// the config when set, otherwise from the default AWS chain.
func NewS3Store(ctx context.Context, cfg config.ImagesConfig) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, s3.NewPresignClient(client), cfg.S3Bucket, cfg.S3Prefix, cfg.PresignTTL()), nil
}

func newS3Store(client s3API, p presigner, bucket, prefix string, ttl time.Duration) *S3Store {
	return &S3Store{
		client:  client,
		presign: p,
		bucket:  bucket,
		prefix:  prefix,
		ttl:     ttl,
	}
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Put uploads an image.
func (s *S3Store) Put(ctx context.Context, contentType string, data []byte) (string, error) {
	contentType, err := Validate(contentType, data)
	if err != nil {
		return "", err
	}

	key := NewKey()
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	}); err != nil {
		return "", fmt.Errorf("uploading image %s to bucket %s: %w", key, s.bucket, err)
	}
	return key, nil
}

// URI returns a presigned GET URL for key.
func (s *S3Store) URI(ctx context.Context, key string) (string, error) {
	objKey := s.objectKey(key)

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	}); err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("checking image %s in bucket %s: %w", key, s.bucket, err)
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("presigning image %s: %w", key, err)
	}
	return req.URL, nil
}
