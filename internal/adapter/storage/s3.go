package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appconfig "github.com/semmidev/dumpship/internal/config"
	"github.com/semmidev/dumpship/internal/domain"
)

type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

type S3Storage struct {
	uploader s3Uploader
	bucket   string
	prefix   string
	encrypt  bool
}

// NewS3 builds a multipart uploader with a fixed part size. Each part request
// is retried by the SDK up to MaxAttempts times; the upload as a whole is not.
func NewS3(ctx context.Context, cfg *appconfig.StorageConfig) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), cfg.MaxAttempts)
		}),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	uploader := s3manager.NewUploader(client, func(u *s3manager.Uploader) {
		u.PartSize = cfg.PartSize
	})

	return newS3WithUploader(uploader, cfg), nil
}

func newS3WithUploader(uploader s3Uploader, cfg *appconfig.StorageConfig) *S3Storage {
	return &S3Storage{
		uploader: uploader,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		encrypt:  cfg.Encrypt,
	}
}

// Upload returns the client's error unchanged.
func (s *S3Storage) Upload(ctx context.Context, localPath string, key string, fault domain.FaultFunc) error {
	body, err := openGuarded(localPath, fault)
	if err != nil {
		return err
	}
	defer body.settle()

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.ObjectKey(key)),
		Body:   body,
	}
	if s.encrypt {
		input.ServerSideEncryption = types.ServerSideEncryptionAes256
	}

	_, err = s.uploader.Upload(ctx, input)
	return err
}

func (s *S3Storage) ObjectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *S3Storage) Name() string {
	return "s3://" + s.bucket
}
