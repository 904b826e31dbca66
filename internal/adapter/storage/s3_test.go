package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/semmidev/dumpship/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
	after func(body io.Reader)
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	f.input = input
	f.body, _ = io.ReadAll(input.Body)
	if f.after != nil {
		f.after(input.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3manager.UploadOutput{Key: input.Key}, nil
}

func TestS3Storage(t *testing.T) {
	Convey("Given an S3Storage", t, func() {
		tempDir, err := os.MkdirTemp("", "s3_storage_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		archive := filepath.Join(tempDir, "orders_2026_10_18_1760745600000.tar.gz")
		So(os.WriteFile(archive, []byte("archive"), 0o644), ShouldBeNil)

		fake := &fakeUploader{}
		cfg := &config.StorageConfig{Bucket: "company-backups"}

		Convey("When no prefix or encryption is configured", func() {
			storage := newS3WithUploader(fake, cfg)
			err := storage.Upload(context.Background(), archive, filepath.Base(archive), nil)

			Convey("It should upload to the bucket root without SSE", func() {
				So(err, ShouldBeNil)
				So(*fake.input.Bucket, ShouldEqual, "company-backups")
				So(*fake.input.Key, ShouldEqual, "orders_2026_10_18_1760745600000.tar.gz")
				So(fake.input.ServerSideEncryption, ShouldEqual, types.ServerSideEncryption(""))
				So(string(fake.body), ShouldEqual, "archive")
			})
		})

		Convey("When a prefix and encryption are configured", func() {
			cfg.Prefix = "/mongo/orders/"
			cfg.Encrypt = true
			storage := newS3WithUploader(fake, cfg)
			err := storage.Upload(context.Background(), archive, "orders.tar.gz", nil)

			Convey("It should prefix the key and request AES256", func() {
				So(err, ShouldBeNil)
				So(*fake.input.Key, ShouldEqual, "mongo/orders/orders.tar.gz")
				So(fake.input.ServerSideEncryption, ShouldEqual, types.ServerSideEncryptionAes256)
			})
		})

		Convey("When the client reports an error", func() {
			clientErr := errors.New("AccessDenied")
			fake.err = clientErr
			err := newS3WithUploader(fake, cfg).Upload(context.Background(), archive, "orders.tar.gz", nil)

			Convey("It should propagate it unchanged", func() {
				So(err, ShouldEqual, clientErr)
			})
		})

		Convey("When the body is read after the client returned", func() {
			var body io.Reader
			fake.after = func(b io.Reader) { body = b }
			var faults []error

			err := newS3WithUploader(fake, cfg).Upload(context.Background(), archive, "orders.tar.gz", func(err error) {
				faults = append(faults, err)
			})
			So(err, ShouldBeNil)

			_, readErr := body.Read(make([]byte, 8))

			Convey("It should report the failure as a fault", func() {
				So(readErr, ShouldNotBeNil)
				So(faults, ShouldHaveLength, 1)
				So(errors.Is(faults[0], os.ErrClosed), ShouldBeTrue)
			})
		})

		Convey("When the archive is missing", func() {
			err := newS3WithUploader(fake, cfg).Upload(context.Background(), filepath.Join(tempDir, "missing"), "k", nil)

			Convey("It should fail before calling the client", func() {
				So(err, ShouldNotBeNil)
				So(fake.input, ShouldBeNil)
			})
		})

		Convey("Name should include the bucket", func() {
			So(newS3WithUploader(fake, cfg).Name(), ShouldEqual, "s3://company-backups")
		})
	})
}

func TestNewS3(t *testing.T) {
	Convey("Given an S3-compatible storage config", t, func() {
		cfg := &config.StorageConfig{
			Type:           "s3",
			Region:         "us-east-1",
			Bucket:         "company-backups",
			AccessKey:      "test-access",
			SecretKey:      "test-secret",
			Endpoint:       "http://127.0.0.1:9000",
			ForcePathStyle: true,
			PartSize:       8 * 1024 * 1024,
			MaxAttempts:    4,
		}

		storage, err := NewS3(context.Background(), cfg)
		So(err, ShouldBeNil)

		Convey("It should use the configured part size", func() {
			uploader, ok := storage.uploader.(*s3manager.Uploader)
			So(ok, ShouldBeTrue)
			So(uploader.PartSize, ShouldEqual, int64(8*1024*1024))
		})

		Convey("It should bound retries per request and target the endpoint", func() {
			uploader := storage.uploader.(*s3manager.Uploader)
			client, ok := uploader.S3.(*s3.Client)
			So(ok, ShouldBeTrue)

			opts := client.Options()
			So(opts.Retryer.MaxAttempts(), ShouldEqual, 4)
			So(*opts.BaseEndpoint, ShouldEqual, "http://127.0.0.1:9000")
			So(opts.UsePathStyle, ShouldBeTrue)
		})
	})
}
