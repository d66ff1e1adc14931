// Package artifacts uploads run outputs (annotated video, records) to an S3-compatible object store.
package artifacts

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/LdDl/eeltrack/internal/config"
)

type Uploader struct {
	client *minio.Client
	bucket string
}

func NewUploader(cfg config.ArtifactsConfig) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Can't create minio client")
	}
	return &Uploader{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return errors.Wrap(err, "Can't check bucket")
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return errors.Wrap(err, "Can't create bucket")
		}
	}
	return nil
}

// Upload puts local files under <prefix>/<base name> and returns object keys
func (u *Uploader) Upload(ctx context.Context, prefix string, files ...string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key := ObjectKey(prefix, file)
		_, err := u.client.FPutObject(ctx, u.bucket, key, file, minio.PutObjectOptions{
			ContentType: ContentType(file),
		})
		if err != nil {
			return keys, errors.Wrapf(err, "Can't upload %s", file)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ObjectKey builds object key from run prefix and local file path
func ObjectKey(prefix, file string) string {
	return path.Join(prefix, filepath.Base(file))
}

// ContentType guesses content type of run outputs by extension
func ContentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".mp4":
		return "video/mp4"
	case ".avi":
		return "video/x-msvideo"
	case ".csv":
		return "text/csv"
	case ".db", ".sqlite":
		return "application/vnd.sqlite3"
	default:
		return "application/octet-stream"
	}
}
