package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio stores blobs in a MinIO bucket.
type Minio struct {
	client *minio.Client
	bucket string
}

// NewMinio connects to MinIO and creates the bucket when it does not exist.
func NewMinio(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Minio, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket %s: %w", bucket, err)
		}
		slog.Info("minio bucket created", "bucket", bucket)
	}

	return &Minio{client: client, bucket: bucket}, nil
}

func isMinioNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Get downloads a blob. minio-go defers the request until the first read,
// so a missing key surfaces from ReadAll.
func (m *Minio) Get(ctx context.Context, folder, name string) ([]byte, error) {
	key, err := ObjectKey(folder, name)
	if err != nil {
		return nil, err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get %s/%s: %w", m.bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if isMinioNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("minio read %s/%s: %w", m.bucket, key, err)
	}
	return data, nil
}

// Put uploads a blob.
func (m *Minio) Put(ctx context.Context, folder, name string, data []byte) error {
	key, err := ObjectKey(folder, name)
	if err != nil {
		return err
	}
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return fmt.Errorf("minio put %s/%s: %w", m.bucket, key, err)
	}
	return nil
}

// Exists stats the object.
func (m *Minio) Exists(ctx context.Context, folder, name string) (bool, error) {
	key, err := ObjectKey(folder, name)
	if err != nil {
		return false, err
	}
	_, err = m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if isMinioNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("minio stat %s/%s: %w", m.bucket, key, err)
	}
	return true, nil
}
