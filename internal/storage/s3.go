// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3 stores blobs in a single bucket of an S3-compatible service. It is
// configured for path-style access (required by CEPH/Hetzner).
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 creates an S3-backed store. All keys are written below prefix.
func NewS3(endpoint, region, accessKey, secretKey, bucket, prefix string) (*S3, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, fmt.Errorf("s3 storage: endpoint, credentials and bucket are required")
	}

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(strings.TrimRight(endpoint, "/")),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &S3{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (c *S3) key(folder, name string) (string, error) {
	key, err := ObjectKey(folder, name)
	if err != nil {
		return "", err
	}
	if c.prefix != "" {
		key = c.prefix + "/" + key
	}
	return key, nil
}

// isS3NotFound matches both GetObject's NoSuchKey and HeadObject's bare 404.
func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// Get downloads a blob.
func (c *S3) Get(ctx context.Context, folder, name string) ([]byte, error) {
	key, err := c.key(folder, name)
	if err != nil {
		return nil, err
	}
	output, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if isS3NotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("s3 download %s/%s: %w", c.bucket, key, err)
	}
	defer output.Body.Close()
	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read body %s/%s: %w", c.bucket, key, err)
	}
	return data, nil
}

// Put uploads a blob, replacing any existing object.
func (c *S3) Put(ctx context.Context, folder, name string, data []byte) error {
	key, err := c.key(folder, name)
	if err != nil {
		return err
	}
	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Exists issues a HEAD request for the blob.
func (c *S3) Exists(ctx context.Context, folder, name string) (bool, error) {
	key, err := c.key(folder, name)
	if err != nil {
		return false, err
	}
	_, err = c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if isS3NotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("s3 head %s/%s: %w", c.bucket, key, err)
	}
	return true, nil
}
