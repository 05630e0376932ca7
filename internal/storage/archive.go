// Package storage archives forensic log batches to an S3-compatible bucket
// for long-term retention.
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/verifixia-ai/verifixia/internal/config"
	"github.com/verifixia-ai/verifixia/internal/model"
)

// ArchiveClient uploads and downloads forensic log batches as gzip JSON
// objects. Any S3-compatible endpoint works.
type ArchiveClient struct {
	client *s3.Client
	bucket string
}

// NewArchiveClient builds an S3-compatible client for the given archive
// config. Returns nil if cfg is nil or endpoint/bucket are empty.
func NewArchiveClient(cfg *config.ArchiveConfig) (*ArchiveClient, error) {
	if cfg == nil || cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, nil
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	client := s3.NewFromConfig(aws.Config{
		Region:      region,
		Credentials: aws.NewCredentialsCache(creds),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return &ArchiveClient{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist (HeadBucket fails,
// then CreateBucket).
func (c *ArchiveClient) EnsureBucket(ctx context.Context) error {
	if c == nil {
		return nil
	}
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}
	_, createErr := c.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)})
	if createErr != nil {
		var apiErr smithy.APIError
		if errors.As(createErr, &apiErr) {
			switch apiErr.ErrorCode() {
			case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
				return nil
			}
		}
		return createErr
	}
	return nil
}

// KeyForBatch returns the object key for a batch exported now
// (e.g. forensic/2024/02/17/abc123.json.gz).
func KeyForBatch(batchID string) string {
	now := time.Now().UTC()
	return path.Join("forensic", now.Format("2006/01/02"), batchID+".json.gz")
}

// ExportBatch uploads the entries as one gzip JSON object and returns its
// key.
func (c *ArchiveClient) ExportBatch(ctx context.Context, entries []model.ForensicLogEntry) (string, error) {
	if c == nil {
		return "", fmt.Errorf("archive client not configured")
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(entries); err != nil {
		return "", fmt.Errorf("encode batch: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("gzip: %w", err)
	}

	key := KeyForBatch(uuid.NewString())
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// ObjectInfo describes one archived batch.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ListBatches lists archived batch objects under prefix. Returns nil, nil if
// the client is nil.
func (c *ArchiveClient) ListBatches(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if c == nil {
		return nil, nil
	}
	out, err := c.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, err
	}
	result := make([]ObjectInfo, 0, len(out.Contents))
	for _, o := range out.Contents {
		info := ObjectInfo{Key: aws.ToString(o.Key), Size: aws.ToInt64(o.Size)}
		if o.LastModified != nil {
			info.LastModified = *o.LastModified
		}
		result = append(result, info)
	}
	return result, nil
}

// GetBatch downloads one gzipped batch by key and returns its entries.
func (c *ArchiveClient) GetBatch(ctx context.Context, key string) ([]model.ForensicLogEntry, error) {
	if c == nil {
		return nil, fmt.Errorf("archive client not configured")
	}
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	zr, err := gzip.NewReader(out.Body)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()
	decoded, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var entries []model.ForensicLogEntry
	if err := json.Unmarshal(decoded, &entries); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return entries, nil
}
