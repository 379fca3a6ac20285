// Package archive stores purged notifications in S3 compatible storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/cpg716/SuitSync-sub003/internal/models"
)

// putObjectAPI is the subset of *s3.Client the archiver uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type S3Archiver struct {
	client putObjectAPI
	bucket string
	now    func() time.Time
}

// NewS3Archiver builds a client from static credentials. A non-empty
// Endpoint switches to path-style addressing for MinIO and friends.
func NewS3Archiver(cfg Config) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive: bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return newS3Archiver(s3.New(opts), cfg.Bucket, time.Now), nil
}

func newS3Archiver(client putObjectAPI, bucket string, now func() time.Time) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, now: now}
}

// Archive writes rows as one JSON-lines object under a dated prefix.
func (a *S3Archiver) Archive(ctx context.Context, rows []models.NotificationSchedule) error {
	if len(rows) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("archive: encode notification %d: %w", row.ID, err)
		}
	}

	key := a.key()
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
		Metadata: map[string]string{
			"rows": fmt.Sprintf("%d", len(rows)),
		},
	})
	if err != nil {
		return fmt.Errorf("archive: put %s: %w", key, err)
	}
	return nil
}

func (a *S3Archiver) key() string {
	now := a.now().UTC()
	return fmt.Sprintf("notifications/%s/%s.jsonl", now.Format("2006/01/02"), uuid.NewString())
}
