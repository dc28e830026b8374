// Package storage archives finished validation aggregates to S3. The
// database stays the system of record; the archive is the cheap long-term
// copy used for offline analysis and replay.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/idea-validator/internal/domain"
)

// s3Putter is the slice of the S3 API the archive uses.
type s3Putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive writes one JSON object per finished job under
// validations/<year>/<job id>.json.
type S3Archive struct {
	client s3Putter
	bucket string
}

// NewS3Archive loads the default AWS config and returns an archive bound to
// the given bucket.
func NewS3Archive(ctx context.Context, bucket, region, profile string) (*S3Archive, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Archive{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// newS3ArchiveWithClient is the test seam.
func newS3ArchiveWithClient(client s3Putter, bucket string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket}
}

// Archive uploads the aggregate as indented JSON.
func (a *S3Archive) Archive(ctx context.Context, jobID string, result *domain.AggregatedResult) error {
	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("archive %s: marshal: %w", jobID, err)
	}

	key := archiveKey(jobID, time.Now().UTC())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive %s to s3://%s/%s: %w", jobID, a.bucket, key, err)
	}
	return nil
}

func archiveKey(jobID string, now time.Time) string {
	return fmt.Sprintf("validations/%d/%s.json", now.Year(), jobID)
}
