package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// ErrArtifactNotFound is returned when no artifact exists for the given key.
var ErrArtifactNotFound = errors.New("artifact not found")

// artifactPrefix is the fixed directory the generated images live under.
const artifactPrefix = "generated_images/"

// ArtifactStore persists generated images keyed by filename
// (generated_{requestId}.png).
type ArtifactStore interface {
	Put(ctx context.Context, filename string, data []byte) error
	Get(ctx context.Context, filename string) ([]byte, error)
	Delete(ctx context.Context, filename string) error
	Count(ctx context.Context) (int, error)
}

type s3ArtifactStore struct {
	client *s3.Client
	bucket string
}

func NewS3ArtifactStore(client *s3.Client, bucket string) ArtifactStore {
	return &s3ArtifactStore{client: client, bucket: bucket}
}

func (s *s3ArtifactStore) Put(ctx context.Context, filename string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(artifactPrefix + filename),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("storing artifact %s: %w", filename, err)
	}
	return nil
}

func (s *s3ArtifactStore) Get(ctx context.Context, filename string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(artifactPrefix + filename),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("fetching artifact %s: %w", filename, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", filename, err)
	}
	return data, nil
}

func (s *s3ArtifactStore) Delete(ctx context.Context, filename string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(artifactPrefix + filename),
	})
	if err != nil {
		return fmt.Errorf("deleting artifact %s: %w", filename, err)
	}
	return nil
}

func (s *s3ArtifactStore) Count(ctx context.Context) (int, error) {
	var count int
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(artifactPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("listing artifacts: %w", err)
		}
		count += len(page.Contents)
	}
	return count, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
