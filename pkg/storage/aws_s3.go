package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Storage struct {
	client    *s3.Client
	bucket    string
	region    string
	cdnDomain string
}

func NewS3Storage(ctx context.Context, region, bucket, cdnDomain string) (*S3Storage, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Storage{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		region:    region,
		cdnDomain: cdnDomain,
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(request.Key),
		Body:        request.Reader,
		ContentType: aws.String(request.ContentType),
	}
	if request.Size > 0 {
		input.ContentLength = aws.Int64(request.Size)
	}
	if request.CacheControl != "" {
		input.CacheControl = aws.String(request.CacheControl)
	}
	if len(request.Metadata) > 0 {
		input.Metadata = request.Metadata
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResponse{
		Key:  request.Key,
		URL:  s.publicURL(request.Key),
		Size: request.Size,
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head S3 object: %w", err)
	}
	return true, nil
}

func (s *S3Storage) publicURL(key string) string {
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
