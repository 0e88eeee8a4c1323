package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStorage struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

func NewGCSStorage(ctx context.Context, bucket, credentialsFile, cdnDomain string) (*GCSStorage, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client:    client,
		bucket:    bucket,
		cdnDomain: cdnDomain,
	}, nil
}

func (g *GCSStorage) Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error) {
	writer := g.client.Bucket(g.bucket).Object(request.Key).NewWriter(ctx)
	writer.ContentType = request.ContentType
	if len(request.Metadata) > 0 {
		writer.Metadata = request.Metadata
	}
	if request.CacheControl != "" {
		writer.CacheControl = request.CacheControl
	}

	size, err := io.Copy(writer, request.Reader)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	return &UploadResponse{
		Key:  request.Key,
		URL:  g.publicURL(request.Key),
		Size: size,
	}, nil
}

func (g *GCSStorage) Delete(ctx context.Context, key string) error {
	if err := g.client.Bucket(g.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete from GCS: %w", err)
	}
	return nil
}

func (g *GCSStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read GCS object attributes: %w", err)
	}
	return true, nil
}

func (g *GCSStorage) publicURL(key string) string {
	if g.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", g.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, key)
}
