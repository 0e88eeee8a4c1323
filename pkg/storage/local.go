package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  baseURL,
	}, nil
}

func (l *LocalStorage) Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error) {
	filePath, err := l.resolve(request.Key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, request.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &UploadResponse{
		Key:  request.Key,
		URL:  fmt.Sprintf("%s/%s", strings.TrimRight(l.baseURL, "/"), request.Key),
		Size: size,
	}, nil
}

func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	filePath, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	filePath, err := l.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// resolve keeps keys inside basePath.
func (l *LocalStorage) resolve(key string) (string, error) {
	filePath := filepath.Join(l.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(l.basePath, filePath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filePath, nil
}
