package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadExistsDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads/")
	require.NoError(t, err)

	resp, err := store.Upload(ctx, &UploadRequest{
		Key:         "menu/abc/photo.jpg",
		Reader:      strings.NewReader("jpeg-bytes"),
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/menu/abc/photo.jpg", resp.URL)
	assert.Equal(t, int64(10), resp.Size)

	exists, err := store.Exists(ctx, "menu/abc/photo.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "menu/abc/photo.jpg"))
	exists, err = store.Exists(ctx, "menu/abc/photo.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, store.Delete(ctx, "menu/abc/photo.jpg"), ErrObjectNotFound)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost")
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), &UploadRequest{
		Key:    "../escape.txt",
		Reader: strings.NewReader("x"),
	})
	assert.Error(t, err)
}
