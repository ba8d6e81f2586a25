package filestore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xxxsen/mreply/internal/config"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{Type: "LOCAL", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())
	ctx := context.Background()

	body := []byte("# FAQ\n\nhello")
	require.NoError(t, store.Save(ctx, "doc1", bytes.NewReader(body), int64(len(body))))
	rc, err := store.Open(ctx, "doc1")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	require.Equal(t, body, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, store.Delete(ctx, "doc1"))
	_, err = os.Stat(filepath.Join(dir, "doc1"))
	require.True(t, os.IsNotExist(err))
	_, err = store.Open(ctx, "doc1")
	require.ErrorIs(t, err, ErrNotExist)
	require.ErrorIs(t, store.Delete(ctx, "doc1"), ErrNotExist)
}

func TestLocalStoreRejectsBadKeys(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	for _, key := range []string{"", "a/b", `a\b`, ".."} {
		require.Error(t, store.Save(context.Background(), key, bytes.NewReader(nil), 0), key)
	}
}

func TestNewErrors(t *testing.T) {
	_, err := New(config.FileStoreConfig{})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "ftp", Data: map[string]interface{}{}})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{}})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "s3", Data: map[string]interface{}{"bucket": "b"}})
	require.Error(t, err)
}

func TestS3StoreObjectKey(t *testing.T) {
	s, err := New(config.FileStoreConfig{Type: "s3", Data: map[string]interface{}{
		"endpoint": "minio:9000", "bucket": "b", "secret_id": "id", "secret_key": "key", "prefix": "/docs/",
	}})
	require.NoError(t, err)
	require.Equal(t, "s3", s.Type())
	require.Equal(t, "docs/abc", s.(*s3Store).objectKey("abc"))
	require.Equal(t, "https://minio:9000", buildEndpoint("minio:9000/", true))
	require.Equal(t, "http://x", buildEndpoint("http://x/", true))
}
