package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection_server/server/domain"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	id := uuid.NewString()
	content := []byte("hello, world")
	require.NoError(t, store.Save(ctx, id, "report.pdf", content))

	rc, info, err := store.Open(ctx, id)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, "report.pdf", info.OriginalName)
	assert.Equal(t, int64(len(content)), info.SizeBytes)
	assert.Equal(t, id, info.ID)
}

func TestDiskStoreOpenUnknownID(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Open(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = store.Open(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = store.Open(ctx, "../escape")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDiskStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	first, err := NewDiskStore(root)
	require.NoError(t, err)
	id := uuid.NewString()
	require.NoError(t, first.Save(ctx, id, "measurements.csv", []byte("a,b\n1,2\n")))

	// A fresh store over the same root stands in for a process restart.
	second, err := NewDiskStore(root)
	require.NoError(t, err)
	rc, info, err := second.Open(ctx, id)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "measurements.csv", info.OriginalName)
}

func TestDiskStoreSanitizesFilenames(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewDiskStore(root)
	require.NoError(t, err)

	id := uuid.NewString()
	require.NoError(t, store.Save(ctx, id, "../../etc/passwd", []byte("x")))

	rc, info, err := store.Open(ctx, id)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "passwd", info.OriginalName)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, entry.IsDir())
		assert.Equal(t, entry.Name(), filepath.Base(entry.Name()))
	}

	assert.ErrorIs(t, store.Save(ctx, uuid.NewString(), "..", []byte("x")), domain.ErrValidation)
	assert.ErrorIs(t, store.Save(ctx, uuid.NewString(), "", []byte("x")), domain.ErrValidation)
}

func TestDiskStoreThumbnail(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	id := uuid.NewString()
	require.NoError(t, store.Save(ctx, id, "photo.jpg", []byte("image-bytes")))

	_, err = store.OpenThumbnail(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.SaveThumbnail(ctx, id, []byte("thumb-bytes")))
	rc, err := store.OpenThumbnail(ctx, id)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("thumb-bytes"), got)

	// The thumbnail must not shadow the attachment itself.
	rc2, info, err := store.Open(ctx, id)
	require.NoError(t, err)
	rc2.Close()
	assert.Equal(t, "photo.jpg", info.OriginalName)
}

func TestDiskStoreUploadNamedLikeThumbnail(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	// The filename "thumb.jpg" must not land on a thumbnail key.
	id := uuid.NewString()
	require.NoError(t, store.Save(ctx, id, "thumb.jpg", []byte("hello")))

	rc, info, err := store.Open(ctx, id)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
	assert.Equal(t, "thumb.jpg", info.OriginalName)

	// A real thumbnail stored afterwards leaves the content intact.
	require.NoError(t, store.SaveThumbnail(ctx, id, []byte("thumb-bytes")))
	rc, info, err = store.Open(ctx, id)
	require.NoError(t, err)
	got, err = io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
	assert.Equal(t, "thumb.jpg", info.OriginalName)

	tc, err := store.OpenThumbnail(ctx, id)
	require.NoError(t, err)
	defer tc.Close()
	thumb, err := io.ReadAll(tc)
	require.NoError(t, err)
	assert.Equal(t, []byte("thumb-bytes"), thumb)
}

func TestDiskStoreConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	const n = 20
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("file-%d.txt", i)
			errs[i] = store.Save(ctx, ids[i], name, []byte(fmt.Sprintf("content-%d", i)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		rc, info, err := store.Open(ctx, ids[i])
		require.NoError(t, err)
		got, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("content-%d", i), string(got))
		assert.Equal(t, fmt.Sprintf("file-%d.txt", i), info.OriginalName)
	}
}
