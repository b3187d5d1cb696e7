package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDisk(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := NewLocal(root, "http://localhost:5000/storage/")
	require.NoError(t, err)

	files, err := d.Files(ctx, "imports")
	require.NoError(t, err)
	assert.Empty(t, files, "missing directory lists as empty")

	require.NoError(t, d.Put(ctx, "imports/a.csv", []byte("name\nA")))
	require.NoError(t, d.PutStream(ctx, "imports/b.csv", strings.NewReader("name\nB")))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "imports", "a.csv"), old, old))

	assert.True(t, d.Exists(ctx, "imports/a.csv"))
	got, err := d.Get(ctx, "imports/b.csv")
	require.NoError(t, err)
	assert.Equal(t, "name\nB", string(got))

	files, err = d.Files(ctx, "imports")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "imports/b.csv", files[0].Path, "newest first")
	assert.Equal(t, int64(6), files[1].Size)
	assert.Equal(t, "http://localhost:5000/storage/imports/a.csv", files[1].URL)

	require.NoError(t, d.Delete(ctx, "imports/a.csv"))
	require.NoError(t, d.Delete(ctx, "imports/a.csv"), "deleting a missing file is not an error")
	_, err = d.Get(ctx, "imports/a.csv")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalDiskStaysInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := NewLocal(filepath.Join(root, "disk"), "")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "../../escape.txt", []byte("x")))
	_, err = os.Stat(filepath.Join(root, "disk", "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestOpenRejectsUnknownDisk(t *testing.T) {
	_, err := Open(context.Background(), "ftp")
	assert.Error(t, err)
}
