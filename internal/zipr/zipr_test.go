package zipr

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipr_Pack(t *testing.T) {
	root, files, expSize := createDirWithFiles(t, 3, 2)

	var (
		mu      sync.Mutex
		reports [][2]int64
	)
	z := New(Deflate, func(packed, total int64) {
		mu.Lock()
		reports = append(reports, [2]int64{packed, total})
		mu.Unlock()
	})

	dst := t.TempDir()
	archive, err := z.Pack(context.Background(), root, dst)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dst, filepath.Base(root)+".zip"), archive)
	assert.Equal(t, expSize, z.Packed())

	t.Run("archive contents", func(t *testing.T) {
		r, err := zip.OpenReader(archive)
		require.NoError(t, err)
		defer r.Close()

		var names []string
		for _, f := range r.File {
			names = append(names, f.Name)
			rc, err := f.Open()
			require.NoError(t, err)
			data, err := io.ReadAll(rc)
			require.NoError(t, rc.Close())
			require.NoError(t, err)
			want, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Name)))
			require.NoError(t, err)
			assert.Equal(t, want, data, f.Name)
		}
		slices.Sort(names)
		assert.Equal(t, files, names)
	})

	t.Run("progress", func(t *testing.T) {
		mu.Lock()
		defer mu.Unlock()
		require.NotEmpty(t, reports)
		assert.Equal(t, [2]int64{0, expSize}, reports[0], "the total goes out before any byte is read")
		assert.Equal(t, [2]int64{expSize, expSize}, reports[len(reports)-1])
		for i := 1; i < len(reports); i++ {
			assert.GreaterOrEqual(t, reports[i][0], reports[i-1][0])
		}
	})
}

func TestZipr_PackUniqueName(t *testing.T) {
	root, _, _ := createDirWithFiles(t, 1, 1)
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, filepath.Base(root)+".zip"), []byte("taken"), 0o600))

	archive, err := New(Store, nil).Pack(context.Background(), root, dst)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dst, filepath.Base(root)+" (1).zip"), archive)
}

func TestZipr_PackCanceled(t *testing.T) {
	root, _, _ := createDirWithFiles(t, 2, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := t.TempDir()
	_, err := New(Store, nil).Pack(ctx, root, dst)
	assert.ErrorIs(t, err, context.Canceled)
	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries, "a partial archive is removed")
}

func TestZipr_PackNotADir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o600))
	_, err := New(Store, nil).Pack(context.Background(), f, t.TempDir())
	assert.Error(t, err)
	_, err = New(Store, nil).Pack(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// createDirWithFiles creates files in each of dirs sub directories, every odd
// directory also gets a nested one holding a single file.
// It returns the root, the sorted archive names of every file and their total size.
func createDirWithFiles(t *testing.T, dirs, files int) (root string, names []string, size int64) {
	t.Helper()
	root = filepath.Join(t.TempDir(), "photos")
	require.NoError(t, os.Mkdir(root, 0o750))
	for i := range dirs {
		p, err := os.MkdirTemp(root, "dir-*")
		require.NoError(t, err)
		for range files {
			names, size = createTempFile(t, root, p, names, size)
		}
		if i%2 != 0 {
			p, err = os.MkdirTemp(p, "nested-*")
			require.NoError(t, err)
			names, size = createTempFile(t, root, p, names, size)
		}
	}
	slices.Sort(names)
	return root, names, size
}

func createTempFile(t *testing.T, root, dir string, names []string, size int64) ([]string, int64) {
	t.Helper()
	f, err := os.CreateTemp(dir, "file-*.txt")
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()
	// write name of the file to it
	n, err := f.WriteString(f.Name())
	require.NoError(t, err)
	rel, err := filepath.Rel(root, f.Name())
	require.NoError(t, err)
	return append(names, filepath.ToSlash(rel)), size + int64(n)
}
