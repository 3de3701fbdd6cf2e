package util

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"report.pdf":       "report.pdf",
		"../../etc/passwd": "passwd",
		`C:\Users\a\b.txt`: "b.txt",
		"a<b>c?.txt":       "abc.txt",
		"  ":               "fallback",
		"..":               "fallback",
		"dir/":             "dir",
		"tab\there.txt":    "tabhere.txt",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in, "fallback"), in)
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	p, err := UniquePath(dir, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.txt"), p)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a (1).txt"), nil, 0o644))
	p, err = UniquePath(dir, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a (2).txt"), p)
}

func TestSaveStream(t *testing.T) {
	dir := t.TempDir()
	p, n, err := SaveStream(dir, "hello.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	p2, _, err := SaveStream(dir, "hello.txt", strings.NewReader("again"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hello (1).txt"), p2)
}

func TestSaveStreamFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	_, _, err := SaveStream(dir, "broken.bin", iotest.ErrReader(errors.New("reset")))
	require.Error(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
