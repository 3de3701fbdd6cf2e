package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SanitizeFilename strips directory components and characters that are not
// valid in file names, a name that ends up empty becomes fallback.
func SanitizeFilename(name, fallback string) string {
	name = filepath.Base(filepath.ToSlash(strings.ReplaceAll(name, `\`, "/")))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return fallback
	}
	return name
}

// UniquePath returns dir/name, or dir/name (n).ext for the first n that does not exist yet.
func UniquePath(dir, name string) (string, error) {
	p := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		_, err := os.Stat(p)
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking %q: %w", p, err)
		}
		p = filepath.Join(dir, base+" ("+strconv.Itoa(i)+")"+ext)
	}
}

// SaveStream copies r into dir under a unique variant of name. The content is
// written to a temp file first, so a failed copy leaves nothing behind.
// It returns the final path and the bytes written.
func SaveStream(dir, name string, r io.Reader) (string, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("creating %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".letstore-*.part")
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file: %w", err)
	}
	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", n, fmt.Errorf("writing %q: %w", name, err)
	}
	dst, err := UniquePath(dir, name)
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", n, err
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", n, fmt.Errorf("moving into place: %w", err)
	}
	return dst, n, nil
}
