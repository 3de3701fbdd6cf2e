// Package zipr packs a local folder into a single zip archive, so a folder
// can be uploaded to the storage API as one file.
package zipr

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MuhamedUsman/letstore/internal/util"
)

type Method = uint16

const (
	Store   Method = zip.Store   // no compression
	Deflate Method = zip.Deflate // max compression
)

const reportInterval = 200 * time.Millisecond

// Zipr packs folders and reports how many bytes it read so far.
// It is safe for concurrent use, the count is cumulative across Pack calls.
type Zipr struct {
	method Method
	// progress, if not nil, receives the bytes packed and the total to pack
	progress func(packed, total int64)
	total    atomic.Int64
	packed   atomic.Int64
	lrMu     sync.Mutex // guards lastReport
	// zero until the first report, so it always goes out
	lastReport time.Time
}

// New creates a Zipr. progress is called from the packing goroutine at most
// every 200ms, plus once with the final count.
func New(method Method, progress func(packed, total int64)) *Zipr {
	return &Zipr{method: method, progress: progress}
}

// Pack writes every file under dir into dst/<name of dir>.zip and returns the
// archive path. Entries are named relative to dir with forward slashes.
// A canceled ctx stops between files and the partial archive is removed.
func (z *Zipr) Pack(ctx context.Context, dir, dst string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("statting %q: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", dir)
	}
	size, err := dirSize(dir)
	if err != nil {
		return "", fmt.Errorf("calculating size of %q: %w", dir, err)
	}
	z.total.Add(size)
	z.report(true)

	archivePath, err := util.UniquePath(dst, filepath.Base(filepath.Clean(dir))+".zip")
	if err != nil {
		return "", err
	}
	archive, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("creating empty zip archive: %w", err)
	}

	zw := zip.NewWriter(archive)
	err = z.writeDir(ctx, zw, dir)
	if closeErr := zw.Close(); err == nil {
		err = closeErr
	}
	if closeErr := archive.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(archivePath) // delete partially written archive
		return "", fmt.Errorf("zipping %q: %w", dir, err)
	}
	z.report(true)
	return archivePath, nil
}

// Packed returns the bytes read across every Pack call.
func (z *Zipr) Packed() int64 {
	return z.packed.Load()
}

func (z *Zipr) writeDir(ctx context.Context, w *zip.Writer, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// once a file write is happening, we cannot cancel
		if err = ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		return z.writeFile(w, root, path)
	})
}

func (z *Zipr) writeFile(w *zip.Writer, root, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("statting file: %w", err)
	}
	fh, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("creating file header: %w", err)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return fmt.Errorf("determining relative path for fileheader name: %w", err)
	}
	fh.Name = filepath.ToSlash(rel)
	fh.Method = z.method

	dst, err := w.CreateHeader(fh)
	if err != nil {
		return fmt.Errorf("creating file header in archive: %w", err)
	}
	buf := make([]byte, 1024*1024) // 1MB buffer
	if _, err = io.CopyBuffer(dst, &progressReader{r: f, z: z}, buf); err != nil {
		return fmt.Errorf("copying %q to archive: %w", path, err)
	}
	return nil
}

// report calls progress when the interval passed, or always when force is set.
func (z *Zipr) report(force bool) {
	if z.progress == nil {
		return
	}
	z.lrMu.Lock()
	due := force || time.Since(z.lastReport) >= reportInterval
	if due {
		z.lastReport = time.Now()
	}
	z.lrMu.Unlock()
	if due {
		z.progress(z.packed.Load(), z.total.Load())
	}
}

type progressReader struct {
	r io.Reader
	z *Zipr
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.z.packed.Add(int64(n))
		pr.z.report(false)
	}
	return n, err
}

// dirSize is the total size of the regular files under path.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}
