package sharing

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/MuhamedUsman/letstore/internal/domain"
	"github.com/MuhamedUsman/letstore/internal/util"
)

const (
	FallbackFilename   = "downloaded-file"
	UnavailableMessage = "Failed to download file. The link may have expired or the file no longer exists."
)

// ErrPublicUnavailable is the only error Consume reports, the cause is logged.
var ErrPublicUnavailable = errors.New(UnavailableMessage)

type PublicDownloader interface {
	DownloadPublic(ctx context.Context, token string) (*client.Download, error)
}

// Consumed describes a saved public file.
type Consumed struct {
	Filename string
	Path     string
	Size     int64
}

// Consume downloads the public file behind token into dir without any
// credential. The file is named after the Content-Disposition filename.
func Consume(ctx context.Context, d PublicDownloader, token, dir string) (Consumed, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		slog.Error("consuming public link", "err", "empty token")
		return Consumed{}, ErrPublicUnavailable
	}
	dl, err := d.DownloadPublic(ctx, token)
	if err != nil {
		slog.Error("consuming public link", "token", token, "err", err)
		return Consumed{}, ErrPublicUnavailable
	}
	defer dl.Body.Close()
	name := dl.Filename
	if name == "" {
		name = FallbackFilename
	}
	name = util.SanitizeFilename(name, FallbackFilename)
	path, n, err := util.SaveStream(dir, name, dl.Body)
	if err != nil {
		slog.Error("saving public file", "file", name, "err", err)
		return Consumed{}, ErrPublicUnavailable
	}
	return Consumed{Filename: name, Path: path, Size: n}, nil
}

// TokenFromInput accepts a bare token or any URL whose last path segment is
// the token, such as the shareable URL or the API link.
func TokenFromInput(s string) string {
	s = strings.TrimSpace(s)
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		s = strings.TrimRight(u.Path, "/")
	}
	return domain.LastSegment(s)
}
