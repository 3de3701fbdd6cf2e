package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"

	"github.com/MuhamedUsman/letstore/internal/bgtask"
	"github.com/MuhamedUsman/letstore/internal/domain"
)

const (
	filesPath  = "/files/"
	sharedPath = "/files/shared"
	publicPath = "/files/public/"
)

var dispositionFilename = regexp.MustCompile(`filename="(.+)"`)

// DispositionFilename extracts the filename of a Content-Disposition header, "" if absent.
// Headers mime cannot parse fall back to the first quoted filename.
func DispositionFilename(h http.Header) string {
	v := h.Get("Content-Disposition")
	if _, params, err := mime.ParseMediaType(v); err == nil {
		return params["filename"]
	}
	m := dispositionFilename.FindStringSubmatch(v)
	if m == nil {
		return ""
	}
	return m[1]
}

// ListFiles lists the caller's files directly inside folderID, domain.RootID for the top level.
func (c *Client) ListFiles(ctx context.Context, folderID string) ([]domain.File, error) {
	q := url.Values{}
	if folderID != domain.RootID {
		q.Set("folder_id", folderID)
	}
	var files []domain.File
	if err := c.doJSON(ctx, http.MethodGet, filesPath, q, nil, &files); err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

// ListSharedFiles lists files other users shared with the caller.
func (c *Client) ListSharedFiles(ctx context.Context) ([]domain.File, error) {
	var files []domain.File
	if err := c.doJSON(ctx, http.MethodGet, sharedPath, nil, nil, &files); err != nil {
		return nil, fmt.Errorf("listing shared files: %w", err)
	}
	return files, nil
}

// ListContents fetches the folders and files of folderID concurrently,
// the first failure cancels the other request.
func (c *Client) ListContents(ctx context.Context, folderID string) (domain.Contents, error) {
	var contents domain.Contents
	wp := bgtask.NewWorkerPool(ctx, 2)
	wp.Spawn(func() error {
		folders, err := c.ListFolders(wp.Ctx, folderID)
		contents.Folders = folders
		return err
	})
	wp.Spawn(func() error {
		files, err := c.ListFiles(wp.Ctx, folderID)
		contents.Files = files
		return err
	})
	if err := wp.Wait(); err != nil {
		return domain.Contents{}, err
	}
	return contents, nil
}

func (c *Client) FileInfo(ctx context.Context, id string) (domain.File, error) {
	var f domain.File
	if err := c.doJSON(ctx, http.MethodGet, filesPath+url.PathEscape(id), nil, nil, &f); err != nil {
		return f, fmt.Errorf("fetching file info: %w", err)
	}
	return f, nil
}

func (c *Client) DeleteFile(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, filesPath+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

func (c *Client) ShareFile(ctx context.Context, id, userID string) (domain.File, error) {
	var f domain.File
	p := filesPath + url.PathEscape(id) + "/share"
	if err := c.doJSON(ctx, http.MethodPost, p, nil, shareRequest{UserID: userID}, &f); err != nil {
		return f, fmt.Errorf("sharing file: %w", err)
	}
	return f, nil
}

// Share grants userID access to a file or a folder.
func (c *Client) Share(ctx context.Context, item domain.Item, userID string) error {
	var err error
	switch item.Kind {
	case domain.FolderKind:
		_, err = c.ShareFolder(ctx, item.ID, userID)
	default:
		_, err = c.ShareFile(ctx, item.ID, userID)
	}
	return err
}

type publicLinkRequest struct {
	ExpiresInDays *int `json:"expires_in_days,omitempty"`
}

// CreatePublicLink makes the file downloadable without credentials. A nil or
// non positive days yields a link that never expires.
func (c *Client) CreatePublicLink(ctx context.Context, id string, days *int) (domain.PublicLink, error) {
	var link domain.PublicLink
	var in publicLinkRequest
	if days != nil && *days > 0 {
		in.ExpiresInDays = days
	}
	p := filesPath + url.PathEscape(id) + "/public-link"
	if err := c.doJSON(ctx, http.MethodPost, p, nil, in, &link); err != nil {
		return link, fmt.Errorf("creating public link: %w", err)
	}
	return link, nil
}

// Download is an open response body, the caller must close it.
type Download struct {
	Body io.ReadCloser
	// Filename from Content-Disposition, may be empty
	Filename string
	// Size is -1 when unknown
	Size int64
}

func (c *Client) DownloadFile(ctx context.Context, id string) (*Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, filesPath+url.PathEscape(id)+"/download", nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(c.transfer, req, true)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}
	return newDownload(resp), nil
}

// DownloadPublic fetches a public file by its link token, no credential is sent.
func (c *Client) DownloadPublic(ctx context.Context, token string) (*Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, publicPath+url.PathEscape(token), nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(c.transfer, req, false)
	if err != nil {
		return nil, fmt.Errorf("downloading public file: %w", err)
	}
	return newDownload(resp), nil
}

func newDownload(resp *http.Response) *Download {
	return &Download{
		Body:     resp.Body,
		Filename: DispositionFilename(resp.Header),
		Size:     resp.ContentLength,
	}
}

// UploadFile streams r as a multipart upload into folderID. progress, if not
// nil, receives the running total of bytes sent.
func (c *Client) UploadFile(ctx context.Context, folderID, name string, r io.Reader, progress func(sent int64)) (domain.File, error) {
	var f domain.File
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		src := r
		if progress != nil {
			src = &progressReader{r: r, fn: progress}
		}
		if _, err = io.Copy(part, src); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	q := url.Values{}
	if folderID != domain.RootID {
		q.Set("folder_id", folderID)
	}
	req, err := c.newRequest(ctx, http.MethodPost, filesPath, q, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return f, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.do(c.transfer, req, true)
	if err != nil {
		_ = pr.CloseWithError(err)
		return f, fmt.Errorf("uploading %q: %w", name, err)
	}
	defer resp.Body.Close()
	if err = decodeBody(resp, &f); err != nil {
		return f, fmt.Errorf("uploading %q: %w", name, err)
	}
	return f, nil
}

type progressReader struct {
	r  io.Reader
	n  int64
	fn func(int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.n += int64(n)
		p.fn(p.n)
	}
	return n, err
}
