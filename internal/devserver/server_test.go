package devserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/MuhamedUsman/letstore/internal/domain"
	"github.com/MuhamedUsman/letstore/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type env struct {
	url   string
	clock *clock
}

func newEnv(t *testing.T) env {
	t.Helper()
	clk := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	s, err := New(Config{Secret: []byte("test-secret"), Now: clk.Now})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return env{url: ts.URL + DefaultPrefix, clock: clk}
}

// user registers and logs in a fresh account.
func (e env) user(t *testing.T, name string) (*client.Client, domain.User) {
	t.Helper()
	c := client.New(client.Config{BaseURL: e.url, Session: session.New(nil)})
	ctx := context.Background()
	_, err := c.Register(ctx, client.RegisterRequest{Username: name, Email: name + "@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, c.Login(ctx, name+"@example.com", "secret123"))
	u, err := c.Me(ctx)
	require.NoError(t, err)
	return c, u
}

func TestAuth(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, u := e.user(t, "ada")
	assert.Equal(t, "ada", u.Username)
	assert.NotEmpty(t, u.ID)

	_, err := c.Register(ctx, client.RegisterRequest{Username: "other", Email: "ada@example.com", Password: "secret123"})
	assert.Equal(t, "User with this email already exists", client.Detail(err))
	_, err = c.Register(ctx, client.RegisterRequest{Username: "ada", Email: "new@example.com", Password: "secret123"})
	assert.Equal(t, "Username is already taken", client.Detail(err))
	_, err = c.Register(ctx, client.RegisterRequest{Username: "bob", Email: "not-an-email", Password: "secret123"})
	assert.Equal(t, "value is not a valid email address", client.Detail(err))

	// the username is accepted in place of the email
	anon := client.New(client.Config{BaseURL: e.url})
	require.NoError(t, anon.Login(ctx, "ada", "secret123"))

	err = anon.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, "Incorrect email or password", client.Detail(err))
}

func TestExpiredTokenIsRejected(t *testing.T) {
	e := newEnv(t)
	c, _ := e.user(t, "ada")
	e.clock.Advance(25 * time.Hour)
	_, err := c.ListFiles(context.Background(), domain.RootID)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, c.Session().Active())
}

func TestFolderCascadeDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, _ := e.user(t, "ada")

	docs, err := c.CreateFolder(ctx, "Docs", domain.RootID)
	require.NoError(t, err)
	work, err := c.CreateFolder(ctx, "Work", docs.ID)
	require.NoError(t, err)
	assert.Equal(t, docs.ID, work.ParentFolderID)
	_, err = c.UploadFile(ctx, work.ID, "plan.txt", strings.NewReader("plan"), nil)
	require.NoError(t, err)

	root, err := c.ListContents(ctx, domain.RootID)
	require.NoError(t, err)
	require.Len(t, root.Folders, 1)
	assert.Empty(t, root.Files)

	require.NoError(t, c.DeleteFolder(ctx, docs.ID))
	root, err = c.ListContents(ctx, domain.RootID)
	require.NoError(t, err)
	assert.Empty(t, root.Folders)
	inner, err := c.ListContents(ctx, work.ID)
	require.NoError(t, err)
	assert.Empty(t, inner.Files, "files of nested folders are gone too")

	err = c.DeleteFolder(ctx, docs.ID)
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestSharing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada, _ := e.user(t, "ada")
	bob, bobUser := e.user(t, "bob")

	f, err := ada.UploadFile(ctx, domain.RootID, "notes.txt", strings.NewReader("hi"), nil)
	require.NoError(t, err)

	_, err = bob.FileInfo(ctx, f.ID)
	assert.ErrorIs(t, err, client.ErrNotFound)
	err = bob.Share(ctx, domain.FileItem(f), bobUser.ID)
	assert.Equal(t, "File not found or you don't have access to share it", client.Detail(err))

	err = ada.Share(ctx, domain.FileItem(f), "no-such-user")
	assert.ErrorIs(t, err, client.ErrNotFound)

	require.NoError(t, ada.Share(ctx, domain.FileItem(f), bobUser.ID))
	shared, err := bob.ListSharedFiles(ctx)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "notes.txt", shared[0].OriginalFilename)

	dl, err := bob.DownloadFile(ctx, f.ID)
	require.NoError(t, err)
	defer dl.Body.Close()
	assert.Equal(t, "notes.txt", dl.Filename)
	b, _ := io.ReadAll(dl.Body)
	assert.Equal(t, "hi", string(b))

	err = bob.DeleteFile(ctx, f.ID)
	assert.ErrorIs(t, err, client.ErrNotFound, "only the owner deletes")
}

func TestPublicLinks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada, _ := e.user(t, "ada")
	f, err := ada.UploadFile(ctx, domain.RootID, "report.pdf", strings.NewReader("pdf"), nil)
	require.NoError(t, err)

	days := 2
	link, err := ada.CreatePublicLink(ctx, f.ID, &days)
	require.NoError(t, err)
	forever, err := ada.CreatePublicLink(ctx, f.ID, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.Link, DefaultPrefix+"/files/public/"))
	require.NotNil(t, link.ExpiresAt)
	assert.Equal(t, e.clock.Now().Add(48*time.Hour), link.ExpiresAt.Time)
	assert.Nil(t, forever.ExpiresAt)

	anon := client.New(client.Config{BaseURL: e.url})
	// a new link replaces the previous one
	_, err = anon.DownloadPublic(ctx, link.Token())
	assert.ErrorIs(t, err, client.ErrNotFound)

	dl, err := anon.DownloadPublic(ctx, forever.Token())
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", dl.Filename)
	_ = dl.Body.Close()

	e.clock.Advance(1000 * time.Hour)
	dl, err = anon.DownloadPublic(ctx, forever.Token())
	require.NoError(t, err)
	_ = dl.Body.Close()
}

func TestPublicLinkExpires(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada, _ := e.user(t, "ada")
	f, err := ada.UploadFile(ctx, domain.RootID, "report.pdf", strings.NewReader("pdf"), nil)
	require.NoError(t, err)
	days := 1
	link, err := ada.CreatePublicLink(ctx, f.ID, &days)
	require.NoError(t, err)

	anon := client.New(client.Config{BaseURL: e.url})
	e.clock.Advance(23 * time.Hour)
	dl, err := anon.DownloadPublic(ctx, link.Token())
	require.NoError(t, err)
	_ = dl.Body.Close()

	e.clock.Advance(2 * time.Hour)
	_, err = anon.DownloadPublic(ctx, link.Token())
	assert.ErrorIs(t, err, client.ErrNotFound)
	assert.Equal(t, "Public file not found or link has expired", client.Detail(err))
}

func TestErrorShape(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.url + "/files/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	b, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, string(b))
}

func TestDownloadKeepsFilename(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, _ := e.user(t, "ada")

	for _, name := range []string{`say "hi".txt`, `back\slash.txt`, "résumé.pdf"} {
		t.Run(name, func(t *testing.T) {
			f, err := c.UploadFile(ctx, domain.RootID, name, strings.NewReader("x"), nil)
			require.NoError(t, err)
			d, err := c.DownloadFile(ctx, f.ID)
			require.NoError(t, err)
			defer d.Body.Close()
			assert.Equal(t, name, d.Filename)
		})
	}
}
