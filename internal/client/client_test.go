package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/MuhamedUsman/letstore/internal/domain"
	"github.com/MuhamedUsman/letstore/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, h http.Handler) (*Client, *session.Session) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	s := session.New(nil)
	return New(Config{BaseURL: ts.URL + "/api/", Session: s}), s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginStartsSession(t *testing.T) {
	c, s := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") != "ada@example.com" || r.PostForm.Get("password") != "pw" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok", "token_type": "bearer"})
	}))

	err := c.Login(context.Background(), "ada@example.com", "nope")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Incorrect email or password", Detail(err))
	assert.False(t, s.Active())

	require.NoError(t, c.Login(context.Background(), "ada@example.com", "pw"))
	assert.Equal(t, "tok", s.Token())
}

func TestUnauthorizedClearsSession(t *testing.T) {
	c, s := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	}))
	require.NoError(t, s.Start("stale"))

	_, err := c.ListFiles(context.Background(), domain.RootID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, s.Active())

	// no credential, no round trip
	_, err = c.ListFolders(context.Background(), domain.RootID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMeFailureClearsSession(t *testing.T) {
	c, s := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	require.NoError(t, s.Start("tok"))
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.False(t, s.Active())
}

func TestMeSetsUser(t *testing.T) {
	c, s := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.User{ID: "u1", Username: "ada", Email: "ada@example.com"})
	}))
	require.NoError(t, s.Start("tok"))
	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)
	got, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "u1", got.ID)
}

func TestDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string", `{"detail":"User with this email already exists"}`, "User with this email already exists"},
		{"validation list", `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"},{"msg":"field required"}]}`, "value is not a valid email address; field required"},
		{"no detail", `{"error":"x"}`, ""},
		{"not json", `oops`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, tt.body)
			}))
			_, err := c.Register(context.Background(), RegisterRequest{Username: "ada"})
			require.Error(t, err)
			assert.Equal(t, tt.want, Detail(err))
			assert.Equal(t, "fallback", DetailOr(errors.New("plain"), "fallback"))
		})
	}
}

func TestListQueries(t *testing.T) {
	var folderQ, fileQ atomic.Value
	c, s := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/folders/":
			folderQ.Store(r.URL.RawQuery)
			writeJSON(w, http.StatusOK, []domain.Folder{{ID: "d2", Name: "Sub"}})
		case "/api/files/":
			fileQ.Store(r.URL.RawQuery)
			writeJSON(w, http.StatusOK, []domain.File{{ID: "f1", OriginalFilename: "a.txt"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	require.NoError(t, s.Start("tok"))

	got, err := c.ListContents(context.Background(), domain.RootID)
	require.NoError(t, err)
	assert.Len(t, got.Folders, 1)
	assert.Len(t, got.Files, 1)
	assert.Equal(t, "", folderQ.Load())
	assert.Equal(t, "", fileQ.Load())

	_, err = c.ListContents(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "parent_folder_id=d1", folderQ.Load())
	assert.Equal(t, "folder_id=d1", fileQ.Load())
}

func TestListContentsFailure(t *testing.T) {
	c, s := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/files/" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, []domain.Folder{})
	}))
	require.NoError(t, s.Start("tok"))
	_, err := c.ListContents(context.Background(), domain.RootID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestCreatePublicLinkDays(t *testing.T) {
	var bodies []string
	c, s := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/files/f1/public-link", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		writeJSON(w, http.StatusOK, map[string]any{"public_link": "/api/files/public/abc123", "expires_at": nil})
	}))
	require.NoError(t, s.Start("tok"))

	seven, zero := 7, 0
	for _, d := range []*int{&seven, &zero, nil} {
		link, err := c.CreatePublicLink(context.Background(), "f1", d)
		require.NoError(t, err)
		assert.Equal(t, "abc123", link.Token())
	}
	assert.Equal(t, []string{`{"expires_in_days":7}`, `{}`, `{}`}, bodies)
}

func TestShareDispatch(t *testing.T) {
	var paths []string
	c, s := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var in shareRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "u2", in.UserID)
		writeJSON(w, http.StatusOK, map[string]string{"id": "x"})
	}))
	require.NoError(t, s.Start("tok"))

	require.NoError(t, c.Share(context.Background(), domain.Item{Kind: domain.FileKind, ID: "f1"}, "u2"))
	require.NoError(t, c.Share(context.Background(), domain.Item{Kind: domain.FolderKind, ID: "d1"}, "u2"))
	assert.Equal(t, []string{"/api/files/f1/share", "/api/folders/d1/share"}, paths)
}

func TestUploadFile(t *testing.T) {
	c, s := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "folder_id=d1", r.URL.RawQuery)
		f, h, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		writeJSON(w, http.StatusCreated, domain.File{ID: "f9", OriginalFilename: h.Filename, Size: int64(len(b))})
	}))
	require.NoError(t, s.Start("tok"))

	var last int64
	f, err := c.UploadFile(context.Background(), "d1", "notes.txt", strings.NewReader("hello world"), func(n int64) { last = n })
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", f.OriginalFilename)
	assert.EqualValues(t, 11, f.Size)
	assert.EqualValues(t, 11, last)
}

func TestDownloadPublic(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		if r.URL.Path != "/api/files/public/good" {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Public file not found or link has expired"})
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
		_, _ = io.WriteString(w, "pdf")
	}))

	d, err := c.DownloadPublic(context.Background(), "good")
	require.NoError(t, err)
	defer d.Body.Close()
	assert.Equal(t, "report.pdf", d.Filename)
	b, _ := io.ReadAll(d.Body)
	assert.Equal(t, "pdf", string(b))

	_, err = c.DownloadPublic(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDispositionFilename(t *testing.T) {
	cases := map[string]struct {
		header string
		want   string
	}{
		"absent":      {"", ""},
		"no filename": {"attachment", ""},
		"quoted":      {`attachment; filename="a b.txt"`, "a b.txt"},
		"token":       {`attachment; filename=plain.txt`, "plain.txt"},
		"escaped":     {`attachment; filename="say \"hi\".txt"`, `say "hi".txt`},
		"utf-8":       {`attachment; filename*=utf-8''r%C3%A9sum%C3%A9.pdf`, "résumé.pdf"},
		"unparseable": {`attachment; filename="a"b.txt"`, `a"b.txt`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := http.Header{}
			if tc.header != "" {
				h.Set("Content-Disposition", tc.header)
			}
			assert.Equal(t, tc.want, DispositionFilename(h))
		})
	}
}
