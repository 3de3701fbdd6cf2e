package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicLinkToken(t *testing.T) {
	cases := map[string]string{
		"/api/files/public/9f1c2a":                        "9f1c2a",
		"https://host/api/files/public/abc?download=1":    "abc",
		"abc":                                             "abc",
		"/api/files/public/":                              "",
		"http://localhost:8000/api/files/public/tok#frag": "tok",
	}
	for link, want := range cases {
		assert.Equal(t, want, PublicLink{Link: link}.Token(), link)
	}
}

func TestItem(t *testing.T) {
	f := FileItem(File{ID: "f1", OriginalFilename: "report.pdf"})
	assert.Equal(t, FileKind, f.Kind)
	assert.Equal(t, "report.pdf", f.Name)
	assert.Equal(t, "file", f.Kind.String())

	d := FolderItem(Folder{ID: "d1", Name: "Photos"})
	assert.Equal(t, FolderKind, d.Kind)
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, "folder", d.Kind.String())
}

func TestTimeUnmarshal(t *testing.T) {
	var f File
	err := json.Unmarshal([]byte(`{"id":"f1","created_at":"2024-05-01T10:20:30.123456","updated_at":"2024-05-01T10:20:30Z","public_link_expiry":null}`), &f)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 20, 30, 123456000, time.UTC), f.CreatedAt.Time)
	assert.Equal(t, 30, f.UpdatedAt.Second())
	assert.Nil(t, f.PublicLinkExpiry)

	assert.Error(t, json.Unmarshal([]byte(`{"created_at":"yesterday"}`), &f))
}
