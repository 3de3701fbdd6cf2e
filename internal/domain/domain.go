package domain

import (
	"fmt"
	"strings"
	"time"
)

// RootID identifies the top level, the backend omits parent ids for it.
const RootID = ""

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt Time   `json:"created_at,omitzero"`
}

type Folder struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	OwnerID        string   `json:"owner_id,omitempty"`
	ParentFolderID string   `json:"parent_folder_id,omitempty"`
	SharedWith     []string `json:"shared_with,omitempty"`
	CreatedAt      Time     `json:"created_at,omitzero"`
	UpdatedAt      Time     `json:"updated_at,omitzero"`
}

type File struct {
	ID               string   `json:"id"`
	Filename         string   `json:"filename,omitempty"`
	OriginalFilename string   `json:"original_filename"`
	ContentType      string   `json:"content_type,omitempty"`
	Size             int64    `json:"size"`
	OwnerID          string   `json:"owner_id,omitempty"`
	ParentFolderID   string   `json:"parent_folder_id,omitempty"`
	SharedWith       []string `json:"shared_with,omitempty"`
	IsPublic         bool     `json:"is_public"`
	PublicLink       string   `json:"public_link,omitempty"`
	PublicLinkExpiry *Time    `json:"public_link_expiry,omitempty"`
	CreatedAt        Time     `json:"created_at,omitzero"`
	UpdatedAt        Time     `json:"updated_at,omitzero"`
}

// PublicLink as returned by the backend, Link is path-like: /api/files/public/<token>
type PublicLink struct {
	Link      string `json:"public_link"`
	ExpiresAt *Time  `json:"expires_at,omitempty"`
}

// Token is the final path segment of the link.
func (l PublicLink) Token() string {
	return LastSegment(l.Link)
}

// LastSegment returns whatever follows the last '/', ignoring query and fragment.
func LastSegment(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	return s[strings.LastIndex(s, "/")+1:]
}

type ItemKind int

const (
	FileKind ItemKind = iota
	FolderKind
)

func (k ItemKind) String() string {
	if k == FolderKind {
		return "folder"
	}
	return "file"
}

// Item references either a File or a Folder, it is what gets shared.
type Item struct {
	Kind ItemKind
	ID   string
	Name string
}

func FileItem(f File) Item {
	return Item{Kind: FileKind, ID: f.ID, Name: f.OriginalFilename}
}

func FolderItem(f Folder) Item {
	return Item{Kind: FolderKind, ID: f.ID, Name: f.Name}
}

// Time accepts RFC 3339 as well as the naive ISO 8601 timestamps some
// backends emit without a zone, those are taken as UTC.
type Time struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

func (t *Time) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}
	for _, l := range naiveLayouts {
		if v, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("parsing time %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	return t.Time.MarshalJSON()
}

// Contents of a single folder.
type Contents struct {
	Folders []Folder
	Files   []File
}
