package sharing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/MuhamedUsman/letstore/internal/domain"
)

const (
	LinkFailedMessage  = "Failed to create public link. Please try again."
	InvalidDaysMessage = "Expiration must be a whole number of days"
	// PublicRoute is where public links are served on the origin
	PublicRoute = "/file/public/"
)

var (
	ErrLinkIssued  = errors.New("public link already issued")
	ErrInvalidDays = errors.New("invalid expiration days")
)

type LinkState int

const (
	LinkForm LinkState = iota
	LinkLoading
	LinkResult
)

func (s LinkState) String() string {
	switch s {
	case LinkLoading:
		return "loading"
	case LinkResult:
		return "result"
	default:
		return "form"
	}
}

type LinkCreator interface {
	CreatePublicLink(ctx context.Context, fileID string, days *int) (domain.PublicLink, error)
}

// LinkDialog issues a single public link for a file. Once issued the dialog
// is terminal: Form -> Loading -> Result, or back to Form on failure.
type LinkDialog struct {
	FileID   string
	FileName string
	// Origin is prefixed to the token to form URL
	Origin string
	State  LinkState
	// Days holds the normalised expiry of the last submit, nil for none
	Days      *int
	Err       string
	URL       string
	Token     string
	ExpiresAt *domain.Time
}

func NewLinkDialog(f domain.File, origin string) LinkDialog {
	return LinkDialog{FileID: f.ID, FileName: f.OriginalFilename, Origin: origin}
}

// Begin moves a form into the loading state, returning the normalised days to send.
func (d LinkDialog) Begin(days *int) (LinkDialog, *int, error) {
	switch d.State {
	case LinkResult:
		return d, nil, ErrLinkIssued
	case LinkLoading:
		return d, nil, ErrBusy
	}
	if days != nil && *days < 0 {
		d.Err = InvalidDaysMessage
		return d, nil, ErrInvalidDays
	}
	d.Days = NormalizeDays(days)
	d.State = LinkLoading
	d.Err = ""
	return d, d.Days, nil
}

// Finish applies the outcome of the request started by Begin.
func (d LinkDialog) Finish(link domain.PublicLink, err error) LinkDialog {
	if d.State != LinkLoading {
		return d
	}
	if err = checkLink(link, err); err != nil {
		slog.Error("creating public link", "file", d.FileID, "err", err)
		d.State = LinkForm
		d.Err = client.DetailOr(err, LinkFailedMessage)
		return d
	}
	d.State = LinkResult
	d.Token = link.Token()
	d.URL = PublicURL(d.Origin, d.Token)
	d.ExpiresAt = link.ExpiresAt
	return d
}

// Submit is Begin, the request and Finish in one blocking call.
func (d LinkDialog) Submit(ctx context.Context, lc LinkCreator, days *int) (LinkDialog, error) {
	d, send, err := d.Begin(days)
	if err != nil {
		return d, err
	}
	link, err := lc.CreatePublicLink(ctx, d.FileID, send)
	return d.Finish(link, err), checkLink(link, err)
}

func checkLink(link domain.PublicLink, err error) error {
	if err == nil && link.Token() == "" {
		return fmt.Errorf("public link %q carries no token", link.Link)
	}
	return err
}

// ExpiryMessage describes the issued link's lifetime.
func (d LinkDialog) ExpiryMessage() string {
	if d.Days != nil {
		return fmt.Sprintf("This link will expire in %d days.", *d.Days)
	}
	return "This link will not expire."
}

// ParseDays reads the expiry input: blank means no expiry, anything else must
// be a non negative integer. The result is normalised.
func ParseDays(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDays, s)
	}
	return NormalizeDays(&n), nil
}

// NormalizeDays maps 0 to nil, both mean the link never expires.
func NormalizeDays(days *int) *int {
	if days == nil || *days == 0 {
		return nil
	}
	n := *days
	return &n
}

// PublicURL is the shareable address of token on origin.
func PublicURL(origin, token string) string {
	return strings.TrimRight(origin, "/") + PublicRoute + token
}
