// Package sharing drives the share and public link dialogs and the anonymous
// consumption of public links. Dialog state is transient, nothing is persisted.
package sharing

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/MuhamedUsman/letstore/internal/domain"
)

const (
	EmptyGranteeMessage = "User ID cannot be empty"
	ShareFailedMessage  = "Failed to share item. Please check the User ID and try again."
	SharedMessage       = "Shared successfully!"
)

var (
	ErrEmptyGrantee = errors.New("grantee user id is empty")
	ErrBusy         = errors.New("request already in flight")
)

type Sharer interface {
	Share(ctx context.Context, item domain.Item, userID string) error
}

// ShareDialog grants other users access to one item. It stays open after a
// success so the item can be shared with several users in a row.
type ShareDialog struct {
	Item    domain.Item
	Input   string
	Loading bool
	Success bool
	// Err is the message shown to the user, "" when there is none
	Err string
}

func NewShareDialog(item domain.Item) ShareDialog {
	return ShareDialog{Item: item}
}

// Begin validates grantee and moves the dialog into its loading state,
// the trimmed grantee is what must be sent. A blank grantee fails with
// ErrEmptyGrantee and no request should follow.
func (d ShareDialog) Begin(grantee string) (ShareDialog, string, error) {
	if d.Loading {
		return d, "", ErrBusy
	}
	d.Input = grantee
	grantee = strings.TrimSpace(grantee)
	if grantee == "" {
		d.Err = EmptyGranteeMessage
		d.Success = false
		return d, "", ErrEmptyGrantee
	}
	d.Loading = true
	d.Err = ""
	d.Success = false
	return d, grantee, nil
}

// Finish applies the outcome of the request started by Begin.
func (d ShareDialog) Finish(err error) ShareDialog {
	d.Loading = false
	if err != nil {
		slog.Error("sharing item", d.Item.Kind.String(), d.Item.ID, "err", err)
		d.Err = client.DetailOr(err, ShareFailedMessage)
		return d
	}
	d.Success = true
	d.Input = ""
	return d
}

// Submit is Begin, the request and Finish in one blocking call.
func (d ShareDialog) Submit(ctx context.Context, s Sharer, grantee string) (ShareDialog, error) {
	d, userID, err := d.Begin(grantee)
	if err != nil {
		return d, err
	}
	err = s.Share(ctx, d.Item, userID)
	return d.Finish(err), err
}

// Message is the status line, either the error or the success notice.
func (d ShareDialog) Message() string {
	if d.Err != "" {
		return d.Err
	}
	if d.Success {
		return SharedMessage
	}
	return ""
}
