package sharing

import (
	"context"
	"errors"
	"testing"

	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/MuhamedUsman/letstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSharer struct {
	err   error
	calls []string
	items []domain.Item
}

func (f *fakeSharer) Share(_ context.Context, item domain.Item, userID string) error {
	f.calls = append(f.calls, userID)
	f.items = append(f.items, item)
	return f.err
}

func TestShareBlankGrantee(t *testing.T) {
	s := &fakeSharer{}
	d := NewShareDialog(domain.Item{Kind: domain.FileKind, ID: "f1"})
	for _, in := range []string{"", "   ", "\t\n"} {
		got, err := d.Submit(context.Background(), s, in)
		assert.ErrorIs(t, err, ErrEmptyGrantee)
		assert.Equal(t, EmptyGranteeMessage, got.Err)
		assert.False(t, got.Loading)
	}
	assert.Empty(t, s.calls, "validation happens before any request")
}

func TestShareSuccessKeepsDialogOpen(t *testing.T) {
	s := &fakeSharer{}
	item := domain.Item{Kind: domain.FolderKind, ID: "d1"}
	d := NewShareDialog(item)

	d, err := d.Submit(context.Background(), s, "  u2 ")
	require.NoError(t, err)
	assert.True(t, d.Success)
	assert.Empty(t, d.Input)
	assert.Empty(t, d.Err)
	assert.Equal(t, SharedMessage, d.Message())

	d, err = d.Submit(context.Background(), s, "u3")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u3"}, s.calls)
	assert.Equal(t, []domain.Item{item, item}, s.items)
}

func TestShareFailure(t *testing.T) {
	t.Run("backend detail", func(t *testing.T) {
		s := &fakeSharer{err: &client.APIError{Status: 404, Detail: "File not found or you don't have access to share it"}}
		d, err := NewShareDialog(domain.Item{ID: "f1"}).Submit(context.Background(), s, "u2")
		require.Error(t, err)
		assert.Equal(t, "File not found or you don't have access to share it", d.Err)
		assert.False(t, d.Success)
		assert.Equal(t, "u2", d.Input, "input is kept for a retry")
	})

	t.Run("fallback", func(t *testing.T) {
		s := &fakeSharer{err: errors.New("dial tcp: connection refused")}
		d, _ := NewShareDialog(domain.Item{ID: "f1"}).Submit(context.Background(), s, "u2")
		assert.Equal(t, ShareFailedMessage, d.Err)
	})
}

func TestShareBeginClearsPreviousOutcome(t *testing.T) {
	d := ShareDialog{Success: true, Err: "old"}
	d, _, err := d.Begin("u2")
	require.NoError(t, err)
	assert.True(t, d.Loading)
	assert.False(t, d.Success)
	assert.Empty(t, d.Err)

	_, _, err = d.Begin("u3")
	assert.ErrorIs(t, err, ErrBusy)
}
