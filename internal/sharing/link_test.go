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

type fakeCreator struct {
	link domain.PublicLink
	err  error
	sent []*int
}

func (f *fakeCreator) CreatePublicLink(_ context.Context, _ string, days *int) (domain.PublicLink, error) {
	f.sent = append(f.sent, days)
	return f.link, f.err
}

func intp(n int) *int { return &n }

func newLink() LinkDialog {
	return NewLinkDialog(domain.File{ID: "f1", OriginalFilename: "a.pdf"}, "https://files.example.com/")
}

func TestLinkSuccess(t *testing.T) {
	lc := &fakeCreator{link: domain.PublicLink{Link: "/api/files/public/9f1c2a"}}
	d, err := newLink().Submit(context.Background(), lc, intp(7))
	require.NoError(t, err)
	assert.Equal(t, LinkResult, d.State)
	assert.Equal(t, "9f1c2a", d.Token)
	assert.Equal(t, "https://files.example.com/file/public/9f1c2a", d.URL)
	assert.Equal(t, "This link will expire in 7 days.", d.ExpiryMessage())
	require.Len(t, lc.sent, 1)
	assert.Equal(t, 7, *lc.sent[0])
}

func TestLinkZeroDaysMeansNoExpiry(t *testing.T) {
	for _, days := range []*int{nil, intp(0)} {
		lc := &fakeCreator{link: domain.PublicLink{Link: "/api/files/public/tok"}}
		d, err := newLink().Submit(context.Background(), lc, days)
		require.NoError(t, err)
		assert.Nil(t, lc.sent[0])
		assert.Equal(t, "This link will not expire.", d.ExpiryMessage())
	}
}

func TestLinkResultIsTerminal(t *testing.T) {
	lc := &fakeCreator{link: domain.PublicLink{Link: "/api/files/public/tok"}}
	d, err := newLink().Submit(context.Background(), lc, nil)
	require.NoError(t, err)

	again, err := d.Submit(context.Background(), lc, intp(3))
	assert.ErrorIs(t, err, ErrLinkIssued)
	assert.Equal(t, d, again)
	assert.Len(t, lc.sent, 1, "no second request")
}

func TestLinkFailureReturnsToForm(t *testing.T) {
	t.Run("backend detail", func(t *testing.T) {
		lc := &fakeCreator{err: &client.APIError{Status: 404, Detail: "File not found"}}
		d, err := newLink().Submit(context.Background(), lc, intp(1))
		require.Error(t, err)
		assert.Equal(t, LinkForm, d.State)
		assert.Equal(t, "File not found", d.Err)
		assert.Empty(t, d.URL)
	})

	t.Run("fallback then retry", func(t *testing.T) {
		lc := &fakeCreator{err: errors.New("timeout")}
		d, _ := newLink().Submit(context.Background(), lc, nil)
		assert.Equal(t, LinkFailedMessage, d.Err)

		lc.err = nil
		lc.link = domain.PublicLink{Link: "/api/files/public/ok"}
		d, err := d.Submit(context.Background(), lc, nil)
		require.NoError(t, err)
		assert.Equal(t, LinkResult, d.State)
		assert.Empty(t, d.Err)
	})

	t.Run("link without token", func(t *testing.T) {
		lc := &fakeCreator{link: domain.PublicLink{Link: "/api/files/public/"}}
		d, _ := newLink().Submit(context.Background(), lc, nil)
		assert.Equal(t, LinkForm, d.State)
		assert.Equal(t, LinkFailedMessage, d.Err)
	})
}

func TestLinkLoadingRejectsSubmit(t *testing.T) {
	d, _, err := newLink().Begin(nil)
	require.NoError(t, err)
	assert.Equal(t, LinkLoading, d.State)
	_, _, err = d.Begin(nil)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestLinkNegativeDays(t *testing.T) {
	d, _, err := newLink().Begin(intp(-1))
	assert.ErrorIs(t, err, ErrInvalidDays)
	assert.Equal(t, LinkForm, d.State)
	assert.Equal(t, InvalidDaysMessage, d.Err)
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		in      string
		want    *int
		wantErr bool
	}{
		{"", nil, false},
		{"  ", nil, false},
		{"0", nil, false},
		{"7", intp(7), false},
		{" 30 ", intp(30), false},
		{"-2", nil, true},
		{"seven", nil, true},
		{"1.5", nil, true},
	}
	for _, tt := range tests {
		got, err := ParseDays(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidDays, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8000/file/public/abc", PublicURL("http://localhost:8000", "abc"))
	assert.Equal(t, "http://localhost:8000/file/public/abc", PublicURL("http://localhost:8000///", "abc"))
}
