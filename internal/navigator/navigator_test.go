package navigator

import (
	"context"
	"errors"
	"testing"

	"github.com/MuhamedUsman/letstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLister serves a fixed tree keyed by parent id and counts calls.
type fakeLister struct {
	tree  map[string][]domain.Folder
	err   error
	calls []string
}

func (f *fakeLister) ListFolders(_ context.Context, parentID string) ([]domain.Folder, error) {
	f.calls = append(f.calls, parentID)
	if f.err != nil {
		return nil, f.err
	}
	return f.tree[parentID], nil
}

func newTree() *fakeLister {
	return &fakeLister{tree: map[string][]domain.Folder{
		domain.RootID: {{ID: "a", Name: "Docs"}, {ID: "x", Name: "Music"}},
		"a":           {{ID: "b", Name: "Work"}},
		"b":           {{ID: "c", Name: "2024"}},
	}}
}

func ids(p []Entry) []string {
	out := make([]string, len(p))
	for i, e := range p {
		out[i] = e.ID
	}
	return out
}

func drill(t *testing.T, n Navigator, targets ...string) Navigator {
	t.Helper()
	var err error
	for _, id := range targets {
		n, err = n.Navigate(context.Background(), id)
		require.NoError(t, err)
	}
	return n
}

func TestNewStartsAtRoot(t *testing.T) {
	n := New(newTree())
	assert.Equal(t, []Entry{{ID: domain.RootID, Name: RootName}}, n.Path())
	assert.Equal(t, domain.RootID, n.Current())
	assert.True(t, n.AtRoot())

	var zero Navigator
	assert.Equal(t, domain.RootID, zero.Current())
	assert.Len(t, zero.Path(), 1)
}

func TestNavigateExtends(t *testing.T) {
	l := newTree()
	n := drill(t, New(l), "a", "b", "c")
	assert.Equal(t, []string{"", "a", "b", "c"}, ids(n.Path()))
	assert.Equal(t, "2024", n.Path()[3].Name)
	assert.Equal(t, "c", n.Current())
	assert.Equal(t, "b", n.Parent())
	assert.Equal(t, 3, n.Depth())
	assert.Equal(t, []string{"", "a", "b"}, l.calls, "each step lists the previous current folder")
}

func TestNavigateTruncates(t *testing.T) {
	l := newTree()
	n := drill(t, New(l), "a", "b", "c")
	l.calls = nil

	back, err := n.Navigate(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "a"}, ids(back.Path()))
	assert.Equal(t, "a", back.Current())
	assert.Empty(t, l.calls, "truncation needs no lookup")

	// the receiver is untouched
	assert.Equal(t, []string{"", "a", "b", "c"}, ids(n.Path()))
}

func TestNavigateCurrentIsNoop(t *testing.T) {
	n := drill(t, New(newTree()), "a", "b")
	same, err := n.Navigate(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, n.Path(), same.Path())
}

func TestNavigateRoot(t *testing.T) {
	l := newTree()
	n := drill(t, New(l), "a", "b")
	l.calls = nil
	root, err := n.Navigate(context.Background(), domain.RootID)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{ID: domain.RootID, Name: RootName}}, root.Path())
	assert.Empty(t, l.calls)
}

func TestNavigateRollsBack(t *testing.T) {
	t.Run("folder not among children", func(t *testing.T) {
		n := drill(t, New(newTree()), "a")
		// x is a root folder, not a child of a
		got, err := n.Navigate(context.Background(), "x")
		assert.ErrorIs(t, err, ErrFolderNotFound)
		assert.Equal(t, n.Path(), got.Path())
		assert.Equal(t, "a", got.Current())
	})

	t.Run("lookup fails", func(t *testing.T) {
		l := newTree()
		n := drill(t, New(l), "a")
		boom := errors.New("connection refused")
		l.err = boom
		got, err := n.Navigate(context.Background(), "b")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"", "a"}, ids(got.Path()))
	})
}

func TestPathIsCopy(t *testing.T) {
	n := drill(t, New(newTree()), "a")
	p := n.Path()
	p[1].Name = "changed"
	assert.Equal(t, "Docs", n.Path()[1].Name)
}

func TestBranchesDoNotShareState(t *testing.T) {
	n := drill(t, New(newTree()), "a", "b")
	up, ok := n.Local("a")
	require.True(t, ok)
	// entering from the truncated value must not overwrite n's tail
	other := up.Enter(domain.Folder{ID: "z", Name: "Other"})
	assert.Equal(t, []string{"", "a", "z"}, ids(other.Path()))
	assert.Equal(t, []string{"", "a", "b"}, ids(n.Path()))
}

func TestUniqueIDs(t *testing.T) {
	n := drill(t, New(newTree()), "a", "b")
	n = n.Enter(domain.Folder{ID: "a", Name: "Docs"})
	assert.Equal(t, []string{"", "a"}, ids(n.Path()))
}

func TestLocal(t *testing.T) {
	n := drill(t, New(newTree()), "a")
	_, ok := n.Local("b")
	assert.False(t, ok)
	r, ok := n.Local(domain.RootID)
	assert.True(t, ok)
	assert.True(t, r.AtRoot())
}
