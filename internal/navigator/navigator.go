// Package navigator keeps the breadcrumb of folders drilled into, from the
// root down to the folder being displayed.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/MuhamedUsman/letstore/internal/domain"
)

const RootName = "Home"

var ErrFolderNotFound = errors.New("folder not found in parent listing")

// Entry is one breadcrumb step, ID is domain.RootID for the root.
type Entry struct {
	ID   string
	Name string
}

// FolderLister lists the folders directly under parentID.
type FolderLister interface {
	ListFolders(ctx context.Context, parentID string) ([]domain.Folder, error)
}

// Navigator is a value, every transition returns a new one and leaves the
// receiver untouched. That lets a transition run off the UI loop and be
// applied, or dropped, once it completes.
type Navigator struct {
	path   []Entry
	lister FolderLister
}

func New(lister FolderLister) Navigator {
	return Navigator{
		path:   []Entry{{ID: domain.RootID, Name: RootName}},
		lister: lister,
	}
}

// Path returns a copy of the breadcrumb, Path()[0] is always the root.
func (n Navigator) Path() []Entry {
	return slices.Clone(n.entries())
}

// Current is the id of the displayed folder.
func (n Navigator) Current() string {
	p := n.entries()
	return p[len(p)-1].ID
}

func (n Navigator) Depth() int {
	return len(n.entries()) - 1
}

// AtRoot reports whether the root is displayed.
func (n Navigator) AtRoot() bool {
	return n.Current() == domain.RootID
}

// Parent is the id one level up, the root is its own parent.
func (n Navigator) Parent() string {
	p := n.entries()
	if len(p) < 2 {
		return domain.RootID
	}
	return p[len(p)-2].ID
}

// Local resolves target without a network round trip: the root, or any
// folder already on the breadcrumb, truncates the path up to it. ok is false
// when target is not on the breadcrumb.
func (n Navigator) Local(target string) (next Navigator, ok bool) {
	p := n.entries()
	if target == domain.RootID {
		return n.with(p[:1]), true
	}
	i := slices.IndexFunc(p, func(e Entry) bool { return e.ID == target })
	if i < 0 {
		return n, false
	}
	return n.with(p[:i+1]), true
}

// Navigate moves to target. Targets already on the breadcrumb truncate it,
// anything else is looked up among the current folder's children and appended.
// When the lookup fails, or the folder is not a child of the current one, the
// receiver is returned unchanged along with the error.
func (n Navigator) Navigate(ctx context.Context, target string) (Navigator, error) {
	if next, ok := n.Local(target); ok {
		return next, nil
	}
	parent := n.Current()
	folders, err := n.lister.ListFolders(ctx, parent)
	if err != nil {
		slog.Error("resolving folder", "folder", target, "parent", parent, "err", err)
		return n, fmt.Errorf("resolving folder %q: %w", target, err)
	}
	i := slices.IndexFunc(folders, func(f domain.Folder) bool { return f.ID == target })
	if i < 0 {
		slog.Error("resolving folder", "folder", target, "parent", parent, "err", ErrFolderNotFound)
		return n, fmt.Errorf("resolving folder %q: %w", target, ErrFolderNotFound)
	}
	return n.Enter(folders[i]), nil
}

// Enter appends f as a child of the current folder. Callers use it when f
// comes from the listing already on screen; use Navigate for anything else.
func (n Navigator) Enter(f domain.Folder) Navigator {
	if next, ok := n.Local(f.ID); ok {
		return next
	}
	p := n.entries()
	next := make([]Entry, len(p), len(p)+1)
	copy(next, p)
	return n.with(append(next, Entry{ID: f.ID, Name: f.Name}))
}

func (n Navigator) with(path []Entry) Navigator {
	return Navigator{path: slices.Clip(path), lister: n.lister}
}

// entries tolerates the zero Navigator.
func (n Navigator) entries() []Entry {
	if len(n.path) == 0 {
		return []Entry{{ID: domain.RootID, Name: RootName}}
	}
	return n.path
}
