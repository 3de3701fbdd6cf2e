package devserver

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MuhamedUsman/letstore/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken    = errors.New("User with this email already exists")
	ErrUsernameTaken = errors.New("Username is already taken")
	ErrBadCredential = errors.New("Incorrect email or password")
	errNoAccess      = errors.New("not found or not accessible")
)

type account struct {
	user domain.User
	hash []byte
}

type storedFile struct {
	meta domain.File
	data []byte
}

// store keeps everything in memory, it is safe for concurrent use.
type store struct {
	mu      sync.RWMutex
	now     func() time.Time
	users   map[string]*account
	folders map[string]*domain.Folder
	files   map[string]*storedFile
}

func newStore(now func() time.Time) *store {
	return &store{
		now:     now,
		users:   make(map[string]*account),
		folders: make(map[string]*domain.Folder),
		files:   make(map[string]*storedFile),
	}
}

func newID() string {
	return uuid.NewString()
}

func (s *store) stamp() domain.Time {
	return domain.Time{Time: s.now().UTC()}
}

func (s *store) createUser(username, email, password string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return domain.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.users {
		if strings.EqualFold(a.user.Email, email) {
			return domain.User{}, ErrEmailTaken
		}
		if strings.EqualFold(a.user.Username, username) {
			return domain.User{}, ErrUsernameTaken
		}
	}
	u := domain.User{ID: newID(), Username: username, Email: email, CreatedAt: s.stamp()}
	s.users[u.ID] = &account{user: u, hash: hash}
	return u, nil
}

// authenticate matches identifier against email first, then username.
func (s *store) authenticate(identifier, password string) (domain.User, error) {
	s.mu.RLock()
	var found *account
	for _, a := range s.users {
		if strings.EqualFold(a.user.Email, identifier) || a.user.Username == identifier {
			found = a
			break
		}
	}
	s.mu.RUnlock()
	if found == nil {
		return domain.User{}, ErrBadCredential
	}
	if err := bcrypt.CompareHashAndPassword(found.hash, []byte(password)); err != nil {
		return domain.User{}, ErrBadCredential
	}
	return found.user, nil
}

func (s *store) user(id string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.users[id]
	if !ok {
		return domain.User{}, false
	}
	return a.user, true
}

// ownedFolderLocked reports whether id is a folder of owner, the root always is.
func (s *store) ownedFolderLocked(owner, id string) bool {
	if id == domain.RootID {
		return true
	}
	f, ok := s.folders[id]
	return ok && f.OwnerID == owner
}

func (s *store) createFolder(owner, name, parent string) (domain.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownedFolderLocked(owner, parent) {
		return domain.Folder{}, errNoAccess
	}
	now := s.stamp()
	f := &domain.Folder{
		ID:             newID(),
		Name:           name,
		OwnerID:        owner,
		ParentFolderID: parent,
		SharedWith:     []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.folders[f.ID] = f
	return cloneFolder(f), nil
}

func (s *store) listFolders(owner, parent string) []domain.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Folder{}
	for _, f := range s.folders {
		if f.OwnerID == owner && f.ParentFolderID == parent {
			out = append(out, cloneFolder(f))
		}
	}
	slices.SortFunc(out, func(a, b domain.Folder) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// deleteFolder removes the folder, its subfolders and every file inside them.
func (s *store) deleteFolder(owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[id]
	if !ok || f.OwnerID != owner {
		return errNoAccess
	}
	doomed := map[string]bool{id: true}
	for grew := true; grew; {
		grew = false
		for fid, sub := range s.folders {
			if !doomed[fid] && doomed[sub.ParentFolderID] {
				doomed[fid] = true
				grew = true
			}
		}
	}
	for fid := range doomed {
		delete(s.folders, fid)
	}
	for id, file := range s.files {
		if doomed[file.meta.ParentFolderID] {
			delete(s.files, id)
		}
	}
	return nil
}

func (s *store) shareFolder(owner, id, grantee string) (domain.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[id]
	if !ok || f.OwnerID != owner {
		return domain.Folder{}, errNoAccess
	}
	if !slices.Contains(f.SharedWith, grantee) {
		f.SharedWith = append(f.SharedWith, grantee)
		f.UpdatedAt = s.stamp()
	}
	return cloneFolder(f), nil
}

func (s *store) createFile(owner, folder, name, contentType string, data []byte) (domain.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownedFolderLocked(owner, folder) {
		return domain.File{}, errNoAccess
	}
	now := s.stamp()
	id := newID()
	f := &storedFile{
		meta: domain.File{
			ID:               id,
			Filename:         id + "_" + name,
			OriginalFilename: name,
			ContentType:      contentType,
			Size:             int64(len(data)),
			OwnerID:          owner,
			ParentFolderID:   folder,
			SharedWith:       []string{},
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		data: data,
	}
	s.files[id] = f
	return cloneFile(f.meta), nil
}

func (s *store) listFiles(owner, folder string) []domain.File {
	return s.filterFiles(func(f domain.File) bool {
		return f.OwnerID == owner && f.ParentFolderID == folder
	})
}

func (s *store) sharedFiles(user string) []domain.File {
	return s.filterFiles(func(f domain.File) bool {
		return slices.Contains(f.SharedWith, user)
	})
}

func (s *store) filterFiles(keep func(domain.File) bool) []domain.File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.File{}
	for _, f := range s.files {
		if keep(f.meta) {
			out = append(out, cloneFile(f.meta))
		}
	}
	slices.SortFunc(out, func(a, b domain.File) int {
		return strings.Compare(a.OriginalFilename, b.OriginalFilename)
	})
	return out
}

// readable is true for the owner, users it was shared with, and anyone
// while the file is public.
func readable(f domain.File, user string) bool {
	return f.OwnerID == user || slices.Contains(f.SharedWith, user) || f.IsPublic
}

func (s *store) file(user, id string) (domain.File, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok || !readable(f.meta, user) {
		return domain.File{}, nil, errNoAccess
	}
	return cloneFile(f.meta), f.data, nil
}

func (s *store) deleteFile(owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok || f.meta.OwnerID != owner {
		return errNoAccess
	}
	delete(s.files, id)
	return nil
}

func (s *store) shareFile(owner, id, grantee string) (domain.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok || f.meta.OwnerID != owner {
		return domain.File{}, errNoAccess
	}
	if !slices.Contains(f.meta.SharedWith, grantee) {
		f.meta.SharedWith = append(f.meta.SharedWith, grantee)
		f.meta.UpdatedAt = s.stamp()
	}
	return cloneFile(f.meta), nil
}

// createPublicLink replaces any previous link of the file, days <= 0 never expires.
func (s *store) createPublicLink(owner, id string, days int, prefix string) (domain.PublicLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok || f.meta.OwnerID != owner {
		return domain.PublicLink{}, errNoAccess
	}
	link := domain.PublicLink{Link: prefix + strings.ReplaceAll(newID(), "-", "")}
	if days > 0 {
		exp := domain.Time{Time: s.now().UTC().Add(time.Duration(days) * 24 * time.Hour)}
		link.ExpiresAt = &exp
	}
	f.meta.IsPublic = true
	f.meta.PublicLink = link.Link
	f.meta.PublicLinkExpiry = link.ExpiresAt
	f.meta.UpdatedAt = s.stamp()
	return link, nil
}

// publicFile finds the file whose link ends in token and has not expired.
func (s *store) publicFile(token string) (domain.File, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	for _, f := range s.files {
		if !f.meta.IsPublic || domain.LastSegment(f.meta.PublicLink) != token {
			continue
		}
		if exp := f.meta.PublicLinkExpiry; exp != nil && exp.Before(now) {
			continue
		}
		return cloneFile(f.meta), f.data, nil
	}
	return domain.File{}, nil, errNoAccess
}

func cloneFolder(f *domain.Folder) domain.Folder {
	c := *f
	c.SharedWith = slices.Clone(f.SharedWith)
	return c
}

func cloneFile(f domain.File) domain.File {
	f.SharedWith = slices.Clone(f.SharedWith)
	return f
}
