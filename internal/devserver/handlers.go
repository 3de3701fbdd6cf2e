package devserver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/mail"
	"path/filepath"
	"strings"

	"github.com/MuhamedUsman/letstore/internal/domain"
)

const maxUpload = 512 << 20

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := s.readJSON(w, r, &in); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	var issues []issue
	if strings.TrimSpace(in.Username) == "" {
		issues = append(issues, issue{Loc: []string{"body", "username"}, Msg: "field required"})
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		issues = append(issues, issue{Loc: []string{"body", "email"}, Msg: "value is not a valid email address"})
	}
	if len(in.Password) < 6 {
		issues = append(issues, issue{Loc: []string{"body", "password"}, Msg: "ensure this value has at least 6 characters"})
	}
	if len(issues) > 0 {
		s.validationResponse(w, r, issues...)
		return
	}
	u, err := s.store.createUser(strings.TrimSpace(in.Username), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrUsernameTaken) {
			s.badRequestResponse(w, r, err)
			return
		}
		s.serverErrorResponse(w, r, err)
		return
	}
	if err = s.writeJSON(w, http.StatusCreated, u, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	u, err := s.store.authenticate(r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		s.unauthorizedResponse(w, r, err.Error())
		return
	}
	tok, err := s.issueToken(u)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	if err = s.writeJSON(w, http.StatusOK, envelop{"access_token": tok, "token_type": "bearer"}, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	if err := s.writeJSON(w, http.StatusOK, userFrom(r.Context()), nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) listFolders(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	folders := s.store.listFolders(u.ID, r.URL.Query().Get("parent_folder_id"))
	if err := s.writeJSON(w, http.StatusOK, folders, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) createFolder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name           string  `json:"name"`
		ParentFolderID *string `json:"parent_folder_id"`
	}
	if err := s.readJSON(w, r, &in); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		s.validationResponse(w, r, issue{Loc: []string{"body", "name"}, Msg: "field required"})
		return
	}
	parent := domain.RootID
	if in.ParentFolderID != nil {
		parent = *in.ParentFolderID
	}
	f, err := s.store.createFolder(userFrom(r.Context()).ID, strings.TrimSpace(in.Name), parent)
	if err != nil {
		s.notFoundResponse(w, r, "Parent folder not found")
		return
	}
	if err = s.writeJSON(w, http.StatusCreated, f, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) deleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteFolder(userFrom(r.Context()).ID, r.PathValue("id")); err != nil {
		s.notFoundResponse(w, r, "Folder not found or you don't have access to delete it")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type shareInput struct {
	UserID string `json:"user_id"`
}

func (s *Server) readShare(w http.ResponseWriter, r *http.Request) (string, bool) {
	var in shareInput
	if err := s.readJSON(w, r, &in); err != nil {
		s.badRequestResponse(w, r, err)
		return "", false
	}
	if strings.TrimSpace(in.UserID) == "" {
		s.validationResponse(w, r, issue{Loc: []string{"body", "user_id"}, Msg: "field required"})
		return "", false
	}
	if _, ok := s.store.user(in.UserID); !ok {
		s.notFoundResponse(w, r, "User not found")
		return "", false
	}
	return in.UserID, true
}

func (s *Server) shareFolder(w http.ResponseWriter, r *http.Request) {
	grantee, ok := s.readShare(w, r)
	if !ok {
		return
	}
	f, err := s.store.shareFolder(userFrom(r.Context()).ID, r.PathValue("id"), grantee)
	if err != nil {
		s.notFoundResponse(w, r, "Folder not found or you don't have access to share it")
		return
	}
	if err = s.writeJSON(w, http.StatusOK, f, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files := s.store.listFiles(userFrom(r.Context()).ID, r.URL.Query().Get("folder_id"))
	if err := s.writeJSON(w, http.StatusOK, files, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) sharedFiles(w http.ResponseWriter, r *http.Request) {
	files := s.store.sharedFiles(userFrom(r.Context()).ID)
	if err := s.writeJSON(w, http.StatusOK, files, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	part, header, err := r.FormFile("file")
	if err != nil {
		s.validationResponse(w, r, issue{Loc: []string{"body", "file"}, Msg: "field required"})
		return
	}
	defer part.Close()
	data, err := io.ReadAll(part)
	if err != nil {
		s.badRequestResponse(w, r, fmt.Errorf("reading upload: %w", err))
		return
	}
	name := filepath.Base(header.Filename)
	ct := header.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
			ct = byExt
		} else {
			ct = http.DetectContentType(data)
		}
	}
	f, err := s.store.createFile(userFrom(r.Context()).ID, r.URL.Query().Get("folder_id"), name, ct, data)
	if err != nil {
		s.notFoundResponse(w, r, "Folder not found")
		return
	}
	if err = s.writeJSON(w, http.StatusCreated, f, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) fileInfo(w http.ResponseWriter, r *http.Request) {
	f, _, err := s.store.file(userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		s.notFoundResponse(w, r, "File not found or you don't have access to it")
		return
	}
	if err = s.writeJSON(w, http.StatusOK, f, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	f, data, err := s.store.file(userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		s.notFoundResponse(w, r, "File not found or you don't have access to it")
		return
	}
	s.serveContent(w, r, f, data)
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteFile(userFrom(r.Context()).ID, r.PathValue("id")); err != nil {
		s.notFoundResponse(w, r, "File not found or you don't have access to delete it")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) shareFile(w http.ResponseWriter, r *http.Request) {
	grantee, ok := s.readShare(w, r)
	if !ok {
		return
	}
	f, err := s.store.shareFile(userFrom(r.Context()).ID, r.PathValue("id"), grantee)
	if err != nil {
		s.notFoundResponse(w, r, "File not found or you don't have access to share it")
		return
	}
	if err = s.writeJSON(w, http.StatusOK, f, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) createPublicLink(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ExpiresInDays *int `json:"expires_in_days"`
	}
	if r.ContentLength != 0 {
		if err := s.readJSON(w, r, &in); err != nil {
			s.badRequestResponse(w, r, err)
			return
		}
	}
	days := 0
	if in.ExpiresInDays != nil {
		days = *in.ExpiresInDays
	}
	link, err := s.store.createPublicLink(userFrom(r.Context()).ID, r.PathValue("id"), days, s.prefix+"/files/public/")
	if err != nil {
		s.notFoundResponse(w, r, "File not found or you don't have access to create a public link")
		return
	}
	if err = s.writeJSON(w, http.StatusOK, link, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) fileSubresource(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.PathValue("id") == "public":
		s.publicFile(w, r, r.PathValue("sub"))
	case r.PathValue("sub") == "download":
		s.requireAuth(http.HandlerFunc(s.downloadFile)).ServeHTTP(w, r)
	default:
		s.notFoundResponse(w, r, "Not Found")
	}
}

func (s *Server) publicFile(w http.ResponseWriter, r *http.Request, token string) {
	f, data, err := s.store.publicFile(token)
	if err != nil {
		s.notFoundResponse(w, r, "Public file not found or link has expired")
		return
	}
	s.serveContent(w, r, f, data)
}

func (s *Server) serveContent(w http.ResponseWriter, r *http.Request, f domain.File, data []byte) {
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.OriginalFilename}))
	http.ServeContent(w, r, f.OriginalFilename, f.UpdatedAt.Time, bytes.NewReader(data))
}
