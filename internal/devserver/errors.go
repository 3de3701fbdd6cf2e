package devserver

import (
	"log/slog"
	"net/http"
)

// errorResponse writes {"detail": message}, message is a string or a list of validation issues.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	if err := s.writeJSON(w, status, envelop{"detail": message}, nil); err != nil {
		slog.Error("writing error response", "path", r.URL.Path, "err", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type issue struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

func (s *Server) validationResponse(w http.ResponseWriter, r *http.Request, issues ...issue) {
	s.errorResponse(w, r, http.StatusUnprocessableEntity, issues)
}

func (s *Server) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (s *Server) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("serving request", "method", r.Method, "path", r.URL.Path, "err", err)
	message := "the server encountered a problem and could not process your request"
	s.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (s *Server) notFoundResponse(w http.ResponseWriter, r *http.Request, message string) {
	s.errorResponse(w, r, http.StatusNotFound, message)
}

func (s *Server) unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	s.errorResponse(w, r, http.StatusUnauthorized, message)
}
