// Package devserver is an in-memory storage API for local development and
// tests. It honours the same REST contract as the production backend:
// bearer tokens, owner checks, sharing, expiring public links and cascading
// folder deletes. Nothing survives a restart.
package devserver

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/justinas/alice"
)

const DefaultPrefix = "/api"

type Config struct {
	// Prefix the API is mounted under, DefaultPrefix when empty
	Prefix string
	// Secret signs tokens, a random one is generated when empty
	Secret   []byte
	TokenTTL time.Duration
	// Now is the clock, time.Now when nil
	Now func() time.Time
}

type Server struct {
	store    *store
	prefix   string
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func New(cfg Config) (*Server, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if len(cfg.Secret) == 0 {
		cfg.Secret = make([]byte, 32)
		if _, err := rand.Read(cfg.Secret); err != nil {
			return nil, fmt.Errorf("generating secret: %w", err)
		}
	}
	return &Server{
		store:    newStore(cfg.Now),
		prefix:   "/" + strings.Trim(cfg.Prefix, "/"),
		secret:   cfg.Secret,
		tokenTTL: cfg.TokenTTL,
		now:      cfg.Now,
	}, nil
}

func (s *Server) Prefix() string {
	return s.prefix
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	public := alice.New(s.recoverPanic, s.logRequest)
	authed := public.Append(s.requireAuth)
	p := s.prefix

	mux.Handle("POST "+p+"/auth/register", public.ThenFunc(s.register))
	mux.Handle("POST "+p+"/auth/login", public.ThenFunc(s.login))
	mux.Handle("GET "+p+"/auth/me", authed.ThenFunc(s.me))

	mux.Handle("GET "+p+"/folders/{$}", authed.ThenFunc(s.listFolders))
	mux.Handle("POST "+p+"/folders/{$}", authed.ThenFunc(s.createFolder))
	mux.Handle("DELETE "+p+"/folders/{id}", authed.ThenFunc(s.deleteFolder))
	mux.Handle("POST "+p+"/folders/{id}/share", authed.ThenFunc(s.shareFolder))

	mux.Handle("GET "+p+"/files/{$}", authed.ThenFunc(s.listFiles))
	mux.Handle("POST "+p+"/files/{$}", authed.ThenFunc(s.uploadFile))
	mux.Handle("GET "+p+"/files/shared", authed.ThenFunc(s.sharedFiles))
	mux.Handle("GET "+p+"/files/{id}", authed.ThenFunc(s.fileInfo))
	mux.Handle("DELETE "+p+"/files/{id}", authed.ThenFunc(s.deleteFile))
	// public/{token} and {id}/download overlap, fileSubresource tells them apart
	mux.Handle("GET "+p+"/files/{id}/{sub}", public.ThenFunc(s.fileSubresource))
	mux.Handle("POST "+p+"/files/{id}/share", authed.ThenFunc(s.shareFile))
	mux.Handle("POST "+p+"/files/{id}/public-link", authed.ThenFunc(s.createPublicLink))

	mux.Handle("/", public.ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		s.notFoundResponse(w, r, "Not Found")
	}))
	return mux
}

// ListenAndServe serves until ctx is canceled or the process receives
// SIGINT/SIGTERM, then shuts down gracefully. ready, if not nil, receives the
// bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %q: %w", addr, err)
	}
	server := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}
	errChan := listenAndShutdown(ctx, server)
	slog.Info("starting dev server", "address", ln.Addr().String(), "prefix", s.prefix)
	if ready != nil {
		ready(ln.Addr())
	}
	if err = server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving on %q: %w", ln.Addr(), err)
	}
	if err = <-errChan; err != nil {
		return err
	}
	return nil
}

func listenAndShutdown(ctx context.Context, server *http.Server) chan error {
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)
		select {
		case <-ctx.Done():
		case sig := <-quit:
			slog.Info("shutting down dev server", "signal", sig.String())
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			errChan <- fmt.Errorf("shutting down server: %w", err)
		}
	}()
	return errChan
}
