package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MuhamedUsman/letstore/internal/bgtask"
	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/MuhamedUsman/letstore/internal/config"
	"github.com/MuhamedUsman/letstore/internal/mdns"
	"github.com/MuhamedUsman/letstore/internal/session"
	"github.com/MuhamedUsman/letstore/internal/tui"
	"github.com/MuhamedUsman/letstore/internal/util"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	logFile         = "letstore.log"
	discoverTimeout = 3 * time.Second
	shutdownTimeout = 5 * time.Second
)

var logLevel = flag.String("log-level", "info", "debug, info, warn or error")

func init() {
	flag.Parse()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	f, err := openLogFile()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error opening log file:", err)
		os.Exit(1)
	}
	defer f.Close()
	util.ConfigureSlog(f, util.ParseLevel(*logLevel), false)

	store, err := session.DefaultStore()
	if err != nil {
		slog.Error("locating session file", "err", err)
		os.Exit(1)
	}
	sess := session.New(store)
	if ok, err := sess.Restore(); err != nil {
		slog.Error("restoring session", "err", err)
	} else if ok {
		slog.Info("restored previous session")
	}

	bt := bgtask.Get()
	if cfg.Server.Discover {
		baseURL, err := mdns.Get().Resolve(bt.ShutdownCtx(), cfg.Server.Instance, discoverTimeout)
		if err != nil {
			slog.Error("discovering backend, using the configured base url", "instance", cfg.Server.Instance, "err", err)
		} else {
			slog.Info("discovered backend", "instance", cfg.Server.Instance, "url", baseURL)
			cfg.Server.BaseURL = baseURL
		}
	}

	c := client.New(client.Config{
		BaseURL: cfg.Server.BaseURL,
		Timeout: cfg.Server.Timeout.Duration,
		Session: sess,
	})
	_, err = tea.NewProgram(
		tui.InitialMainModel(bt.ShutdownCtx(), c, cfg),
		tea.WithAltScreen(),
	).Run()
	if err != nil {
		slog.Error("running program", "err", err)
	}

	// transfers still running are canceled, then awaited
	if n := bt.Active(); n > 0 {
		slog.Info("waiting for transfers", "count", n)
	}
	if err = bt.Shutdown(shutdownTimeout); err != nil {
		slog.Error("shutting down background tasks", "err", err)
	}
}

// openLogFile truncates the log of the previous run, it lives next to the config.
func openLogFile() (*os.File, error) {
	dir, err := config.GetDir()
	if err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, logFile), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
}
