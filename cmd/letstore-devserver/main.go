// Command letstore-devserver runs an in-memory storage API for local
// development, optionally announced on the LAN.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/MuhamedUsman/letstore/internal/bgtask"
	"github.com/MuhamedUsman/letstore/internal/devserver"
	"github.com/MuhamedUsman/letstore/internal/mdns"
	"github.com/MuhamedUsman/letstore/internal/util"
)

func main() {
	addr := flag.String("addr", ":8000", "address to listen on")
	prefix := flag.String("prefix", devserver.DefaultPrefix, "path the API is mounted under")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of issued access tokens")
	announce := flag.String("announce", "", "mDNS instance name to advertise, empty disables it")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()
	util.ConfigureSlog(os.Stderr, util.ParseLevel(*level), true)

	s, err := devserver.New(devserver.Config{Prefix: *prefix, TokenTTL: *tokenTTL})
	if err != nil {
		slog.Error("creating dev server", "err", err)
		os.Exit(1)
	}

	bt := bgtask.Get()
	ready := func(a net.Addr) {
		tcp, ok := a.(*net.TCPAddr)
		if *announce == "" || !ok {
			return
		}
		bt.Run(func(shutdownCtx context.Context) {
			ann := mdns.Announcement{Instance: *announce, Port: tcp.Port, Path: s.Prefix()}
			if err := mdns.Get().Publish(shutdownCtx, ann); err != nil {
				slog.Error("announcing dev server", "instance", *announce, "err", err)
			}
		})
	}
	if err = s.ListenAndServe(bt.ShutdownCtx(), *addr, ready); err != nil {
		slog.Error("serving", "err", err)
	}
	if err = bt.Shutdown(5 * time.Second); err != nil {
		slog.Error("shutting down background tasks", "err", err)
	}
}
