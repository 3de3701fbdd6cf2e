// Command letstore-announce advertises a storage API running elsewhere on
// this host, so clients with discovery enabled find it without a base url.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MuhamedUsman/letstore/internal/config"
	"github.com/MuhamedUsman/letstore/internal/mdns"
	"github.com/MuhamedUsman/letstore/internal/util"
)

func main() {
	var a mdns.Announcement
	flag.StringVar(&a.Instance, "instance", config.DefaultInstance, "mDNS instance name")
	flag.IntVar(&a.Port, "port", 8000, "port the API listens on")
	flag.StringVar(&a.Path, "path", "/api", "path the API is mounted under")
	flag.StringVar(&a.Scheme, "scheme", "http", "http or https")
	flag.StringVar(&a.Owner, "owner", "", "shown to clients browsing the network")
	flag.StringVar(&a.Host, "host", "", "host name to announce, the machine's by default")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()
	util.ConfigureSlog(os.Stderr, util.ParseLevel(*level), true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mdns.Get().Publish(ctx, a); err != nil {
		slog.Error("announcing", "instance", a.Instance, "err", err)
		os.Exit(1)
	}
}
