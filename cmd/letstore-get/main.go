// Command letstore-get saves the file behind a public link, no account needed.
//
//	letstore-get [-dir folder] [-api base-url] <url-or-token>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/MuhamedUsman/letstore/internal/config"
	"github.com/MuhamedUsman/letstore/internal/sharing"
	"github.com/MuhamedUsman/letstore/internal/util"
	"github.com/dustin/go-humanize"
)

func main() {
	dir := flag.String("dir", "", "folder to save into, the configured download folder by default")
	api := flag.String("api", "", "base url of the storage API, the configured one by default")
	level := flag.String("log-level", "warn", "debug, info, warn or error")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: letstore-get [flags] <url-or-token>")
		flag.PrintDefaults()
	}
	flag.Parse()
	util.ConfigureSlog(os.Stderr, util.ParseLevel(*level), true)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if *dir == "" || *api == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error loading config:", err)
			os.Exit(1)
		}
		if *dir == "" {
			*dir = cfg.Receive.DownloadFolder
		}
		if *api == "" {
			*api = cfg.Server.BaseURL
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(client.Config{BaseURL: *api})
	got, err := sharing.Consume(ctx, c, sharing.TokenFromInput(flag.Arg(0)), *dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Saved %s (%s) to %s\n", got.Filename, humanize.Bytes(uint64(got.Size)), got.Path)
}
