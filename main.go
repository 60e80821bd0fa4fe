/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	releaseVersion = "0.1.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).ExecuteContext(ctx))
}

// run drives the lobby client and, unless disabled, the local view server
// until ctx is cancelled or one of them fails.
func run(ctx context.Context, cfg *Config) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	logf(cfg, "START: lobbybox v%s", releaseVersion)

	avatars := newAvatarResolver(cfg)
	page := newPage(avatars)
	defer page.Close()

	client := newClient(cfg, page, newDialer())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.Run(ctx)
	})

	if cfg.port != 0 {
		g.Go(func() error {
			return serveView(ctx, cfg, page)
		})
	}

	return g.Wait()
}
