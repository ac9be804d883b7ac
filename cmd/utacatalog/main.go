// SPDX-License-Identifier: MIT

// Command utacatalog harvests singing-stream setlists from configured
// channels into a canonical catalog and publishes the front-end JSONs.
//
// Usage:
//
//	utacatalog [flags] update              incremental, watermark-driven run
//	utacatalog [flags] backfill [UC...]    re-harvest history (one channel or all)
//	utacatalog [flags] publish             re-derive JSONs from the stored catalog
//	utacatalog [flags] classify-recheck    re-run genre rules over existing rows
//
// Exit codes: 0 success, 2 quota exhausted (partial results persisted),
// 3 configuration error, 4 I/O or catalog integrity error.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utawakulab/utacatalog/internal/config"
	"github.com/utawakulab/utacatalog/internal/jobs"
	"github.com/utawakulab/utacatalog/internal/log"
	"github.com/utawakulab/utacatalog/internal/metrics"
	"github.com/utawakulab/utacatalog/internal/version"
)

const (
	exitOK     = 0
	exitQuota  = 2
	exitConfig = 3
	exitIO     = 4
	exitUsage  = 64

	runTimeout = 2 * time.Hour
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("utacatalog", flag.ContinueOnError)
	configPath := fs.String("config", "config.json", "path to the run config JSON")
	dataDir := fs.String("data", "", "override the data directory from the config")
	fs.Usage = usage(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return exitUsage
	}
	command := fs.Arg(0)
	switch command {
	case "update", "backfill", "publish", "classify-recheck":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.LoadRun(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfig
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: "utacatalog",
		Version: version.Version,
	})
	logger := log.WithComponent("cli")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()
	ctx = log.ContextWithRunID(ctx, time.Now().UTC().Format("20060102-150405"))

	if cfg.MetricsListen != "" {
		metrics.Serve(ctx, cfg.MetricsListen)
	}

	app, err := newApp(cfg, *configPath, command)
	if err != nil {
		return reportError(logger, err)
	}

	switch command {
	case "update":
		return app.harvest(ctx, jobs.RunOptions{})
	case "backfill":
		opts := jobs.RunOptions{Backfill: true}
		if fs.NArg() > 1 {
			opts.OnlyChannel = fs.Arg(1)
			if !config.ValidChannelID(opts.OnlyChannel) {
				fmt.Fprintf(os.Stderr, "invalid channel id %q\n", opts.OnlyChannel)
				return exitUsage
			}
		}
		return app.harvest(ctx, opts)
	case "publish":
		return app.publish(ctx)
	default: // classify-recheck, validated above
		return app.recheck(ctx)
	}
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), `utacatalog %s - singing-stream setlist harvester

Usage: utacatalog [flags] <command>

Commands:
  update            incremental harvest of all enabled channels
  backfill [UC...]  full re-harvest, optionally limited to one channel
  publish           re-derive the published JSONs from the catalog
  classify-recheck  re-run genre classification over existing rows

Flags:
`, version.Version)
		fs.PrintDefaults()
	}
}
