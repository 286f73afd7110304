package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	service "github.com/okian/tracksort/internal/app"
	"github.com/okian/tracksort/internal/cli"
	"github.com/okian/tracksort/internal/config"
	"github.com/okian/tracksort/pkg/logger"
)

func main() {
	var (
		query   = flag.String("query", "", "Album search to run first (prompted when empty)")
		albumID = flag.String("album", "", "Catalog album id to rank directly, skipping search")
		logFile = flag.String("log", "", "Log file (default: logs are discarded)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		cli.ShowHelp(os.Stdout)
		return
	}

	closer, err := cli.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	svc := service.FromConfig(cfg)
	if err := svc.Start(ctx); err != nil {
		logger.Get().Error(ctx, "failed to start service", logger.Error(err))
		os.Stderr.WriteString("Failed to start: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer svc.Stop()

	runCfg := &cli.Config{
		Query:   *query,
		AlbumID: *albumID,
		LogFile: *logFile,
		Verbose: *verbose,
	}
	if err := cli.Run(ctx, runCfg, svc, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		os.Stderr.WriteString("Ranking failed: " + err.Error() + "\n")
	}
}
