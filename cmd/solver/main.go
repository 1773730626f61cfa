package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gnosis/dex-open-solver/config"
	"github.com/gnosis/dex-open-solver/internal/adapters/batchfile"
	"github.com/gnosis/dex-open-solver/internal/adapters/notify"
	"github.com/gnosis/dex-open-solver/internal/adapters/storage"
	"github.com/gnosis/dex-open-solver/internal/matchengine"
	"github.com/gnosis/dex-open-solver/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	batchPath := flag.String("batch", "", "path to a single batch JSON file")
	watchDir := flag.String("watch", "", "directory to poll for new batch JSON files")
	table := flag.Bool("table", false, "print full per-order table (default: compact 1-line)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	history := flag.Bool("history", false, "print solved-batch history from the last 24h and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	notifier := notify.NewConsole(*table)

	if *history {
		printHistory(ctx, store)
		return
	}

	var source ports.BatchSource
	switch {
	case *watchDir != "":
		source = batchfile.NewDirWatcher(*watchDir, cfg.WatchInterval())
		slog.Info("dex-open-solver watching for batches", "dir", *watchDir, "interval", cfg.WatchInterval())
	case *batchPath != "":
		source = batchfile.NewFileSource(*batchPath)
		slog.Info("dex-open-solver solving one batch", "path", *batchPath)
	default:
		slog.Error("one of -batch or -watch is required")
		os.Exit(1)
	}

	if err := run(ctx, source, store, notifier); err != nil {
		slog.Error("dex-open-solver exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("dex-open-solver stopped cleanly")
}

func run(ctx context.Context, source ports.BatchSource, store ports.Storage, notifier ports.Notifier) error {
	for {
		batch, ok, err := source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !ok {
			return nil
		}

		res, err := matchengine.Solve(ctx, batch.Orders, batch.Tau1, batch.Tau2)
		if err != nil {
			slog.Error("invalid batch", "batch", batch.ID, "err", err)
			continue
		}

		if err := store.SaveSolve(ctx, batch.ID, res); err != nil {
			slog.Warn("failed to persist solve", "batch", batch.ID, "err", err)
		}
		if err := notifier.Notify(ctx, batch.ID, res); err != nil {
			slog.Warn("notifier error", "batch", batch.ID, "err", err)
		}
	}
}

func printHistory(ctx context.Context, store ports.Storage) {
	now := time.Now().UTC()
	records, err := store.GetHistory(ctx, now.Add(-24*time.Hour), now)
	if err != nil {
		slog.Error("failed to read history", "err", err)
		os.Exit(1)
	}
	for _, rec := range records {
		slog.Info("solve",
			"batch", rec.BatchID,
			"solved_at", rec.SolvedAt.Format(time.RFC3339),
			"matched", rec.Matched,
			"rate", rec.Rate,
			"objective", rec.Objective,
			"orders", rec.OrderCount,
		)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
