package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/deploy-tracker/config"
	"github.com/angeloszaimis/deploy-tracker/internal/discord"
	"github.com/angeloszaimis/deploy-tracker/internal/healthcheck"
	"github.com/angeloszaimis/deploy-tracker/internal/metrics"
	"github.com/angeloszaimis/deploy-tracker/internal/notion"
	"github.com/angeloszaimis/deploy-tracker/internal/report"
	"github.com/angeloszaimis/deploy-tracker/internal/tracker"
	"github.com/angeloszaimis/deploy-tracker/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		return 1
	}

	out, closer := logger.Output(cfg.Logging.File)
	defer closer.Close()

	log := logger.New(cfg.Logging.Level, false, cfg.Environment, out)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dump, err := openDump(cfg.Notion.DumpFile)
	if err != nil {
		log.Error("Failed to open dump file",
			slog.String("file", cfg.Notion.DumpFile),
			slog.Any("err", err))
		return 1
	}
	if dump != nil {
		defer dump.Close()
	}

	m := metrics.NewMetrics()
	t := buildTracker(cfg, log, m, dump)

	runErr := t.Execute(ctx)

	exportMetrics(cfg, log, m)

	if runErr != nil {
		return 1
	}
	return 0
}

func buildTracker(cfg *config.Config, log *slog.Logger, m *metrics.Metrics, dump io.Writer) *tracker.Tracker {
	opts := []notion.Option{notion.WithLogger(log)}
	if dump != nil {
		opts = append(opts, notion.WithDump(dump))
	}

	store := notion.New(
		cfg.Notion.BaseURL,
		cfg.Notion.APIToken,
		cfg.Notion.Version,
		notion.Properties{
			Name:   cfg.Notion.Properties.Name,
			Status: cfg.Notion.Properties.Status,
			Link:   cfg.Notion.Properties.Link,
		},
		opts...,
	)

	prober := healthcheck.NewProber(
		cfg.Probe.Attempts,
		cfg.ProbeDelay(),
		cfg.ProbeTimeout(),
		cfg.Probe.UserAgent,
		log,
	)

	return tracker.New(
		store,
		prober,
		discord.NewNotifier(cfg.Discord.WebhookURL),
		report.NewFormatter(cfg.Location()),
		m,
		log,
		tracker.Options{
			DatabaseID:     cfg.Notion.DatabaseID,
			ReportUsername: cfg.Discord.ReportUsername,
			AlertUsername:  cfg.Discord.AlertUsername,
		},
	)
}

// openDump opens the raw response dump in append mode. It returns a nil
// writer when no path is configured.
func openDump(path string) (io.WriteCloser, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func exportMetrics(cfg *config.Config, log *slog.Logger, m *metrics.Metrics) {
	snap := m.Snapshot()

	log.Info("Run finished",
		slog.Bool("success", snap.Success),
		slog.Int("healthy", snap.Healthy),
		slog.Int("down", snap.Down),
		slog.Int("skipped", len(snap.Skipped)),
		slog.Int64("label_updates", snap.LabelUpdates),
		slog.Int64("label_update_failures", snap.LabelUpdateFailures),
		slog.Duration("elapsed", snap.Elapsed))

	if cfg.Metrics.Textfile == "" {
		return
	}

	if err := metrics.WriteTextfile(cfg.Metrics.Textfile, snap); err != nil {
		log.Error("Failed to write metrics textfile",
			slog.String("file", cfg.Metrics.Textfile),
			slog.Any("err", err))
	}
}
