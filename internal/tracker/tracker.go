package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/angeloszaimis/deploy-tracker/internal/healthcheck"
	"github.com/angeloszaimis/deploy-tracker/internal/metrics"
	"github.com/angeloszaimis/deploy-tracker/internal/notion"
	"github.com/angeloszaimis/deploy-tracker/internal/report"
)

type Store interface {
	QueryDatabase(ctx context.Context, databaseID string) ([]notion.Project, error)
	UpdateStatus(ctx context.Context, recordID, label string) error
}

type Prober interface {
	Probe(ctx context.Context, target string) (healthcheck.Result, error)
}

type Notifier interface {
	Send(ctx context.Context, username, message string) error
}

type Options struct {
	DatabaseID     string
	ReportUsername string
	AlertUsername  string
}

type Tracker struct {
	store     Store
	prober    Prober
	notifier  Notifier
	formatter *report.Formatter
	metrics   *metrics.Metrics
	logger    *slog.Logger
	opts      Options
}

func New(
	store Store,
	prober Prober,
	notifier Notifier,
	formatter *report.Formatter,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts Options,
) *Tracker {
	return &Tracker{
		store:     store,
		prober:    prober,
		notifier:  notifier,
		formatter: formatter,
		metrics:   m,
		logger:    logger,
		opts:      opts,
	}
}

// Execute runs one check. If the run aborts, the error is logged and posted
// as an alert; a failure to post the alert is logged and dropped.
func (t *Tracker) Execute(ctx context.Context) error {
	err := t.Run(ctx)
	t.metrics.Finish(err == nil)

	if err == nil {
		return nil
	}

	t.logger.Error("Deployment check failed", slog.Any("err", err))

	if sendErr := t.notifier.Send(ctx, t.opts.AlertUsername, t.formatter.Failure(err)); sendErr != nil {
		t.logger.Error("Failed to send alert", slog.Any("err", sendErr))
	}

	return err
}

// Run reads, probes, reports and writes back, in that order. Only a failure
// to read the database aborts it.
func (t *Tracker) Run(ctx context.Context) error {
	projects, err := t.store.QueryDatabase(ctx, t.opts.DatabaseID)
	if err != nil {
		return fmt.Errorf("read deployments database: %w", err)
	}
	t.logger.Info("Deployment DB data", slog.Int("projects", len(projects)))
	t.warnDuplicateNames(projects)

	statuses := t.CheckProjects(ctx, projects)

	message := t.formatter.Summary(entries(statuses))
	if err := t.notifier.Send(ctx, t.opts.ReportUsername, message); err != nil {
		t.logger.Error("Failed to send report", slog.Any("err", err))
	} else {
		t.logger.Info("Report sent", slog.String("payload", message))
	}

	t.ApplyUpdates(ctx, PlanUpdates(projects, statuses))

	return nil
}

// warnDuplicateNames logs every project name that appears more than once,
// since the write-back joins statuses to records by name.
func (t *Tracker) warnDuplicateNames(projects []notion.Project) {
	seen := make(map[string]int, len(projects))
	for _, p := range projects {
		seen[p.Name]++
		if seen[p.Name] == 2 {
			t.logger.Warn("Duplicate project name, the last status wins for every record",
				slog.String("project", p.Name))
		}
	}
}

// CheckProjects probes every project in order.
func (t *Tracker) CheckProjects(ctx context.Context, projects []notion.Project) []ProjectStatus {
	statuses := make([]ProjectStatus, 0, len(projects))

	for _, p := range projects {
		res, err := t.prober.Probe(ctx, p.URL)
		if err != nil {
			t.logger.Error("Skipping project",
				slog.String("project", p.Name),
				slog.String("url", p.URL),
				slog.Any("err", err))
			t.metrics.RecordSkipped(p.Name)
			statuses = append(statuses, ProjectStatus{Name: p.Name, Err: err})
			continue
		}

		t.metrics.RecordProbe(p.Name, res.Healthy, res.Attempts, res.StatusCode, res.Duration)

		attrs := []any{
			slog.String("project", p.Name),
			slog.Bool("healthy", res.Healthy),
			slog.Int("attempts", res.Attempts),
			slog.Int("status", res.StatusCode),
		}
		if res.Healthy {
			t.logger.Info("Project is up", attrs...)
		} else {
			t.logger.Warn("Project is down", append(attrs, slog.Any("last_err", res.LastErr))...)
		}

		statuses = append(statuses, ProjectStatus{Name: p.Name, Healthy: res.Healthy})
	}

	return statuses
}

// ApplyUpdates writes every changed label. Each write is independent; a
// failed one is logged and the rest still run. It returns the number of
// labels written.
func (t *Tracker) ApplyUpdates(ctx context.Context, updates []StatusUpdate) int {
	written := 0

	for _, u := range updates {
		if !u.Changed() {
			t.logger.Info("Status unchanged",
				slog.String("project", u.Name),
				slog.String("label", u.OldLabel))
			continue
		}

		if err := t.store.UpdateStatus(ctx, u.RecordID, u.NewLabel); err != nil {
			t.logger.Error("Failed to update status",
				slog.String("project", u.Name),
				slog.String("from", u.OldLabel),
				slog.String("to", u.NewLabel),
				slog.Any("err", err))
			t.metrics.RecordLabelUpdate(false)
			continue
		}

		t.logger.Info("Status updated",
			slog.String("project", u.Name),
			slog.String("from", u.OldLabel),
			slog.String("to", u.NewLabel))
		t.metrics.RecordLabelUpdate(true)
		written++
	}

	return written
}

func entries(statuses []ProjectStatus) []report.Entry {
	out := make([]report.Entry, 0, len(statuses))
	for _, s := range statuses {
		if s.Err != nil {
			continue
		}
		out = append(out, report.Entry{Name: s.Name, Healthy: s.Healthy})
	}
	return out
}
