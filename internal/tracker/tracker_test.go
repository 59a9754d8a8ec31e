package tracker_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/deploy-tracker/internal/metrics"
	"github.com/angeloszaimis/deploy-tracker/internal/notion"
	"github.com/angeloszaimis/deploy-tracker/internal/report"
	"github.com/angeloszaimis/deploy-tracker/internal/tracker"
)

var _ = Describe("Tracker", func() {
	var (
		store    *fakeStore
		prober   *fakeProber
		notifier *fakeNotifier
		m        *metrics.Metrics
		t        *tracker.Tracker
		ctx      context.Context
		logs     *bytes.Buffer
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = &fakeStore{}
		prober = &fakeProber{healthy: map[string]bool{}, invalid: map[string]bool{}}
		notifier = &fakeNotifier{}
		m = metrics.NewMetrics()

		fixed := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)
		formatter := report.NewFormatter(time.UTC).WithClock(func() time.Time { return fixed })
		logs = &bytes.Buffer{}
		log := slog.New(slog.NewTextHandler(logs, nil))

		t = tracker.New(store, prober, notifier, formatter, m, log, tracker.Options{
			DatabaseID:     "db123",
			ReportUsername: "Deployments Tracker",
			AlertUsername:  "Deployment Monitoring Alert",
		})
	})

	Describe("Execute", func() {
		Context("when every project keeps its status", func() {
			BeforeEach(func() {
				store.projects = []notion.Project{
					{Name: "A", StatusLabel: "Healthy", URL: "https://ok", RecordID: "a1"},
				}
				prober.healthy["https://ok"] = true
			})

			It("should report and perform no patch", func() {
				Expect(t.Execute(ctx)).To(Succeed())

				Expect(notifier.messages).To(Equal([]message{{
					Username: "Deployments Tracker",
					Content:  "Checked at: 02-01-2024 03:04:05\nA: ✅\n",
				}}))
				Expect(store.patches).To(BeEmpty())
				Expect(m.Snapshot().Success).To(BeTrue())
			})
		})

		Context("when a project goes down", func() {
			BeforeEach(func() {
				store.projects = []notion.Project{
					{Name: "A", StatusLabel: "Healthy", URL: "https://ok", RecordID: "a1"},
				}
			})

			It("should patch the label to Down exactly once", func() {
				Expect(t.Execute(ctx)).To(Succeed())

				Expect(store.patches).To(Equal([]patch{{RecordID: "a1", Label: "Down"}}))
				Expect(notifier.messages[0].Content).To(HaveSuffix("A: ❌\n"))
				Expect(m.Snapshot().LabelUpdates).To(Equal(int64(1)))
			})
		})

		Context("when the database read fails", func() {
			BeforeEach(func() {
				store.queryErr = &notion.APIError{StatusCode: 401, Code: "unauthorized", Message: "API token is invalid."}
			})

			It("should skip every step and send exactly one alert", func() {
				err := t.Execute(ctx)
				Expect(err).To(HaveOccurred())

				var apiErr *notion.APIError
				Expect(errors.As(err, &apiErr)).To(BeTrue())

				Expect(prober.probed).To(BeEmpty())
				Expect(store.patches).To(BeEmpty())
				Expect(notifier.messages).To(HaveLen(1))
				Expect(notifier.messages[0].Username).To(Equal("Deployment Monitoring Alert"))
				Expect(notifier.messages[0].Content).To(HavePrefix("Error occurred while checking deployments at 02-01-2024 03:04:05\n\n"))
				Expect(notifier.messages[0].Content).To(ContainSubstring("API token is invalid."))
				Expect(m.Snapshot().Success).To(BeFalse())
			})

			It("should still return the error when the alert cannot be sent", func() {
				notifier.err = errors.New("webhook down")

				Expect(t.Execute(ctx)).To(HaveOccurred())
				Expect(notifier.messages).To(HaveLen(1))
			})
		})

		Context("when the report cannot be posted", func() {
			BeforeEach(func() {
				store.projects = []notion.Project{
					{Name: "A", StatusLabel: "Down", URL: "https://ok", RecordID: "a1"},
				}
				prober.healthy["https://ok"] = true
				notifier.err = errors.New("webhook down")
			})

			It("should log it and still write labels back", func() {
				Expect(t.Execute(ctx)).To(Succeed())
				Expect(notifier.messages).To(HaveLen(1))
				Expect(store.patches).To(Equal([]patch{{RecordID: "a1", Label: "Healthy"}}))
			})
		})

		Context("with a project that cannot be probed", func() {
			BeforeEach(func() {
				store.projects = []notion.Project{
					{Name: "Broken", StatusLabel: "Healthy", URL: "not-a-url", RecordID: "b1"},
					{Name: "Good", StatusLabel: "Down", URL: "https://ok", RecordID: "g1"},
				}
				prober.invalid["not-a-url"] = true
				prober.healthy["https://ok"] = true
			})

			It("should skip it and continue with the rest", func() {
				Expect(t.Execute(ctx)).To(Succeed())

				Expect(prober.probed).To(Equal([]string{"not-a-url", "https://ok"}))
				Expect(notifier.messages[0].Content).To(Equal("Checked at: 02-01-2024 03:04:05\nGood: ✅\n"))
				Expect(store.patches).To(Equal([]patch{{RecordID: "g1", Label: "Healthy"}}))
				Expect(m.Snapshot().Skipped).To(Equal([]string{"Broken"}))
			})
		})

		Context("when two projects share a name", func() {
			BeforeEach(func() {
				store.projects = []notion.Project{
					{Name: "Twin", StatusLabel: "Healthy", URL: "https://down", RecordID: "t1"},
					{Name: "Twin", StatusLabel: "Down", URL: "https://ok", RecordID: "t2"},
				}
				prober.healthy["https://ok"] = true
			})

			It("should warn and apply the last status to both records", func() {
				Expect(t.Execute(ctx)).To(Succeed())

				Expect(logs.String()).To(ContainSubstring("Duplicate project name"))
				Expect(logs.String()).To(ContainSubstring("project=Twin"))
				Expect(store.patches).To(Equal([]patch{{RecordID: "t2", Label: "Healthy"}}))
			})
		})
	})

	Describe("CheckProjects", func() {
		It("should keep the project order", func() {
			prober.healthy["https://x"] = true
			statuses := t.CheckProjects(ctx, []notion.Project{
				{Name: "X", URL: "https://x"},
				{Name: "Y", URL: "https://y"},
			})

			Expect(statuses).To(Equal([]tracker.ProjectStatus{
				{Name: "X", Healthy: true},
				{Name: "Y", Healthy: false},
			}))
		})
	})

	Describe("ApplyUpdates", func() {
		It("should continue after a failed write", func() {
			store.failPatch = map[string]bool{"a1": true}

			written := t.ApplyUpdates(ctx, []tracker.StatusUpdate{
				{Name: "A", OldLabel: "Healthy", NewLabel: "Down", RecordID: "a1"},
				{Name: "B", OldLabel: "Healthy", NewLabel: "Healthy", RecordID: "b1"},
				{Name: "C", OldLabel: "Down", NewLabel: "Healthy", RecordID: "c1"},
			})

			Expect(written).To(Equal(1))
			Expect(store.patches).To(Equal([]patch{{RecordID: "c1", Label: "Healthy"}}))

			snap := m.Snapshot()
			Expect(snap.LabelUpdates).To(Equal(int64(1)))
			Expect(snap.LabelUpdateFailures).To(Equal(int64(1)))
		})
	})
})

var _ = Describe("PlanUpdates", func() {
	projects := []notion.Project{
		{Name: "A", StatusLabel: "Healthy", URL: "https://ok", RecordID: "a1"},
	}

	It("should keep the label when the project is still healthy", func() {
		updates := tracker.PlanUpdates(projects, []tracker.ProjectStatus{{Name: "A", Healthy: true}})

		Expect(updates).To(Equal([]tracker.StatusUpdate{
			{Name: "A", OldLabel: "Healthy", NewLabel: "Healthy", RecordID: "a1"},
		}))
		Expect(updates[0].Changed()).To(BeFalse())
	})

	It("should compute Down when the probe failed", func() {
		updates := tracker.PlanUpdates(projects, []tracker.ProjectStatus{{Name: "A", Healthy: false}})

		Expect(updates).To(HaveLen(1))
		Expect(updates[0].NewLabel).To(Equal(tracker.LabelDown))
		Expect(updates[0].Changed()).To(BeTrue())
	})

	It("should leave out projects without a usable status", func() {
		updates := tracker.PlanUpdates(projects, []tracker.ProjectStatus{{Name: "A", Err: errors.New("bad url")}})
		Expect(updates).To(BeEmpty())

		updates = tracker.PlanUpdates(projects, nil)
		Expect(updates).To(BeEmpty())
	})
})
