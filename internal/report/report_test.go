package report_test

import (
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/deploy-tracker/internal/report"
)

var _ = Describe("Formatter", func() {
	var f *report.Formatter

	BeforeEach(func() {
		ist := time.FixedZone("", 5*3600+30*60)
		fixed := time.Date(2024, time.March, 9, 20, 45, 7, 0, time.UTC)
		f = report.NewFormatter(ist).WithClock(func() time.Time { return fixed })
	})

	It("should render the timestamp in UTC+5:30", func() {
		Expect(f.Timestamp()).To(Equal("10-03-2024 02:15:07"))
	})

	It("should render one line per project after the header", func() {
		out := f.Summary([]report.Entry{
			{Name: "X", Healthy: true},
			{Name: "Y", Healthy: false},
		})

		lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
		Expect(lines).To(Equal([]string{
			"Checked at: 10-03-2024 02:15:07",
			"X: ✅",
			"Y: ❌",
		}))
	})

	It("should render only the header without entries", func() {
		Expect(f.Summary(nil)).To(Equal("Checked at: 10-03-2024 02:15:07\n"))
	})

	It("should render failures with the error text", func() {
		out := f.Failure(errors.New("notion: unauthorized (401): API token is invalid."))
		Expect(out).To(Equal("Error occurred while checking deployments at 10-03-2024 02:15:07\n\nnotion: unauthorized (401): API token is invalid."))
	})
})
