package report

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout renders timestamps as DD-MM-YYYY HH:MM:SS.
const TimeLayout = "02-01-2006 15:04:05"

const (
	healthyMark   = "✅"
	unhealthyMark = "❌"
)

type Entry struct {
	Name    string
	Healthy bool
}

type Formatter struct {
	loc *time.Location
	now func() time.Time
}

func NewFormatter(loc *time.Location) *Formatter {
	return &Formatter{loc: loc, now: time.Now}
}

// WithClock returns a copy of f that reads the current time from now.
func (f *Formatter) WithClock(now func() time.Time) *Formatter {
	return &Formatter{loc: f.loc, now: now}
}

// Timestamp returns the current time in the formatter's zone.
func (f *Formatter) Timestamp() string {
	return f.now().In(f.loc).Format(TimeLayout)
}

// Summary renders a header line followed by one line per entry.
func (f *Formatter) Summary(entries []Entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Checked at: %s\n", f.Timestamp())
	for _, e := range entries {
		mark := unhealthyMark
		if e.Healthy {
			mark = healthyMark
		}
		fmt.Fprintf(&b, "%s: %s\n", e.Name, mark)
	}

	return b.String()
}

// Failure renders the alert sent when a run aborts.
func (f *Formatter) Failure(err error) string {
	return fmt.Sprintf("Error occurred while checking deployments at %s\n\n%v", f.Timestamp(), err)
}
