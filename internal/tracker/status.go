package tracker

import "github.com/angeloszaimis/deploy-tracker/internal/notion"

const (
	LabelHealthy = "Healthy"
	LabelDown    = "Down"
)

// ProjectStatus is the per-project outcome of a probe. Err is set when the
// project could not be probed at all; Healthy is meaningless in that case.
type ProjectStatus struct {
	Name    string
	Healthy bool
	Err     error
}

// StatusUpdate pairs a stored label with the freshly computed one.
type StatusUpdate struct {
	Name     string
	OldLabel string
	NewLabel string
	RecordID string
}

func (u StatusUpdate) Changed() bool {
	return u.OldLabel != u.NewLabel
}

func labelFor(healthy bool) string {
	if healthy {
		return LabelHealthy
	}
	return LabelDown
}

// PlanUpdates joins projects with their statuses by name. Projects without a
// usable status are left out. When two projects share a name, the last status
// for that name is applied to both records.
func PlanUpdates(projects []notion.Project, statuses []ProjectStatus) []StatusUpdate {
	byName := make(map[string]ProjectStatus, len(statuses))
	for _, s := range statuses {
		if s.Err != nil {
			continue
		}
		byName[s.Name] = s
	}

	var updates []StatusUpdate
	for _, p := range projects {
		s, ok := byName[p.Name]
		if !ok {
			continue
		}
		updates = append(updates, StatusUpdate{
			Name:     p.Name,
			OldLabel: p.StatusLabel,
			NewLabel: labelFor(s.Healthy),
			RecordID: p.RecordID,
		})
	}

	return updates
}
