package taskwarrior

import (
	"fmt"
	"slices"

	"github.com/harrisonrobin/gantta/pkg/model"
)

// MilestoneTag marks a Taskwarrior task as a chart milestone.
const MilestoneTag = "milestone"

// ToTask converts a Taskwarrior task to a chart task. The bar starts at the
// first of scheduled, start, entry or due and ends at due, end or the start.
func ToTask(tw Task) (model.Task, error) {
	if tw.Status == Deleted || tw.Status == Recurring {
		return model.Task{}, fmt.Errorf("task %s is %s", tw.UUID, tw.Status)
	}

	start := firstDate(tw.Scheduled, tw.Start, tw.Entry, tw.Due)
	end := firstDate(tw.Due, tw.End)
	if start.IsZero() {
		return model.Task{}, fmt.Errorf("task %s has no dates", tw.UUID)
	}
	if end.IsZero() || end.Before(start) {
		end = start
	}

	t := model.Task{
		Name:        tw.Description,
		EpicNumber:  tw.Project,
		StartDate:   start,
		EndDate:     end,
		Priority:    priority(tw.Priority),
		Status:      status(tw),
		IsMilestone: slices.Contains(tw.Tags, MilestoneTag),
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", tw.UUID, err)
	}
	return t, nil
}

// ToTasks converts a whole export, returning the reasons for skipped tasks.
func ToTasks(tws []Task) ([]model.Task, []string) {
	tasks := []model.Task{}
	var skipped []string
	for _, tw := range tws {
		t, err := ToTask(tw)
		if err != nil {
			skipped = append(skipped, err.Error())
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, skipped
}

func firstDate(times ...*Timestamp) model.Date {
	for _, ct := range times {
		if ct.set() {
			return model.DateOf(ct.Local())
		}
	}
	return model.Date{}
}

func priority(p string) model.Priority {
	switch p {
	case "H":
		return model.PriorityHigh
	case "M":
		return model.PriorityMedium
	case "L":
		return model.PriorityLow
	}
	return ""
}

func status(tw Task) model.Status {
	switch {
	case tw.Status == Completed:
		return model.StatusCompleted
	case tw.Status == Waiting:
		return model.StatusBlocked
	case tw.Start.set():
		return model.StatusInProgress
	}
	return model.StatusNotStarted
}
