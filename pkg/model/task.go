package model

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/harrisonrobin/gantta/pkg/errors"
)

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Priorities lists the known priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Status is the progress state of a task.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusBlocked    Status = "Blocked"
)

// Statuses lists the known statuses in entry-form order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted, StatusBlocked}

// DefaultColor is the bar color used when none is chosen.
const DefaultColor = "#000000"

var colorPattern = regexp.MustCompile(`^#([0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)

// Task is one unit of schedulable work on the chart.
type Task struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	EpicNumber  string   `json:"epic_number"`
	StartDate   Date     `json:"start_date"`
	EndDate     Date     `json:"end_date"`
	Color       string   `json:"color"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	IsMilestone bool     `json:"is_milestone"`
}

// Normalize trims text fields and fills blank color, priority and status with defaults.
func (t *Task) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.EpicNumber = strings.TrimSpace(t.EpicNumber)
	t.Color = strings.TrimSpace(t.Color)
	if t.Color == "" {
		t.Color = DefaultColor
	}
	if strings.TrimSpace(string(t.Priority)) == "" {
		t.Priority = PriorityMedium
	}
	if strings.TrimSpace(string(t.Status)) == "" {
		t.Status = StatusNotStarted
	}
}

// Validate checks the fields every stored task must satisfy.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.Validation("task name is required")
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return errors.Validation("start date and end date are required")
	}
	if t.StartDate.After(t.EndDate) {
		return errors.Validation("end date %s cannot be before start date %s", t.EndDate, t.StartDate)
	}
	if t.Color != "" && !colorPattern.MatchString(t.Color) {
		return errors.Validation("color %q must be #RRGGBB", t.Color)
	}
	return nil
}

// EnsureID assigns a fresh id when the task has none.
func (t *Task) EnsureID() {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
}

// Occupies reports whether the task's interval intersects [from, to], both inclusive.
func (t Task) Occupies(from, to Date) bool {
	return !t.EndDate.Before(from) && !t.StartDate.After(to)
}

// PriorityRank orders priorities Critical > High > Medium > Low; unknown values rank 0.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// StatusRank orders statuses Completed > In Progress > Not Started > Blocked; unknown values rank 0.
func StatusRank(s Status) int {
	switch s {
	case StatusCompleted:
		return 4
	case StatusInProgress:
		return 3
	case StatusNotStarted:
		return 2
	case StatusBlocked:
		return 1
	}
	return 0
}

// ParsePriority matches s case-insensitively against the known priorities.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", errors.Validation("invalid priority %q: must be Low, Medium, High or Critical", s)
}

// ParseStatus matches s case-insensitively against the known statuses.
// Dashes and underscores are accepted in place of spaces.
func ParseStatus(s string) (Status, error) {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(s))
	for _, st := range Statuses {
		if strings.EqualFold(norm, string(st)) {
			return st, nil
		}
	}
	return "", errors.Validation("invalid status %q: must be Not Started, In Progress, Completed or Blocked", s)
}

// Detail is the multi-line hover text for a task bar.
func (t Task) Detail() string {
	epic := t.EpicNumber
	if epic == "" {
		epic = "N/A"
	}
	var b strings.Builder
	b.WriteString("Task: " + t.Name + "\n")
	b.WriteString("Epic: " + epic + "\n")
	b.WriteString("Start: " + t.StartDate.String() + "\n")
	b.WriteString("End: " + t.EndDate.String() + "\n")
	b.WriteString("Priority: " + string(t.Priority) + "\n")
	b.WriteString("Status: " + string(t.Status))
	return b.String()
}

// Clone returns a copy of tasks that shares no backing array with the input.
func Clone(tasks []Task) []Task {
	if tasks == nil {
		return []Task{}
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}
