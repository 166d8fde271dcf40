// Package util converts chart tasks to Google Calendar events.
package util

import (
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/gantta/pkg/model"
)

// TaskIDProperty is the private extended property carrying the task id.
const TaskIDProperty = "gantta_id"

const (
	prefixMilestone = "◆"
	prefixCompleted = "✓"
	prefixOverdue   = "!"
)

var taskIDLine = regexp.MustCompile(`ID: ([a-f0-9\-]+)`)

// IsOverdue reports whether an unfinished task ended before today.
func IsOverdue(task model.Task, today model.Date) bool {
	return task.Status != model.StatusCompleted && task.EndDate.Before(today)
}

// EventNeedsUpdate returns a patch event if the fields gantta manages differ
// between the existing event and the newly converted target.
func EventNeedsUpdate(existingEvent *calendar.Event, targetEvent *calendar.Event) *calendar.Event {
	patch := &calendar.Event{}
	needsUpdate := false

	if existingEvent.Summary != targetEvent.Summary {
		patch.Summary = targetEvent.Summary
		needsUpdate = true
	}

	if existingEvent.Description != targetEvent.Description {
		patch.Description = targetEvent.Description
		needsUpdate = true
	}

	if existingEvent.ColorId != targetEvent.ColorId {
		patch.ColorId = targetEvent.ColorId
		needsUpdate = true
	}

	if eventDate(existingEvent.Start) != targetEvent.Start.Date || eventDate(existingEvent.End) != targetEvent.End.Date {
		patch.Start = targetEvent.Start
		patch.End = targetEvent.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

// eventDate returns the all-day date of t, or "" for timed or missing values.
func eventDate(t *calendar.EventDateTime) string {
	if t == nil {
		return ""
	}
	return t.Date
}

// ConvertTaskToCalendarEvent builds an all-day event spanning the task's
// inclusive date range. colorID may be empty to use the calendar default.
func ConvertTaskToCalendarEvent(task model.Task, colorID string, today model.Date) (*calendar.Event, error) {
	if task.ID == "" {
		return nil, fmt.Errorf("task %q has no id", task.Name)
	}
	if task.StartDate.IsZero() || task.EndDate.IsZero() {
		return nil, fmt.Errorf("task %q has no dates", task.Name)
	}

	var parts []string
	if task.IsMilestone {
		parts = append(parts, prefixMilestone)
	}
	overdue := IsOverdue(task, today)
	if task.Status == model.StatusCompleted {
		parts = append(parts, prefixCompleted)
	} else if overdue {
		parts = append(parts, prefixOverdue)
	}
	parts = append(parts, task.Name)

	var descBuilder strings.Builder
	if task.EpicNumber != "" {
		descBuilder.WriteString(fmt.Sprintf("#%s\n\n", task.EpicNumber))
	}
	descBuilder.WriteString(fmt.Sprintf("Status: %s\n", task.Status))
	descBuilder.WriteString(fmt.Sprintf("Priority: %s\n", task.Priority))
	if task.EpicNumber != "" {
		descBuilder.WriteString(fmt.Sprintf("Epic: %s\n", task.EpicNumber))
	}
	descBuilder.WriteString(fmt.Sprintf("ID: %s\n", task.ID))

	days := int(task.EndDate.Sub(task.StartDate.Time).Hours()/24) + 1
	descBuilder.WriteString("\nSchedule:\n")
	descBuilder.WriteString(fmt.Sprintf("• %s → %s (%d days)\n", task.StartDate, task.EndDate, days))
	if overdue {
		late := int(today.Sub(task.EndDate.Time).Hours() / 24)
		descBuilder.WriteString(fmt.Sprintf("• overdue by: %d days\n", late))
	}

	event := &calendar.Event{
		Summary: strings.Join(parts, " "),
		ColorId: colorID,
		Start: &calendar.EventDateTime{
			Date: task.StartDate.String(),
		},
		// All-day event ends are exclusive.
		End: &calendar.EventDateTime{
			Date: task.EndDate.AddDays(1).String(),
		},
		Description: descBuilder.String(),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				TaskIDProperty: task.ID,
			},
		},
	}

	return event, nil
}

// GetTaskIDFromEventDescription parses the task ID from the event description.
func GetTaskIDFromEventDescription(description string) (string, bool) {
	matches := taskIDLine.FindStringSubmatch(description)
	if len(matches) > 1 {
		return matches[1], true
	}
	return "", false
}

// TaskIDOf returns the task id an event was created for, preferring the
// extended property over the description.
func TaskIDOf(event *calendar.Event) (string, bool) {
	if event.ExtendedProperties != nil {
		if id := event.ExtendedProperties.Private[TaskIDProperty]; id != "" {
			return id, true
		}
	}
	return GetTaskIDFromEventDescription(event.Description)
}
