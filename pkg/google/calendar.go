package google

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/gantta/pkg/colors"
	"github.com/harrisonrobin/gantta/pkg/index"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/util"
)

// CalendarClient pushes chart tasks to one Google calendar.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	colors     *colors.ColorCache
	log        *slog.Logger
}

// SyncOutcome says what SyncEvent did with a task.
type SyncOutcome string

const (
	Created   SyncOutcome = "created"
	Updated   SyncOutcome = "updated"
	Unchanged SyncOutcome = "unchanged"
)

// PushReport counts the result of a Push.
type PushReport struct {
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
	Failed    int
}

func (r PushReport) String() string {
	return fmt.Sprintf("%d created, %d updated, %d unchanged, %d deleted, %d failed",
		r.Created, r.Updated, r.Unchanged, r.Deleted, r.Failed)
}

// NewCalendarClient creates a client for calendarID. idx and cache may be nil.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex, cache *colors.ColorCache, log *slog.Logger) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx, colors: cache, log: log}
}

func (c *CalendarClient) colorFor(task model.Task) string {
	if c.colors == nil {
		return ""
	}
	return c.colors.GetColorID(task.EpicNumber, task.Status != model.StatusCompleted)
}

// SyncEvent creates a new event or updates an existing one.
func (c *CalendarClient) SyncEvent(ctx context.Context, task model.Task, today model.Date) (*calendar.Event, SyncOutcome, error) {
	event, err := util.ConvertTaskToCalendarEvent(task, c.colorFor(task), today)
	if err != nil {
		return nil, "", err
	}

	var existingEvent *calendar.Event
	// 1. Try local index first
	if c.index != nil {
		if eventID := c.index.Get(c.calendarID, task.ID); eventID != "" {
			existingEvent, err = c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			if err != nil || existingEvent.Status == "cancelled" {
				existingEvent = nil
			}
		}
	}

	// 2. Fallback to API search if not found in index or index failed
	if existingEvent == nil {
		existingEvent, err = c.GetEventByTaskID(ctx, task.ID)
		if err != nil {
			return nil, "", fmt.Errorf("error searching for event: %w", err)
		}
	}

	if existingEvent != nil {
		patch := util.EventNeedsUpdate(existingEvent, event)
		if patch == nil {
			c.remember(task.ID, existingEvent.Id)
			return existingEvent, Unchanged, nil
		}
		updatedEvent, err := c.PatchEvent(ctx, existingEvent.Id, patch)
		if err != nil {
			return nil, "", err
		}
		c.remember(task.ID, updatedEvent.Id)
		return updatedEvent, Updated, nil
	}

	createdEvent, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, "", err
	}
	c.remember(task.ID, createdEvent.Id)
	return createdEvent, Created, nil
}

func (c *CalendarClient) remember(taskID, eventID string) {
	if c.index != nil {
		c.index.Set(c.calendarID, taskID, eventID)
	}
}

// Push syncs every task and deletes the events of indexed tasks that are no
// longer in the list. Individual failures are logged and counted.
func (c *CalendarClient) Push(ctx context.Context, tasks []model.Task, today model.Date) (PushReport, error) {
	var report PushReport
	live := make(map[string]bool, len(tasks))

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		live[task.ID] = true
		_, outcome, err := c.SyncEvent(ctx, task, today)
		if err != nil {
			c.log.Warn("could not push task", "task", task.Name, "error", err)
			report.Failed++
			continue
		}
		switch outcome {
		case Created:
			report.Created++
		case Updated:
			report.Updated++
		default:
			report.Unchanged++
		}
	}

	if c.index != nil {
		for taskID, eventID := range c.index.Stale(c.calendarID, live) {
			if err := c.DeleteEvent(ctx, eventID); err != nil {
				c.log.Warn("could not delete event for removed task", "task_id", taskID, "event_id", eventID, "error", err)
				report.Failed++
				continue
			}
			c.index.Remove(c.calendarID, taskID)
			report.Deleted++
		}
		if err := c.index.Save(); err != nil {
			c.log.Warn("could not save event index", "error", err)
		}
	}
	if c.colors != nil {
		if err := c.colors.Save(); err != nil {
			c.log.Warn("could not save epic colors", "error", err)
		}
	}
	return report, nil
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// DeleteEvent deletes an event from the calendar.
func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

// GetEventByTaskID searches for an event with the given task id in extended properties.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", util.TaskIDProperty, taskID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	for _, e := range events.Items {
		if id, ok := util.TaskIDOf(e); ok && id == taskID {
			return e, nil
		}
	}
	return nil, nil
}
