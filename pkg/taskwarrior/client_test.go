package taskwarrior

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/gantta/pkg/model"
)

func TestDecodeArray(t *testing.T) {
	input := `[
		{
			"uuid": "f45a05b3-c12e-42e5-9c9c-333333333333",
			"description": "Write release notes",
			"status": "pending",
			"due": "20230101T120000Z",
			"project": "E7",
			"priority": "H",
			"tags": ["docs", "milestone"],
			"annotations": [{"entry": "20230101T120500Z", "description": "ignored"}]
		}
	]`

	tasks, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}

	task := tasks[0]
	if task.UUID != "f45a05b3-c12e-42e5-9c9c-333333333333" {
		t.Errorf("Expected UUID f45a05b3-c12e-42e5-9c9c-333333333333, got %s", task.UUID)
	}
	if task.Status != Pending {
		t.Errorf("Expected status pending, got %s", task.Status)
	}
	if task.Project != "E7" {
		t.Errorf("Expected Project 'E7', got '%s'", task.Project)
	}
	if len(task.Tags) != 2 {
		t.Errorf("Expected 2 tags, got %d", len(task.Tags))
	}
	expectedDue, _ := time.Parse(time.RFC3339, "2023-01-01T12:00:00Z")
	if !task.Due.Time.Equal(expectedDue) {
		t.Errorf("Expected Due %v, got %v", expectedDue, task.Due.Time)
	}
	if task.Scheduled.set() {
		t.Errorf("Expected no scheduled date, got %v", task.Scheduled)
	}
}

func TestDecodeEmptyAndMalformed(t *testing.T) {
	tasks, err := Decode(strings.NewReader("  \n"))
	if err != nil || len(tasks) != 0 {
		t.Errorf("Expected no tasks and no error, got %v, %v", tasks, err)
	}

	if _, err := Decode(strings.NewReader(`[{"uuid": "a", "due": "tomorrow"}]`)); err == nil {
		t.Error("Expected error for a bad timestamp")
	}
	if _, err := Decode(strings.NewReader(`{"uuid": "a"} {"uuid":`)); err == nil {
		t.Error("Expected error for a truncated stream")
	}
}

func TestGetTasksMissingBinary(t *testing.T) {
	c := &Client{Binary: "gantta-no-such-taskwarrior"}
	if _, err := c.GetTasks(context.Background(), nil); err == nil {
		t.Error("Expected error when the binary is missing")
	}
}

func TestToTasks(t *testing.T) {
	input := `
{"uuid":"a","description":"Design","status":"pending","project":"E1","priority":"H","scheduled":"20240108T120000Z","due":"20240112T120000Z","start":"20240108T130000Z"}
{"uuid":"b","description":"Launch","status":"completed","tags":["milestone"],"due":"20240119T120000Z"}
{"uuid":"c","description":"Gone","status":"deleted","due":"20240119T120000Z"}
{"uuid":"d","description":"Someday","status":"pending"}
{"uuid":"e","description":"Backwards","status":"waiting","scheduled":"20240120T120000Z","due":"20240115T120000Z"}
{"uuid":"f","description":"Weekly sync","status":"recurring","due":"20240115T120000Z"}`

	tws, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	tasks, skipped := ToTasks(tws)
	if len(tasks) != 3 {
		t.Fatalf("Expected 3 tasks, got %d", len(tasks))
	}
	if len(skipped) != 3 {
		t.Errorf("Expected 3 skipped tasks, got %v", skipped)
	}

	design := tasks[0]
	if design.EpicNumber != "E1" || design.Priority != model.PriorityHigh || design.Status != model.StatusInProgress {
		t.Errorf("Expected E1/High/In Progress, got %s/%s/%s", design.EpicNumber, design.Priority, design.Status)
	}
	if design.StartDate.String() != "2024-01-08" || design.EndDate.String() != "2024-01-12" {
		t.Errorf("Expected 2024-01-08..2024-01-12, got %s..%s", design.StartDate, design.EndDate)
	}

	launch := tasks[1]
	if !launch.IsMilestone || launch.Status != model.StatusCompleted {
		t.Errorf("Expected completed milestone, got %+v", launch)
	}
	if !launch.StartDate.Equal(launch.EndDate) {
		t.Errorf("Expected single-day task, got %s..%s", launch.StartDate, launch.EndDate)
	}

	backwards := tasks[2]
	if backwards.Status != model.StatusBlocked || !backwards.EndDate.Equal(backwards.StartDate) {
		t.Errorf("Expected blocked task clamped to its start, got %+v", backwards)
	}
	if backwards.Priority != model.PriorityMedium {
		t.Errorf("Expected default priority Medium, got %s", backwards.Priority)
	}
}
