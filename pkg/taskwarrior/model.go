// Package taskwarrior reads tasks from `task export` for chart import.
package taskwarrior

import (
	"fmt"
	"strings"
	"time"
)

// Status is the Taskwarrior lifecycle state of a task.
type Status string

const (
	Pending   Status = "pending"
	Completed Status = "completed"
	Waiting   Status = "waiting"
	Deleted   Status = "deleted"
	Recurring Status = "recurring"
)

// timestampLayout is Taskwarrior's compact UTC form, e.g. 20240108T120000Z.
const timestampLayout = "20060102T150405Z"

// Timestamp is a Taskwarrior date attribute.
type Timestamp struct {
	time.Time
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ts.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return fmt.Errorf("bad Taskwarrior timestamp %q: %w", s, err)
	}
	ts.Time = t
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ts.Format(timestampLayout) + `"`), nil
}

// set reports whether the attribute was present and non-empty.
func (ts *Timestamp) set() bool {
	return ts != nil && !ts.IsZero()
}

// Task holds the exported attributes that map onto a chart bar.
type Task struct {
	UUID        string     `json:"uuid"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Project     string     `json:"project,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Entry       *Timestamp `json:"entry,omitempty"`
	Scheduled   *Timestamp `json:"scheduled,omitempty"`
	Start       *Timestamp `json:"start,omitempty"`
	Due         *Timestamp `json:"due,omitempty"`
	End         *Timestamp `json:"end,omitempty"`
}
