// Package orgmode imports chart tasks from Org-mode TODO headlines.
package orgmode

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/harrisonrobin/gantta/pkg/model"
)

// Skipped is a headline that could not become a task.
type Skipped struct {
	Line   int
	Reason string
}

var (
	headlineRegex  = regexp.MustCompile(`^\*+\s+(TODO|NEXT|WAITING|DONE)\s*(?:\[#([A-Z])\])?\s*(.*?)(?:\s+(:(?:[\w@-]+:)+))?\s*$`)
	scheduledRegex = regexp.MustCompile(`SCHEDULED:\s+<(\d{4}-\d{2}-\d{2})[^>]*>`)
	deadlineRegex  = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})[^>]*>`)
	idRegex        = regexp.MustCompile(`:ID:\s+([a-fA-F0-9-]+)`)
)

// MilestoneTag marks a headline as a chart milestone.
const MilestoneTag = "milestone"

type entry struct {
	line      int
	task      model.Task
	scheduled string
	deadline  string
}

// Parse reads TODO, NEXT, WAITING and DONE headlines. The first tag other
// than "milestone" becomes the epic; [#A]/[#B]/[#C] map to High/Medium/Low.
// SCHEDULED is the start and DEADLINE the end; either one alone gives a
// single-day task. Headlines with neither are skipped.
func Parse(r io.Reader) ([]model.Task, []Skipped, error) {
	scanner := bufio.NewScanner(r)
	tasks := []model.Task{}
	var skipped []Skipped
	var current *entry

	flush := func() {
		if current == nil {
			return
		}
		t, err := current.build()
		if err != nil {
			skipped = append(skipped, Skipped{Line: current.line, Reason: err.Error()})
		} else {
			tasks = append(tasks, t)
		}
		current = nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(raw, "*") {
			flush()
			if matches := headlineRegex.FindStringSubmatch(line); matches != nil {
				current = newEntry(lineNo, matches)
			}
			continue
		}
		if current == nil {
			continue
		}
		if m := scheduledRegex.FindStringSubmatch(line); m != nil {
			current.scheduled = m[1]
		}
		if m := deadlineRegex.FindStringSubmatch(line); m != nil {
			current.deadline = m[1]
		}
		if m := idRegex.FindStringSubmatch(line); m != nil {
			current.task.ID = strings.ToLower(m[1])
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return tasks, skipped, nil
}

func newEntry(line int, matches []string) *entry {
	e := &entry{line: line}
	e.task.Name = strings.TrimSpace(matches[3])
	switch matches[1] {
	case "DONE":
		e.task.Status = model.StatusCompleted
	case "NEXT":
		e.task.Status = model.StatusInProgress
	case "WAITING":
		e.task.Status = model.StatusBlocked
	default:
		e.task.Status = model.StatusNotStarted
	}
	switch matches[2] {
	case "A":
		e.task.Priority = model.PriorityHigh
	case "B":
		e.task.Priority = model.PriorityMedium
	case "C":
		e.task.Priority = model.PriorityLow
	}
	if matches[4] != "" {
		tags := strings.Split(strings.Trim(matches[4], ":"), ":")
		e.task.IsMilestone = slices.Contains(tags, MilestoneTag)
		for _, tag := range tags {
			if tag != MilestoneTag {
				e.task.EpicNumber = tag
				break
			}
		}
	}
	return e
}

func (e *entry) build() (model.Task, error) {
	startText, endText := e.scheduled, e.deadline
	if startText == "" {
		startText = endText
	}
	if endText == "" {
		endText = startText
	}
	if startText == "" {
		return model.Task{}, fmt.Errorf("%q has no SCHEDULED or DEADLINE date", e.task.Name)
	}

	t := e.task
	var err error
	if t.StartDate, err = model.ParseDate(startText); err != nil {
		return model.Task{}, err
	}
	if t.EndDate, err = model.ParseDate(endText); err != nil {
		return model.Task{}, err
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return model.Task{}, err
	}
	return t, nil
}
