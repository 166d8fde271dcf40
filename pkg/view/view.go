// Package view derives the visible, filtered subset of the task list.
package view

import (
	"sort"
	"strings"

	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/model"
)

// AllEpics is the epic filter option that disables epic filtering.
const AllEpics = "All Epics"

// State is the filter selection applied to a render pass. Dates are kept as
// typed so that malformed text can be reported rather than lost.
type State struct {
	Epic string
	From string
	To   string
}

// Cleared reports whether no filter is set.
func (s State) Cleared() bool {
	return isAllEpics(s.Epic) && strings.TrimSpace(s.From) == "" && strings.TrimSpace(s.To) == ""
}

// Item is a visible task together with its position in the store.
type Item struct {
	Index int
	Task  model.Task
}

// Visible returns the tasks matching state, in store order.
//
// If either date bound cannot be parsed, both date bounds are ignored, the
// epic filter still applies, and a validation error is returned with the result.
func Visible(tasks []model.Task, state State) ([]Item, error) {
	from, to, dateErr := parseBounds(state)

	epic := strings.ToLower(strings.TrimSpace(state.Epic))
	filterEpic := !isAllEpics(state.Epic)

	items := make([]Item, 0, len(tasks))
	for i, t := range tasks {
		if filterEpic && !strings.Contains(strings.ToLower(t.EpicNumber), epic) {
			continue
		}
		if from != nil && t.EndDate.Before(*from) {
			continue
		}
		if to != nil && t.StartDate.After(*to) {
			continue
		}
		items = append(items, Item{Index: i, Task: t})
	}
	return items, dateErr
}

// Tasks strips the store positions from items.
func Tasks(items []Item) []model.Task {
	out := make([]model.Task, len(items))
	for i, it := range items {
		out[i] = it.Task
	}
	return out
}

// EpicOptions returns AllEpics followed by the sorted distinct non-empty epics.
func EpicOptions(tasks []model.Task) []string {
	seen := make(map[string]bool)
	var epics []string
	for _, t := range tasks {
		if t.EpicNumber != "" && !seen[t.EpicNumber] {
			seen[t.EpicNumber] = true
			epics = append(epics, t.EpicNumber)
		}
	}
	sort.Strings(epics)
	return append([]string{AllEpics}, epics...)
}

func isAllEpics(epic string) bool {
	e := strings.TrimSpace(epic)
	return e == "" || strings.EqualFold(e, AllEpics) || strings.EqualFold(e, "all")
}

func parseBounds(state State) (from, to *model.Date, err error) {
	fromText := strings.TrimSpace(state.From)
	toText := strings.TrimSpace(state.To)

	if fromText != "" {
		d, perr := model.ParseDate(fromText)
		if perr != nil {
			return nil, nil, errors.Wrap(errors.KindValidation, perr, "invalid filter date format, date filter cleared")
		}
		from = &d
	}
	if toText != "" {
		d, perr := model.ParseDate(toText)
		if perr != nil {
			return nil, nil, errors.Wrap(errors.KindValidation, perr, "invalid filter date format, date filter cleared")
		}
		to = &d
	}
	return from, to, nil
}
