// Package overdue finds unfinished tasks past their end date and remembers
// which ones were already reported.
package overdue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/util"
)

// FileName is the table file kept in the gantta config directory.
const FileName = "overdue.json"

type Entry struct {
	TaskID   string     `json:"task_id"`
	Index    int        `json:"-"`
	Name     string     `json:"name"`
	EndDate  model.Date `json:"end_date"`
	DaysLate int        `json:"days_late"`
}

// Find returns the overdue tasks, most overdue first. Index is the task's
// position in tasks.
func Find(tasks []model.Task, today model.Date) []Entry {
	var entries []Entry
	for i, t := range tasks {
		if !util.IsOverdue(t, today) {
			continue
		}
		entries = append(entries, Entry{
			TaskID:   t.ID,
			Index:    i,
			Name:     t.Name,
			EndDate:  t.EndDate,
			DaysLate: int(today.Sub(t.EndDate.Time).Hours() / 24),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].DaysLate > entries[j].DaysLate })
	return entries
}

type Table struct {
	Entries map[string]Entry `json:"entries"`
	Path    string           `json:"-"`
	dirty   bool
}

// NewTable opens the table at path, loading it when the file exists.
func NewTable(path string) (*Table, error) {
	t := &Table{
		Path:    path,
		Entries: make(map[string]Entry),
	}

	if _, err := os.Stat(path); err == nil {
		if err := t.Load(); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Table) Load() error {
	f, err := os.Open(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(t); err != nil {
		return err
	}
	if t.Entries == nil {
		t.Entries = make(map[string]Entry)
	}
	return nil
}

func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.Path), 0700); err != nil {
		return err
	}

	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(t)
	if err == nil {
		t.dirty = false
	}
	return err
}

// Sweep computes the overdue set for today, returning all of it and the
// entries not seen by the previous sweep. Tasks no longer overdue are dropped.
func (t *Table) Sweep(tasks []model.Task, today model.Date) (all, fresh []Entry) {
	all = Find(tasks, today)
	current := make(map[string]Entry, len(all))
	for _, e := range all {
		if e.TaskID == "" {
			continue
		}
		current[e.TaskID] = e
		if _, seen := t.Entries[e.TaskID]; !seen {
			fresh = append(fresh, e)
		}
	}

	if len(current) != len(t.Entries) || len(fresh) > 0 {
		t.dirty = true
	}
	for id, e := range current {
		if old, ok := t.Entries[id]; ok && old.DaysLate != e.DaysLate {
			t.dirty = true
		}
	}
	t.Entries = current
	return all, fresh
}
