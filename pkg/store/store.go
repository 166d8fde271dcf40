// Package store holds the ordered task list, persists it after every
// mutation and records undo/redo snapshots.
package store

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/export"
	"github.com/harrisonrobin/gantta/pkg/history"
	"github.com/harrisonrobin/gantta/pkg/model"
)

// DefaultFile is the task file read at startup when no other path is configured.
const DefaultFile = "gantt_tasks.json"

// SortKey selects the ordering applied by Sort.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByStartDate SortKey = "start_date"
	SortByEndDate   SortKey = "end_date"
	SortByPriority  SortKey = "priority"
	SortByStatus    SortKey = "status"
)

// SortKeys lists the accepted sort keys in menu order.
var SortKeys = []SortKey{SortByName, SortByStartDate, SortByEndDate, SortByPriority, SortByStatus}

// ParseSortKey accepts the key names and their dashed or spaced spellings.
func ParseSortKey(s string) (SortKey, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s)))
	for _, k := range SortKeys {
		if norm == string(k) {
			return k, nil
		}
	}
	return "", errors.Validation("unknown sort key %q: must be one of name, start_date, end_date, priority, status", s)
}

// Label is the human form of the key, e.g. "start date".
func (k SortKey) Label() string {
	return strings.ReplaceAll(string(k), "_", " ")
}

// Store is the in-memory task sequence backed by a JSON file.
// It is not safe for concurrent use; a single owner drives every mutation.
type Store struct {
	path    string
	tasks   []model.Task
	history *history.Manager
	log     *slog.Logger
}

// New returns an empty store that persists to path.
func New(path string, log *slog.Logger) *Store {
	s := &Store{path: path, tasks: []model.Task{}, history: history.New(), log: log}
	s.snapshot()
	return s
}

// Open loads path when it exists. Invalid records are skipped and logged.
// A file that cannot be read or parsed leaves the store empty and returns a
// persistence error alongside the usable store.
func Open(path string, log *slog.Logger) (*Store, error) {
	s := &Store{path: path, tasks: []model.Task{}, history: history.New(), log: log}

	f, err := os.Open(path)
	if err != nil {
		s.snapshot()
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, errors.Wrap(errors.KindPersistence, err, "could not load tasks from %s", path)
	}
	defer f.Close()

	tasks, skipped, err := export.ReadJSON(f)
	if err != nil {
		s.snapshot()
		return s, errors.Wrap(errors.KindPersistence, err, "could not load tasks from %s", path)
	}
	for _, sk := range skipped {
		log.Warn("skipping invalid task record", "file", path, "record", sk.Record, "reason", sk.Reason)
	}

	assigned := false
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].EnsureID()
			assigned = true
		}
	}
	s.tasks = tasks
	s.snapshot()

	if assigned {
		if err := s.save(); err != nil {
			log.Warn("could not persist task ids", "file", path, "error", err)
		}
	}
	log.Debug("tasks loaded", "file", path, "count", len(tasks), "skipped", len(skipped))
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Len returns the number of tasks.
func (s *Store) Len() int { return len(s.tasks) }

// Tasks returns a copy of the task sequence.
func (s *Store) Tasks() []model.Task { return model.Clone(s.tasks) }

// Get returns the task at index.
func (s *Store) Get(index int) (model.Task, error) {
	if err := s.checkIndex(index); err != nil {
		return model.Task{}, err
	}
	return s.tasks[index], nil
}

// Add appends a validated task and returns its index.
func (s *Store) Add(t model.Task) (int, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return -1, err
	}
	t.EnsureID()
	s.tasks = append(s.tasks, t)
	return len(s.tasks) - 1, s.commit()
}

// Update replaces the task at index. The replaced task's id is kept when t has none.
func (s *Store) Update(index int, t model.Task) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = s.tasks[index].ID
	}
	t.EnsureID()
	s.tasks[index] = t
	return s.commit()
}

// Delete removes the task at index and returns it.
func (s *Store) Delete(index int) (model.Task, error) {
	if err := s.checkIndex(index); err != nil {
		return model.Task{}, err
	}
	removed := s.tasks[index]
	s.tasks = append(s.tasks[:index:index], s.tasks[index+1:]...)
	return removed, s.commit()
}

// Sort reorders the sequence in place. The sort is stable; priorities and
// statuses outside the known sets sort after every known value.
func (s *Store) Sort(key SortKey) error {
	var less func(a, b model.Task) bool
	switch key {
	case SortByName:
		less = func(a, b model.Task) bool { return a.Name < b.Name }
	case SortByStartDate:
		less = func(a, b model.Task) bool { return a.StartDate.Before(b.StartDate) }
	case SortByEndDate:
		less = func(a, b model.Task) bool { return a.EndDate.Before(b.EndDate) }
	case SortByPriority:
		less = func(a, b model.Task) bool { return model.PriorityRank(a.Priority) > model.PriorityRank(b.Priority) }
	case SortByStatus:
		less = func(a, b model.Task) bool { return model.StatusRank(a.Status) > model.StatusRank(b.Status) }
	default:
		return errors.Validation("unknown sort key %q", key)
	}
	sort.SliceStable(s.tasks, func(i, j int) bool { return less(s.tasks[i], s.tasks[j]) })
	return s.commit()
}

// Replace swaps in a whole new task list, as import and load-from-file do.
func (s *Store) Replace(tasks []model.Task) error {
	next := model.Clone(tasks)
	for i := range next {
		next[i].Normalize()
		if err := next[i].Validate(); err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
		next[i].EnsureID()
	}
	s.tasks = next
	return s.commit()
}

// Undo restores the previous snapshot. It reports false when there is nothing to undo.
func (s *Store) Undo() (bool, error) {
	tasks, ok, err := s.history.Undo()
	return s.restore(tasks, ok, err)
}

// Redo restores the next snapshot. It reports false when there is nothing to redo.
func (s *Store) Redo() (bool, error) {
	tasks, ok, err := s.history.Redo()
	return s.restore(tasks, ok, err)
}

func (s *Store) CanUndo() bool { return s.history.CanUndo() }

func (s *Store) CanRedo() bool { return s.history.CanRedo() }

// Save writes the current sequence to the backing file.
func (s *Store) Save() error {
	return s.save()
}

func (s *Store) restore(tasks []model.Task, ok bool, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	s.tasks = tasks
	return true, s.save()
}

// commit records a snapshot and persists. A failed write leaves the
// in-memory mutation in place.
func (s *Store) commit() error {
	s.snapshot()
	return s.save()
}

func (s *Store) snapshot() {
	if err := s.history.Snapshot(s.tasks); err != nil {
		s.log.Error("could not record history snapshot", "error", err)
	}
}

func (s *Store) checkIndex(index int) error {
	if index < 0 || index >= len(s.tasks) {
		return errors.New(errors.KindIndex, "task index %d out of range (have %d tasks)", index, len(s.tasks))
	}
	return nil
}

// save writes the whole sequence through a temp file and rename.
func (s *Store) save() error {
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, s.tasks); err != nil {
		return errors.Wrap(errors.KindPersistence, err, "could not encode tasks")
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.KindPersistence, err, "could not create directory for %s", s.path)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.KindPersistence, err, "could not auto-save tasks to %s", s.path)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(errors.KindPersistence, err, "could not auto-save tasks to %s", s.path)
	}
	return nil
}
