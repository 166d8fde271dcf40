// Package history keeps a linear undo/redo log of task list snapshots.
package history

import (
	"encoding/json"
	"fmt"

	"github.com/harrisonrobin/gantta/pkg/model"
)

// Manager holds serialized snapshots and a cursor into them.
// The cursor is -1 until the first snapshot and a valid index afterwards.
type Manager struct {
	entries [][]byte
	cursor  int
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{cursor: -1}
}

// Snapshot drops every entry after the cursor, appends a serialized copy of
// tasks, and moves the cursor onto it.
func (m *Manager) Snapshot(tasks []model.Task) error {
	data, err := json.Marshal(model.Clone(tasks))
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	m.entries = append(m.entries[:m.cursor+1], data)
	m.cursor = len(m.entries) - 1
	return nil
}

// Undo steps the cursor back and returns that snapshot.
// It returns false when there is nothing to undo.
func (m *Manager) Undo() ([]model.Task, bool, error) {
	if !m.CanUndo() {
		return nil, false, nil
	}
	m.cursor--
	tasks, err := m.decode(m.cursor)
	return tasks, true, err
}

// Redo steps the cursor forward and returns that snapshot.
// It returns false when there is nothing to redo.
func (m *Manager) Redo() ([]model.Task, bool, error) {
	if !m.CanRedo() {
		return nil, false, nil
	}
	m.cursor++
	tasks, err := m.decode(m.cursor)
	return tasks, true, err
}

func (m *Manager) CanUndo() bool { return m.cursor > 0 }

func (m *Manager) CanRedo() bool { return m.cursor < len(m.entries)-1 }

// Len returns the number of stored snapshots.
func (m *Manager) Len() int { return len(m.entries) }

// Cursor returns the index of the current snapshot, or -1 when empty.
func (m *Manager) Cursor() int { return m.cursor }

func (m *Manager) decode(i int) ([]model.Task, error) {
	var tasks []model.Task
	if err := json.Unmarshal(m.entries[i], &tasks); err != nil {
		return nil, fmt.Errorf("failed to restore snapshot %d: %w", i, err)
	}
	return model.Clone(tasks), nil
}
