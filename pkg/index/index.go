// Package index remembers which calendar event each task was pushed to.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the index file kept in the gantta config directory.
const FileName = "events.json"

// EventIndex maps task ids to event ids separately for every calendar, so
// pushing the same list to a second calendar creates its own events.
type EventIndex struct {
	path      string
	mu        sync.RWMutex
	calendars map[string]map[string]string
	dirty     bool
}

type file struct {
	Calendars map[string]map[string]string `json:"calendars"`
}

// NewEventIndex opens the index at path; a missing file is an empty index.
func NewEventIndex(path string) (*EventIndex, error) {
	idx := &EventIndex{path: path, calendars: map[string]map[string]string{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("malformed event index %s: %w", path, err)
	}
	for cal, m := range f.Calendars {
		if len(m) > 0 {
			idx.calendars[cal] = m
		}
	}
	return idx, nil
}

// Save writes the index if anything changed since it was opened or saved.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(idx.path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(file{Calendars: idx.calendars}, "", "  ")
	if err != nil {
		return err
	}
	tmp := idx.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, idx.path); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

// Get returns the event id of taskID in calendarID, or "".
func (idx *EventIndex) Get(calendarID, taskID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.calendars[calendarID][taskID]
}

func (idx *EventIndex) Set(calendarID, taskID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	m := idx.calendars[calendarID]
	if m == nil {
		m = map[string]string{}
		idx.calendars[calendarID] = m
	}
	if m[taskID] != eventID {
		m[taskID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(calendarID, taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	m := idx.calendars[calendarID]
	if _, ok := m[taskID]; !ok {
		return
	}
	delete(m, taskID)
	if len(m) == 0 {
		delete(idx.calendars, calendarID)
	}
	idx.dirty = true
}

// Stale returns the tasks indexed for calendarID that are not in live,
// mapped to their event ids.
func (idx *EventIndex) Stale(calendarID string, live map[string]bool) map[string]string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := map[string]string{}
	for taskID, eventID := range idx.calendars[calendarID] {
		if !live[taskID] {
			out[taskID] = eventID
		}
	}
	return out
}

// Len counts the mappings of one calendar.
func (idx *EventIndex) Len(calendarID string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.calendars[calendarID])
}
