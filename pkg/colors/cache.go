// Package colors assigns each epic a Google Calendar event colour.
package colors

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FileName is the cache file kept in the gantta config directory.
const FileName = "epic_colors.json"

// maxColorID is the highest event colour id Google Calendar accepts.
const maxColorID = 11

type EpicState struct {
	ColorID      string    `json:"color_id"`
	ActiveTasks  int       `json:"active_tasks"`
	LastModified time.Time `json:"last_modified"`
}

type ColorCache struct {
	Path  string
	Epics map[string]*EpicState `json:"epics"`
	dirty bool
	now   func() time.Time
	log   *slog.Logger
}

// NewColorCache opens the cache at path, loading it when the file exists.
func NewColorCache(path string, log *slog.Logger) (*ColorCache, error) {
	cache := &ColorCache{
		Path:  path,
		Epics: make(map[string]*EpicState),
		now:   time.Now,
		log:   log,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cache.Load(); err != nil {
			return nil, err
		}
	}
	return cache, nil
}

func (c *ColorCache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&c.Epics); err != nil {
		return err
	}
	if c.Epics == nil {
		c.Epics = make(map[string]*EpicState)
	}
	return nil
}

func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		c.log.Error("could not create color cache directory", "error", err)
		return err
	}

	f, err := os.Create(c.Path)
	if err != nil {
		c.log.Error("could not create color cache file", "error", err)
		return err
	}
	defer f.Close()
	err = json.NewEncoder(f).Encode(c.Epics)
	if err == nil {
		c.dirty = false
	}
	return err
}

// GetColorID returns the colour id for an epic, assigning one on first use.
// Tasks without an epic get "" so the calendar default applies.
// active should be true when the task claiming the colour is not completed.
func (c *ColorCache) GetColorID(epic string, active bool) string {
	if epic == "" {
		return ""
	}

	if state, exists := c.Epics[epic]; exists {
		state.LastModified = c.now()
		if active {
			state.ActiveTasks++
		}
		c.dirty = true
		return state.ColorID
	}

	return c.assignColor(epic, active)
}

func (c *ColorCache) assignColor(epic string, active bool) string {
	state := &EpicState{LastModified: c.now()}
	if active {
		state.ActiveTasks = 1
	}

	used := make(map[string]bool)
	for _, s := range c.Epics {
		used[s.ColorID] = true
	}
	for i := 1; i <= maxColorID; i++ {
		id := strconv.Itoa(i)
		if !used[id] {
			state.ColorID = id
			c.Epics[epic] = state
			c.dirty = true
			return id
		}
	}

	// Every colour is taken: recycle the least recently used epic's.
	var oldest string
	var oldestTime time.Time
	for e, s := range c.Epics {
		if oldest == "" || s.LastModified.Before(oldestTime) {
			oldest, oldestTime = e, s.LastModified
		}
	}
	state.ColorID = c.Epics[oldest].ColorID
	delete(c.Epics, oldest)
	c.log.Debug("recycled epic color", "from", oldest, "to", epic, "color_id", state.ColorID)

	c.Epics[epic] = state
	c.dirty = true
	return state.ColorID
}
