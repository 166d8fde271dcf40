package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/gantta/pkg/colors"
	"github.com/harrisonrobin/gantta/pkg/index"
	"github.com/harrisonrobin/gantta/pkg/logging"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/util"
)

// fakeCalendar serves the subset of the events API the client uses.
type fakeCalendar struct {
	mu      sync.Mutex
	events  map[string]*calendar.Event
	nextID  int
	patches int
	deletes int
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/calendars/cal-1/events"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	eventID := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && eventID == "":
		want := r.URL.Query().Get("privateExtendedProperty")
		list := &calendar.Events{}
		for _, e := range f.events {
			if fmt.Sprintf("%s=%s", util.TaskIDProperty, e.ExtendedProperties.Private[util.TaskIDProperty]) == want {
				list.Items = append(list.Items, e)
			}
		}
		_ = json.NewEncoder(w).Encode(list)
	case r.Method == http.MethodPost && eventID == "":
		var e calendar.Event
		_ = json.NewDecoder(r.Body).Decode(&e)
		f.nextID++
		e.Id = fmt.Sprintf("evt%d", f.nextID)
		f.events[e.Id] = &e
		_ = json.NewEncoder(w).Encode(&e)
	case r.Method == http.MethodGet:
		e, ok := f.events[eventID]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(e)
	case r.Method == http.MethodPatch:
		var patch calendar.Event
		_ = json.NewDecoder(r.Body).Decode(&patch)
		e := f.events[eventID]
		if patch.Summary != "" {
			e.Summary = patch.Summary
		}
		if patch.Description != "" {
			e.Description = patch.Description
		}
		if patch.ColorId != "" {
			e.ColorId = patch.ColorId
		}
		if patch.Start != nil {
			e.Start, e.End = patch.Start, patch.End
		}
		f.patches++
		_ = json.NewEncoder(w).Encode(e)
	case r.Method == http.MethodDelete:
		delete(f.events, eventID)
		f.deletes++
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*CalendarClient, *fakeCalendar, *index.EventIndex) {
	t.Helper()
	fake := &fakeCalendar{events: map[string]*calendar.Event{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := calendar.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	dir := t.TempDir()
	idx, err := index.NewEventIndex(filepath.Join(dir, index.FileName))
	require.NoError(t, err)
	cache, err := colors.NewColorCache(filepath.Join(dir, colors.FileName), logging.Discard())
	require.NoError(t, err)

	return NewCalendarClient(svc, "cal-1", idx, cache, logging.Discard()), fake, idx
}

func chartTask(id, name string) model.Task {
	return model.Task{
		ID:         id,
		Name:       name,
		EpicNumber: "E1",
		StartDate:  model.NewDate(2024, time.May, 6),
		EndDate:    model.NewDate(2024, time.May, 8),
		Priority:   model.PriorityMedium,
		Status:     model.StatusNotStarted,
	}
}

func TestPushCreatesUpdatesAndDeletes(t *testing.T) {
	client, fake, idx := newTestClient(t)
	ctx := context.Background()
	today := model.NewDate(2024, time.May, 1)

	a, b := chartTask("aaa-1", "Alpha"), chartTask("bbb-2", "Beta")
	report, err := client.Push(ctx, []model.Task{a, b}, today)
	require.NoError(t, err)
	assert.Equal(t, PushReport{Created: 2}, report)
	assert.Equal(t, 2, idx.Len("cal-1"))

	created := fake.events[idx.Get("cal-1", "aaa-1")]
	require.NotNil(t, created)
	assert.Equal(t, "2024-05-09", created.End.Date)
	assert.Equal(t, "1", created.ColorId)

	report, err = client.Push(ctx, []model.Task{a, b}, today)
	require.NoError(t, err)
	assert.Equal(t, PushReport{Unchanged: 2}, report)

	a.Name = "Alpha renamed"
	report, err = client.Push(ctx, []model.Task{a}, today)
	require.NoError(t, err)
	assert.Equal(t, PushReport{Updated: 1, Deleted: 1}, report)
	assert.Equal(t, 1, fake.patches)
	assert.Equal(t, 1, fake.deletes)
	assert.Equal(t, "Alpha renamed", fake.events[idx.Get("cal-1", "aaa-1")].Summary)
	assert.Empty(t, idx.Get("cal-1", "bbb-2"))
}

func TestSyncEventFindsEventWithoutIndex(t *testing.T) {
	client, fake, idx := newTestClient(t)
	ctx := context.Background()
	today := model.NewDate(2024, time.May, 1)
	task := chartTask("ccc-3", "Gamma")

	_, outcome, err := client.SyncEvent(ctx, task, today)
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)

	idx.Remove("cal-1", "ccc-3")
	_, outcome, err = client.SyncEvent(ctx, task, today)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
	assert.Len(t, fake.events, 1)
	assert.NotEmpty(t, idx.Get("cal-1", "ccc-3"))
}
