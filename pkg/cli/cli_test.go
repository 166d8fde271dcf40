package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/harrisonrobin/gantta/pkg/assist"
	"github.com/harrisonrobin/gantta/pkg/config"
	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/export"
	"github.com/harrisonrobin/gantta/pkg/logging"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/store"
)

type cannedGenerator string

func (g cannedGenerator) Generate(context.Context, string) (string, error) {
	return string(g), nil
}

type harness struct {
	t     *testing.T
	dir   string
	tasks string
	gen   assist.Generator
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv(config.APIKeyEnv, "")
	return &harness{t: t, dir: dir, tasks: filepath.Join(dir, "tasks.json")}
}

func (h *harness) run(args ...string) (stdout, stderr string, err error) {
	a := &app{
		today:       func() model.Date { return model.NewDate(2024, 1, 10) },
		interactive: func() bool { return false },
		generator: func(context.Context, *config.Config) (assist.Generator, error) {
			return h.gen, nil
		},
	}
	root := newRootCmd(a)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", filepath.Join(h.dir, "config.yaml"), "--file", h.tasks}, args...))
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, stderr, err := h.run(args...)
	require.NoError(h.t, err, "stderr: %s", stderr)
	return out
}

func (h *harness) stored() []model.Task {
	h.t.Helper()
	st, err := store.Open(h.tasks, logging.Discard())
	require.NoError(h.t, err)
	return st.Tasks()
}

func (h *harness) seed() {
	h.mustRun("add", "--name", "Design", "--epic", "E1", "--start", "2024-01-01", "--end", "2024-01-05", "--priority", "low")
	h.mustRun("add", "--name", "Build", "--epic", "E2", "--start", "2024-01-08", "--end", "2024-01-19", "--priority", "critical", "--color", "#336699")
	h.mustRun("add", "--name", "Launch", "--epic", "E2", "--start", "2024-01-22", "--end", "2024-01-22", "--milestone")
}

func TestAddAndList(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("add", "--name", "Design", "--epic", "E1", "--start", "2024-01-01", "--end", "2024-01-05")
	assert.Equal(t, "Task 'Design' added at index 0.\n", out)

	h.mustRun("add", "--name", "Launch", "--start", "2024-01-22", "--end", "2024-01-22", "--milestone", "--status", "in-progress")
	tasks := h.stored()
	require.Len(t, tasks, 2)
	assert.Equal(t, model.StatusInProgress, tasks[1].Status)
	assert.Equal(t, model.PriorityMedium, tasks[1].Priority)
	assert.Equal(t, model.DefaultColor, tasks[1].Color)
	assert.True(t, tasks[1].IsMilestone)
	assert.NotEmpty(t, tasks[1].ID)

	out = h.mustRun("list")
	assert.Contains(t, out, "Design")
	assert.Contains(t, out, "2024-01-22")
	assert.Contains(t, out, "◆")

	out = h.mustRun("list", "--epic", "e1")
	assert.Contains(t, out, "Design")
	assert.NotContains(t, out, "Launch")
}

func TestAddRejectsInvalidTask(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("add", "--name", "Backwards", "--start", "2024-01-05", "--end", "2024-01-01")
	assert.True(t, errors.IsKind(err, errors.KindValidation), "got %v", err)

	_, _, err = h.run("add", "--name", "Bad date", "--start", "01/05/2024", "--end", "2024-01-06")
	assert.True(t, errors.IsKind(err, errors.KindValidation), "got %v", err)

	_, _, err = h.run("add", "--start", "2024-01-05", "--end", "2024-01-06")
	assert.True(t, errors.IsKind(err, errors.KindValidation), "got %v", err)

	_, statErr := os.Stat(h.tasks)
	assert.True(t, os.IsNotExist(statErr), "no task file should be written")
}

func TestUpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	h.seed()
	before := h.stored()

	h.mustRun("update", "1", "--status", "completed", "--name", "Build v2")
	after := h.stored()
	assert.Equal(t, "Build v2", after[1].Name)
	assert.Equal(t, model.StatusCompleted, after[1].Status)
	assert.Equal(t, before[1].ID, after[1].ID)
	assert.Equal(t, before[1].Color, after[1].Color)

	_, _, err := h.run("update", "7", "--name", "x")
	assert.True(t, errors.IsKind(err, errors.KindIndex), "got %v", err)
	_, _, err = h.run("update", "one", "--name", "x")
	assert.True(t, errors.IsKind(err, errors.KindIndex), "got %v", err)

	_, _, err = h.run("delete", "0")
	assert.True(t, errors.IsKind(err, errors.KindValidation), "got %v", err)
	assert.Len(t, h.stored(), 3)

	out := h.mustRun("delete", "0", "--yes")
	assert.Equal(t, "Task 'Design' deleted.\n", out)
	tasks := h.stored()
	require.Len(t, tasks, 2)
	assert.Equal(t, "Build v2", tasks[0].Name)
}

func TestSort(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out := h.mustRun("sort", "priority")
	assert.Equal(t, "Tasks sorted by priority.\n", out)
	var names []string
	for _, task := range h.stored() {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{"Build", "Launch", "Design"}, names)

	_, _, err := h.run("sort", "color")
	assert.True(t, errors.IsKind(err, errors.KindValidation), "got %v", err)
}

func TestChart(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "No tasks to display.\n", h.mustRun("chart"))

	h.seed()
	out := h.mustRun("chart")
	assert.Contains(t, out, "01-22")
	assert.Contains(t, out, "W4")
	assert.Contains(t, out, "Launch (E:E2) [M/N]")
	assert.Contains(t, out, "◆")

	out, stderr, err := h.run("chart", "--from", "not-a-date", "--epic", "E1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "invalid filter date")
	assert.Contains(t, out, "Design")
	assert.NotContains(t, out, "Build")
}

func TestExportAndImport(t *testing.T) {
	h := newHarness(t)
	h.seed()
	original := h.stored()

	csvPath := filepath.Join(h.dir, "out.csv")
	assert.Equal(t, "Exported 3 tasks to "+csvPath+".\n", h.mustRun("export", csvPath))
	jsonPath := filepath.Join(h.dir, "e2.json")
	h.mustRun("export", jsonPath, "--epic", "E2")

	f, err := os.Open(jsonPath)
	require.NoError(t, err)
	exported, skipped, err := export.ReadJSON(f)
	f.Close()
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, exported, 2)
	assert.Equal(t, original[1].ID, exported[0].ID)

	out := h.mustRun("import", jsonPath)
	assert.Equal(t, "Imported 2 tasks from "+jsonPath+" (0 skipped).\n", out)
	assert.Len(t, h.stored(), 2)

	h.mustRun("import", csvPath)
	restored := h.stored()
	require.Len(t, restored, 3)
	for i := range restored {
		assert.Equal(t, original[i].Name, restored[i].Name)
		assert.True(t, original[i].StartDate.Equal(restored[i].StartDate))
		assert.Equal(t, original[i].IsMilestone, restored[i].IsMilestone)
	}
}

func TestExportWorkbook(t *testing.T) {
	h := newHarness(t)
	h.seed()

	path := filepath.Join(h.dir, "chart.xlsx")
	h.mustRun("export", path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Task", rows[0][0])
	assert.Contains(t, rows[0], "2024-01-22 W4")
	assert.Equal(t, "Yes", rows[3][7])
}

func TestExportWorkbookIgnoresFilters(t *testing.T) {
	h := newHarness(t)
	h.seed()

	path := filepath.Join(h.dir, "chart.xlsx")
	out, stderr, err := h.run("export", path, "--epic", "E1", "--to", "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, "Exported 3 tasks to "+path+".\n", out)
	assert.Contains(t, stderr, "ignored for .xlsx")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Design", "Build", "Launch"}, []string{rows[1][0], rows[2][0], rows[3][0]})
	weeks := rows[0][len(export.WorkbookHeader):]
	assert.Equal(t, []string{"2024-01-01 W1", "2024-01-08 W2", "2024-01-15 W3", "2024-01-22 W4"}, weeks)
}

func TestExportErrors(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("export", filepath.Join(h.dir, "empty.json"))
	assert.True(t, errors.IsKind(err, errors.KindValidation), "got %v", err)

	h.seed()
	_, _, err = h.run("export", filepath.Join(h.dir, "chart.pdf"))
	assert.True(t, errors.IsKind(err, errors.KindValidation), "got %v", err)
}

func TestImportSkipsBadRows(t *testing.T) {
	h := newHarness(t)
	h.seed()

	path := filepath.Join(h.dir, "in.csv")
	csv := "name,epic_number,start_date,end_date,color,priority,status,is_milestone\n" +
		"Plan,E9,2024-03-04,2024-03-08,#00ff00,High,Not Started,False\n" +
		"Broken,E9,someday,2024-03-08,,,,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	out, stderr, err := h.run("import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 tasks")
	assert.Contains(t, stderr, "Warning: skipped record 3")

	tasks := h.stored()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Plan", tasks[0].Name)
}

func TestImportOrgAndUnsupported(t *testing.T) {
	h := newHarness(t)

	path := filepath.Join(h.dir, "plan.org")
	org := "* TODO [#A] Write docs :E3:\n  SCHEDULED: <2024-02-05 Mon> DEADLINE: <2024-02-09 Fri>\n"
	require.NoError(t, os.WriteFile(path, []byte(org), 0644))
	h.mustRun("import", path)
	tasks := h.stored()
	require.Len(t, tasks, 1)
	assert.Equal(t, "E3", tasks[0].EpicNumber)
	assert.Equal(t, model.PriorityHigh, tasks[0].Priority)

	txt := filepath.Join(h.dir, "plan.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0644))
	_, _, err := h.run("import", txt)
	assert.True(t, errors.IsKind(err, errors.KindImport), "got %v", err)

	_, _, err = h.run("import")
	assert.True(t, errors.IsKind(err, errors.KindValidation), "got %v", err)
}

func TestAssist(t *testing.T) {
	h := newHarness(t)
	h.seed()

	_, _, err := h.run("assist", "Design", "--action", "risks")
	assert.True(t, errors.IsKind(err, errors.KindService), "got %v", err)

	h.gen = cannedGenerator("Sub-tasks for 'Design':\n\n- sketch\n- review")
	out := h.mustRun("assist", "Design", "--action", "subtasks")
	assert.Equal(t, "- sketch\n- review\n", out)

	_, _, err = h.run("assist", "Design", "--action", "poem")
	assert.True(t, errors.IsKind(err, errors.KindValidation), "got %v", err)

	h.mustRun("assist", "Design", "--action", "subtasks", "--apply", "0")
	assert.Equal(t, "Design\n\n--- AI Suggested Sub-tasks ---\n- sketch\n- review", h.stored()[0].Name)
}

func TestOverdue(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out := h.mustRun("overdue")
	assert.Contains(t, out, "Design")
	assert.Contains(t, out, "new")
	assert.NotContains(t, out, "Build")

	out = h.mustRun("overdue")
	assert.Contains(t, out, "Design")
	assert.NotContains(t, out, "new")

	h.mustRun("update", "0", "--status", "Completed")
	assert.Equal(t, "No overdue tasks.\n", h.mustRun("overdue"))
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("config", "set-calendar", "Work")
	assert.Equal(t, "Default calendar set to: Work\n", out)

	data, err := os.ReadFile(filepath.Join(h.dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "calendar: Work")
	assert.NotContains(t, string(data), h.tasks, "--file must not be persisted")

	out = h.mustRun("config", "show")
	assert.True(t, strings.Contains(out, "calendar:          Work"), out)
	assert.Contains(t, out, "GOOGLE_API_KEY:    not set")
}
