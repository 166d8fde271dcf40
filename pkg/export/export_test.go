package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/logging"
	"github.com/harrisonrobin/gantta/pkg/model"
)

func task(name string, start, end int) model.Task {
	return model.Task{
		Name:      name,
		StartDate: model.NewDate(2024, time.January, start),
		EndDate:   model.NewDate(2024, time.January, end),
		Color:     "#1f77b4",
		Priority:  model.PriorityHigh,
		Status:    model.StatusInProgress,
	}
}

func TestReadJSONSkipsInvalidRecords(t *testing.T) {
	input := `[
		{"name": "ok", "epic_number": "E1", "start_date": "2024-01-01", "end_date": "2024-01-03",
		 "color": "#ff0000", "priority": "Low", "status": "Blocked", "is_milestone": true},
		{"name": "bad date", "start_date": "2024-02-30", "end_date": "2024-03-01"},
		{"name": "reversed", "start_date": "2024-03-05", "end_date": "2024-03-01"},
		{"name": "defaults", "start_date": "2024-04-01", "end_date": "2024-04-01"}
	]`

	tasks, skipped, err := ReadJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "ok", tasks[0].Name)
	assert.True(t, tasks[0].IsMilestone)
	assert.Equal(t, model.PriorityMedium, tasks[1].Priority)
	assert.Equal(t, model.DefaultColor, tasks[1].Color)

	require.Len(t, skipped, 2)
	assert.Equal(t, 2, skipped[0].Record)
	assert.Equal(t, 3, skipped[1].Record)
}

func TestReadJSONMalformedDocument(t *testing.T) {
	_, _, err := ReadJSON(strings.NewReader(`{"name": "not an array"}`))
	assert.True(t, errors.IsKind(err, errors.KindImport))
}

func TestJSONRoundTrip(t *testing.T) {
	in := []model.Task{task("A", 1, 3), task("B", 8, 10)}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, in))

	out, skipped, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, in, out)
}

func TestWriteJSONEmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestReadCSVSkipsBadDatesAndKeepsRest(t *testing.T) {
	input := strings.Join([]string{
		"name,epic_number,start_date,end_date,color,priority,status,is_milestone",
		"Plan,E1,2024-01-01,2024-01-05,#00ff00,High,In Progress,True",
		"Broken,E1,not-a-date,2024-01-05,#00ff00,High,In Progress,False",
		"Build,E2,2024-01-08,2024-01-19,,,,false",
	}, "\n")

	tasks, skipped, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Plan", tasks[0].Name)
	assert.True(t, tasks[0].IsMilestone)
	assert.Equal(t, "Build", tasks[1].Name)
	assert.False(t, tasks[1].IsMilestone)
	assert.Equal(t, model.StatusNotStarted, tasks[1].Status)

	require.Len(t, skipped, 1)
	assert.Equal(t, 3, skipped[0].Record)
	assert.Contains(t, skipped[0].Reason, "start_date")
}

func TestWriteCSV(t *testing.T) {
	m := task("Launch", 15, 15)
	m.IsMilestone = true
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []model.Task{m}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(CSVHeader, ","), lines[0])
	assert.Equal(t, "Launch,,2024-01-15,2024-01-15,#1f77b4,High,In Progress,True", lines[1])

	back, skipped, err := ReadCSV(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, []model.Task{m}, back)
}

func TestWriteWorkbook(t *testing.T) {
	a := task("A", 1, 3)
	b := task("B", 8, 10)
	b.Color = "#zzzzzz"
	b.IsMilestone = true

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, []model.Task{a, b}, logging.Discard()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, append(append([]string{}, WorkbookHeader...), "2024-01-01 W1", "2024-01-08 W2"), rows[0])
	assert.Equal(t, "X", rows[1][8])
	assert.Equal(t, "Yes", rows[2][7])
	assert.Equal(t, "X", rows[2][9])

	style, err := f.GetCellStyle(SheetName, "I2")
	require.NoError(t, err)
	assert.NotZero(t, style, "occupied cell carries the task fill")
	style, err = f.GetCellStyle(SheetName, "J3")
	require.NoError(t, err)
	assert.Zero(t, style, "invalid color leaves the cell unfilled")
}

func TestWriteWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteWorkbook(&buf, nil, logging.Discard())
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}
