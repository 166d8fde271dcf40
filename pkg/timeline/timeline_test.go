package timeline

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/view"
)

func day(m time.Month, d int) model.Date { return model.NewDate(2024, m, d) }

func items(tasks ...model.Task) []view.Item {
	out := make([]view.Item, len(tasks))
	for i, t := range tasks {
		out[i] = view.Item{Index: i, Task: t}
	}
	return out
}

func weekIndexes(r Row) []int {
	var out []int
	for _, c := range r.Cells {
		out = append(out, c.Week)
	}
	return out
}

func TestEmptyLayout(t *testing.T) {
	l := Build(nil, day(time.January, 1), DefaultGeometry())
	assert.True(t, l.Empty())
	assert.Empty(t, l.Weeks)
	assert.Equal(t, -1, l.CurrentWeek())
	assert.Nil(t, Axis(nil))
}

func TestTwoTaskScenario(t *testing.T) {
	a := model.Task{Name: "A", StartDate: day(time.January, 1), EndDate: day(time.January, 3)}
	b := model.Task{Name: "B", StartDate: day(time.January, 8), EndDate: day(time.January, 10)}

	l := Build(items(a, b), day(time.June, 1), DefaultGeometry())

	require.Len(t, l.Weeks, 2)
	assert.Equal(t, day(time.January, 1), l.Weeks[0].Start)
	assert.Equal(t, day(time.January, 8), l.Weeks[1].Start)
	assert.Equal(t, []int{0}, weekIndexes(l.Rows[0]))
	assert.Equal(t, []int{1}, weekIndexes(l.Rows[1]))
}

func TestSingleDayTaskOccupiesOneWeek(t *testing.T) {
	task := model.Task{Name: "demo", StartDate: day(time.January, 10), EndDate: day(time.January, 10)}

	l := Build(items(task), day(time.January, 1), DefaultGeometry())

	require.Len(t, l.Weeks, 1)
	assert.Equal(t, day(time.January, 8), l.Weeks[0].Start)
	assert.Equal(t, []int{0}, weekIndexes(l.Rows[0]))
}

func TestAxisStartsOnMondayAndCoversMaxEnd(t *testing.T) {
	tasks := []model.Task{
		{StartDate: day(time.January, 17), EndDate: day(time.January, 21)}, // Wed..Sun
		{StartDate: day(time.January, 24), EndDate: day(time.February, 5)}, // ends on a Monday
	}
	axis := Axis(tasks)
	require.Len(t, axis, 4)
	assert.Equal(t, day(time.January, 15), axis[0])
	assert.Equal(t, day(time.February, 5), axis[3])
}

func TestMilestoneOnlyOnStartWeek(t *testing.T) {
	task := model.Task{
		Name:        "launch",
		StartDate:   day(time.January, 10),
		EndDate:     day(time.January, 24),
		IsMilestone: true,
	}
	l := Build(items(task), day(time.January, 1), DefaultGeometry())

	require.Len(t, l.Rows[0].Cells, 3)
	assert.True(t, l.Rows[0].Cells[0].Milestone)
	assert.False(t, l.Rows[0].Cells[1].Milestone)
	assert.False(t, l.Rows[0].Cells[2].Milestone)
}

func TestCurrentWeekAndCoordinates(t *testing.T) {
	g := DefaultGeometry()
	a := model.Task{Name: "A", StartDate: day(time.January, 1), EndDate: day(time.January, 20)}
	b := model.Task{Name: "B", EpicNumber: "E1", Priority: model.PriorityHigh, Status: model.StatusBlocked,
		StartDate: day(time.January, 15), EndDate: day(time.January, 16)}

	l := Build([]view.Item{{Index: 4, Task: a}, {Index: 7, Task: b}}, day(time.January, 11), g)

	assert.Equal(t, 1, l.CurrentWeek())
	assert.Equal(t, g.LeftMargin+2*g.WeekWidth, l.Weeks[2].X)
	assert.Equal(t, l.Rows[0].Y+g.RowPitch(), l.Rows[1].Y)
	assert.Equal(t, 7, l.Rows[1].Index)
	assert.Equal(t, "B (E:E1)", l.Rows[1].Label())
	assert.Equal(t, "[H/B]", l.Rows[1].Badge())
	assert.Equal(t, "2024-01-15 W3", l.Weeks[2].Label())
	assert.Equal(t, g.LeftMargin+3*g.WeekWidth+g.ActionWidth, l.Width)

	_, ok := l.Rows[1].Occupies(2)
	assert.True(t, ok)
	_, ok = l.Rows[1].Occupies(0)
	assert.False(t, ok)
}

func TestBadgeUsesFirstCharacter(t *testing.T) {
	task := model.Task{Name: "Étude", Priority: model.Priority("Élevé"), Status: model.Status("Überfällig"),
		StartDate: day(time.January, 8), EndDate: day(time.January, 9)}
	l := Build([]view.Item{{Task: task}}, day(time.January, 8), DefaultGeometry())

	badge := l.Rows[0].Badge()
	assert.Equal(t, "[É/Ü]", badge)
	assert.True(t, utf8.ValidString(badge))

	l.Rows[0].Task.Priority = ""
	l.Rows[0].Task.Status = ""
	assert.Equal(t, "[M/N]", l.Rows[0].Badge())
}
