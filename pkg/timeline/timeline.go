// Package timeline computes the week axis and bar placement for the chart.
package timeline

import (
	"fmt"
	"unicode/utf8"

	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/view"
)

// Geometry holds the fixed pixel sizes of the chart grid.
type Geometry struct {
	TaskHeight   int
	RowGap       int
	HeaderHeight int
	LeftMargin   int
	WeekWidth    int
	ActionWidth  int
}

// DefaultGeometry matches the desktop chart canvas.
func DefaultGeometry() Geometry {
	return Geometry{
		TaskHeight:   30,
		RowGap:       10,
		HeaderHeight: 60,
		LeftMargin:   180,
		WeekWidth:    80,
		ActionWidth:  80,
	}
}

// RowPitch is the vertical distance between consecutive rows.
func (g Geometry) RowPitch() int { return g.TaskHeight + g.RowGap }

// Week is one column of the axis, keyed by its Monday.
type Week struct {
	Start   model.Date
	X       int
	Current bool
}

// End returns the Sunday closing the week.
func (w Week) End() model.Date { return w.Start.AddDays(6) }

// Label is the column header, e.g. "2024-01-08 W2".
func (w Week) Label() string {
	return fmt.Sprintf("%s W%d", w.Start, w.Start.ISOWeekNumber())
}

// Cell is a week a row's task occupies.
type Cell struct {
	Week      int
	X         int
	Milestone bool
}

// Row is the draw plan for one visible task.
type Row struct {
	Index int // position in the store
	Task  model.Task
	Y     int
	Cells []Cell
}

// Label is the row caption: name, epic and a priority/status shorthand.
func (r Row) Label() string {
	s := r.Task.Name
	if r.Task.EpicNumber != "" {
		s += " (E:" + r.Task.EpicNumber + ")"
	}
	return s
}

// Badge is the "[P/S]" shorthand of priority and status initials.
func (r Row) Badge() string {
	return fmt.Sprintf("[%s/%s]", initial(string(r.Task.Priority), "M"), initial(string(r.Task.Status), "N"))
}

// Occupies reports whether the row covers week w.
func (r Row) Occupies(w int) (Cell, bool) {
	for _, c := range r.Cells {
		if c.Week == w {
			return c, true
		}
	}
	return Cell{}, false
}

// Layout is the complete draw plan for a render pass.
type Layout struct {
	Weeks  []Week
	Rows   []Row
	Width  int
	Height int
}

// Empty reports a "no data" layout.
func (l Layout) Empty() bool { return len(l.Rows) == 0 }

// CurrentWeek returns the index of the highlighted week, or -1.
func (l Layout) CurrentWeek() int {
	for i, w := range l.Weeks {
		if w.Current {
			return i
		}
	}
	return -1
}

// Axis returns the Mondays from the week of the earliest start date through
// the latest end date. It returns nil for no tasks.
func Axis(tasks []model.Task) []model.Date {
	if len(tasks) == 0 {
		return nil
	}
	minDate, maxDate := tasks[0].StartDate, tasks[0].EndDate
	for _, t := range tasks[1:] {
		if t.StartDate.Before(minDate) {
			minDate = t.StartDate
		}
		if t.EndDate.After(maxDate) {
			maxDate = t.EndDate
		}
	}

	var weeks []model.Date
	for w := minDate.WeekStart(); !w.After(maxDate); w = w.AddDays(7) {
		weeks = append(weeks, w)
	}
	return weeks
}

// Occupied reports whether t overlaps any day of the week starting on monday.
func Occupied(t model.Task, monday model.Date) bool {
	return t.Occupies(monday, monday.AddDays(6))
}

// Build lays out the visible items. today selects the highlighted week.
func Build(items []view.Item, today model.Date, g Geometry) Layout {
	if len(items) == 0 {
		return Layout{Width: g.LeftMargin + g.ActionWidth, Height: g.HeaderHeight}
	}

	axis := Axis(view.Tasks(items))
	currentMonday := today.WeekStart()

	weeks := make([]Week, len(axis))
	for i, monday := range axis {
		weeks[i] = Week{
			Start:   monday,
			X:       g.LeftMargin + i*g.WeekWidth,
			Current: monday.Equal(currentMonday),
		}
	}

	rows := make([]Row, len(items))
	for r, it := range items {
		row := Row{
			Index: it.Index,
			Task:  it.Task,
			Y:     g.HeaderHeight + r*g.RowPitch() + g.RowGap,
		}
		for i, w := range weeks {
			if !Occupied(it.Task, w.Start) {
				continue
			}
			start := it.Task.StartDate
			row.Cells = append(row.Cells, Cell{
				Week:      i,
				X:         w.X,
				Milestone: it.Task.IsMilestone && !start.Before(w.Start) && !start.After(w.End()),
			})
		}
		rows[r] = row
	}

	return Layout{
		Weeks:  weeks,
		Rows:   rows,
		Width:  g.LeftMargin + len(weeks)*g.WeekWidth + g.ActionWidth,
		Height: g.HeaderHeight + len(rows)*g.RowPitch() + g.RowGap,
	}
}

func initial(s, fallback string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return fallback
	}
	return string(r)
}
