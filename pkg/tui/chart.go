package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/gantta/pkg/timeline"
)

const (
	labelWidth = 34
	cellWidth  = 6
)

// ChartOptions controls which part of a layout is drawn.
type ChartOptions struct {
	Cursor   int // selected row, -1 for none
	Offset   int // first week column shown
	MaxWeeks int // 0 draws every week
}

// RenderChart draws the label column and one cell per week for each row.
func RenderChart(l timeline.Layout, s Styles, opts ChartOptions) string {
	if l.Empty() {
		return s.Muted.Render("No tasks to display.")
	}

	first, last := weekWindow(len(l.Weeks), opts)

	var b strings.Builder
	pad := strings.Repeat(" ", labelWidth+2)

	b.WriteString(pad)
	for i := first; i < last; i++ {
		b.WriteString(weekStyle(l.Weeks[i], s).Render(l.Weeks[i].Start.Format("01-02")))
	}
	b.WriteString("\n")
	b.WriteString(pad)
	for i := first; i < last; i++ {
		b.WriteString(weekStyle(l.Weeks[i], s).Render(fmt.Sprintf("W%d", l.Weeks[i].Start.ISOWeekNumber())))
	}
	b.WriteString("\n")

	for r, row := range l.Rows {
		label := fit(truncate(row.Label(), labelWidth-len(row.Badge())-1)+" "+row.Badge(), labelWidth)
		if r == opts.Cursor {
			b.WriteString("> " + s.Selected.Render(label))
		} else {
			b.WriteString("  " + s.Label.Render(label))
		}
		for w := first; w < last; w++ {
			b.WriteString(renderCell(row, w, s))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func weekWindow(n int, opts ChartOptions) (int, int) {
	first := max(0, min(opts.Offset, n-1))
	last := n
	if opts.MaxWeeks > 0 && first+opts.MaxWeeks < n {
		last = first + opts.MaxWeeks
	}
	return first, last
}

func weekStyle(w timeline.Week, s Styles) lipgloss.Style {
	if w.Current {
		return s.CurrentWeek.Width(cellWidth)
	}
	return s.WeekHeader.Width(cellWidth)
}

func renderCell(row timeline.Row, w int, s Styles) string {
	cell, ok := row.Occupies(w)
	if !ok {
		return s.Muted.Width(cellWidth).Align(lipgloss.Center).Render("·")
	}
	style := s.Milestone.
		Background(lipgloss.Color(barColor(row.Task.Color))).
		Width(cellWidth).
		Align(lipgloss.Center)
	if cell.Milestone {
		return style.Render("◆")
	}
	return style.Render("")
}

// barColor drops the alpha byte of #AARRGGBB colors.
func barColor(c string) string {
	if len(c) == 9 {
		return "#" + c[3:]
	}
	return c
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func fit(s string, n int) string {
	if w := len([]rune(s)); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}
