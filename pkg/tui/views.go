package tui

import (
	"fmt"
	"strings"

	"github.com/harrisonrobin/gantta/pkg/assist"
	"github.com/harrisonrobin/gantta/pkg/view"
)

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader() + "\n\n")

	switch m.mode {
	case ModeForm:
		b.WriteString(m.styles.Border.Render(m.form.view(m.styles)))
	case ModeAssist:
		b.WriteString(m.styles.Border.Render(m.renderAssist()))
	default:
		b.WriteString(RenderChart(m.layout, m.styles, ChartOptions{
			Cursor:   m.cursor,
			Offset:   m.offset,
			MaxWeeks: m.visibleWeeks(),
		}))
		b.WriteString("\n\n" + m.renderDetail())
	}

	b.WriteString("\n" + m.renderPrompt())
	b.WriteString("\n" + m.renderStatus())
	if m.mode == ModeChart {
		b.WriteString("\n" + m.help.View(m.keys))
	}
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.styles.Title.Render("Gantt Chart")
	sub := fmt.Sprintf("%s • %d tasks", m.store.Path(), m.store.Len())
	if !m.filter.Cleared() {
		sub += " • filter: " + filterSummary(m.filter)
	}
	return title + "  " + m.styles.Subtitle.Render(sub)
}

func filterSummary(s view.State) string {
	var parts []string
	if s.Epic != "" && s.Epic != view.AllEpics {
		parts = append(parts, "epic~"+s.Epic)
	}
	if s.From != "" {
		parts = append(parts, "from "+s.From)
	}
	if s.To != "" {
		parts = append(parts, "to "+s.To)
	}
	return strings.Join(parts, ", ")
}

func (m Model) visibleWeeks() int {
	if m.width <= 0 {
		return 0
	}
	return max(1, (m.width-labelWidth-2)/cellWidth)
}

// renderDetail is the hover text of the selected bar on one line.
func (m Model) renderDetail() string {
	it, ok := m.selected()
	if !ok {
		return m.styles.Muted.Render("Press 'a' to add a task.")
	}
	return m.styles.Muted.Render(strings.ReplaceAll(it.Task.Detail(), "\n", " | "))
}

func (m Model) renderPrompt() string {
	switch m.mode {
	case ModeConfirmDelete:
		name := ""
		if t, err := m.store.Get(m.deleteIndex); err == nil {
			name = t.Name
		}
		return m.styles.Warning.Render(fmt.Sprintf("Delete task '%s'? (y/n)", name))
	case ModeFilterInput:
		return m.input.View()
	}
	return ""
}

func (m Model) renderStatus() string {
	var line string
	switch m.statusKind {
	case statusSuccess:
		line = m.styles.Success.Render(m.status)
	case statusWarning:
		line = m.styles.Warning.Render(m.status)
	case statusError:
		line = m.styles.Error.Render(m.status)
	default:
		line = m.styles.Status.Render(m.status)
	}
	if m.overdue > 0 {
		line += "  " + m.styles.Error.Render(fmt.Sprintf("%d overdue", m.overdue))
	}
	return line
}

func (m Model) renderAssist() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("AI Assist") + "\n")
	b.WriteString(m.styles.Muted.Render("Task: "+truncate(m.form.value(fieldName), 60)) + "\n\n")

	for i, a := range assist.Actions {
		if i == m.assistPick {
			b.WriteString("> " + m.styles.Selected.Render(string(a)) + "\n")
		} else {
			b.WriteString("  " + string(a) + "\n")
		}
	}

	switch {
	case m.assistBusy:
		b.WriteString("\n" + m.spinner.View() + " Generating...")
	case m.assistResult != nil:
		b.WriteString("\n" + m.styles.Subtitle.Render("Generated content:") + "\n")
		b.WriteString(m.assistResult.Content + "\n\n")
		b.WriteString(m.styles.Muted.Render("enter apply to task • esc discard"))
	default:
		b.WriteString("\n" + m.styles.Muted.Render("↑/↓ choose • enter generate • esc back"))
	}
	return b.String()
}
