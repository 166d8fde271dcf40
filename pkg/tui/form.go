package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/model"
)

type field int

const (
	fieldName field = iota
	fieldEpic
	fieldStart
	fieldEnd
	fieldColor
	fieldPriority
	fieldStatus
	fieldMilestone
	fieldCount
)

var fieldLabels = [fieldCount]string{"Task", "Epic #", "Start", "End", "Color", "Priority", "Status", "Milestone"}

// form edits one task. index is the store position being edited, -1 for a new task.
type form struct {
	index int
	id    string

	name   textarea.Model
	inputs [fieldPriority - fieldEpic]textinput.Model // epic, start, end, color

	priorities []model.Priority
	statuses   []model.Status
	priority   int
	status     int
	milestone  bool

	focus field
}

func newForm(index int, t model.Task) form {
	f := form{index: index, id: t.ID}

	f.name = textarea.New()
	f.name.Placeholder = "Task name"
	f.name.ShowLineNumbers = false
	f.name.SetHeight(3)
	f.name.SetWidth(60)
	f.name.SetValue(t.Name)

	values := []string{t.EpicNumber, "", "", t.Color}
	if !t.StartDate.IsZero() {
		values[1] = t.StartDate.String()
	}
	if !t.EndDate.IsZero() {
		values[2] = t.EndDate.String()
	}
	placeholders := []string{"E1", "YYYY-MM-DD", "YYYY-MM-DD", model.DefaultColor}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		in.CharLimit = 32
		in.Width = 30
		in.SetValue(values[i])
		f.inputs[i] = in
	}

	// Unknown values are kept selectable so an edit does not rewrite them.
	f.priorities = slices.Clone(model.Priorities)
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if f.priority = slices.Index(f.priorities, t.Priority); f.priority < 0 {
		f.priorities = append(f.priorities, t.Priority)
		f.priority = len(f.priorities) - 1
	}
	f.statuses = slices.Clone(model.Statuses)
	if t.Status == "" {
		t.Status = model.StatusNotStarted
	}
	if f.status = slices.Index(f.statuses, t.Status); f.status < 0 {
		f.statuses = append(f.statuses, t.Status)
		f.status = len(f.statuses) - 1
	}
	f.milestone = t.IsMilestone

	f.setFocus(fieldName)
	return f
}

func (f *form) setFocus(fl field) tea.Cmd {
	f.focus = (fl + fieldCount) % fieldCount
	f.name.Blur()
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	switch {
	case f.focus == fieldName:
		return f.name.Focus()
	case f.focus < fieldPriority:
		return f.inputs[f.focus-fieldEpic].Focus()
	}
	return nil
}

// cycle steps the focused choice field by delta.
func (f *form) cycle(delta int) {
	switch f.focus {
	case fieldPriority:
		f.priority = (f.priority + delta + len(f.priorities)) % len(f.priorities)
	case fieldStatus:
		f.status = (f.status + delta + len(f.statuses)) % len(f.statuses)
	case fieldMilestone:
		f.milestone = !f.milestone
	}
}

func (f form) choiceFocused() bool { return f.focus >= fieldPriority }

func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case f.focus == fieldName:
		f.name, cmd = f.name.Update(msg)
	case f.focus < fieldPriority:
		i := f.focus - fieldEpic
		f.inputs[i], cmd = f.inputs[i].Update(msg)
	}
	return f, cmd
}

func (f form) value(fl field) string {
	if fl == fieldName {
		return f.name.Value()
	}
	return f.inputs[fl-fieldEpic].Value()
}

// task builds the edited task. Dates are parsed here so the message names the field.
func (f form) task() (model.Task, error) {
	t := model.Task{
		ID:          f.id,
		Name:        f.value(fieldName),
		EpicNumber:  f.value(fieldEpic),
		Color:       f.value(fieldColor),
		Priority:    f.priorities[f.priority],
		Status:      f.statuses[f.status],
		IsMilestone: f.milestone,
	}
	var err error
	if t.StartDate, err = model.ParseDate(f.value(fieldStart)); err != nil {
		return t, errors.Wrap(errors.KindValidation, err, "invalid start date")
	}
	if t.EndDate, err = model.ParseDate(f.value(fieldEnd)); err != nil {
		return t, errors.Wrap(errors.KindValidation, err, "invalid end date")
	}
	t.Normalize()
	return t, t.Validate()
}

func (f form) view(s Styles) string {
	var b strings.Builder
	title := "Add Task"
	if f.index >= 0 {
		title = fmt.Sprintf("Edit Task #%d", f.index)
	}
	b.WriteString(s.Title.Render(title) + "\n\n")

	for fl := field(0); fl < fieldCount; fl++ {
		label := fmt.Sprintf("%-10s", fieldLabels[fl])
		if fl == f.focus {
			label = s.Key.Render(label)
		} else {
			label = s.Muted.Render(label)
		}
		var value string
		switch {
		case fl == fieldName:
			value = "\n" + f.name.View()
		case fl < fieldPriority:
			value = f.inputs[fl-fieldEpic].View()
		case fl == fieldPriority:
			value = choice(string(f.priorities[f.priority]), fl == f.focus)
		case fl == fieldStatus:
			value = choice(string(f.statuses[f.status]), fl == f.focus)
		case fl == fieldMilestone:
			value = "[ ]"
			if f.milestone {
				value = "[x]"
			}
		}
		b.WriteString(label + " " + value + "\n")
	}
	b.WriteString("\n" + s.Muted.Render("tab/shift+tab move • ←/→ change choice • ctrl+s save • ctrl+g AI assist • esc cancel"))
	return b.String()
}

func choice(v string, focused bool) string {
	if focused {
		return "‹ " + v + " ›"
	}
	return "  " + v
}
