// Package tui is the interactive chart editor.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrisonrobin/gantta/pkg/assist"
	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/overdue"
	"github.com/harrisonrobin/gantta/pkg/store"
	"github.com/harrisonrobin/gantta/pkg/timeline"
	"github.com/harrisonrobin/gantta/pkg/view"
)

// Mode is the interaction the model is currently handling.
type Mode int

const (
	// ModeChart is the chart with row selection
	ModeChart Mode = iota
	// ModeForm is the add/edit form
	ModeForm
	// ModeConfirmDelete asks before deleting the selected task
	ModeConfirmDelete
	// ModeFilterInput edits one filter field
	ModeFilterInput
	// ModeAssist picks an AI action and previews its result
	ModeAssist
)

type filterField int

const (
	filterEpic filterField = iota
	filterFrom
	filterTo
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarning
	statusError
)

// assistResultMsg carries a finished AI request back into the update loop.
type assistResultMsg struct {
	result assist.Result
}

// Model represents the TUI application state
type Model struct {
	ctx       context.Context
	store     *store.Store
	assistant *assist.Assistant
	log       *slog.Logger
	today     model.Date
	geometry  timeline.Geometry

	// Chart state
	filter  view.State
	items   []view.Item
	layout  timeline.Layout
	overdue int
	cursor  int
	offset  int

	// Interaction state
	mode         Mode
	form         form
	deleteIndex  int
	input        textinput.Model
	inputField   filterField
	assistPick   int
	assistBusy   bool
	assistResult *assist.Result
	spinner      spinner.Model

	status     string
	statusKind statusKind

	width    int
	height   int
	ready    bool
	quitting bool

	keys   keyMap
	help   help.Model
	styles Styles
}

// NewModel creates a chart editor over st. assistant may be nil.
func NewModel(ctx context.Context, st *store.Store, assistant *assist.Assistant, log *slog.Logger) Model {
	m := Model{
		ctx:       ctx,
		store:     st,
		assistant: assistant,
		log:       log,
		today:     model.Today(),
		geometry:  timeline.DefaultGeometry(),
		filter:    view.State{Epic: view.AllEpics},
		mode:      ModeChart,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		keys:      defaultKeyMap(),
		help:      help.New(),
		styles:    DefaultStyles(),
	}
	m.refresh()
	return m
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, st *store.Store, assistant *assist.Assistant, log *slog.Logger) error {
	p := tea.NewProgram(NewModel(ctx, st, assistant, log), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init initializes the TUI model (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case ModeForm:
			return m.handleFormKey(msg)
		case ModeConfirmDelete:
			return m.handleConfirmKey(msg)
		case ModeFilterInput:
			return m.handleFilterKey(msg)
		case ModeAssist:
			return m.handleAssistKey(msg)
		}
		return m.handleChartKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case assistResultMsg:
		m.assistBusy = false
		r := msg.result
		if r.Err != nil {
			m.setError(r.Err)
			return m, nil
		}
		// Enter outside the assist panel submits the form, so a late result
		// is never left pending there.
		if m.mode != ModeAssist {
			m.assistResult = nil
			m.setStatus(statusWarning, "AI content discarded: the assist panel was closed.")
			return m, nil
		}
		m.assistResult = &r
		m.setStatus(statusSuccess, "AI content ready: enter to apply, esc to discard")
		return m, nil

	case spinner.TickMsg:
		if !m.assistBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.mode {
	case ModeForm:
		m.form, cmd = m.form.update(msg)
	case ModeFilterInput:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) handleChartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Left):
		if m.offset > 0 {
			m.offset--
		}
	case key.Matches(msg, m.keys.Right):
		if m.offset < len(m.layout.Weeks)-1 {
			m.offset++
		}

	case key.Matches(msg, m.keys.Add):
		m.form = newForm(-1, model.Task{StartDate: m.today, EndDate: m.today})
		m.mode = ModeForm
		return m, m.form.setFocus(fieldName)

	case key.Matches(msg, m.keys.Edit):
		it, ok := m.selected()
		if !ok {
			m.setStatus(statusWarning, "Select a task to edit.")
			return m, nil
		}
		m.form = newForm(it.Index, it.Task)
		m.mode = ModeForm
		return m, m.form.setFocus(fieldName)

	case key.Matches(msg, m.keys.Delete):
		it, ok := m.selected()
		if !ok {
			m.setStatus(statusWarning, "Select a task to delete.")
			return m, nil
		}
		m.deleteIndex = it.Index
		m.mode = ModeConfirmDelete

	case key.Matches(msg, m.keys.Sort):
		k := store.SortKeys[msg.String()[0]-'1']
		err := m.store.Sort(k)
		m.refresh()
		m.report(err, "Tasks sorted by "+k.Label()+".")

	case key.Matches(msg, m.keys.Undo):
		ok, err := m.store.Undo()
		m.refresh()
		if ok || err != nil {
			m.report(err, "Undo successful.")
		} else {
			m.setStatus(statusWarning, "Nothing to undo.")
		}

	case key.Matches(msg, m.keys.Redo):
		ok, err := m.store.Redo()
		m.refresh()
		if ok || err != nil {
			m.report(err, "Redo successful.")
		} else {
			m.setStatus(statusWarning, "Nothing to redo.")
		}

	case key.Matches(msg, m.keys.Epic):
		return m, m.openInput(filterEpic)
	case key.Matches(msg, m.keys.From):
		return m, m.openInput(filterFrom)
	case key.Matches(msg, m.keys.To):
		return m, m.openInput(filterTo)
	case key.Matches(msg, m.keys.Clear):
		m.filter = view.State{Epic: view.AllEpics}
		m.refresh()
		m.setStatus(statusInfo, "Filters cleared.")

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeChart
		m.setStatus(statusInfo, "Edit cancelled.")
		return m, nil
	case "tab":
		return m, m.form.setFocus(m.form.focus + 1)
	case "shift+tab":
		return m, m.form.setFocus(m.form.focus - 1)
	case "ctrl+s":
		return m.submitForm()
	case "ctrl+g":
		m.mode = ModeAssist
		return m, nil
	case "enter":
		if m.form.focus != fieldName {
			return m.submitForm()
		}
	case "left", "right", " ":
		if m.form.choiceFocused() {
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			m.form.cycle(delta)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	t, err := m.form.task()
	if err != nil {
		m.setError(err)
		return m, nil
	}

	idx := m.form.index
	msg := fmt.Sprintf("Task '%s' updated.", t.Name)
	if idx < 0 {
		idx, err = m.store.Add(t)
		msg = fmt.Sprintf("Task '%s' added.", t.Name)
	} else {
		err = m.store.Update(idx, t)
	}
	// Validation and index errors keep the form open; a failed save does not
	// undo the change, so it closes the form like a success.
	if errors.IsKind(err, errors.KindValidation) || errors.IsKind(err, errors.KindIndex) {
		m.setError(err)
		return m, nil
	}
	m.mode = ModeChart
	m.refresh()
	m.selectIndex(idx)
	m.report(err, msg)
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		removed, err := m.store.Delete(m.deleteIndex)
		m.mode = ModeChart
		m.refresh()
		if errors.IsKind(err, errors.KindIndex) {
			m.setError(err)
			return m, nil
		}
		m.report(err, fmt.Sprintf("Task '%s' deleted.", removed.Name))
	case "n", "N", "esc":
		m.mode = ModeChart
		m.setStatus(statusInfo, "Delete cancelled.")
	}
	return m, nil
}

func (m *Model) openInput(f filterField) tea.Cmd {
	in := textinput.New()
	in.CharLimit = 64
	in.Width = 30
	switch f {
	case filterEpic:
		in.Prompt = "Epic filter: "
		in.Placeholder = view.AllEpics
		in.SetSuggestions(view.EpicOptions(m.store.Tasks()))
		in.ShowSuggestions = true
		if m.filter.Epic != view.AllEpics {
			in.SetValue(m.filter.Epic)
		}
	case filterFrom:
		in.Prompt = "From date: "
		in.Placeholder = "YYYY-MM-DD"
		in.SetValue(m.filter.From)
	case filterTo:
		in.Prompt = "To date: "
		in.Placeholder = "YYYY-MM-DD"
		in.SetValue(m.filter.To)
	}
	m.input = in
	m.inputField = f
	m.mode = ModeFilterInput
	return m.input.Focus()
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeChart
		return m, nil
	case "enter":
		v := strings.TrimSpace(m.input.Value())
		switch m.inputField {
		case filterEpic:
			if v == "" {
				v = view.AllEpics
			}
			m.filter.Epic = v
		case filterFrom:
			m.filter.From = v
		case filterTo:
			m.filter.To = v
		}
		m.mode = ModeChart
		if err := m.refresh(); err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus(statusInfo, fmt.Sprintf("Showing %d of %d tasks.", len(m.items), m.store.Len()))
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleAssistKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.assistResult = nil
		m.mode = ModeForm
		if m.assistBusy {
			m.setStatus(statusWarning, "AI request still running; its result will be discarded.")
		}
		return m, nil
	}
	if m.assistBusy {
		return m, nil
	}
	if m.assistResult != nil {
		if msg.String() == "enter" {
			return m.applyAssist()
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.assistPick > 0 {
			m.assistPick--
		}
	case "down", "j":
		if m.assistPick < len(assist.Actions)-1 {
			m.assistPick++
		}
	case "enter":
		return m.startAssist()
	}
	return m, nil
}

func (m Model) startAssist() (tea.Model, tea.Cmd) {
	if m.assistant == nil {
		m.setError(errors.New(errors.KindService, "AI assist is not configured"))
		return m, nil
	}
	req := assist.Request{Action: assist.Actions[m.assistPick], TaskName: m.form.value(fieldName)}
	ch, err := m.assistant.Start(m.ctx, req)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.assistBusy = true
	m.assistResult = nil
	m.setStatus(statusInfo, fmt.Sprintf("Generating %s...", req.Action))
	return m, tea.Batch(waitForAssist(ch), m.spinner.Tick)
}

func waitForAssist(ch <-chan assist.Result) tea.Cmd {
	return func() tea.Msg {
		return assistResultMsg{result: <-ch}
	}
}

func (m Model) applyAssist() (tea.Model, tea.Cmd) {
	r := *m.assistResult
	applied, err := assist.Apply(r.Request.Action, m.form.value(fieldName), r.Content)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.form.name.SetValue(applied)
	m.assistResult = nil
	m.mode = ModeForm
	m.setStatus(statusSuccess, appliedMessage(r.Request.Action))
	return m, nil
}

func appliedMessage(a assist.Action) string {
	switch a {
	case assist.GenerateSubtasks:
		return "AI-generated sub-tasks appended to task."
	case assist.BrainstormRisks:
		return "AI-generated risks appended to task."
	case assist.DraftStatus:
		return "AI-generated status update appended to task."
	}
	return "AI-generated description applied."
}

// refresh recomputes the visible rows. A malformed date filter clears both
// date fields; the error is returned for the caller to show.
func (m *Model) refresh() error {
	tasks := m.store.Tasks()
	items, err := view.Visible(tasks, m.filter)
	if err != nil {
		m.filter.From, m.filter.To = "", ""
	}
	m.items = items
	m.layout = timeline.Build(items, m.today, m.geometry)
	m.overdue = len(overdue.Find(tasks, m.today))

	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset >= len(m.layout.Weeks) {
		m.offset = max(0, len(m.layout.Weeks)-1)
	}
	return err
}

func (m Model) selected() (view.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return view.Item{}, false
	}
	return m.items[m.cursor], true
}

// selectIndex moves the cursor to the row showing store position idx.
func (m *Model) selectIndex(idx int) {
	for i, it := range m.items {
		if it.Index == idx {
			m.cursor = i
			return
		}
	}
}

func (m *Model) setStatus(kind statusKind, msg string) {
	m.statusKind = kind
	m.status = msg
}

func (m *Model) setError(err error) {
	m.log.Debug("tui error", "kind", errors.KindOf(err), "error", err)
	switch errors.KindOf(err) {
	case errors.KindValidation:
		m.setStatus(statusWarning, "Input Error: "+err.Error())
	case errors.KindPersistence:
		m.setStatus(statusError, "Save Error: "+err.Error())
	case errors.KindService:
		m.setStatus(statusError, "AI Error: "+err.Error())
	default:
		m.setStatus(statusError, "Error: "+err.Error())
	}
}

// report shows err when set, otherwise the success message.
func (m *Model) report(err error, success string) {
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(statusSuccess, success)
}
