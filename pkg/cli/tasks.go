package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/store"
	"github.com/harrisonrobin/gantta/pkg/timeline"
	"github.com/harrisonrobin/gantta/pkg/tui"
	"github.com/harrisonrobin/gantta/pkg/view"
)

func addTaskFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "task name")
	cmd.Flags().String("epic", "", "epic number")
	cmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().String("color", "", "bar color as #RRGGBB (default #000000)")
	cmd.Flags().String("priority", "", "Low, Medium, High or Critical (default Medium)")
	cmd.Flags().String("status", "", "Not Started, In Progress, Completed or Blocked (default Not Started)")
	cmd.Flags().Bool("milestone", false, "mark the task as a milestone")
}

// applyTaskFlags overrides the fields of t whose flags were given.
func applyTaskFlags(cmd *cobra.Command, t model.Task) (model.Task, error) {
	flags := cmd.Flags()
	str := func(name string) (string, bool) {
		if !flags.Changed(name) {
			return "", false
		}
		v, _ := flags.GetString(name)
		return v, true
	}

	if v, ok := str("name"); ok {
		t.Name = v
	}
	if v, ok := str("epic"); ok {
		t.EpicNumber = v
	}
	if v, ok := str("color"); ok {
		t.Color = v
	}
	for _, d := range []struct {
		flag string
		dst  *model.Date
	}{{"start", &t.StartDate}, {"end", &t.EndDate}} {
		v, ok := str(d.flag)
		if !ok {
			continue
		}
		date, err := model.ParseDate(v)
		if err != nil {
			return t, errors.Wrap(errors.KindValidation, err, "invalid --%s", d.flag)
		}
		*d.dst = date
	}
	// Unknown priority and status names are stored as given.
	if v, ok := str("priority"); ok {
		t.Priority = model.Priority(v)
		if p, err := model.ParsePriority(v); err == nil {
			t.Priority = p
		}
	}
	if v, ok := str("status"); ok {
		t.Status = model.Status(v)
		if s, err := model.ParseStatus(v); err == nil {
			t.Status = s
		}
	}
	if flags.Changed("milestone") {
		t.IsMilestone, _ = flags.GetBool("milestone")
	}
	return t, nil
}

func parseIndex(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.New(errors.KindIndex, "invalid task index %q", arg)
	}
	return i, nil
}

func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		Long: `Add a task to the end of the list.

Examples:
  gantta add --name "Design API" --epic E1 --start 2024-01-08 --end 2024-01-12
  gantta add --name "Beta" --start 2024-02-01 --end 2024-02-01 --milestone --color "#ff8800"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			t, err := applyTaskFlags(cmd, model.Task{})
			if err != nil {
				return err
			}
			idx, err := st.Add(t)
			if err != nil && !errors.IsKind(err, errors.KindPersistence) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task '%s' added at index %d.\n", strings.TrimSpace(t.Name), idx)
			return err
		},
	}
	addTaskFlags(cmd)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update INDEX",
		Short: "Update the task at INDEX",
		Long:  `Replace the fields given as flags on the task at INDEX; other fields keep their values.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			current, err := st.Get(idx)
			if err != nil {
				return err
			}
			t, err := applyTaskFlags(cmd, current)
			if err != nil {
				return err
			}
			err = st.Update(idx, t)
			if err != nil && !errors.IsKind(err, errors.KindPersistence) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task '%s' updated.\n", strings.TrimSpace(t.Name))
			return err
		},
	}
	addTaskFlags(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete INDEX",
		Short: "Delete the task at INDEX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			t, err := st.Get(idx)
			if err != nil {
				return err
			}

			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				if !a.interactive() {
					return errors.Validation("refusing to delete without confirmation: pass --yes")
				}
				ok, err := tui.PromptForConfirmation(fmt.Sprintf("Delete task '%s'?", t.Name), false)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Delete cancelled.")
					return nil
				}
			}

			removed, err := st.Delete(idx)
			if err != nil && !errors.IsKind(err, errors.KindPersistence) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task '%s' deleted.\n", removed.Name)
			return err
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "delete without asking")
	return cmd
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("epic", "", "show only epics containing this text")
	cmd.Flags().String("from", "", "hide tasks ending before this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "hide tasks starting after this date (YYYY-MM-DD)")
}

// visible applies the filter flags. A malformed date is reported and only
// the epic filter is kept.
func visible(cmd *cobra.Command, tasks []model.Task) []view.Item {
	var state view.State
	state.Epic, _ = cmd.Flags().GetString("epic")
	state.From, _ = cmd.Flags().GetString("from")
	state.To, _ = cmd.Flags().GetString("to")

	items, err := view.Visible(tasks, state)
	if err != nil {
		cmd.PrintErrf("Warning: %v\n", err)
	}
	return items
}

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks with their indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			items := visible(cmd, st.Tasks())
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks to display.")
				return nil
			}
			writeTaskTable(cmd.OutOrStdout(), items)
			return nil
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func writeTaskTable(w io.Writer, items []view.Item) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Task", "Epic", "Start", "End", "Priority", "Status", "Milestone", "Color")
	for _, it := range items {
		milestone := ""
		if it.Task.IsMilestone {
			milestone = "◆"
		}
		t.Row(
			strconv.Itoa(it.Index),
			it.Task.Name,
			it.Task.EpicNumber,
			it.Task.StartDate.String(),
			it.Task.EndDate.String(),
			string(it.Task.Priority),
			string(it.Task.Status),
			milestone,
			it.Task.Color,
		)
	}
	fmt.Fprintln(w, t.Render())
}

func newSortCmd(a *app) *cobra.Command {
	keys := make([]string, len(store.SortKeys))
	for i, k := range store.SortKeys {
		keys[i] = string(k)
	}
	return &cobra.Command{
		Use:       "sort KEY",
		Short:     "Reorder the task list",
		Long:      "Reorder the stored task list by one of: " + strings.Join(keys, ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: keys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := store.ParseSortKey(args[0])
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			if err := st.Sort(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tasks sorted by %s.\n", key.Label())
			return nil
		},
	}
}

func newChartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Print the Gantt chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			layout := timeline.Build(visible(cmd, st.Tasks()), a.today(), timeline.DefaultGeometry())
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderChart(layout, tui.DefaultStyles(), tui.ChartOptions{Cursor: -1}))
			return nil
		},
	}
	addFilterFlags(cmd)
	return cmd
}
