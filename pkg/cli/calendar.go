package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/gantta/pkg/auth"
	"github.com/harrisonrobin/gantta/pkg/colors"
	"github.com/harrisonrobin/gantta/pkg/config"
	"github.com/harrisonrobin/gantta/pkg/google"
	"github.com/harrisonrobin/gantta/pkg/index"
	"github.com/harrisonrobin/gantta/pkg/overdue"
)

func newOverdueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List unfinished tasks past their end date",
		Long: `List unfinished tasks whose end date has passed, most overdue first.
Tasks reported for the first time are marked as new.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			dir, err := config.Dir()
			if err != nil {
				return err
			}
			sweep, err := overdue.NewTable(filepath.Join(dir, overdue.FileName))
			if err != nil {
				a.log.Warn("overdue table unreadable, starting fresh", "error", err)
				sweep = &overdue.Table{Path: filepath.Join(dir, overdue.FileName), Entries: map[string]overdue.Entry{}}
			}

			all, fresh := sweep.Sweep(st.Tasks(), a.today())
			if err := sweep.Save(); err != nil {
				a.log.Warn("could not save overdue table", "error", err)
			}
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No overdue tasks.")
				return nil
			}

			isNew := make(map[string]bool, len(fresh))
			for _, e := range fresh {
				isNew[e.TaskID] = true
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("#", "Task", "End", "Days late", "")
			for _, e := range all {
				mark := ""
				if isNew[e.TaskID] {
					mark = "new"
				}
				t.Row(strconv.Itoa(e.Index), e.Name, e.EndDate.String(), strconv.Itoa(e.DaysLate), mark)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func newCalendarCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Publish tasks to Google Calendar",
	}

	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize gantta to use Google Calendar",
		Long: `Run the browser OAuth flow and save a fresh token, replacing any existing one.
credentials.json must be in ~/.config/gantta.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := auth.Authorize(cmd.Context(), google.Scopes, a.log)
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n", path)
			return nil
		},
	}

	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Create or update one all-day event per task",
		Long: `Push every task to the configured calendar as an all-day event. Events are
matched to tasks by id and patched only when they differ; events of tasks that
no longer exist are deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			name, _ := cmd.Flags().GetString("calendar")
			if name == "" {
				name = a.cfg.Calendar
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			dir, err := config.Dir()
			if err != nil {
				return err
			}
			idx, err := index.NewEventIndex(filepath.Join(dir, index.FileName))
			if err != nil {
				return err
			}
			cache, err := colors.NewColorCache(filepath.Join(dir, colors.FileName), a.log)
			if err != nil {
				return err
			}

			client, err := google.NewClient(ctx, name, idx, cache, a.log)
			if err != nil {
				return err
			}
			report, err := client.Push(ctx, st.Tasks(), a.today())
			fmt.Fprintf(cmd.OutOrStdout(), "Calendar %q: %s\n", name, report)
			return err
		},
	}
	pushCmd.Flags().String("calendar", "", "calendar name (overrides config)")

	cmd.AddCommand(authCmd, pushCmd)
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change gantta configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPath(a)
			if err != nil {
				return err
			}
			key := "not set"
			if a.cfg.APIKey != "" {
				key = "set"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config file:       %s\n", path)
			fmt.Fprintf(out, "tasks file:        %s\n", a.cfg.TasksFile)
			fmt.Fprintf(out, "calendar:          %s\n", a.cfg.Calendar)
			fmt.Fprintf(out, "log:               %s (%s)\n", a.cfg.Log.Level, a.cfg.Log.Format)
			fmt.Fprintf(out, "assist model:      %s\n", a.cfg.Assist.Model)
			fmt.Fprintf(out, "assist max tokens: %d\n", a.cfg.Assist.MaxOutputTokens)
			fmt.Fprintf(out, "assist timeout:    %s\n", a.cfg.Assist.Timeout)
			fmt.Fprintf(out, "%s:    %s\n", config.APIKeyEnv, key)
			return nil
		},
	}

	setCalendarCmd := &cobra.Command{
		Use:   "set-calendar NAME",
		Short: "Set the default calendar for push",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(a)
			if err != nil {
				return err
			}
			// Reload so flag overrides such as --file are not persisted.
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			cfg.Calendar = args[0]
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default calendar set to: %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(showCmd, setCalendarCmd)
	return cmd
}

func configPath(a *app) (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.GetConfigPath()
}
