package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/gantta/pkg/assist"
	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/tui"
)

func newAssistCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assist NAME",
		Short: "Draft text about a task with Gemini",
		Long: `Ask Gemini to write about the task NAME and print the cleaned result.

Actions:
  expand    Expand Description
  subtasks  Generate Sub-tasks
  risks     Brainstorm Risks
  status    Draft Status Update

Without --action an interactive picker is shown. With --apply INDEX the result
is merged into that task's name the same way the editor applies it.
Requires GOOGLE_API_KEY in the environment or in a .env file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := chooseAction(cmd, a)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			res := a.newAssistant(ctx).Run(ctx, assist.Request{
				Action:   action,
				TaskName: strings.Join(args, " "),
			})
			if res.Err != nil {
				return res.Err
			}

			if !cmd.Flags().Changed("apply") {
				fmt.Fprintln(cmd.OutOrStdout(), res.Content)
				return nil
			}
			idx, _ := cmd.Flags().GetInt("apply")
			return applyToTask(cmd, a, idx, action, res.Content)
		},
	}
	cmd.Flags().StringP("action", "a", "", "expand, subtasks, risks or status")
	cmd.Flags().Int("apply", 0, "merge the result into the name of the task at this index")
	return cmd
}

func chooseAction(cmd *cobra.Command, a *app) (assist.Action, error) {
	if v, _ := cmd.Flags().GetString("action"); v != "" {
		return assist.ParseAction(v)
	}
	if !a.interactive() {
		return assist.ExpandDescription, nil
	}
	options := make([]string, len(assist.Actions))
	for i, act := range assist.Actions {
		options[i] = string(act)
	}
	picked, err := tui.PromptForSelect("AI action", options)
	if err != nil {
		return "", err
	}
	return assist.ParseAction(picked)
}

func applyToTask(cmd *cobra.Command, a *app, idx int, action assist.Action, content string) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	t, err := st.Get(idx)
	if err != nil {
		return err
	}
	if t.Name, err = assist.Apply(action, t.Name, content); err != nil {
		return err
	}
	err = st.Update(idx, t)
	if err != nil && !errors.IsKind(err, errors.KindPersistence) {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %s to task %d.\n", action, idx)
	return err
}
