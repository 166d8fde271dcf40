package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/export"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/orgmode"
	"github.com/harrisonrobin/gantta/pkg/taskwarrior"
	"github.com/harrisonrobin/gantta/pkg/view"
)

// readTasks loads path by extension and returns the skip reasons as text.
func readTasks(path string) ([]model.Task, []string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".csv" && ext != ".org" {
		return nil, nil, errors.New(errors.KindImport, "unsupported file type %q: use .json, .csv or .org", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(errors.KindImport, err, "could not open %s", path)
	}
	defer f.Close()

	var (
		tasks   []model.Task
		reasons []string
	)
	switch ext {
	case ".json", ".csv":
		var skipped []export.Skipped
		if ext == ".json" {
			tasks, skipped, err = export.ReadJSON(f)
		} else {
			tasks, skipped, err = export.ReadCSV(f)
		}
		for _, s := range skipped {
			reasons = append(reasons, s.String())
		}
	case ".org":
		var skipped []orgmode.Skipped
		tasks, skipped, err = orgmode.Parse(f)
		for _, s := range skipped {
			reasons = append(reasons, fmt.Sprintf("line %d: %s", s.Line, s.Reason))
		}
	}
	if err != nil {
		if errors.KindOf(err) == "" {
			err = errors.Wrap(errors.KindImport, err, "could not read %s", path)
		}
		return nil, nil, err
	}
	return tasks, reasons, nil
}

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [FILE | --taskwarrior [FILTER...]]",
		Short: "Replace the task list from a file or Taskwarrior",
		Long: `Replace the whole task list with tasks read from a .json, .csv or .org file,
or from 'task export' when --taskwarrior is given. Records that cannot be read
are skipped and reported. The previous list can be restored with undo in the editor.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw, _ := cmd.Flags().GetBool("taskwarrior")

			var (
				tasks   []model.Task
				skipped []string
				err     error
				source  string
			)
			switch {
			case tw:
				source = "Taskwarrior"
				var tws []taskwarrior.Task
				tws, err = taskwarrior.NewClient().GetTasks(cmd.Context(), args)
				if err != nil {
					return errors.Wrap(errors.KindImport, err, "could not read Taskwarrior tasks")
				}
				tasks, skipped = taskwarrior.ToTasks(tws)
			case len(args) == 1:
				source = args[0]
				tasks, skipped, err = readTasks(args[0])
				if err != nil {
					return err
				}
			default:
				return errors.Validation("import needs exactly one FILE or --taskwarrior")
			}

			for _, s := range skipped {
				a.log.Warn("skipped record", "source", source, "reason", s)
				cmd.PrintErrf("Warning: skipped %s\n", s)
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			err = st.Replace(tasks)
			if err != nil && !errors.IsKind(err, errors.KindPersistence) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks from %s (%d skipped).\n", len(tasks), source, len(skipped))
			return err
		},
	}
	cmd.Flags().Bool("taskwarrior", false, "import from 'task export'; arguments are passed as the filter")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write tasks to .json, .csv or .xlsx",
		Long: `Write the task list to FILE. The format follows the extension:

  .json  the task file format
  .csv   name,epic_number,start_date,end_date,color,priority,status,is_milestone
  .xlsx  a "Gantt Chart" sheet with one column per week

The --epic, --from and --to filters narrow what .json and .csv write. The
workbook always covers the whole task list, so filters are ignored for .xlsx.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".json" && ext != ".csv" && ext != ".xlsx" {
				return errors.Validation("unsupported export type %q: use .json, .csv or .xlsx", ext)
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			var tasks []model.Task
			if ext == ".xlsx" {
				if filtered(cmd) {
					a.log.Warn("filters ignored for workbook export", "file", path)
					cmd.PrintErrln("Warning: --epic, --from and --to are ignored for .xlsx; the workbook covers every task.")
				}
				tasks = st.Tasks()
			} else {
				tasks = view.Tasks(visible(cmd, st.Tasks()))
			}
			if len(tasks) == 0 {
				return errors.Validation("no tasks to export")
			}

			if err := writeFile(path, ext, tasks, a); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s.\n", len(tasks), path)
			return nil
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func filtered(cmd *cobra.Command) bool {
	for _, name := range []string{"epic", "from", "to"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func writeFile(path, ext string, tasks []model.Task, a *app) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.KindPersistence, err, "could not create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(errors.KindPersistence, cerr, "could not write %s", path)
		}
	}()

	switch ext {
	case ".json":
		err = export.WriteJSON(f, tasks)
	case ".csv":
		err = export.WriteCSV(f, tasks)
	case ".xlsx":
		err = export.WriteWorkbook(f, tasks, a.log)
	}
	if err != nil && errors.KindOf(err) == "" {
		err = errors.Wrap(errors.KindPersistence, err, "could not write %s", path)
	}
	return err
}
