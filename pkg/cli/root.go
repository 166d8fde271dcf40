// Package cli wires the gantta commands.
package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/gantta/pkg/assist"
	"github.com/harrisonrobin/gantta/pkg/config"
	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/logging"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/store"
	"github.com/harrisonrobin/gantta/pkg/tui"
)

const logFile = "gantta.log"

// app carries what every command needs once the root has loaded config.
type app struct {
	configPath string
	tasksFile  string

	today       func() model.Date
	interactive func() bool
	generator   func(ctx context.Context, cfg *config.Config) (assist.Generator, error)

	cfg *config.Config
	log *slog.Logger
}

// NewRootCmd builds the gantta command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{
		today:       model.Today,
		interactive: tui.IsInteractive,
		generator:   geminiGenerator,
	})
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gantta",
		Short: "Terminal Gantt chart planner",
		Long: `gantta keeps a list of tasks in a JSON file and draws them as a weekly
Gantt chart. Run it without a command to open the interactive editor.

Tasks are addressed by their zero-based position as shown by 'gantta list'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		RunE: a.runTUI,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/gantta/config.yaml)")
	root.PersistentFlags().StringVar(&a.tasksFile, "file", "", "tasks file (default from config: gantt_tasks.json)")

	root.AddCommand(
		&cobra.Command{
			Use:   "tui",
			Short: "Open the interactive chart editor",
			Args:  cobra.NoArgs,
			RunE:  a.runTUI,
		},
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newListCmd(a),
		newSortCmd(a),
		newChartCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newAssistCmd(a),
		newOverdueCmd(a),
		newCalendarCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.tasksFile != "" {
		cfg.TasksFile = a.tasksFile
	}
	a.cfg = cfg
	a.log = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

func (a *app) openStore() (*store.Store, error) {
	return store.Open(a.cfg.TasksFile, a.log)
}

func (a *app) newAssistant(ctx context.Context) *assist.Assistant {
	gen, err := a.generator(ctx, a.cfg)
	if err != nil {
		a.log.Warn("AI assist unavailable", "error", err)
		gen = nil
	}
	return assist.New(gen, a.cfg.Assist.Timeout, a.log)
}

func geminiGenerator(_ context.Context, cfg *config.Config) (assist.Generator, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	g, err := assist.NewGemini(assist.GeminiConfig{
		APIKey:          cfg.APIKey,
		Model:           cfg.Assist.Model,
		MaxOutputTokens: cfg.Assist.MaxOutputTokens,
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// The editor owns the terminal, so logs go to a file or nowhere.
	log := logging.Discard()
	if logging.ParseLevel(a.cfg.Log.Level) == slog.LevelDebug {
		if f, err := openLogFile(); err == nil {
			defer f.Close()
			log = logging.New(logging.Config{Level: a.cfg.Log.Level, Format: a.cfg.Log.Format, Output: f})
		}
	}
	a.log = log

	st, err := a.openStore()
	if err != nil {
		if !errors.IsKind(err, errors.KindPersistence) {
			return err
		}
		cmd.PrintErrf("Warning: %v\n", err)
	}
	return tui.Run(ctx, st, a.newAssistant(ctx), log)
}

func openLogFile() (*os.File, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, logFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
}
