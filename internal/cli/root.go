package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"tasktree-cli/internal/config"
	"tasktree-cli/internal/format"
	"tasktree-cli/internal/journal"
	"tasktree-cli/internal/logging"
	"tasktree-cli/internal/render"
	"tasktree-cli/internal/store"
)

type App struct {
	cfgFile string
	plain   bool

	Config config.Config
	Log    zerolog.Logger
	Fs     afero.Fs
	Stdin  io.Reader

	orch    *store.Orchestrator
	journal *journal.Journal
}

func NewRootCmd() *cobra.Command {
	app := &App{Fs: afero.NewOsFs(), Stdin: os.Stdin, Log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "tasktree",
		Short:         "Hierarchical task lists in a single JSON document",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Create the document (~/.tasktree/tasks.json by default)
  tasktree init

  # Add tasks and subtasks
  tasktree add "release v2" --priority !! --group work
  tasktree add "write changelog" --parent 0

  # Advance state (todo -> wip -> done), recursively
  tasktree check 0 -r

  # Human-readable views
  tasktree list --plain --group-by state

  # Direct lookup (shortcut for: tasktree show 3)
  tasktree 3
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.configure(cmd)
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return writeErr(c, err)
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.cfgFile, "config", "", "Config file (default: ~/.config/tasktree/config.yaml)")
	pf.String("file", "", "Task document path (default: ~/.tasktree/tasks.json)")
	pf.String("format", "json", "Output format (json|edn|yaml)")
	pf.Bool("pretty", false, "Pretty-print structured output")
	pf.BoolVar(&app.plain, "plain", false, "Human-readable output instead of structured data")
	pf.Bool("no-color", false, "Disable colors in human-readable output")
	pf.Bool("ascii", false, "ASCII-only glyphs in human-readable output")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.String("log-format", "", "Log format on stderr (console|json)")
	pf.Bool("no-sync", false, "Skip git sync after this command")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newCheckCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newExtractCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newMetaCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newSyncCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func (a *App) configure(cmd *cobra.Command) error {
	v, err := config.New(a.cfgFile, cmd.Flags())
	if err != nil {
		return writeErr(cmd, err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return writeErr(cmd, err)
	}
	a.Config = cfg
	a.Log = logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format, cfg.NoColor)
	a.Log.Debug().Str("file", cfg.File).Str("config", v.ConfigFileUsed()).Msg("configured")
	return nil
}

func (a *App) docStore() store.Store {
	return store.Store{Path: a.Config.File, Fs: a.Fs}
}

// open loads the document. Mutating commands (write) also get the history
// journal and git sync wired around it. Callers must defer a.finish.
func (a *App) open(cmd *cobra.Command, write bool) (*store.Orchestrator, error) {
	ctx := cmd.Context()
	st := a.docStore()
	opts := store.Options{
		Store:       st,
		Logger:      a.Log,
		SyncTimeout: a.Config.Sync.Timeout,
	}
	if ok, _ := st.Exists(); write && ok {
		if a.Config.Journal.Enabled {
			j, err := journal.Open(ctx, journal.PathFor(st.Path))
			if err != nil {
				a.warn(cmd, fmt.Errorf("history disabled: %w", err))
			} else {
				a.journal = j
				opts.Journal = j
			}
		}
		if a.Config.Sync.Enabled {
			if s := a.syncer(); s.IsConfigured(ctx) {
				opts.Syncer = s
			}
		}
	}

	o, err := store.Open(opts)
	if err != nil {
		a.closeJournal()
		return nil, err
	}
	a.orch = o
	return o, nil
}

// finish waits for pending sync work and reports warnings on stderr. Warnings
// never fail the command.
func (a *App) finish(cmd *cobra.Command) {
	if a.orch != nil {
		timeout := a.Config.Sync.Timeout
		if timeout <= 0 {
			timeout = store.DefaultSyncTimeout
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), timeout+time.Second)
		for _, w := range a.orch.Close(ctx) {
			a.warn(cmd, w)
		}
		cancel()
		a.orch = nil
	}
	a.closeJournal()
}

func (a *App) closeJournal() {
	if a.journal != nil {
		_ = a.journal.Close()
		a.journal = nil
	}
}

func (a *App) warn(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
}

func (a *App) renderer(cmd *cobra.Command, o *store.Orchestrator) *render.Renderer {
	return render.New(cmd.OutOrStdout(), o.Meta(), render.Options{
		NoColor: a.Config.NoColor,
		ASCII:   a.Config.ASCII,
	})
}

func writeOut(cmd *cobra.Command, app *App, v any, hints ...string) error {
	return format.Write(cmd.OutOrStdout(), format.Envelope{Data: v, Hints: hints}, app.Config.Format, app.Config.Pretty)
}

func writePlain(cmd *cobra.Command, s string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), s)
	return err
}

// ReportedError marks an error already printed to stderr.
type ReportedError struct {
	Err error
}

func (e ReportedError) Error() string { return e.Err.Error() }

func (e ReportedError) Unwrap() error { return e.Err }

func writeErr(cmd *cobra.Command, err error) error {
	var reported ReportedError
	if errors.As(err, &reported) {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
	return ReportedError{Err: err}
}
