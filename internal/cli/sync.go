package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tasktree-cli/internal/gitrepo"
	"tasktree-cli/internal/store"
)

func newSyncCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Git sync for the task document's repository",
		Long: `Every change is committed (and pushed when an upstream exists) after it is
saved, as long as the document lives in a git work tree and sync is enabled.
These commands inspect or drive that repository by hand.`,
	}
	cmd.AddCommand(newSyncStatusCmd(app))
	cmd.AddCommand(newSyncPullCmd(app))
	cmd.AddCommand(newSyncPushCmd(app))
	return cmd
}

func (a *App) syncer() gitrepo.Syncer {
	return gitrepo.New(a.Config.File, gitrepo.Options{
		AutoCommit:     a.Config.Sync.AutoCommit,
		AutoPush:       a.Config.Sync.AutoPush,
		AutoPullRebase: a.Config.Sync.AutoPullRebase,
	})
}

func newSyncStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show repository state for the task document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.syncer()
			st, err := s.Status(cmd.Context(), app.Config.File)
			if err != nil {
				return writeErr(cmd, err)
			}
			hints := syncHints(st, app.Config.Sync.Enabled)
			if app.plain {
				return writePlain(cmd, plainStatus(st, hints))
			}
			return writeOut(cmd, app, st, hints...)
		},
	}
}

func syncHints(st gitrepo.Status, enabled bool) []string {
	var hints []string
	switch {
	case !st.IsRepo:
		hints = append(hints, "git init (in the document's directory) to version and sync tasks")
		return hints
	case !enabled:
		hints = append(hints, "sync is disabled (sync.enabled=false); changes are not committed")
	}
	if st.InProgress {
		hints = append(hints, fmt.Sprintf("finish the %s in progress (git status)", st.InProgressKind))
	}
	if st.Unmerged {
		hints = append(hints, "resolve conflicts in the task document, then git add and continue")
	}
	if st.Upstream == "" {
		hints = append(hints, "git push -u <remote> "+st.Branch+" to enable push")
	}
	if st.Behind > 0 {
		hints = append(hints, "tasktree sync pull")
	}
	if st.Ahead > 0 {
		hints = append(hints, "tasktree sync push")
	}
	return hints
}

func plainStatus(st gitrepo.Status, hints []string) string {
	if !st.IsRepo {
		return "not a git repository"
	}
	s := fmt.Sprintf("branch %s", st.Branch)
	if st.Upstream != "" {
		s += fmt.Sprintf(" -> %s (ahead %d, behind %d)", st.Upstream, st.Ahead, st.Behind)
	}
	if st.DocumentDirty {
		s += "\ntask document has uncommitted changes"
	}
	for _, h := range hints {
		s += "\nhint: " + h
	}
	return s
}

func newSyncPullCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull (rebase) remote changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncStep(cmd, app, "pull", app.syncer().Pull)
		},
	}
}

func newSyncPushCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Push committed changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncStep(cmd, app, "push", app.syncer().Push)
		},
	}
}

func runSyncStep(cmd *cobra.Command, app *App, name string, step func(context.Context) error) error {
	timeout := app.Config.Sync.Timeout
	if timeout <= 0 {
		timeout = store.DefaultSyncTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	start := time.Now()
	if err := step(ctx); err != nil {
		return writeErr(cmd, fmt.Errorf("%s: %w", name, err))
	}
	app.Log.Info().Str("step", name).Dur("took", time.Since(start)).Msg("sync")
	if app.plain {
		return writePlain(cmd, name+": ok")
	}
	return writeOut(cmd, app, map[string]any{"action": name, "ok": true})
}
