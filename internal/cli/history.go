package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"tasktree-cli/internal/journal"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent changes to the task document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return writeErr(cmd, fmt.Errorf("invalid --limit: %d", limit))
			}
			path := journal.PathFor(app.Config.File)
			entries := []journal.Entry{}
			if ok, _ := afero.Exists(app.Fs, path); ok {
				j, err := journal.Open(cmd.Context(), path)
				if err != nil {
					return writeErr(cmd, err)
				}
				defer j.Close()
				entries, err = j.Tail(cmd.Context(), limit)
				if err != nil {
					return writeErr(cmd, err)
				}
			}
			if !app.plain {
				return writeOut(cmd, app, entries)
			}
			if len(entries) == 0 {
				return writePlain(cmd, "no history")
			}
			var b strings.Builder
			for _, e := range entries {
				fmt.Fprintf(&b, "%s  %s\n", e.TS.Local().Format(time.DateTime), e.Summary)
			}
			return writePlain(cmd, strings.TrimRight(b.String(), "\n"))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries")
	return cmd
}
