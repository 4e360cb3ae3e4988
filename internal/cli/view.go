package cli

import (
	"github.com/spf13/cobra"

	"tasktree-cli/internal/tree"
)

func newShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show <id>",
		Aliases: []string{"get"},
		Short:   "Show one task with its subtasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			o, err := app.open(cmd, false)
			if err != nil {
				return writeErr(cmd, openErr(err))
			}
			defer app.finish(cmd)

			t, err := o.GetByID(id)
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.plain {
				return writePlain(cmd, app.renderer(cmd, o).Task(t))
			}
			return writeOut(cmd, app, t)
		},
	}
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var (
		groupBy string
		reverse bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the task forest",
		Example: `  tasktree list
  tasktree list --plain --group-by state
  tasktree list --reverse`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := app.open(cmd, false)
			if err != nil {
				return writeErr(cmd, openErr(err))
			}
			defer app.finish(cmd)

			// Views never write back; reordering happens on a copy.
			f := o.Forest().Clone()
			if reverse {
				f.Reverse()
			}
			r := app.renderer(cmd, o)

			if groupBy == "" {
				if app.plain {
					return writePlain(cmd, r.Forest(f.Roots))
				}
				return writeOut(cmd, app, f.Roots)
			}
			by, err := tree.ParseGroupBy(groupBy)
			if err != nil {
				return writeErr(cmd, err)
			}
			buckets, err := f.Group(o.Meta(), by)
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.plain {
				return writePlain(cmd, r.Groups(by, buckets))
			}
			return writeOut(cmd, app, map[string]any{"groupBy": by, "buckets": buckets})
		},
	}
	cmd.Flags().StringVar(&groupBy, "group-by", "", "Partition top-level tasks by state|id|priority|group|dueDate")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "Reverse the top-level order")
	return cmd
}
