package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tasktree-cli/internal/model"
)

// intentFunc builds the intent once the document metadata is known.
type intentFunc func(meta model.Metadata) (Intent, error)

func fixed(in Intent) intentFunc {
	return func(model.Metadata) (Intent, error) { return in, nil }
}

// runIntent executes one mutating command end to end: load, apply, save,
// journal, sync, then print what changed.
func runIntent(cmd *cobra.Command, app *App, build intentFunc) error {
	o, err := app.open(cmd, true)
	if err != nil {
		return writeErr(cmd, openErr(err))
	}
	defer app.finish(cmd)

	in, err := build(o.Meta())
	if err != nil {
		return writeErr(cmd, err)
	}
	res, err := in.Run(cmd.Context(), o, app.Fs)
	if err != nil {
		return writeErr(cmd, err)
	}
	view := viewOf(o, res)
	if !app.plain {
		return writeOut(cmd, app, view)
	}
	if err := writePlain(cmd, res.Summary); err != nil {
		return err
	}
	if len(view.Tasks) == 0 {
		return nil
	}
	return writePlain(cmd, app.renderer(cmd, o).Forest(view.Tasks))
}

func newEditCmd(app *App) *cobra.Command {
	var (
		attrs       attrFlags
		name        string
		clearFields []string
		recursive   bool
	)
	cmd := &cobra.Command{
		Use:   "edit <ids>",
		Short: "Change attributes of one or more tasks",
		Example: `  tasktree edit 3 --state wip
  tasktree edit 3,4 --group home --priority !!
  tasktree edit 0 -r --due 2024-03-01
  tasktree edit 5 --clear due,priority`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args...)
			if err != nil {
				return writeErr(cmd, err)
			}
			var unset []model.Field
			for _, raw := range clearFields {
				f, err := model.ParseField(raw)
				if err != nil {
					return writeErr(cmd, err)
				}
				unset = append(unset, f)
			}
			return runIntent(cmd, app, func(meta model.Metadata) (Intent, error) {
				patch, err := attrs.patch(cmd, meta)
				if err != nil {
					return Intent{}, err
				}
				patch.Name = changedString(cmd, "name", name)
				patch.Unset = unset
				return Intent{Action: ActionEdit, IDs: ids, Patch: patch, Recursive: recursive}, nil
			})
		},
	}
	attrs.register(cmd)
	cmd.Flags().StringVarP(&name, "name", "n", "", "New task name")
	cmd.Flags().StringSliceVar(&clearFields, "clear", nil, "Fields to remove (description,priority,group,due)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Also apply to every descendant")
	return cmd
}

func newCheckCmd(app *App) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:     "check <ids>",
		Aliases: []string{"advance"},
		Short:   "Advance tasks to their next state",
		Long:    "Advance tasks to their next state. Tasks already in the final state stay there.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args...)
			if err != nil {
				return writeErr(cmd, err)
			}
			return runIntent(cmd, app, fixed(Intent{Action: ActionAdvance, IDs: ids, Recursive: recursive}))
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Also advance every descendant")
	return cmd
}

func newMoveCmd(app *App) *cobra.Command {
	var to idValue
	cmd := &cobra.Command{
		Use:     "move <ids> --to <id>",
		Aliases: []string{"mv"},
		Short:   "Move tasks (with their subtasks) under another task",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args...)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !to.set {
				return writeErr(cmd, fmt.Errorf("missing --to"))
			}
			return runIntent(cmd, app, fixed(Intent{Action: ActionMove, IDs: ids, Dest: to.id}))
		},
	}
	cmd.Flags().Var(&to, "to", "Destination task id")
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <ids>",
		Aliases: []string{"rm"},
		Short:   "Delete tasks and all of their subtasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args...)
			if err != nil {
				return writeErr(cmd, err)
			}
			return runIntent(cmd, app, fixed(Intent{Action: ActionRemove, IDs: ids}))
		},
	}
	return cmd
}

func newExtractCmd(app *App) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "extract <ids> --to <path>",
		Short: "Move tasks into another task document",
		Long: `Move tasks (with their subtasks) into another task document, creating it
with this document's metadata when it does not exist. Moved tasks get fresh ids
in the target.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args...)
			if err != nil {
				return writeErr(cmd, err)
			}
			if to == "" {
				return writeErr(cmd, fmt.Errorf("missing --to"))
			}
			return runIntent(cmd, app, fixed(Intent{Action: ActionExtract, IDs: ids, Path: to}))
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Target document path")
	return cmd
}
