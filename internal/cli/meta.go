package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tasktree-cli/internal/model"
)

func newMetaCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Show the document metadata (states, groups, templates)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeta(cmd, app, "")
		},
	}
	for _, kind := range []string{"states", "groups", "templates"} {
		cmd.AddCommand(&cobra.Command{
			Use:   kind,
			Short: "List configured " + kind,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMeta(cmd, app, kind)
			},
		})
	}
	return cmd
}

func runMeta(cmd *cobra.Command, app *App, kind string) error {
	o, err := app.open(cmd, false)
	if err != nil {
		return writeErr(cmd, openErr(err))
	}
	defer app.finish(cmd)

	meta := o.Meta()
	var data any
	switch kind {
	case "states":
		data = meta.States
	case "groups":
		data = meta.Groups
	case "templates":
		data = meta.Templates
	default:
		data = meta
	}
	if !app.plain {
		return writeOut(cmd, app, data)
	}
	return writePlain(cmd, plainMeta(meta, kind))
}

func plainMeta(meta model.Metadata, kind string) string {
	var b strings.Builder
	if kind == "" || kind == "states" {
		for i, s := range meta.States {
			role := ""
			switch i {
			case 0:
				role = " (initial)"
			case len(meta.States) - 1:
				role = " (final)"
			}
			fmt.Fprintf(&b, "%s %s%s\n", s.Icon, s.Name, role)
		}
	}
	if kind == "" || kind == "groups" {
		for _, g := range meta.Groups {
			fmt.Fprintf(&b, "@%s\n", g.Name)
		}
	}
	if kind == "" || kind == "templates" {
		for _, t := range meta.Templates {
			fmt.Fprintf(&b, "%s: %d subtasks\n", t.Name, len(t.Subtasks))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
