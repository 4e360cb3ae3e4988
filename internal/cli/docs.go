package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tasktree-cli/internal/docs"
	"tasktree-cli/internal/model"
	"tasktree-cli/internal/render"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in guides (document format, states, sync, config)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				topics := docs.Topics()
				if app.plain {
					for _, t := range topics {
						if err := writePlain(cmd, t); err != nil {
							return err
						}
					}
					return nil
				}
				return writeOut(cmd, app, map[string]any{"topics": topics})
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (run `tasktree docs` to list topics)", topic))
			}

			switch {
			case raw:
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			case app.plain:
				r := render.New(cmd.OutOrStdout(), model.Metadata{}, render.Options{NoColor: app.Config.NoColor})
				return writePlain(cmd, r.Markdown(body))
			}
			return writeOut(cmd, app, map[string]any{"topic": topic, "markdown": body})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no envelope)")

	return cmd
}
