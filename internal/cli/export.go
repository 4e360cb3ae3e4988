package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tasktree-cli/internal/model"
	"tasktree-cli/internal/publish"
)

func newExportCmd(app *App) *cobra.Command {
	var (
		formatName string
		out        string
		title      string
		overwrite  bool
		noDesc     bool
		ids        string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as a Markdown checklist or an HTML page",
		Example: `  tasktree export > tasks.md
  tasktree export --as html --out site/tasks.html --title "Sprint 12"
  tasktree export --ids 0,4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := publish.ParseFormat(formatName)
			if err != nil {
				return writeErr(cmd, err)
			}
			o, err := app.open(cmd, false)
			if err != nil {
				return writeErr(cmd, openErr(err))
			}
			defer app.finish(cmd)

			tasks := o.Forest().Roots
			if ids != "" {
				want, err := parseIDs(ids)
				if err != nil {
					return writeErr(cmd, err)
				}
				tasks = make([]model.Task, 0, len(want))
				for _, id := range want {
					t, err := o.GetByID(id)
					if err != nil {
						return writeErr(cmd, err)
					}
					tasks = append(tasks, t)
				}
			}

			opt := publish.WriteOptions{
				Format:        f,
				Title:         title,
				Overwrite:     overwrite,
				RenderOptions: publish.RenderOptions{IncludeDescriptions: !noDesc},
			}
			if out == "" {
				content, err := publish.Render(o.Meta(), tasks, opt)
				if err != nil {
					return writeErr(cmd, err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), content)
				return err
			}
			res, err := publish.Write(app.Fs, out, o.Meta(), tasks, opt)
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.plain {
				return writePlain(cmd, fmt.Sprintf("wrote %s (%d bytes)", res.Written, res.Bytes))
			}
			return writeOut(cmd, app, res)
		},
	}
	cmd.Flags().StringVar(&formatName, "as", "md", "Export format (md|html)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&title, "title", "", "Document title (default: Tasks)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing output file")
	cmd.Flags().BoolVar(&noDesc, "no-descriptions", false, "Leave task descriptions out")
	cmd.Flags().StringVar(&ids, "ids", "", "Only export these tasks (comma-separated)")
	return cmd
}
