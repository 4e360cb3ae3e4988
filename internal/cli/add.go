package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"tasktree-cli/internal/model"
	"tasktree-cli/internal/prompt"
)

func newAddCmd(app *App) *cobra.Command {
	var (
		attrs    attrFlags
		parent   idValue
		template string
	)
	cmd := &cobra.Command{
		Use:     "add [name...]",
		Aliases: []string{"new"},
		Short:   "Add a task",
		Long: `Add a task at the top level or, with --parent, as the last subtask of
another task. Without a name on an interactive terminal, a short form asks for it.`,
		Example: `  tasktree add "release v2" --priority !! --group work
  tasktree add write changelog --parent 0
  tasktree add "new service" --template service`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			return runIntent(cmd, app, func(meta model.Metadata) (Intent, error) {
				patch, err := attrs.patch(cmd, meta)
				if err != nil {
					return Intent{}, err
				}
				if name == "" {
					answers, err := app.ask(cmd, prompt.Answers{Description: deref(patch.Description)})
					if err != nil {
						return Intent{}, err
					}
					name = answers.Name
					if answers.Description != "" {
						patch.Description = &answers.Description
					}
				}

				in := Intent{
					Action: ActionInsert,
					Parent: parent.ptr(),
					Attrs: model.TaskAttributes{
						Name:        name,
						Description: patch.Description,
						Priority:    patch.Priority,
						Group:       patch.Group,
						DueDate:     patch.DueDate,
						Template:    strings.TrimSpace(template),
					},
				}
				if patch.State != nil {
					in.Attrs.State = *patch.State
				}
				return in, nil
			})
		},
	}
	attrs.register(cmd)
	cmd.Flags().Var(&parent, "parent", "Parent task id (default: top level)")
	cmd.Flags().StringVarP(&template, "template", "t", "", "Copy the subtasks of a template (see: tasktree meta templates)")
	return cmd
}

// ask runs the interactive form when allowed. Prompting disabled or a
// non-terminal stdin both fail with the missing-name error.
func (a *App) ask(cmd *cobra.Command, initial prompt.Answers) (prompt.Answers, error) {
	if !a.Config.Prompt {
		return prompt.Answers{}, prompt.ErrNotInteractive
	}
	return prompt.Ask(cmd.Context(), a.Stdin, cmd.ErrOrStderr(), initial)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
