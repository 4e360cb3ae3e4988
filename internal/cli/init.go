package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tasktree-cli/internal/model"
)

func newInitCmd(app *App) *cobra.Command {
	var metaFile string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty task document",
		Long: `Create an empty task document at --file (default ~/.tasktree/tasks.json).

States default to todo, wip and done. --meta seeds states, groups and templates
from a YAML or JSON file instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			meta := model.DefaultMetadata()
			if metaFile != "" {
				m, err := readMetadata(app.Fs, metaFile)
				if err != nil {
					return writeErr(cmd, err)
				}
				meta = m
			}
			st := app.docStore()
			doc, err := st.Init(meta)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.Log.Info().Str("path", st.Path).Msg("initialized")
			if app.plain {
				return writePlain(cmd, "initialized "+st.Path)
			}
			return writeOut(cmd, app, map[string]any{"path": st.Path, "meta": doc.Meta})
		},
	}
	cmd.Flags().StringVar(&metaFile, "meta", "", "Metadata file (YAML or JSON) with states, groups and templates")
	return cmd
}

// readMetadata decodes YAML (or JSON, which YAML accepts) and reuses the JSON
// field names so both spell keys like dueDate the same way.
func readMetadata(fs afero.Fs, path string) (model.Metadata, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return model.Metadata{}, err
	}
	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return model.Metadata{}, fmt.Errorf("parse %s: %w", path, err)
	}
	js, err := json.Marshal(raw)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("parse %s: %w", path, err)
	}
	meta := model.Metadata{Groups: []model.Group{}, Templates: []model.Template{}}
	if err := json.Unmarshal(js, &meta); err != nil {
		return model.Metadata{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if meta.Groups == nil {
		meta.Groups = []model.Group{}
	}
	if meta.Templates == nil {
		meta.Templates = []model.Template{}
	}
	if err := meta.Validate(); err != nil {
		return model.Metadata{}, fmt.Errorf("%s: %w", path, err)
	}
	return meta, nil
}
