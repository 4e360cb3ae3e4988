// Package publish exports a task forest as Markdown or HTML.
package publish

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"tasktree-cli/internal/model"
)

type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want md or html)", s)
	}
}

type WriteOptions struct {
	Format    Format
	Title     string
	Overwrite bool
	RenderOptions
}

type WriteResult struct {
	Written string `json:"written,omitempty"`
	Bytes   int    `json:"bytes"`
}

// Render returns the export content for tasks.
func Render(meta model.Metadata, tasks []model.Task, opt WriteOptions) (string, error) {
	ro := opt.RenderOptions
	if ro.Title == "" {
		ro.Title = opt.Title
	}
	md := RenderMarkdown(meta, tasks, ro)
	if opt.Format != FormatHTML {
		return md, nil
	}
	title := ro.Title
	if title == "" {
		title = "Tasks"
	}
	return RenderHTML(title, md)
}

// Write renders tasks to path. An existing file is kept unless Overwrite is set.
func Write(fs afero.Fs, path string, meta model.Metadata, tasks []model.Task, opt WriteOptions) (WriteResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return WriteResult{}, errors.New("missing --out")
	}
	content, err := Render(meta, tasks, opt)
	if err != nil {
		return WriteResult{}, err
	}
	if !opt.Overwrite {
		if ok, _ := afero.Exists(fs, path); ok {
			return WriteResult{}, errors.New("file exists (use --overwrite): " + path)
		}
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return WriteResult{}, err
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: path, Bytes: len(content)}, nil
}
