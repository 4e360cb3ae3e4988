package render

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"

	"tasktree-cli/internal/model"
)

var (
	mdMu sync.Mutex
	// Keyed by style and wrap width. A fixed style avoids the terminal
	// background query WithAutoStyle performs.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

func (r *Renderer) markdownStyle() string {
	switch {
	case r.opts.NoColor:
		return styles.NoTTYStyle
	case r.lg.HasDarkBackground():
		return styles.DarkStyle
	default:
		return styles.LightStyle
	}
}

// Markdown renders a description. Errors fall back to the raw text.
func (r *Renderer) Markdown(md string) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	width := r.opts.Width
	if width < 20 {
		width = 80
	}
	style := r.markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdMu.Lock()
	defer mdMu.Unlock()
	tr := mdRenderers[key]
	if tr == nil {
		var err error
		tr, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
			glamour.WithEmoji(),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = tr
	}
	out, err := tr.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// Task renders one task with its fields, its description and its subtree.
func (r *Renderer) Task(t model.Task) string {
	var b strings.Builder
	b.WriteString(r.Forest([]model.Task{t}))

	label := r.lg.NewStyle().Faint(true)
	field := func(name, value string) {
		b.WriteString("\n")
		b.WriteString(label.Render(name + ":"))
		b.WriteString(" ")
		b.WriteString(value)
	}
	field("state", t.State)
	if t.Priority != nil {
		field("priority", strconv.Itoa(*t.Priority))
	}
	if t.Group != nil {
		field("group", *t.Group)
	}
	if t.DueDate != nil {
		field("due", *t.DueDate)
	}
	if t.Description != nil && strings.TrimSpace(*t.Description) != "" {
		b.WriteString("\n\n")
		b.WriteString(r.Markdown(*t.Description))
	}
	return b.String()
}
