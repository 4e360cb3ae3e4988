// Package render draws tasks for humans: a tree of task lines coloured from
// the document's metadata, with an ASCII fallback for dumb terminals.
package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"tasktree-cli/internal/model"
	"tasktree-cli/internal/statusutil"
	tasktree "tasktree-cli/internal/tree"
)

type Options struct {
	NoColor bool
	ASCII   bool
	// Width truncates each line; 0 disables truncation.
	Width int
}

type Renderer struct {
	meta model.Metadata
	opts Options
	lg   *lipgloss.Renderer
}

func New(w io.Writer, meta model.Metadata, opts Options) *Renderer {
	lg := lipgloss.NewRenderer(w)
	if opts.NoColor || strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lg.SetColorProfile(termenv.Ascii)
		opts.NoColor = true
	}
	return &Renderer{meta: meta, opts: opts, lg: lg}
}

// namedColors maps the colour names used in metadata to ANSI palette indexes.
var namedColors = map[string]string{
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "3",
	"blue":    "4",
	"magenta": "5",
	"purple":  "5",
	"cyan":    "6",
	"white":   "7",
	"gray":    "8",
	"grey":    "8",
	"orange":  "208",
	"pink":    "213",
}

// color resolves a metadata colour: a known name, a #hex value or a palette
// index. Anything else renders without colour.
func color(name string) (lipgloss.TerminalColor, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, false
	}
	if c, ok := namedColors[name]; ok {
		return lipgloss.Color(c), true
	}
	if strings.HasPrefix(name, "#") && (len(name) == 4 || len(name) == 7) {
		return lipgloss.Color(name), true
	}
	if isDigits(name) {
		return lipgloss.Color(name), true
	}
	return nil, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func (r *Renderer) style(colorName string) lipgloss.Style {
	st := r.lg.NewStyle()
	if c, ok := color(colorName); ok {
		st = st.Foreground(c)
	}
	return st
}

func (r *Renderer) stateIcon(state string) string {
	s, ok := statusutil.Lookup(r.meta, state)
	if r.opts.ASCII || !ok || s.Icon == "" {
		return "[" + state + "]"
	}
	return s.Icon
}

// Line renders one task without its subtasks.
func (r *Renderer) Line(t model.Task) string {
	st, _ := statusutil.Lookup(r.meta, t.State)
	done := statusutil.IsTerminal(r.meta, t.State)
	parts := []string{
		r.style(st.Color).Render(r.stateIcon(t.State)),
		r.lg.NewStyle().Faint(true).Render(strconv.Itoa(t.ID)),
		r.lg.NewStyle().Bold(!done).Strikethrough(done).Render(t.Name),
	}
	if p := model.FormatPriority(t.Priority); p != "" {
		parts = append(parts, r.style("red").Render(p))
	}
	if t.Group != nil && *t.Group != "" {
		g, _ := r.meta.FindGroup(*t.Group)
		parts = append(parts, r.style(g.Color).Render("@"+*t.Group))
	}
	if t.DueDate != nil && *t.DueDate != "" {
		parts = append(parts, r.lg.NewStyle().Italic(true).Render("due "+*t.DueDate))
	}
	line := strings.Join(parts, " ")
	if r.opts.Width > 0 {
		line = xansi.Truncate(line, r.opts.Width, "…")
	}
	return line
}

func (r *Renderer) node(t model.Task) any {
	if len(t.Subtasks) == 0 {
		return r.Line(t)
	}
	n := tree.Root(r.Line(t))
	r.decorate(n)
	for _, c := range t.Subtasks {
		n.Child(r.node(c))
	}
	return n
}

func (r *Renderer) decorate(t *tree.Tree) {
	if r.opts.ASCII {
		t.Enumerator(asciiEnumerator).Indenter(asciiIndenter)
		return
	}
	t.Enumerator(tree.RoundedEnumerator)
}

func asciiEnumerator(children tree.Children, index int) string {
	if children.Length()-1 == index {
		return "`--"
	}
	return "|--"
}

func asciiIndenter(children tree.Children, index int) string {
	if children.Length()-1 == index {
		return "   "
	}
	return "|  "
}

// Forest renders tasks as top-level entries, each with its subtree.
func (r *Renderer) Forest(tasks []model.Task) string {
	if len(tasks) == 0 {
		return r.lg.NewStyle().Faint(true).Render("no tasks")
	}
	var b strings.Builder
	for i, t := range tasks {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch n := r.node(t).(type) {
		case *tree.Tree:
			b.WriteString(n.String())
		default:
			b.WriteString(fmt.Sprint(n))
		}
	}
	return b.String()
}

// Groups renders each bucket under a coloured heading.
func (r *Renderer) Groups(by tasktree.GroupBy, buckets []tasktree.Bucket) string {
	if len(buckets) == 0 {
		return r.lg.NewStyle().Faint(true).Render("no tasks")
	}
	var b strings.Builder
	for i, bk := range buckets {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(r.heading(by, bk))
		b.WriteByte('\n')
		b.WriteString(r.Forest(bk.Tasks))
	}
	return b.String()
}

func (r *Renderer) heading(by tasktree.GroupBy, bk tasktree.Bucket) string {
	label := bk.Key
	colorName := ""
	switch {
	case bk.Unset:
		label = "(" + bk.Key + ")"
	case by == tasktree.GroupByState:
		if s, ok := statusutil.Lookup(r.meta, bk.Key); ok {
			colorName = s.Color
		}
	case by == tasktree.GroupByGroup:
		if g, ok := r.meta.FindGroup(bk.Key); ok {
			colorName = g.Color
		}
	case by == tasktree.GroupByPriority:
		if n, err := strconv.Atoi(bk.Key); err == nil && n > 0 {
			label = strings.Repeat(string(model.PriorityMarker), n)
		}
	}
	return r.style(colorName).Bold(true).Underline(true).Render(fmt.Sprintf("%s (%d)", label, len(bk.Tasks)))
}
